package db

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gamelib/config"
	"gamelib/models"

	"go.uber.org/zap"
)

// Database is the metadata store. It owns the in-memory game index (rebuilt
// from the library files on load and reload) and the collections cache;
// every other resource is read fresh from disk on each call.
type Database struct {
	config *config.Config
	Layout Layout

	mu          sync.RWMutex
	games       map[string]models.Record // id -> record, across all libraries
	gameSource  map[string]string        // id -> library id the record was loaded from
	libraries   map[string][]string      // library id -> game ids in file order
	collections []models.Record

	// writeMu serialises read-modify-write cycles on metadata files so two
	// edits in this process never interleave.
	writeMu sync.Mutex

	// ownWrites maps library and collections paths to the digest of their last save.
	ownWrites sync.Map

	Tokens *TokenStore
}

// NewDatabase creates the store and performs the initial load. Missing or
// corrupt files never fail startup; they load as empty.
func NewDatabase(cfg *config.Config) (*Database, error) {
	db := &Database{
		config: cfg,
		Layout: Layout{MetadataDir: cfg.MetadataDir, ContentDir: cfg.ContentDir},
	}

	zap.S().Infow("Initializing metadata store", "metadata_dir", cfg.MetadataDir, "content_dir", cfg.ContentDir)
	count := db.ReloadGames()
	db.mu.RLock()
	collections := len(db.collections)
	db.mu.RUnlock()
	zap.S().Infow("Metadata loaded", "games", count, "collections", collections)

	tokens, err := NewTokenStore(db.Layout.TokensFile(), cfg.EnableBackup)
	if err != nil {
		return nil, err
	}
	db.Tokens = tokens
	return db, nil
}

// ReloadGames rebuilds the game index from every library file and refreshes
// the collections cache. It returns the number of indexed games.
func (db *Database) ReloadGames() int {
	games := make(map[string]models.Record)
	sources := make(map[string]string)
	libraries := make(map[string][]string)

	for _, libraryID := range db.libraryIDs() {
		ids := make([]string, 0)
		for _, rec := range loadRecordList(db.Layout.LibraryFile(libraryID), "games").records() {
			id := rec.ID()
			if id == "" {
				continue
			}
			if prev, dup := sources[id]; dup {
				zap.S().Warnw("Duplicate game id across libraries, keeping the first", "id", id, "library", prev, "ignored_library", libraryID)
				continue
			}
			games[id] = rec
			sources[id] = libraryID
			ids = append(ids, id)
		}
		libraries[libraryID] = ids
	}

	db.mu.Lock()
	db.games = games
	db.gameSource = sources
	db.libraries = libraries
	db.mu.Unlock()
	db.ReloadCollections()

	zap.S().Debugw("Game index rebuilt", "games", len(games), "libraries", len(libraries))
	return len(games)
}

// libraryIDs lists the library files present on disk, sorted by name.
func (db *Database) libraryIDs() []string {
	entries, err := os.ReadDir(db.Layout.LibrariesDir())
	if err != nil {
		if !os.IsNotExist(err) {
			zap.S().Errorw("Failed to list library directory", "path", db.Layout.LibrariesDir(), "error", err)
		}
		return nil
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids
}

// GameCount returns the number of games in the index.
func (db *Database) GameCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.games)
}

// GetGame returns a copy of the indexed record for id.
func (db *Database) GetGame(id string) (models.Record, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	rec, ok := db.games[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// LibraryGames re-reads one library file from disk, refreshes its games in
// the index and returns them in file order. An absent library is empty.
// When the file no longer lists a game it owned in the index, the whole
// index is rebuilt so a duplicate of that id in another library takes over.
func (db *Database) LibraryGames(libraryID string) ([]models.Record, error) {
	if !SafeID(libraryID) {
		return nil, ErrInvalidID
	}
	records := loadRecordList(db.Layout.LibraryFile(libraryID), "games").records()

	db.mu.Lock()
	dropped := db.replaceLibraryLocked(libraryID, records)
	db.mu.Unlock()
	if dropped > 0 {
		zap.S().Debugw("Games left a library, rebuilding index", "library", libraryID, "dropped", dropped)
		db.ReloadGames()
	}

	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]models.Record, 0, len(db.libraries[libraryID]))
	for _, id := range db.libraries[libraryID] {
		out = append(out, db.games[id].Clone())
	}
	return out, nil
}

// replaceLibraryLocked swaps one library's entries in the index and returns
// how many ids it owned that the new records no longer contain. db.mu must be held.
func (db *Database) replaceLibraryLocked(libraryID string, records []models.Record) int {
	if db.games == nil {
		db.games = make(map[string]models.Record)
		db.gameSource = make(map[string]string)
		db.libraries = make(map[string][]string)
	}
	evicted := make(map[string]struct{})
	for _, id := range db.libraries[libraryID] {
		if db.gameSource[id] == libraryID {
			delete(db.games, id)
			delete(db.gameSource, id)
			evicted[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		id := rec.ID()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if src, taken := db.gameSource[id]; taken && src != libraryID {
			continue
		}
		seen[id] = struct{}{}
		db.games[id] = rec
		db.gameSource[id] = libraryID
		ids = append(ids, id)
		delete(evicted, id)
	}
	db.libraries[libraryID] = ids
	return len(evicted)
}

// setGameLocked replaces a single indexed record. db.mu must be held.
func (db *Database) setGameLocked(libraryID string, rec models.Record) {
	if db.games == nil {
		db.games = make(map[string]models.Record)
		db.gameSource = make(map[string]string)
		db.libraries = make(map[string][]string)
	}
	id := rec.ID()
	if _, known := db.games[id]; !known {
		db.libraries[libraryID] = append(db.libraries[libraryID], id)
	}
	db.games[id] = rec
	db.gameSource[id] = libraryID
}

// resolveGames maps ids to indexed records, dropping ids that do not resolve.
func (db *Database) resolveGames(ids []string) []models.Record {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]models.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := db.games[id]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Close waits for an in-flight write to finish.
func (db *Database) Close() error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	zap.S().Info("Metadata store closed")
	return nil
}
