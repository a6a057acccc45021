package db

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gamelib/models"

	"go.uber.org/zap"
)

// GameEditableFields are the keys UpdateGame accepts; everything else in a patch is ignored.
var GameEditableFields = []string{"title", "summary", "year", "month", "day", "stars", "genre", "command"}

// ScriptExtensions are the launch script types a game may carry.
var ScriptExtensions = []string{"sh", "bat"}

// NormalizeCommand lowercases a command tag and strips one leading dot.
// It returns ErrInvalidCommand unless the result is a known script extension.
func NormalizeCommand(command string) (string, error) {
	ext := strings.ToLower(strings.TrimSpace(command))
	ext = strings.TrimPrefix(ext, ".")
	for _, known := range ScriptExtensions {
		if ext == known {
			return ext, nil
		}
	}
	return "", ErrInvalidCommand
}

// pickFields returns the entries of patch whose keys are in allowed.
func pickFields(patch map[string]any, allowed []string) map[string]any {
	out := make(map[string]any)
	for _, key := range allowed {
		if v, ok := patch[key]; ok {
			out[key] = v
		}
	}
	return out
}

// gameChange is a validated game patch.
type gameChange struct {
	set           map[string]any
	unlinkCommand bool
}

func validateGamePatch(patch map[string]any) (gameChange, error) {
	fields := pickFields(patch, GameEditableFields)
	if len(fields) == 0 {
		return gameChange{}, ErrNoValidFields
	}

	change := gameChange{set: make(map[string]any, len(fields))}
	for key, value := range fields {
		switch key {
		case "command":
			s, isString := value.(string)
			if value == nil || (isString && strings.TrimSpace(s) == "") {
				change.unlinkCommand = true
				continue
			}
			if !isString {
				return gameChange{}, ErrInvalidCommand
			}
			ext, err := NormalizeCommand(s)
			if err != nil {
				return gameChange{}, err
			}
			change.set[key] = ext
		case "genre":
			g, ok := models.ParseGenre(value)
			if !ok {
				return gameChange{}, ErrInvalidGenre
			}
			change.set[key] = g.Value()
		default:
			change.set[key] = value
		}
	}
	return change, nil
}

// UpdateGame merges the whitelisted fields of patch into the game's stored
// record. The library file is re-read from disk before merging so unrelated
// changes made by other writers survive. A null or empty command removes the
// command key and deletes the game's launch scripts.
func (db *Database) UpdateGame(id string, patch map[string]any) (models.Record, error) {
	change, err := validateGamePatch(patch)
	if err != nil {
		return nil, err
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	libraryID, list, rec, err := db.locateGame(id)
	if err != nil {
		return nil, err
	}

	for key, value := range change.set {
		rec[key] = value
	}
	if change.unlinkCommand {
		db.removeScripts(id)
		delete(rec, "command")
	}

	if err := list.save(db.config.EnableBackup, db.rememberWrite); err != nil {
		return nil, fmt.Errorf("failed to save library %s: %w", libraryID, err)
	}

	db.mu.Lock()
	db.setGameLocked(libraryID, rec)
	db.mu.Unlock()

	zap.S().Infow("Game updated", "id", id, "library", libraryID, "fields", len(change.set), "unlinked_command", change.unlinkCommand)
	return rec.Clone(), nil
}

// locateGame reads the library holding id fresh from disk. The indexed source
// library is tried first; otherwise every library file is searched.
func (db *Database) locateGame(id string) (string, *recordList, models.Record, error) {
	db.mu.RLock()
	source, indexed := db.gameSource[id]
	db.mu.RUnlock()

	candidates := db.libraryIDs()
	if indexed {
		candidates = append([]string{source}, candidates...)
	}
	for _, libraryID := range candidates {
		list := loadRecordList(db.Layout.LibraryFile(libraryID), "games")
		if _, rec := list.find(id); rec != nil {
			return libraryID, list, rec, nil
		}
	}
	return "", nil, nil, fmt.Errorf("game %q: %w", id, ErrNotFound)
}

// removeScripts deletes every launch script of a game. Failures are logged and ignored.
func (db *Database) removeScripts(id string) {
	if !SafeID(id) {
		return
	}
	for _, ext := range ScriptExtensions {
		path := db.Layout.ScriptPath(id, ext)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			zap.S().Warnw("Failed to remove launch script", "path", path, "error", err)
		}
	}
}

// ReloadGame rebuilds the index from disk and returns the refreshed record.
func (db *Database) ReloadGame(id string) (models.Record, error) {
	db.ReloadGames()
	rec, ok := db.GetGame(id)
	if !ok {
		return nil, fmt.Errorf("game %q: %w", id, ErrNotFound)
	}
	return rec, nil
}

// SetGameExecutable stores contents as the game's launch script for ext,
// removes the script of the other type and points the game's command at ext.
func (db *Database) SetGameExecutable(id, ext string, contents []byte) (models.Record, error) {
	ext, err := NormalizeCommand(ext)
	if err != nil {
		return nil, err
	}
	if !SafeID(id) {
		return nil, ErrInvalidID
	}
	if _, ok := db.GetGame(id); !ok {
		return nil, fmt.Errorf("game %q: %w", id, ErrNotFound)
	}

	mode := os.FileMode(0o644)
	if ext == "sh" {
		mode = 0o755
	}
	if err := writeFileAtomic(db.Layout.ScriptPath(id, ext), contents, mode); err != nil {
		return nil, fmt.Errorf("failed to store script for %s: %w", id, err)
	}
	for _, other := range ScriptExtensions {
		if other == ext {
			continue
		}
		if err := os.Remove(db.Layout.ScriptPath(id, other)); err != nil && !errors.Is(err, os.ErrNotExist) {
			zap.S().Warnw("Failed to remove previous launch script", "id", id, "ext", other, "error", err)
		}
	}

	return db.UpdateGame(id, map[string]any{"command": ext})
}
