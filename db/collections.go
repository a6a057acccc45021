package db

import (
	"fmt"

	"gamelib/models"

	"go.uber.org/zap"
)

// CollectionEditableFields are the keys UpdateCollection accepts.
var CollectionEditableFields = []string{"title", "summary"}

// ListCollections returns copies of the cached collections.
func (db *Database) ListCollections() []models.Record {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]models.Record, len(db.collections))
	for i, c := range db.collections {
		out[i] = c.Clone()
	}
	return out
}

// GetCollection returns a copy of a cached collection.
func (db *Database) GetCollection(id string) (models.Record, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, c := range db.collections {
		if c.ID() == id {
			return c.Clone(), true
		}
	}
	return nil, false
}

// CollectionGames resolves a collection's game ids through the game index,
// in collection order. Ids that no longer resolve are dropped.
func (db *Database) CollectionGames(id string) ([]models.Record, error) {
	coll, ok := db.GetCollection(id)
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", id, ErrNotFound)
	}
	return db.resolveGames(coll.Strings("games")), nil
}

// UpdateCollection merges the whitelisted fields of patch into the stored collection.
func (db *Database) UpdateCollection(id string, patch map[string]any) (models.Record, error) {
	fields := pickFields(patch, CollectionEditableFields)
	if len(fields) == 0 {
		return nil, ErrNoValidFields
	}
	return db.modifyCollection(id, func(rec models.Record) {
		for k, v := range fields {
			rec[k] = v
		}
	})
}

// ReorderCollection replaces the collection's games array with ids verbatim.
func (db *Database) ReorderCollection(id string, ids []string) (models.Record, error) {
	if ids == nil {
		return nil, ErrInvalidGameOrder
	}
	games := make([]any, len(ids))
	for i, g := range ids {
		games[i] = g
	}
	return db.modifyCollection(id, func(rec models.Record) {
		rec["games"] = games
	})
}

// modifyCollection applies fn to the freshly read collection, persists the
// file and refreshes the cache from what was written.
func (db *Database) modifyCollection(id string, fn func(models.Record)) (models.Record, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	list := loadRecordList(db.Layout.CollectionsFile(), "collections")
	idx, rec := list.find(id)
	if idx < 0 {
		return nil, fmt.Errorf("collection %q: %w", id, ErrNotFound)
	}
	fn(rec)

	if err := list.save(db.config.EnableBackup, db.rememberWrite); err != nil {
		return nil, fmt.Errorf("failed to save collections: %w", err)
	}

	db.mu.Lock()
	db.collections = list.records()
	db.mu.Unlock()

	zap.S().Infow("Collection updated", "id", id)
	return rec.Clone(), nil
}

// ReloadCollections refreshes the collections cache from disk.
func (db *Database) ReloadCollections() int {
	collections := loadRecordList(db.Layout.CollectionsFile(), "collections").records()
	db.mu.Lock()
	db.collections = collections
	db.mu.Unlock()
	return len(collections)
}
