package db

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gamelib/models"

	"go.uber.org/zap"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CategoryID derives the id of a category from its normalised title.
func CategoryID(title string) string {
	return "genre_" + whitespaceRun.ReplaceAllString(title, "_")
}

// NormalizeCategoryTitle trims and lowercases a category title.
func NormalizeCategoryTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// ListCategories reads the categories file fresh.
func (db *Database) ListCategories() []models.Record {
	return loadRecordList(db.Layout.CategoriesFile(), "categories").records()
}

// CreateCategory adds a category. The title is stored trimmed and lowercased;
// a title or derived id already present returns ErrCategoryExists. The list
// is kept sorted by title.
func (db *Database) CreateCategory(title string) (models.Record, error) {
	normalized := NormalizeCategoryTitle(title)
	if normalized == "" {
		return nil, ErrInvalidTitle
	}
	id := CategoryID(normalized)

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	list := loadRecordList(db.Layout.CategoriesFile(), "categories")
	for _, existing := range list.records() {
		if strings.EqualFold(strings.TrimSpace(existing.String("title")), normalized) {
			return nil, fmt.Errorf("title %q: %w", normalized, ErrCategoryExists)
		}
		if existing.ID() == id {
			return nil, fmt.Errorf("id %q: %w", id, ErrCategoryExists)
		}
	}

	rec := models.Record{"id": id, "title": normalized}
	list.items = append(list.items, map[string]any(rec))
	sortByTitle(list.items)

	if err := list.save(db.config.EnableBackup, nil); err != nil {
		return nil, fmt.Errorf("failed to save categories: %w", err)
	}
	zap.S().Infow("Category created", "id", id, "title", normalized)
	return rec, nil
}

// sortByTitle orders records by title, case-insensitively; non-record entries go last.
func sortByTitle(items []any) {
	title := func(v any) (string, bool) {
		m, ok := v.(map[string]any)
		if !ok {
			return "", false
		}
		return strings.ToLower(models.Record(m).String("title")), true
	}
	sort.SliceStable(items, func(i, j int) bool {
		ti, okI := title(items[i])
		tj, okJ := title(items[j])
		if okI != okJ {
			return okI
		}
		return ti < tj
	})
}

// DeleteCategory removes a category that no game references. Every library
// file is re-read to check references by id or title, in either genre form.
func (db *Database) DeleteCategory(id string) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	list := loadRecordList(db.Layout.CategoriesFile(), "categories")
	idx, rec := list.find(id)
	if idx < 0 {
		return fmt.Errorf("category %q: %w", id, ErrNotFound)
	}
	title := rec.String("title")

	for _, libraryID := range db.libraryIDs() {
		for _, game := range loadRecordList(db.Layout.LibraryFile(libraryID), "games").records() {
			if game.Genre().Matches(id, title) {
				return fmt.Errorf("category %q used by game %q: %w", id, game.ID(), ErrCategoryInUse)
			}
		}
	}

	list.remove(idx)
	if err := list.save(db.config.EnableBackup, nil); err != nil {
		return fmt.Errorf("failed to save categories: %w", err)
	}
	zap.S().Infow("Category deleted", "id", id)
	return nil
}
