package db

import (
	"path/filepath"
	"strings"
)

// Layout resolves the on-disk locations of metadata files and per-entity content.
type Layout struct {
	MetadataDir string
	ContentDir  string
}

func (l Layout) LibrariesDir() string { return filepath.Join(l.MetadataDir, "libraries") }

func (l Layout) LibraryFile(libraryID string) string {
	return filepath.Join(l.LibrariesDir(), libraryID+".json")
}

func (l Layout) RecommendedFile() string { return filepath.Join(l.MetadataDir, "recommended.json") }
func (l Layout) CategoriesFile() string  { return filepath.Join(l.MetadataDir, "categories.json") }
func (l Layout) CollectionsFile() string { return filepath.Join(l.MetadataDir, "collections.json") }
func (l Layout) SettingsFile() string    { return filepath.Join(l.MetadataDir, "settings.json") }
func (l Layout) TokensFile() string      { return filepath.Join(l.MetadataDir, "twitch-tokens.json") }

// GameDir is the content directory holding a game's cover, background and launch scripts.
func (l Layout) GameDir(gameID string) string {
	return filepath.Join(l.ContentDir, "games", gameID)
}

func (l Layout) CategoryDir(categoryID string) string {
	return filepath.Join(l.ContentDir, "categories", categoryID)
}

func (l Layout) CollectionDir(collectionID string) string {
	return filepath.Join(l.ContentDir, "collections", collectionID)
}

// ScriptPath returns the launch script for a game and command extension ("sh" or "bat").
func (l Layout) ScriptPath(gameID, ext string) string {
	return filepath.Join(l.GameDir(gameID), "script."+ext)
}

// SafeID reports whether id can be used as a single path element.
func SafeID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return false
	}
	return !strings.ContainsRune(id, 0)
}
