package db

import (
	"gamelib/models"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// LegacySectionID names the single section that flat recommended lists are folded into.
const LegacySectionID = "recommended"

// Section is a recommended section with its games resolved.
type Section struct {
	ID    string
	Games []models.Record
}

// RecommendedSections reads the recommended file fresh and resolves each
// entry through the game index. Accepted shapes:
//
//	{"sections": [{"id": ..., "games": [...]}, ...]}
//	[{"id": ..., "games": [...]}, ...]
//	["gameId", ...]                      (legacy)
//	[{"id": "gameId", "title": ...}, ...] (legacy)
//
// Legacy entries are collected into one section with id "recommended". A game
// entry is either an id (string or number) or an embedded game object; ids that do not resolve
// are dropped, embedded objects unknown to the index are returned as stored.
func (db *Database) RecommendedSections() []Section {
	data, ok := readFile(db.Layout.RecommendedFile())
	if !ok {
		return []Section{}
	}

	root := gjson.ParseBytes(data)
	if root.IsObject() {
		root = root.Get("sections")
	}
	if !root.IsArray() {
		zap.S().Warnw("Recommended file has an unexpected shape", "path", db.Layout.RecommendedFile())
		return []Section{}
	}

	sections := make([]Section, 0)
	var legacy []gjson.Result
	root.ForEach(func(_, entry gjson.Result) bool {
		if entry.IsObject() && entry.Get("games").IsArray() {
			sections = append(sections, Section{
				ID:    entry.Get("id").String(),
				Games: db.resolveEntries(entry.Get("games").Array()),
			})
			return true
		}
		legacy = append(legacy, entry)
		return true
	})
	if len(legacy) > 0 {
		sections = append(sections, Section{ID: LegacySectionID, Games: db.resolveEntries(legacy)})
	}
	return sections
}

func (db *Database) resolveEntries(entries []gjson.Result) []models.Record {
	out := make([]models.Record, 0, len(entries))
	for _, entry := range entries {
		switch {
		case entry.Type == gjson.String, entry.Type == gjson.Number:
			if rec, ok := db.GetGame(entry.String()); ok {
				out = append(out, rec)
			}
		case entry.IsObject():
			id := entry.Get("id").String()
			if rec, ok := db.GetGame(id); ok {
				out = append(out, rec)
				continue
			}
			var embedded models.Record
			if err := json.Unmarshal([]byte(entry.Raw), &embedded); err == nil && id != "" {
				out = append(out, embedded)
			}
		}
	}
	return out
}
