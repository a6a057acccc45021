package api

import (
	"net/url"

	"gamelib/models"
)

// Nullable game fields; absent values are returned as null.
var gameNullableFields = []string{"day", "month", "year", "stars", "genre", "criticratings", "userratings"}

func gameCoverURL(id string) string       { return "/covers/" + url.PathEscape(id) }
func categoryCoverURL(id string) string   { return "/category-covers/" + url.PathEscape(id) }
func collectionCoverURL(id string) string { return "/collection-covers/" + url.PathEscape(id) }

// projectGame maps a stored game to its API shape. command is left out when
// the record has none, unlike the other optional fields.
func projectGame(rec models.Record) models.Game {
	id := rec.ID()
	out := models.Game{
		"id":      id,
		"title":   rec.String("title"),
		"summary": rec.String("summary"),
		"cover":   gameCoverURL(id),
	}
	for _, key := range gameNullableFields {
		out[key] = rec[key]
	}
	if cmd, ok := rec["command"]; ok && cmd != nil {
		out["command"] = cmd
	}
	return out
}

func projectGames(recs []models.Record) []models.Game {
	out := make([]models.Game, 0, len(recs))
	for _, rec := range recs {
		out = append(out, projectGame(rec))
	}
	return out
}

func projectCategory(rec models.Record) models.Category {
	return models.Category{
		ID:    rec.ID(),
		Title: rec.String("title"),
		Cover: categoryCoverURL(rec.ID()),
	}
}

func projectCollection(rec models.Record) models.Collection {
	games := rec.Strings("games")
	if games == nil {
		games = []string{}
	}
	return models.Collection{
		ID:      rec.ID(),
		Title:   rec.String("title"),
		Summary: rec.String("summary"),
		Cover:   collectionCoverURL(rec.ID()),
		Games:   games,
	}
}
