package db

import (
	"path/filepath"
	"testing"
	"time"

	"gamelib/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sectionIDs(sections []Section) []string {
	ids := make([]string, len(sections))
	for i, s := range sections {
		ids[i] = s.ID
	}
	return ids
}

func gameIDs(games []models.Record) []string {
	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.ID()
	}
	return ids
}

func TestRecommendedSections(t *testing.T) {
	testCases := []struct {
		name        string
		content     string
		wantSection []string
		wantGames   [][]string
	}{
		{
			name:        "Sections object",
			content:     `{"sections": [{"id": "new", "games": ["g1", "gone"]}, {"id": "top", "games": ["g2"]}]}`,
			wantSection: []string{"new", "top"},
			wantGames:   [][]string{{"g1"}, {"g2"}},
		},
		{
			name:        "Sections array",
			content:     `[{"id": "new", "games": ["g2", "g1"]}]`,
			wantSection: []string{"new"},
			wantGames:   [][]string{{"g2", "g1"}},
		},
		{
			name:        "Legacy id array",
			content:     `["g2", "missing", "g1"]`,
			wantSection: []string{LegacySectionID},
			wantGames:   [][]string{{"g2", "g1"}},
		},
		{
			name:        "Legacy object array",
			content:     `[{"id": "g1", "title": "stale"}, {"id": "external", "title": "Not in library"}]`,
			wantSection: []string{LegacySectionID},
			wantGames:   [][]string{{"g1", "external"}},
		},
		{
			name:        "Missing file",
			content:     "",
			wantSection: []string{},
			wantGames:   [][]string{},
		},
		{
			name:        "Corrupt file",
			content:     `{"sections": [`,
			wantSection: []string{},
			wantGames:   [][]string{},
		},
		{
			name:        "Unexpected shape",
			content:     `{"sections": "nope"}`,
			wantSection: []string{},
			wantGames:   [][]string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			files := map[string]string{"libraries/library.json": sampleLibrary}
			if tc.content != "" {
				files["recommended.json"] = tc.content
			}
			db, _ := setupTestDB(t, files)

			sections := db.RecommendedSections()
			assert.Equal(t, tc.wantSection, sectionIDs(sections))
			for i, want := range tc.wantGames {
				assert.Equal(t, want, gameIDs(sections[i].Games))
			}
		})
	}
}

func TestRecommendedSections_LegacyObjectsResolveThroughIndex(t *testing.T) {
	db, _ := setupTestDB(t, map[string]string{
		"libraries/library.json": sampleLibrary,
		"recommended.json":       `[{"id": "g1", "title": "stale"}]`,
	})
	sections := db.RecommendedSections()
	require.Len(t, sections, 1)
	assert.Equal(t, "Foo", sections[0].Games[0]["title"], "indexed record wins over the embedded copy")
}

func TestRecommendedSections_NumericIDs(t *testing.T) {
	db, _ := setupTestDB(t, map[string]string{
		"libraries/library.json": `[{"id": 42, "title": "Numeric"}, {"id": "g1", "title": "Foo"}]`,
		"recommended.json":       `{"sections": [{"id": "new", "games": [42, "g1", 7]}]}`,
	})
	sections := db.RecommendedSections()
	require.Len(t, sections, 1)
	assert.Equal(t, []string{"42", "g1"}, gameIDs(sections[0].Games))
}

func TestRecommendedSections_StableAcrossReload(t *testing.T) {
	db, _ := setupTestDB(t, map[string]string{
		"libraries/library.json": sampleLibrary,
		"recommended.json":       `{"sections": [{"id": "a", "games": ["g1", "g2"]}]}`,
	})
	count := func() int {
		n := 0
		for _, s := range db.RecommendedSections() {
			n += len(s.Games)
		}
		return n
	}
	before := count()
	db.ReloadGames()
	assert.Equal(t, before, count())
}

func TestSettings(t *testing.T) {
	t.Run("Missing file returns defaults", func(t *testing.T) {
		db, _ := setupTestDB(t, nil)
		assert.Equal(t, map[string]any{"language": "en"}, db.GetSettings())
	})

	t.Run("Corrupt file returns defaults", func(t *testing.T) {
		db, _ := setupTestDB(t, map[string]string{"settings.json": `{"language": `})
		assert.Equal(t, map[string]any{"language": "en"}, db.GetSettings())
	})

	t.Run("Non-object file returns defaults", func(t *testing.T) {
		db, _ := setupTestDB(t, map[string]string{"settings.json": `["fr"]`})
		assert.Equal(t, map[string]any{"language": "en"}, db.GetSettings())
	})

	t.Run("File values override defaults", func(t *testing.T) {
		db, _ := setupTestDB(t, map[string]string{"settings.json": `{"theme": "dark"}`})
		assert.Equal(t, map[string]any{"language": "en", "theme": "dark"}, db.GetSettings())
	})

	t.Run("Update merges and persists", func(t *testing.T) {
		db, cfg := setupTestDB(t, map[string]string{"settings.json": `{"language": "de", "theme": "dark"}`})
		updated, err := db.UpdateSettings(map[string]any{"language": "fr", "view": "grid"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"language": "fr", "theme": "dark", "view": "grid"}, updated)

		var stored map[string]any
		readJSONFile(t, filepath.Join(cfg.MetadataDir, "settings.json"), &stored)
		assert.Equal(t, updated, stored)
	})
}

func TestTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twitch-tokens.json")
	store, err := NewTokenStore(path, false)
	require.NoError(t, err)

	tok := models.TwitchToken{UserID: "42", Login: "alice", AccessToken: "abc", ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, store.Save(tok))

	got, ok := store.Get("42")
	require.True(t, ok)
	assert.Equal(t, "alice", got.Login)
	assert.False(t, got.CreatedAt.IsZero())

	found, ok := store.FindByAccessToken("abc")
	require.True(t, ok, "expired tokens are still found")
	assert.Equal(t, "42", found.UserID)

	_, ok = store.FindByAccessToken("")
	assert.False(t, ok)
	_, ok = store.FindByAccessToken("other")
	assert.False(t, ok)

	reopened, err := NewTokenStore(path, false)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len(), "tokens persist across restarts")

	require.NoError(t, reopened.Delete("42"))
	require.NoError(t, reopened.Delete("42"), "deleting twice is fine")
	assert.Equal(t, 0, reopened.Len())

	assert.ErrorIs(t, store.Save(models.TwitchToken{AccessToken: "x"}), ErrInvalidID)
}
