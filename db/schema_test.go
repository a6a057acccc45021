package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMetadataFile(t *testing.T) {
	testCases := []struct {
		name    string
		kind    string
		content string
		valid   bool
	}{
		{"Library array", KindLibrary, `[{"id": "g1", "genre": ["a"], "year": null}]`, true},
		{"Library object", KindLibrary, `{"games": [{"id": "g1", "genre": "genre_action"}]}`, true},
		{"Library game without id", KindLibrary, `[{"title": "x"}]`, false},
		{"Library bad genre", KindLibrary, `[{"id": "g1", "genre": 3}]`, false},
		{"Categories", KindCategories, sampleCategories, true},
		{"Category id without prefix", KindCategories, `[{"id": "action", "title": "action"}]`, false},
		{"Collections", KindCollections, sampleCollections, true},
		{"Collection games not strings", KindCollections, `[{"id": "c1", "games": [1]}]`, false},
		{"Recommended sections", KindRecommended, `{"sections": [{"id": "a", "games": ["g1", {"id": "g2"}]}]}`, true},
		{"Recommended legacy ids", KindRecommended, `["g1", "g2"]`, true},
		{"Recommended section without games", KindRecommended, `{"sections": [{"id": "a"}]}`, false},
		{"Settings", KindSettings, `{"language": "de", "theme": "dark"}`, true},
		{"Settings not an object", KindSettings, `["de"]`, false},
		{"Not JSON", KindSettings, `{"language": `, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "file.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			res, err := ValidateMetadataFile(path, tc.kind)
			require.NoError(t, err)
			assert.Equal(t, tc.valid, res.Valid(), "errors: %v", res.Errors)
			assert.False(t, res.Missing)
		})
	}

	t.Run("Missing file", func(t *testing.T) {
		res, err := ValidateMetadataFile(filepath.Join(t.TempDir(), "nope.json"), KindLibrary)
		require.NoError(t, err)
		assert.True(t, res.Missing)
		assert.False(t, res.Valid())
	})

	t.Run("Unknown kind", func(t *testing.T) {
		_, err := ValidateMetadataFile("x.json", "weird")
		assert.ErrorContains(t, err, `unknown metadata kind "weird"`)
	})
}

func TestValidateMetadataDir(t *testing.T) {
	cfg := createTestConfig(t)
	writeMetadata(t, cfg, map[string]string{
		"libraries/a.json": sampleLibrary,
		"libraries/b.json": `[{"title": "no id"}]`,
		"categories.json":  sampleCategories,
	})

	results, err := ValidateMetadataDir(Layout{MetadataDir: cfg.MetadataDir, ContentDir: cfg.ContentDir})
	require.NoError(t, err)
	require.Len(t, results, 6)

	byName := make(map[string]ValidationResult)
	for _, r := range results {
		byName[filepath.Base(r.Path)] = r
	}
	assert.True(t, byName["b.json"].Kind == KindLibrary && !byName["b.json"].Valid())
	assert.True(t, byName["categories.json"].Valid())
	assert.True(t, byName["settings.json"].Missing)
	assert.True(t, byName["collections.json"].Missing)
}
