package db

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Metadata file kinds understood by ValidateMetadataFile.
const (
	KindLibrary     = "library"
	KindCategories  = "categories"
	KindCollections = "collections"
	KindRecommended = "recommended"
	KindSettings    = "settings"
)

var (
	schemasOnce sync.Once
	schemas     map[string]*gojsonschema.Schema
	schemasErr  error
)

func loadSchemas() (map[string]*gojsonschema.Schema, error) {
	schemasOnce.Do(func() {
		schemas = make(map[string]*gojsonschema.Schema)
		for _, kind := range []string{KindLibrary, KindCategories, KindCollections, KindRecommended, KindSettings} {
			data, err := schemaFS.ReadFile("schemas/" + kind + ".schema.json")
			if err != nil {
				schemasErr = fmt.Errorf("schema %s not available: %w", kind, err)
				return
			}
			schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
			if err != nil {
				schemasErr = fmt.Errorf("schema %s is invalid: %w", kind, err)
				return
			}
			schemas[kind] = schema
		}
	})
	return schemas, schemasErr
}

// ValidationResult describes one checked metadata file.
type ValidationResult struct {
	Path    string
	Kind    string
	Missing bool
	Errors  []string
}

// Valid reports whether the file was present and matched its schema.
func (r ValidationResult) Valid() bool {
	return !r.Missing && len(r.Errors) == 0
}

// maxReportedErrors caps the schema errors kept per file.
const maxReportedErrors = 10

// ValidateMetadataFile checks path against the schema for kind. A missing
// file is reported, not treated as an error.
func ValidateMetadataFile(path, kind string) (ValidationResult, error) {
	result := ValidationResult{Path: path, Kind: kind}

	all, err := loadSchemas()
	if err != nil {
		return result, err
	}
	schema, ok := all[kind]
	if !ok {
		return result, fmt.Errorf("unknown metadata kind %q", kind)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Missing = true
			return result, nil
		}
		return result, fmt.Errorf("failed to read %s: %w", path, err)
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		// Not parseable as JSON at all.
		result.Errors = []string{err.Error()}
		return result, nil
	}
	for i, e := range res.Errors() {
		if i >= maxReportedErrors {
			result.Errors = append(result.Errors, fmt.Sprintf("... and %d more", len(res.Errors())-maxReportedErrors))
			break
		}
		result.Errors = append(result.Errors, e.String())
	}
	return result, nil
}

// ValidateMetadataDir checks every metadata file of the layout: all library
// files plus the categories, collections, recommended and settings files.
func ValidateMetadataDir(layout Layout) ([]ValidationResult, error) {
	db := &Database{Layout: layout}
	targets := make([][2]string, 0)
	for _, libraryID := range db.libraryIDs() {
		targets = append(targets, [2]string{layout.LibraryFile(libraryID), KindLibrary})
	}
	targets = append(targets,
		[2]string{layout.CategoriesFile(), KindCategories},
		[2]string{layout.CollectionsFile(), KindCollections},
		[2]string{layout.RecommendedFile(), KindRecommended},
		[2]string{layout.SettingsFile(), KindSettings},
	)

	results := make([]ValidationResult, 0, len(targets))
	for _, t := range targets {
		res, err := ValidateMetadataFile(t[0], t[1])
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
