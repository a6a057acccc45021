package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gamelib/models"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// readFile reads a metadata file. Missing files, unreadable files and
// invalid JSON are logged and reported as !ok; callers degrade to an empty value.
func readFile(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			zap.S().Debugw("Metadata file not found, using empty value", "path", path)
		} else {
			zap.S().Errorw("Failed to read metadata file, using empty value", "path", path, "error", err)
		}
		return nil, false
	}
	if !gjson.ValidBytes(data) {
		zap.S().Errorw("Metadata file is not valid JSON, using empty value", "path", path)
		return nil, false
	}
	return data, true
}

// recordList is a JSON file holding a list of records, stored either as a bare
// array or as an object wrapping the array under key. The shape and any other
// keys of the wrapping object are written back unchanged.
type recordList struct {
	path     string
	key      string
	wrapped  bool
	envelope map[string]any
	items    []any
}

// loadRecordList reads path fail-open. A missing or corrupt file yields an
// empty bare-array list.
func loadRecordList(path, key string) *recordList {
	list := &recordList{path: path, key: key}
	data, ok := readFile(path)
	if !ok {
		return list
	}

	root := gjson.ParseBytes(data)
	switch {
	case root.IsArray():
		if err := json.Unmarshal(data, &list.items); err != nil {
			zap.S().Errorw("Failed to decode metadata list", "path", path, "error", err)
			list.items = nil
		}
	case root.IsObject() && root.Get(key).IsArray():
		if err := json.Unmarshal(data, &list.envelope); err != nil {
			zap.S().Errorw("Failed to decode metadata list", "path", path, "error", err)
			list.envelope = nil
			return list
		}
		list.wrapped = true
		list.items, _ = list.envelope[key].([]any)
	default:
		zap.S().Warnw("Metadata file has an unexpected shape, using empty list", "path", path, "expected_key", key)
	}
	return list
}

// records returns the object entries of the list. The returned records share
// storage with the list, so edits to them are written by save.
func (l *recordList) records() []models.Record {
	out := make([]models.Record, 0, len(l.items))
	for _, item := range l.items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, models.Record(m))
		}
	}
	return out
}

// find returns the position and record with the given id, or -1.
func (l *recordList) find(id string) (int, models.Record) {
	for i, item := range l.items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if rec := models.Record(m); rec.ID() == id {
			return i, rec
		}
	}
	return -1, nil
}

func (l *recordList) remove(i int) {
	l.items = append(l.items[:i], l.items[i+1:]...)
}

// save persists the list in its original shape. saved, when non-nil, sees the
// encoded bytes before they replace the file.
func (l *recordList) save(backup bool, saved func(path string, data []byte)) error {
	if l.items == nil {
		l.items = []any{}
	}
	var v any = l.items
	if l.wrapped {
		l.envelope[l.key] = l.items
		v = l.envelope
	}
	return writeJSONFile(l.path, v, backup, 0o644, saved)
}

// writeJSON writes v pretty-printed to path atomically: the data goes to a
// temporary file which is renamed over the target. With backup, the previous
// file is kept as <path>.bak.
func writeJSON(path string, v any, backup bool) error {
	return writeJSONMode(path, v, backup, 0o644)
}

func writeJSONMode(path string, v any, backup bool, mode os.FileMode) error {
	return writeJSONFile(path, v, backup, mode, nil)
}

func writeJSONFile(path string, v any, backup bool, mode os.FileMode, saved func(path string, data []byte)) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	jsonData = append(jsonData, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tempFilePath := path + ".tmp"
	if err := os.WriteFile(tempFilePath, jsonData, mode); err != nil {
		return fmt.Errorf("failed to write temporary file %s: %w", tempFilePath, err)
	}

	if backup {
		backupFilePath := path + ".bak"
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, backupFilePath); err != nil {
				zap.S().Warnw("Failed to create backup, proceeding with save", "path", path, "backup", backupFilePath, "error", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			zap.S().Warnw("Error checking metadata file before backup", "path", path, "error", err)
		}
	}

	if saved != nil {
		saved(path, jsonData)
	}
	if err := os.Rename(tempFilePath, path); err != nil {
		_ = os.Remove(tempFilePath)
		return fmt.Errorf("failed to rename %s to %s: %w", tempFilePath, path, err)
	}

	zap.S().Debugw("Saved metadata file", "path", path, "bytes", len(jsonData))
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// writeFileAtomic stores raw bytes with the given mode using the same temp+rename scheme.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	// WriteFile applies the umask; scripts need the exact mode to be executable.
	if err := os.Chmod(tmp, mode); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
