package db

import (
	"crypto/sha256"
	"os"
	"path/filepath"
)

// rememberWrite records the digest of data the store is about to move into path.
func (db *Database) rememberWrite(path string, data []byte) {
	db.ownWrites.Store(filepath.Clean(path), sha256.Sum256(data))
}

// IsOwnWrite reports whether path still holds exactly what the store last
// wrote to it, in which case the index already reflects its content.
func (db *Database) IsOwnWrite(path string) bool {
	want, ok := db.ownWrites.Load(filepath.Clean(path))
	if !ok {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return sha256.Sum256(data) == want.([sha256.Size]byte)
}
