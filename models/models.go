package models

import (
	"fmt"
	"strconv"
	"time"
)

// Record is a metadata document exactly as it is stored on disk.
// Games, collections and categories are kept as raw records so that keys this
// server does not know about survive a read-modify-write cycle untouched.
type Record map[string]any

// ID returns the record identifier as a string ("" when absent).
func (r Record) ID() string {
	return r.String("id")
}

// String returns the value stored under key if it is a string.
// Numbers are formatted so that numeric ids still resolve.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	default:
		if s, ok := scalarString(v); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
}

// Strings returns the value stored under key as a string slice. Numeric
// elements are formatted like String; other non-string elements are skipped.
func (r Record) Strings(key string) []string {
	raw, ok := r[key].([]any)
	if !ok {
		if typed, ok := r[key].([]string); ok {
			return append([]string(nil), typed...)
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := scalarString(v); ok {
			out = append(out, s)
		}
	}
	return out
}

// scalarString formats strings and numbers; whole numbers lose their fraction.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

// Has reports whether key is present, even when its value is null.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Genre returns the record's genre field as a tagged union.
func (r Record) Genre() Genre {
	g, _ := ParseGenre(r["genre"])
	return g
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Category is the API view of a category record.
type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Cover string `json:"cover"`
}

// Collection is the API view of a collection record.
type Collection struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Cover   string   `json:"cover"`
	Games   []string `json:"games"`
}

// Game is the API view of a game record. It is a map so that nullable
// fields serialize as null while command can be left out entirely.
type Game map[string]any

// RecommendedSection is one grouping of recommended games.
type RecommendedSection struct {
	ID    string `json:"id"`
	Games []Game `json:"games"`
}

// TwitchToken is a persisted OAuth token for a Twitch user.
type TwitchToken struct {
	UserID       string    `json:"user_id"`
	Login        string    `json:"login,omitempty"`
	DisplayName  string    `json:"display_name,omitempty"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expired reports whether the token's expiry has passed. A zero expiry never expires.
func (t TwitchToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
