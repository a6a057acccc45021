package models

import "strings"

// Genre holds a game's genre, which is stored either as a single string or
// as a list of strings.
type Genre struct {
	scalar string
	list   []string
	isList bool
	set    bool
}

// ScalarGenre builds a single-string genre.
func ScalarGenre(s string) Genre {
	return Genre{scalar: s, set: true}
}

// ListGenre builds a list genre.
func ListGenre(items ...string) Genre {
	return Genre{list: append([]string{}, items...), isList: true, set: true}
}

// ParseGenre converts a decoded JSON value into a Genre.
// ok is false when v is neither null, a string, nor an array of strings.
func ParseGenre(v any) (g Genre, ok bool) {
	switch t := v.(type) {
	case nil:
		return Genre{}, true
	case string:
		return ScalarGenre(t), true
	case []string:
		return ListGenre(t...), true
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			s, isString := item.(string)
			if !isString {
				return Genre{}, false
			}
			items = append(items, s)
		}
		return ListGenre(items...), true
	default:
		return Genre{}, false
	}
}

// IsSet reports whether the genre was present.
func (g Genre) IsSet() bool { return g.set }

// IsList reports whether the genre was stored as an array.
func (g Genre) IsList() bool { return g.isList }

// Values normalises both representations into a slice.
func (g Genre) Values() []string {
	if !g.set {
		return nil
	}
	if g.isList {
		out := make([]string, len(g.list))
		copy(out, g.list)
		return out
	}
	return []string{g.scalar}
}

// Matches reports whether any genre value equals any candidate, ignoring case
// and surrounding whitespace.
func (g Genre) Matches(candidates ...string) bool {
	for _, v := range g.Values() {
		v = strings.TrimSpace(v)
		for _, c := range candidates {
			if c != "" && strings.EqualFold(v, strings.TrimSpace(c)) {
				return true
			}
		}
	}
	return false
}

// Value returns the genre in its stored JSON shape (nil when unset).
func (g Genre) Value() any {
	switch {
	case !g.set:
		return nil
	case g.isList:
		out := make([]any, len(g.list))
		for i, s := range g.list {
			out[i] = s
		}
		return out
	default:
		return g.scalar
	}
}
