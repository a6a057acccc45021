package db

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gamelib/models"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Simple regex to check if a string looks like a number literal (integer or float)
var isNumberLiteral = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// --- Filter Structures ---

// FilterCondition represents a single condition like "path operator value".
type FilterCondition struct {
	Path          string     // gjson path into the game record, e.g. "genre" or "title"
	Operator      string     // base operator, without the -insensitive suffix
	ParsedValue   any        // string, float64, bool or nil
	ValueType     gjson.Type // the type determined during parsing
	IsInsensitive bool
	Original      string
}

// LogicalOperator represents "and" or "or".
type LogicalOperator string

const (
	LogicAnd LogicalOperator = "and"
	LogicOr  LogicalOperator = "or"
)

// GameFilter holds the sequence of conditions and logical operators.
// Logic[i] applies between Conditions[i] and Conditions[i+1]; evaluation is left to right.
type GameFilter struct {
	Conditions []FilterCondition
	Logic      []LogicalOperator
}

var validOperators = map[string]bool{
	"equals": true, "notequals": true,
	"greaterthan": true, "lessthan": true,
	"greaterthanorequals": true, "lessthanorequals": true,
	"contains": true, "startswith": true, "endswith": true,
}

var insensitiveOperators = map[string]bool{
	"equals": true, "notequals": true, "contains": true, "startswith": true, "endswith": true,
}

// ParseGameFilter parses the filter parts of a library request, e.g.
// ["genre contains-insensitive rpg", "and", "year greaterthan 2000"].
// An empty input returns a nil filter, which matches everything.
func ParseGameFilter(parts []string) (*GameFilter, error) {
	if len(parts) == 0 {
		return nil, nil
	}

	filter := &GameFilter{}
	expectingCondition := true
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("filter part at index %d is empty", i)
		}

		if expectingCondition {
			cond, err := parseSingleCondition(part)
			if err != nil {
				return nil, fmt.Errorf("invalid condition at index %d ('%s'): %w", i, part, err)
			}
			filter.Conditions = append(filter.Conditions, cond)
		} else {
			logic := LogicalOperator(strings.ToLower(part))
			if logic != LogicAnd && logic != LogicOr {
				return nil, fmt.Errorf("invalid logical operator at index %d: '%s', expected 'and' or 'or'", i, part)
			}
			filter.Logic = append(filter.Logic, logic)
		}
		expectingCondition = !expectingCondition
	}

	if expectingCondition {
		return nil, errors.New("filter must end with a condition, not a logical operator")
	}
	return filter, nil
}

// parseSingleCondition parses "path operator value". The value may contain spaces
// and may be double-quoted to force a string.
func parseSingleCondition(conditionStr string) (FilterCondition, error) {
	parts := strings.Fields(conditionStr)
	if len(parts) < 3 {
		return FilterCondition{}, errors.New("condition must have a path, an operator and a value")
	}

	path := parts[0]
	operator := strings.ToLower(parts[1])
	isInsensitive := false
	if base, ok := strings.CutSuffix(operator, "-insensitive"); ok {
		if !insensitiveOperators[base] {
			return FilterCondition{}, fmt.Errorf("invalid base operator for insensitive matching '%s'", base)
		}
		operator = base
		isInsensitive = true
	}
	if !validOperators[operator] {
		return FilterCondition{}, fmt.Errorf("invalid operator '%s'", parts[1])
	}

	// Everything after the operator, original spacing preserved.
	afterPath := strings.TrimSpace(conditionStr[strings.Index(conditionStr, parts[0])+len(parts[0]):])
	rawValue := strings.TrimSpace(afterPath[len(parts[1]):])

	var parsedValue any
	var valueType gjson.Type
	switch {
	case len(rawValue) >= 2 && rawValue[0] == '"' && rawValue[len(rawValue)-1] == '"':
		parsedValue, valueType = rawValue[1:len(rawValue)-1], gjson.String
	case rawValue == "null":
		parsedValue, valueType = nil, gjson.Null
	case isNumberLiteral.MatchString(rawValue):
		f, err := strconv.ParseFloat(rawValue, 64)
		if err != nil {
			return FilterCondition{}, fmt.Errorf("invalid number '%s'", rawValue)
		}
		parsedValue, valueType = f, gjson.Number
	case strings.EqualFold(rawValue, "true"):
		parsedValue, valueType = true, gjson.True
	case strings.EqualFold(rawValue, "false"):
		parsedValue, valueType = false, gjson.False
	default:
		parsedValue, valueType = rawValue, gjson.String
	}

	switch operator {
	case "greaterthan", "lessthan", "greaterthanorequals", "lessthanorequals":
		if valueType != gjson.Number {
			return FilterCondition{}, fmt.Errorf("operator '%s' needs a numeric value", operator)
		}
	case "startswith", "endswith":
		if valueType != gjson.String {
			return FilterCondition{}, fmt.Errorf("operator '%s' needs a string value", operator)
		}
	}

	return FilterCondition{
		Path:          path,
		Operator:      operator,
		ParsedValue:   parsedValue,
		ValueType:     valueType,
		IsInsensitive: isInsensitive,
		Original:      conditionStr,
	}, nil
}

// --- Filter Evaluation ---

// Matches reports whether rec satisfies the filter. A nil filter matches every record.
func (f *GameFilter) Matches(rec models.Record) bool {
	if f == nil || len(f.Conditions) == 0 {
		return true
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		zap.S().Debugw("Could not encode game for filtering", "id", rec.ID(), "error", err)
		return false
	}
	doc := string(raw)

	result := evaluateCondition(doc, f.Conditions[0])
	for i, logic := range f.Logic {
		next := evaluateCondition(doc, f.Conditions[i+1])
		switch logic {
		case LogicAnd:
			result = result && next
		case LogicOr:
			result = result || next
		}
	}
	return result
}

// evaluateCondition checks one condition. A path missing from the record never
// matches; neither does a comparison between mismatched types, except notequals.
func evaluateCondition(doc string, cond FilterCondition) bool {
	target := gjson.Get(doc, cond.Path)
	if !target.Exists() {
		return false
	}

	if target.IsArray() {
		if cond.Operator != "contains" {
			return cond.Operator == "notequals"
		}
		found := false
		target.ForEach(func(_, element gjson.Result) bool {
			found = scalarEquals(element, cond)
			return !found
		})
		return found
	}

	switch cond.Operator {
	case "equals":
		return scalarEquals(target, cond)
	case "notequals":
		return !scalarEquals(target, cond)
	}

	switch target.Type {
	case gjson.String:
		want, ok := cond.ParsedValue.(string)
		if !ok {
			return false
		}
		have := target.String()
		if cond.IsInsensitive {
			have, want = strings.ToLower(have), strings.ToLower(want)
		}
		switch cond.Operator {
		case "contains":
			return strings.Contains(have, want)
		case "startswith":
			return strings.HasPrefix(have, want)
		case "endswith":
			return strings.HasSuffix(have, want)
		}
	case gjson.Number:
		want, ok := cond.ParsedValue.(float64)
		if !ok {
			return false
		}
		have := target.Float()
		switch cond.Operator {
		case "greaterthan":
			return have > want
		case "lessthan":
			return have < want
		case "greaterthanorequals":
			return have >= want
		case "lessthanorequals":
			return have <= want
		}
	}
	return false
}

func scalarEquals(value gjson.Result, cond FilterCondition) bool {
	switch value.Type {
	case gjson.String:
		want, ok := cond.ParsedValue.(string)
		if !ok {
			return false
		}
		if cond.IsInsensitive {
			return strings.EqualFold(value.String(), want)
		}
		return value.String() == want
	case gjson.Number:
		want, ok := cond.ParsedValue.(float64)
		return ok && value.Float() == want
	case gjson.True, gjson.False:
		want, ok := cond.ParsedValue.(bool)
		return ok && value.Bool() == want
	case gjson.Null:
		return cond.ValueType == gjson.Null
	}
	return false
}

// --- Filtering and Sorting ---

// FilterGames returns the records matching filter, preserving order.
func FilterGames(games []models.Record, filter *GameFilter) []models.Record {
	if filter == nil {
		return games
	}
	out := make([]models.Record, 0, len(games))
	for _, g := range games {
		if filter.Matches(g) {
			out = append(out, g)
		}
	}
	return out
}

// SortGames orders games in place by title, year or stars. An empty sortBy
// keeps file order. Records missing the sort key always sort last.
func SortGames(games []models.Record, sortBy, order string) error {
	desc := false
	switch strings.ToLower(order) {
	case "", "asc":
	case "desc":
		desc = true
	default:
		return fmt.Errorf("invalid order value: '%s', expected 'asc' or 'desc'", order)
	}

	var key func(models.Record) (any, bool)
	switch strings.ToLower(sortBy) {
	case "":
		return nil
	case "title":
		key = func(r models.Record) (any, bool) {
			s, ok := r["title"].(string)
			return strings.ToLower(s), ok
		}
	case "year", "stars":
		field := strings.ToLower(sortBy)
		key = func(r models.Record) (any, bool) {
			f, ok := r[field].(float64)
			return f, ok
		}
	default:
		return fmt.Errorf("invalid sort_by value: '%s', expected 'title', 'year' or 'stars'", sortBy)
	}

	sort.SliceStable(games, func(i, j int) bool {
		ki, okI := key(games[i])
		kj, okJ := key(games[j])
		if okI != okJ {
			return okI
		}
		if !okI {
			return false
		}
		if desc {
			return lessValue(kj, ki)
		}
		return lessValue(ki, kj)
	})
	return nil
}

func lessValue(a, b any) bool {
	switch av := a.(type) {
	case string:
		return av < b.(string)
	case float64:
		return av < b.(float64)
	}
	return false
}
