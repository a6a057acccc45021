package db

import (
	"testing"

	"gamelib/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// --- Parsing Tests ---

func TestParseSingleCondition(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expectErr   bool
		expected    FilterCondition
		errContains string
	}{
		{
			name:  "Valid: quoted string with spaces",
			input: `title equals "Half Life"`,
			expected: FilterCondition{
				Path: "title", Operator: "equals", ParsedValue: "Half Life", ValueType: gjson.String, Original: `title equals "Half Life"`,
			},
		},
		{
			name:  "Valid: bare string keeps inner spaces",
			input: `title startswith The  Legend`,
			expected: FilterCondition{
				Path: "title", Operator: "startswith", ParsedValue: "The  Legend", ValueType: gjson.String, Original: `title startswith The  Legend`,
			},
		},
		{
			name:  "Valid: numeric value, mixed-case operator",
			input: `year greaterThan 2000`,
			expected: FilterCondition{
				Path: "year", Operator: "greaterthan", ParsedValue: float64(2000), ValueType: gjson.Number, Original: `year greaterThan 2000`,
			},
		},
		{
			name:  "Valid: negative float",
			input: `stars lessthanorequals -1.5`,
			expected: FilterCondition{
				Path: "stars", Operator: "lessthanorequals", ParsedValue: float64(-1.5), ValueType: gjson.Number, Original: `stars lessthanorequals -1.5`,
			},
		},
		{
			name:  "Valid: boolean value",
			input: `favourite equals TRUE`,
			expected: FilterCondition{
				Path: "favourite", Operator: "equals", ParsedValue: true, ValueType: gjson.True, Original: `favourite equals TRUE`,
			},
		},
		{
			name:  "Valid: null value",
			input: `summary equals null`,
			expected: FilterCondition{
				Path: "summary", Operator: "equals", ParsedValue: nil, ValueType: gjson.Null, Original: `summary equals null`,
			},
		},
		{
			name:  "Valid: quoted number stays a string",
			input: `title equals "1942"`,
			expected: FilterCondition{
				Path: "title", Operator: "equals", ParsedValue: "1942", ValueType: gjson.String, Original: `title equals "1942"`,
			},
		},
		{
			name:  "Valid: insensitive operator",
			input: `genre contains-insensitive RPG`,
			expected: FilterCondition{
				Path: "genre", Operator: "contains", ParsedValue: "RPG", ValueType: gjson.String, IsInsensitive: true, Original: `genre contains-insensitive RPG`,
			},
		},
		{
			name:        "Invalid: too few parts",
			input:       `title equals`,
			expectErr:   true,
			errContains: "must have a path, an operator and a value",
		},
		{
			name:        "Invalid: unknown operator",
			input:       `title like foo`,
			expectErr:   true,
			errContains: "invalid operator 'like'",
		},
		{
			name:        "Invalid: insensitive on numeric operator",
			input:       `year greaterthan-insensitive 3`,
			expectErr:   true,
			errContains: "invalid base operator for insensitive matching 'greaterthan'",
		},
		{
			name:        "Invalid: comparison with string",
			input:       `year lessthan soon`,
			expectErr:   true,
			errContains: "needs a numeric value",
		},
		{
			name:        "Invalid: startswith with number",
			input:       `title startswith 12`,
			expectErr:   true,
			errContains: "needs a string value",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := parseSingleCondition(tc.input)
			if tc.expectErr {
				require.Error(t, err, "Expected an error but got none")
				assert.Contains(t, err.Error(), tc.errContains, "Error message mismatch")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result, "Parsed condition mismatch")
		})
	}
}

func TestParseGameFilter(t *testing.T) {
	testCases := []struct {
		name        string
		input       []string
		expectNil   bool
		conditions  int
		logic       []LogicalOperator
		errContains string
	}{
		{name: "Empty input", input: nil, expectNil: true},
		{name: "Single condition", input: []string{"title contains Foo"}, conditions: 1},
		{
			name:       "Mixed logic",
			input:      []string{"year greaterthan 1990", "AND", "genre contains rpg", "or", "stars equals 5"},
			conditions: 3,
			logic:      []LogicalOperator{LogicAnd, LogicOr},
		},
		{name: "Trailing logic", input: []string{"year equals 1", "and"}, errContains: "must end with a condition"},
		{name: "Bad logic", input: []string{"year equals 1", "xor", "year equals 2"}, errContains: "invalid logical operator at index 1"},
		{name: "Empty part", input: []string{"year equals 1", " "}, errContains: "index 1 is empty"},
		{name: "Bad condition", input: []string{"year"}, errContains: "invalid condition at index 0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filter, err := ParseGameFilter(tc.input)
			if tc.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			if tc.expectNil {
				assert.Nil(t, filter)
				return
			}
			require.NotNil(t, filter)
			assert.Len(t, filter.Conditions, tc.conditions)
			assert.Equal(t, tc.logic, filter.Logic)
		})
	}
}

// --- Evaluation Tests ---

var filterGames = []models.Record{
	{"id": "g1", "title": "Foo Quest", "year": float64(1999), "stars": float64(4), "genre": "genre_action", "summary": nil},
	{"id": "g2", "title": "bar tycoon", "year": float64(2010), "genre": []any{"Strategy", "RPG"}, "favourite": true},
	{"id": "g3", "title": "Zed", "stars": float64(2)},
}

func TestGameFilterMatches(t *testing.T) {
	testCases := []struct {
		name     string
		filter   []string
		expected []string
	}{
		{"No filter", nil, []string{"g1", "g2", "g3"}},
		{"String equals is case-sensitive", []string{"title equals zed"}, []string{}},
		{"String equals insensitive", []string{"title equals-insensitive zed"}, []string{"g3"}},
		{"Contains on scalar", []string{"title contains Quest"}, []string{"g1"}},
		{"Contains on array", []string{"genre contains RPG"}, []string{"g2"}},
		{"Contains insensitive on array", []string{"genre contains-insensitive strategy"}, []string{"g2"}},
		{"Equals against array never matches", []string{"genre equals RPG"}, []string{}},
		{"Notequals against array matches", []string{"genre notequals RPG"}, []string{"g1", "g2"}},
		{"Missing path never matches", []string{"year lessthan 3000"}, []string{"g1", "g2"}},
		{"Notequals skips missing path", []string{"favourite notequals false"}, []string{"g2"}},
		{"Boolean equals", []string{"favourite equals true"}, []string{"g2"}},
		{"Null equals", []string{"summary equals null"}, []string{"g1"}},
		{"Number against string never matches", []string{"title equals 5"}, []string{}},
		{"Startswith insensitive", []string{"title startswith-insensitive BAR"}, []string{"g2"}},
		{"Endswith", []string{"title endswith Quest"}, []string{"g1"}},
		{"Greater or equal", []string{"stars greaterthanorequals 2"}, []string{"g1", "g3"}},
		{
			"And",
			[]string{"year greaterthan 1990", "and", "stars equals 4"},
			[]string{"g1"},
		},
		{
			"Or",
			[]string{"title equals Zed", "or", "favourite equals true"},
			[]string{"g2", "g3"},
		},
		{
			"Left to right, no precedence",
			[]string{"title equals Zed", "or", "year equals 1999", "and", "stars equals 4"},
			[]string{"g1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filter, err := ParseGameFilter(tc.filter)
			require.NoError(t, err, "Failed to parse test filter: %v", tc.filter)
			assert.Equal(t, tc.expected, gameIDs(FilterGames(filterGames, filter)))
		})
	}
}

func TestNilFilterMatches(t *testing.T) {
	var f *GameFilter
	assert.True(t, f.Matches(models.Record{"id": "x"}))
}

// --- Sorting Tests ---

func TestSortGames(t *testing.T) {
	testCases := []struct {
		name        string
		sortBy      string
		order       string
		expectedIDs []string
		errContains string
	}{
		{name: "No sort keeps file order", expectedIDs: []string{"g1", "g2", "g3"}},
		{name: "Title ascending, case-insensitive", sortBy: "title", expectedIDs: []string{"g2", "g1", "g3"}},
		{name: "Title descending", sortBy: "TITLE", order: "desc", expectedIDs: []string{"g3", "g1", "g2"}},
		{name: "Year, missing last", sortBy: "year", order: "asc", expectedIDs: []string{"g1", "g2", "g3"}},
		{name: "Year descending, missing still last", sortBy: "year", order: "desc", expectedIDs: []string{"g2", "g1", "g3"}},
		{name: "Stars descending, missing last", sortBy: "stars", order: "desc", expectedIDs: []string{"g1", "g3", "g2"}},
		{name: "Invalid field", sortBy: "publisher", errContains: "invalid sort_by value"},
		{name: "Invalid order", sortBy: "title", order: "sideways", errContains: "invalid order value"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			games := make([]models.Record, len(filterGames))
			copy(games, filterGames)

			err := SortGames(games, tc.sortBy, tc.order)
			if tc.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedIDs, gameIDs(games))
		})
	}
}
