// Package igdb proxies game searches to the IGDB API.
package igdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gamelib/config"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

var (
	ErrNotConfigured = errors.New("IGDB is not configured")
	ErrUpstream      = errors.New("igdb request failed")
)

const (
	searchLimit      = 20
	coverURLTemplate = "https://images.igdb.com/igdb/image/upload/t_cover_big/%s.jpg"
	searchFields     = "name,summary,first_release_date,genres.name,cover.image_id,aggregated_rating,rating"

	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// Game is a search suggestion shaped like a library game record.
type Game struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Summary       string   `json:"summary"`
	Year          *int     `json:"year"`
	Month         *int     `json:"month"`
	Day           *int     `json:"day"`
	Genre         []string `json:"genre"`
	Cover         string   `json:"cover"`
	CriticRatings *int     `json:"criticratings"`
	UserRatings   *int     `json:"userratings"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[interface{}]
}

// NewClient builds a client authenticated with Twitch client credentials.
// It returns nil when no credentials are configured.
func NewClient(cfg *config.Config) *Client {
	if !cfg.IGDBEnabled() {
		return nil
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.TwitchClientID,
		ClientSecret: cfg.TwitchClientSecret,
		TokenURL:     cfg.TwitchTokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	base := &http.Client{Timeout: cfg.HTTPClientTimeout}
	httpClient := creds.Client(context.WithValue(context.Background(), oauth2.HTTPClient, base))
	httpClient.Timeout = cfg.HTTPClientTimeout

	return &Client{
		baseURL:  cfg.IGDBBaseURL,
		clientID: cfg.TwitchClientID,
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Limit(cfg.IGDBRateLimit), 1),
		breaker:  newBreaker(),
	}
}

func newBreaker() *gobreaker.CircuitBreaker[interface{}] {
	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:    "igdb",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.S().Warnw("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// BreakerState reports the circuit breaker state as a string ("closed", "open", "half-open").
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Search runs a text search and returns up to 20 suggestions.
func (c *Client) Search(ctx context.Context, query string) ([]Game, error) {
	query = strings.TrimSpace(query)
	body := fmt.Sprintf("search \"%s\"; fields %s; limit %d;", escapeQuery(query), searchFields, searchLimit)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, "/games", body)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return parseGames(res.([]byte)), nil
}

func (c *Client) post(ctx context.Context, endpoint, body string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewBufferString(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("response is not valid JSON")
	}
	return data, nil
}

func escapeQuery(q string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(q)
}

func parseGames(data []byte) []Game {
	games := make([]Game, 0)
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return games
	}
	root.ForEach(func(_, g gjson.Result) bool {
		game := Game{
			ID:      g.Get("id").Int(),
			Title:   g.Get("name").String(),
			Summary: g.Get("summary").String(),
		}
		if released := g.Get("first_release_date"); released.Exists() {
			t := time.Unix(released.Int(), 0).UTC()
			year, month, day := t.Year(), int(t.Month()), t.Day()
			game.Year, game.Month, game.Day = &year, &month, &day
		}
		for _, genre := range g.Get("genres.#.name").Array() {
			game.Genre = append(game.Genre, genre.String())
		}
		if imageID := g.Get("cover.image_id").String(); imageID != "" {
			game.Cover = fmt.Sprintf(coverURLTemplate, imageID)
		}
		game.CriticRatings = roundedRating(g.Get("aggregated_rating"))
		game.UserRatings = roundedRating(g.Get("rating"))
		games = append(games, game)
		return true
	})
	return games
}

func roundedRating(v gjson.Result) *int {
	if !v.Exists() {
		return nil
	}
	r := int(v.Float() + 0.5)
	return &r
}
