package igdb

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gamelib/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gamesResponse = `[
  {"id": 1026, "name": "The Legend of Zelda", "summary": "Classic.", "first_release_date": 509328000,
   "genres": [{"id": 31, "name": "Adventure"}, {"id": 12, "name": "Role-playing (RPG)"}],
   "cover": {"id": 1, "image_id": "co1uii"}, "aggregated_rating": 84.6, "rating": 79.2},
  {"id": 77, "name": "Zelda Fan Game"}
]`

type fakeIGDB struct {
	*httptest.Server
	tokenCalls atomic.Int32
	gameCalls  atomic.Int32
	status     atomic.Int32
	lastBody   atomic.Value
}

func newFakeIGDB(t *testing.T) *fakeIGDB {
	t.Helper()
	f := &fakeIGDB{}
	f.status.Store(http.StatusOK)
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"app-token","expires_in":3600,"token_type":"bearer"}`))
	})
	mux.HandleFunc("/v4/games", func(w http.ResponseWriter, r *http.Request) {
		f.gameCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		f.lastBody.Store(string(body))
		if r.Header.Get("Authorization") != "Bearer app-token" || r.Header.Get("Client-ID") != "client" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if code := int(f.status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		_, _ = w.Write([]byte(gamesResponse))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func testConfig(srvURL string) *config.Config {
	return &config.Config{
		TwitchClientID:     "client",
		TwitchClientSecret: "secret",
		TwitchTokenURL:     srvURL + "/oauth2/token",
		IGDBBaseURL:        srvURL + "/v4",
		IGDBRateLimit:      1000,
		HTTPClientTimeout:  5 * time.Second,
	}
}

func TestNewClient_NotConfigured(t *testing.T) {
	assert.Nil(t, NewClient(&config.Config{}))
}

func TestSearch(t *testing.T) {
	f := newFakeIGDB(t)
	c := NewClient(testConfig(f.URL))
	require.NotNil(t, c)

	games, err := c.Search(context.Background(), `  zelda "link"  `)
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Contains(t, f.lastBody.Load().(string), `search "zelda \"link\"";`)
	assert.Contains(t, f.lastBody.Load().(string), "limit 20;")

	zelda := games[0]
	assert.Equal(t, int64(1026), zelda.ID)
	assert.Equal(t, "The Legend of Zelda", zelda.Title)
	require.NotNil(t, zelda.Year)
	assert.Equal(t, 1986, *zelda.Year)
	assert.Equal(t, 2, *zelda.Month)
	assert.Equal(t, 21, *zelda.Day)
	assert.Equal(t, []string{"Adventure", "Role-playing (RPG)"}, zelda.Genre)
	assert.Equal(t, "https://images.igdb.com/igdb/image/upload/t_cover_big/co1uii.jpg", zelda.Cover)
	assert.Equal(t, 85, *zelda.CriticRatings)
	assert.Equal(t, 79, *zelda.UserRatings)

	fan := games[1]
	assert.Nil(t, fan.Year)
	assert.Nil(t, fan.Genre)
	assert.Empty(t, fan.Cover)
	assert.Nil(t, fan.CriticRatings)

	_, err = c.Search(context.Background(), "mario")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.tokenCalls.Load(), "app token is reused")
}

func TestSearch_UpstreamFailureTripsBreaker(t *testing.T) {
	f := newFakeIGDB(t)
	f.status.Store(http.StatusInternalServerError)
	c := NewClient(testConfig(f.URL))

	for i := 0; i < breakerFailureThreshold; i++ {
		_, err := c.Search(context.Background(), "zelda")
		assert.ErrorIs(t, err, ErrUpstream)
	}
	assert.Equal(t, "open", c.BreakerState())

	_, err := c.Search(context.Background(), "zelda")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(breakerFailureThreshold), f.gameCalls.Load(), "open breaker short-circuits")
}

func TestSearch_CancelledContext(t *testing.T) {
	f := newFakeIGDB(t)
	c := NewClient(testConfig(f.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Search(ctx, "zelda")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestParseGames_NonArray(t *testing.T) {
	assert.Empty(t, parseGames([]byte(`{"message": "nope"}`)))
}
