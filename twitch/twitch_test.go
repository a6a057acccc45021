package twitch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"gamelib/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, usersBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" || r.PostForm.Get("client_secret") != "secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","message":"Invalid authorization code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600,"token_type":"bearer"}`))
	})
	mux.HandleFunc("/helix/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" || r.Header.Get("Client-Id") != "client" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid token"}`))
			return
		}
		_, _ = w.Write([]byte(usersBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srvURL string) *config.Config {
	return &config.Config{
		TwitchClientID:     "client",
		TwitchClientSecret: "secret",
		TwitchRedirectURL:  "http://localhost:3000/auth/twitch/callback",
		TwitchAuthURL:      srvURL + "/oauth2/authorize",
		TwitchTokenURL:     srvURL + "/oauth2/token",
		TwitchAPIURL:       srvURL + "/helix",
		HTTPClientTimeout:  5 * time.Second,
	}
}

func TestNewClient_NotConfigured(t *testing.T) {
	assert.Nil(t, NewClient(&config.Config{TwitchClientID: "client"}))
}

func TestAuthCodeURL(t *testing.T) {
	c := NewClient(testConfig("https://id.example"))
	require.NotNil(t, c)

	u, err := url.Parse(c.AuthCodeURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, "/oauth2/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "user:read:email", q.Get("scope"))
	assert.Equal(t, "http://localhost:3000/auth/twitch/callback", q.Get("redirect_uri"))
}

func TestAuthenticate(t *testing.T) {
	srv := newTestServer(t, `{"data":[{"id":"42","login":"alice","display_name":"Alice"}]}`)
	c := NewClient(testConfig(srv.URL))

	tok, err := c.Authenticate(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "42", tok.UserID)
	assert.Equal(t, "alice", tok.Login)
	assert.Equal(t, "Alice", tok.DisplayName)
	assert.Equal(t, "at-1", tok.AccessToken)
	assert.Equal(t, "rt-1", tok.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, time.Minute)
}

func TestAuthenticate_BadCode(t *testing.T) {
	srv := newTestServer(t, `{"data":[]}`)
	c := NewClient(testConfig(srv.URL))

	_, err := c.Authenticate(context.Background(), "bad-code")
	assert.ErrorContains(t, err, "failed to exchange code")
}

func TestFetchUser(t *testing.T) {
	t.Run("Empty data", func(t *testing.T) {
		srv := newTestServer(t, `{"data":[]}`)
		_, err := NewClient(testConfig(srv.URL)).FetchUser(context.Background(), "at-1")
		assert.ErrorIs(t, err, ErrNoUser)
	})

	t.Run("Rejected token", func(t *testing.T) {
		srv := newTestServer(t, `{"data":[]}`)
		_, err := NewClient(testConfig(srv.URL)).FetchUser(context.Background(), "wrong")
		assert.ErrorContains(t, err, "returned 401: invalid token")
	})
}
