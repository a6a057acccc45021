// Package twitch implements the Twitch OAuth authorization-code handshake
// used to sign users in.
package twitch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"gamelib/config"
	"gamelib/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	ErrNotConfigured = errors.New("twitch login is not configured")
	ErrNoUser        = errors.New("twitch returned no user for the token")
)

// DefaultScopes are requested on every authorization.
var DefaultScopes = []string{"user:read:email"}

// Client talks to the Twitch identity and Helix APIs.
type Client struct {
	oauth      *oauth2.Config
	apiURL     string
	httpClient *http.Client
}

// User is the subset of a Helix user we keep.
type User struct {
	ID          string
	Login       string
	DisplayName string
}

// NewClient builds a client from cfg. It returns nil when Twitch login is not configured.
func NewClient(cfg *config.Config) *Client {
	if !cfg.TwitchEnabled() {
		return nil
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.TwitchClientID,
			ClientSecret: cfg.TwitchClientSecret,
			RedirectURL:  cfg.TwitchRedirectURL,
			Scopes:       DefaultScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.TwitchAuthURL,
				TokenURL:  cfg.TwitchTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiURL:     cfg.TwitchAPIURL,
		httpClient: &http.Client{Timeout: cfg.HTTPClientTimeout},
	}
}

// AuthCodeURL returns the Twitch authorize URL carrying state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return tok, nil
}

// FetchUser looks up the user owning accessToken via Helix GET /users.
func (c *Client) FetchUser(ctx context.Context, accessToken string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/users", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Client-Id", c.oauth.ClientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("failed to fetch twitch user: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return User{}, fmt.Errorf("failed to read twitch user response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("twitch users endpoint returned %d: %s", resp.StatusCode, gjson.GetBytes(body, "message").String())
	}

	first := gjson.GetBytes(body, "data.0")
	if !first.Exists() || first.Get("id").String() == "" {
		return User{}, ErrNoUser
	}
	return User{
		ID:          first.Get("id").String(),
		Login:       first.Get("login").String(),
		DisplayName: first.Get("display_name").String(),
	}, nil
}

// Authenticate runs the callback half of the handshake: exchange the code,
// identify the user and return the token record to persist.
func (c *Client) Authenticate(ctx context.Context, code string) (models.TwitchToken, error) {
	tok, err := c.Exchange(ctx, code)
	if err != nil {
		return models.TwitchToken{}, err
	}
	user, err := c.FetchUser(ctx, tok.AccessToken)
	if err != nil {
		return models.TwitchToken{}, err
	}
	zap.S().Infow("Twitch user signed in", "user_id", user.ID, "login", user.Login)

	return models.TwitchToken{
		UserID:       user.ID,
		Login:        user.Login,
		DisplayName:  user.DisplayName,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
