package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gamelib/config"
	"gamelib/db"
	"gamelib/igdb"
	"gamelib/twitch"
	"gamelib/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoginResponse is returned by the OAuth callback when no frontend URL is configured.
type LoginResponse struct {
	Token       string    `json:"token"`
	UserID      string    `json:"user_id"`
	Login       string    `json:"login"`
	DisplayName string    `json:"display_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// MeResponse describes the caller's credentials.
type MeResponse struct {
	Kind        string     `json:"kind" example:"twitch"`
	UserID      string     `json:"user_id,omitempty"`
	Login       string     `json:"login,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Expired     bool       `json:"expired,omitempty"`
}

// SearchResponse is returned by GET /igdb/search.
type SearchResponse struct {
	Games []igdb.Game `json:"games"`
}

// --- Twitch login ---

// TwitchLoginHandler redirects the browser to Twitch.
// @Summary      Start Twitch Login
// @Description  Redirects to the Twitch authorize page with a signed, short-lived `state`.
// @Tags         Auth
// @Success      302
// @Failure      503  {object}  utils.APIError "Twitch login is not configured"
// @Router       /auth/twitch [get]
func TwitchLoginHandler(c *gin.Context, client *twitch.Client, cfg *config.Config) {
	if client == nil {
		utils.GinServiceUnavailable(c, capitalize(twitch.ErrNotConfigured.Error()))
		return
	}
	state, err := utils.GenerateState(cfg)
	if err != nil {
		utils.GinInternalServerError(c, "Failed to start login")
		return
	}
	c.Redirect(http.StatusFound, client.AuthCodeURL(state))
}

// TwitchCallbackHandler completes the Twitch login.
// @Summary      Twitch Login Callback
// @Description  Verifies `state`, exchanges `code` for a token, looks up the Twitch user and stores the token under the user id.
// @Description  The stored access token is then accepted as an API token. With a configured frontend URL the browser is sent
// @Description  there with `#token=<access token>`; otherwise the token is returned as JSON.
// @Tags         Auth
// @Produce      json
// @Param        code  query string true "Authorization code"
// @Param        state query string true "State from /auth/twitch"
// @Success      200  {object}  LoginResponse
// @Success      302
// @Failure      400  {object}  utils.APIError "Missing code or invalid state"
// @Failure      502  {object}  utils.APIError "Twitch authentication failed"
// @Failure      503  {object}  utils.APIError "Twitch login is not configured"
// @Router       /auth/twitch/callback [get]
func TwitchCallbackHandler(c *gin.Context, database *db.Database, client *twitch.Client, cfg *config.Config) {
	if client == nil {
		utils.GinServiceUnavailable(c, capitalize(twitch.ErrNotConfigured.Error()))
		return
	}
	if reason := c.Query("error"); reason != "" {
		utils.GinBadRequest(c, "Twitch login was denied: "+c.DefaultQuery("error_description", reason))
		return
	}
	code := c.Query("code")
	if code == "" {
		utils.GinBadRequest(c, "Missing code")
		return
	}
	if _, err := utils.ValidateState(c.Query("state"), cfg); err != nil {
		zap.S().Debugw("Rejected OAuth state", "error", err)
		utils.GinBadRequest(c, "Invalid state")
		return
	}

	tok, err := client.Authenticate(c.Request.Context(), code)
	if err != nil {
		zap.S().Warnw("Twitch authentication failed", "error", err)
		utils.GinBadGateway(c, "Twitch authentication failed")
		return
	}
	if err := database.Tokens.Save(tok); err != nil {
		respondStoreError(c, err, "")
		return
	}

	if cfg.FrontendURL != "" {
		target := strings.TrimRight(cfg.FrontendURL, "/") + "/#token=" + url.QueryEscape(tok.AccessToken)
		c.Redirect(http.StatusFound, target)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{
		Token:       tok.AccessToken,
		UserID:      tok.UserID,
		Login:       tok.Login,
		DisplayName: tok.DisplayName,
		ExpiresAt:   tok.ExpiresAt,
	})
}

// MeHandler describes the credentials of the current request.
// @Summary      Current Identity
// @Tags         Auth
// @Produce      json
// @Security     ApiToken
// @Success      200  {object}  MeResponse
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Router       /auth/me [get]
func MeHandler(c *gin.Context, database *db.Database) {
	if c.GetString(utils.ContextAuthKind) != "twitch" {
		c.JSON(http.StatusOK, MeResponse{Kind: "api"})
		return
	}
	userID := c.GetString(utils.ContextTwitchUserID)
	tok, ok := database.Tokens.Get(userID)
	if !ok {
		// Logged out by another request in the meantime.
		utils.GinUnauthorized(c, "Unauthorized")
		return
	}
	expires := tok.ExpiresAt
	c.JSON(http.StatusOK, MeResponse{
		Kind:        "twitch",
		UserID:      tok.UserID,
		Login:       tok.Login,
		DisplayName: tok.DisplayName,
		ExpiresAt:   &expires,
		Expired:     tok.Expired(time.Now()),
	})
}

// LogoutHandler forgets the caller's Twitch token. API-token callers have nothing to forget.
// @Summary      Logout
// @Tags         Auth
// @Produce      json
// @Security     ApiToken
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Router       /auth/logout [post]
func LogoutHandler(c *gin.Context, database *db.Database) {
	if c.GetString(utils.ContextAuthKind) == "twitch" {
		userID := c.GetString(utils.ContextTwitchUserID)
		if err := database.Tokens.Delete(userID); err != nil {
			respondStoreError(c, err, "")
			return
		}
		zap.S().Infow("Twitch user logged out", "user_id", userID)
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// --- IGDB ---

// IGDBSearchHandler proxies a search to IGDB.
// @Summary      Search IGDB
// @Description  Searches IGDB by name and returns suggestions shaped like library games
// @Description  (`id, title, summary, year, month, day, genre, cover, criticratings, userratings`).
// @Tags         IGDB
// @Produce      json
// @Security     ApiToken
// @Param        q query string true "Search text" example(zelda)
// @Success      200  {object}  SearchResponse
// @Failure      400  {object}  utils.APIError "Missing search query"
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Failure      502  {object}  utils.APIError "IGDB search failed"
// @Failure      503  {object}  utils.APIError "IGDB is not configured"
// @Router       /igdb/search [get]
func IGDBSearchHandler(c *gin.Context, client *igdb.Client) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		utils.GinBadRequest(c, "Missing search query")
		return
	}
	if client == nil {
		utils.GinServiceUnavailable(c, igdb.ErrNotConfigured.Error())
		return
	}
	games, err := client.Search(c.Request.Context(), q)
	if err != nil {
		if !errors.Is(err, igdb.ErrUpstream) {
			zap.S().Errorw("Unexpected IGDB error", "error", err)
		}
		utils.GinBadGateway(c, "IGDB search failed")
		return
	}
	c.JSON(http.StatusOK, SearchResponse{Games: games})
}
