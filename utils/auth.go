package utils

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamelib/config"
	"gamelib/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Context keys set by AuthMiddleware.
const (
	ContextAuthKind     = "authKind" // "api" or "twitch"
	ContextTwitchUserID = "twitchUserID"
)

// Header and query parameter the API token may be sent in.
const (
	TokenHeader     = "X-Auth-Token"
	TokenQueryParam = "token"
)

// TokenLookup resolves a presented token to a stored Twitch login.
// Implemented by db.TokenStore; declared here to avoid an import cycle.
type TokenLookup interface {
	FindByAccessToken(accessToken string) (models.TwitchToken, bool)
}

// --- API token hashing ---

// HashToken generates a bcrypt hash for the given API token.
func HashToken(token string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(bytes), nil
}

// CheckTokenHash compares a plain text token with a stored bcrypt hash.
func CheckTokenHash(token, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}

// ExtractToken returns the token presented with the request, looking at the
// X-Auth-Token header, the token query parameter and the Authorization header
// (either "Bearer <token>" or the raw token).
func ExtractToken(c *gin.Context) string {
	if t := strings.TrimSpace(c.GetHeader(TokenHeader)); t != "" {
		return t
	}
	if t := strings.TrimSpace(c.Query(TokenQueryParam)); t != "" {
		return t
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return ""
	}
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return authHeader
}

// ValidAPIToken reports whether token matches the configured API token.
func ValidAPIToken(token string, cfg *config.Config) bool {
	if token == "" {
		return false
	}
	if cfg.APIToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(cfg.APIToken)) == 1 {
		return true
	}
	if cfg.APITokenHash != "" {
		return CheckTokenHash(token, cfg.APITokenHash)
	}
	return false
}

// AuthMiddleware creates a Gin middleware function to protect routes.
// A request passes when it carries the API token or the access token of a
// stored Twitch login. Expired Twitch tokens are still accepted; their expiry
// is only approximate and they are re-validated upstream on next use.
func AuthMiddleware(cfg *config.Config, tokens TokenLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			GinUnauthorized(c, "Unauthorized")
			return
		}

		if ValidAPIToken(token, cfg) {
			c.Set(ContextAuthKind, "api")
			c.Next()
			return
		}

		if tokens != nil {
			if stored, ok := tokens.FindByAccessToken(token); ok {
				if stored.Expired(time.Now()) {
					zap.S().Debugw("Accepting expired Twitch token", "user_id", stored.UserID)
				}
				c.Set(ContextAuthKind, "twitch")
				c.Set(ContextTwitchUserID, stored.UserID)
				c.Next()
				return
			}
		}

		GinUnauthorized(c, "Unauthorized")
	}
}

// --- OAuth state ---

// StateClaims is the payload of the signed OAuth state parameter.
type StateClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

const stateIssuer = "gamelib"

// GenerateState creates a signed, short-lived state value for the OAuth redirect.
func GenerateState(cfg *config.Config) (string, error) {
	if cfg.SessionSecret == "" {
		return "", errors.New("session secret is not configured")
	}

	now := time.Now()
	claims := &StateClaims{
		Nonce: GenerateDashlessUUID(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.StateLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    stateIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.SessionSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// ValidateState parses and validates a state value produced by GenerateState.
func ValidateState(state string, cfg *config.Config) (*StateClaims, error) {
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret is not configured")
	}

	claims := &StateClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.SessionSecret), nil
	}, jwt.WithIssuer(stateIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("state has expired")
		}
		return nil, fmt.Errorf("invalid state: %w", err)
	}
	if !token.Valid || claims.Nonce == "" {
		return nil, errors.New("invalid state")
	}
	return claims, nil
}
