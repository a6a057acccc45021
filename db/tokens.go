package db

import (
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"gamelib/models"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// TokenStore persists Twitch OAuth tokens keyed by Twitch user id in a flat JSON file.
type TokenStore struct {
	path   string
	backup bool

	mu     sync.RWMutex
	tokens map[string]models.TwitchToken
}

// NewTokenStore loads path fail-open; a missing or corrupt file starts empty.
func NewTokenStore(path string, backup bool) (*TokenStore, error) {
	s := &TokenStore{path: path, backup: backup, tokens: make(map[string]models.TwitchToken)}
	data, ok := readFile(path)
	if !ok {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.tokens); err != nil {
		zap.S().Errorw("Failed to decode token file, starting empty", "path", path, "error", err)
		s.tokens = make(map[string]models.TwitchToken)
	}
	if s.tokens == nil {
		s.tokens = make(map[string]models.TwitchToken)
	}
	return s, nil
}

// Save stores tok under its user id, replacing any previous token.
func (s *TokenStore) Save(tok models.TwitchToken) error {
	if tok.UserID == "" {
		return fmt.Errorf("token without user id: %w", ErrInvalidID)
	}
	if tok.CreatedAt.IsZero() {
		tok.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tok.UserID] = tok
	return s.persistLocked()
}

// Get returns the token stored for userID.
func (s *TokenStore) Get(userID string) (models.TwitchToken, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[userID]
	return tok, ok
}

// FindByAccessToken returns the stored token whose access token equals accessToken.
// Expired tokens are returned too; callers decide how strict to be.
func (s *TokenStore) FindByAccessToken(accessToken string) (models.TwitchToken, bool) {
	if accessToken == "" {
		return models.TwitchToken{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tok := range s.tokens {
		if subtle.ConstantTimeCompare([]byte(tok.AccessToken), []byte(accessToken)) == 1 {
			return tok, true
		}
	}
	return models.TwitchToken{}, false
}

// Delete removes the token for userID. Deleting an unknown user is not an error.
func (s *TokenStore) Delete(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[userID]; !ok {
		return nil
	}
	delete(s.tokens, userID)
	return s.persistLocked()
}

// Len returns the number of stored tokens.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

func (s *TokenStore) persistLocked() error {
	if err := writeJSONMode(s.path, s.tokens, s.backup, 0o600); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}
	return nil
}
