package profile

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"posterstudio/internal/domain"
	"posterstudio/internal/repository/kv"
)

type tokenMeta struct {
	ProfileID string    `json:"profileId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// tokenManager caches tokens in memory and persists them by hash so
// profiles survive restarts.
type tokenManager struct {
	mu     sync.RWMutex
	tokens map[string]tokenMeta
	store  kv.Repository
	now    func() time.Time
}

func newTokenManager(store kv.Repository) *tokenManager {
	return &tokenManager{
		tokens: make(map[string]tokenMeta),
		store:  store,
		now:    time.Now,
	}
}

func (m *tokenManager) Issue(ctx context.Context, profileID string, ttl time.Duration) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	meta := tokenMeta{
		ProfileID: profileID,
		ExpiresAt: m.now().Add(ttl),
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	key := tokenKey(token)
	if err := m.store.Save(ctx, key, data); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	m.mu.Lock()
	m.tokens[key] = meta
	m.mu.Unlock()
	return token, nil
}

func (m *tokenManager) Validate(ctx context.Context, token string) (tokenMeta, bool, error) {
	key := tokenKey(token)
	m.mu.RLock()
	meta, ok := m.tokens[key]
	m.mu.RUnlock()
	if !ok {
		data, err := m.store.Load(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			return tokenMeta{}, false, nil
		}
		if err != nil {
			return tokenMeta{}, false, fmt.Errorf("load token: %w", err)
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			return tokenMeta{}, false, nil
		}
		m.mu.Lock()
		m.tokens[key] = meta
		m.mu.Unlock()
	}
	if m.now().After(meta.ExpiresAt) {
		m.mu.Lock()
		delete(m.tokens, key)
		m.mu.Unlock()
		return tokenMeta{}, false, nil
	}
	return meta, true, nil
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
