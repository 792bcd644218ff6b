// Package profile issues anonymous profiles. A profile stands in for the
// shopper's browser: saved designs and the cart are keyed by its id.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"posterstudio/internal/repository/kv"
)

var ErrInvalidToken = errors.New("invalid token")

type Service struct {
	tokens *tokenManager
	ttl    time.Duration
}

func New(repo kv.Repository) *Service {
	return &Service{
		tokens: newTokenManager(kv.Scoped(repo, "profile-tokens")),
		ttl:    365 * 24 * time.Hour,
	}
}

// Issue creates a profile and a bearer token for it.
func (s *Service) Issue(ctx context.Context) (token, profileID string, err error) {
	profileID = uuid.NewString()
	token, err = s.tokens.Issue(ctx, profileID, s.ttl)
	if err != nil {
		return "", "", err
	}
	return token, profileID, nil
}

// LookupByToken resolves a bearer token to its profile id.
func (s *Service) LookupByToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	meta, ok, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidToken
	}
	return meta.ProfileID, nil
}

func (s *Service) TTLSeconds() int {
	return int(s.ttl.Seconds())
}
