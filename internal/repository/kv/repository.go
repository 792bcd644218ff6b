package kv

import (
	"context"
)

// Repository is a flat byte store addressed by key. Load returns
// domain.ErrNotFound when the key was never written.
type Repository interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Pinger is implemented by backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

type scoped struct {
	repo   Repository
	prefix string
}

// Scoped namespaces every key of repo under scope, so several profiles can
// share one backend without seeing each other's values.
func Scoped(repo Repository, scope string) Repository {
	return &scoped{repo: repo, prefix: scope + ":"}
}

func (s *scoped) Load(ctx context.Context, key string) ([]byte, error) {
	return s.repo.Load(ctx, s.prefix+key)
}

func (s *scoped) Save(ctx context.Context, key string, value []byte) error {
	return s.repo.Save(ctx, s.prefix+key, value)
}
