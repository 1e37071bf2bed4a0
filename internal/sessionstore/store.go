// Package sessionstore keeps the signed-in user and bearer token between
// client runs.
package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/hireflow/interviewer/internal/cache"
	"github.com/hireflow/interviewer/internal/models"
	"github.com/hireflow/interviewer/internal/utils"
)

type Session struct {
	Token string          `json:"token"`
	User  models.UserInfo `json:"user"`
}

type Store interface {
	Get(ctx context.Context) (*Session, error) // nil, nil when nobody is signed in
	Set(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

type Memory struct {
	mu   sync.RWMutex
	sess *Session
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Get(ctx context.Context) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil {
		return nil, nil
	}
	cp := *m.sess
	return &cp, nil
}

func (m *Memory) Set(ctx context.Context, s Session) error {
	const op = "Memory.Set"
	if s.Token == "" {
		return utils.E(utils.CodeInvalidArgument, op, "token is required", nil)
	}
	m.mu.Lock()
	m.sess = &s
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.sess = nil
	m.mu.Unlock()
	return nil
}

// Cached persists the session in a cache.Cache under a per-profile key.
type Cached struct {
	c   cache.Cache
	key string
	ttl time.Duration
}

func NewCached(c cache.Cache, profile string, ttl time.Duration) *Cached {
	if profile == "" {
		profile = "default"
	}
	return &Cached{c: c, key: cache.ClientSessionKey(profile), ttl: ttl}
}

func (s *Cached) Get(ctx context.Context) (*Session, error) {
	const op = "Cached.Get"
	var out Session
	hit, err := s.c.GetJSON(ctx, s.key, &out)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to read session", err)
	}
	if !hit {
		return nil, nil
	}
	return &out, nil
}

func (s *Cached) Set(ctx context.Context, sess Session) error {
	const op = "Cached.Set"
	if sess.Token == "" {
		return utils.E(utils.CodeInvalidArgument, op, "token is required", nil)
	}
	if err := s.c.SetJSON(ctx, s.key, sess, s.ttl); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to store session", err)
	}
	return nil
}

func (s *Cached) Clear(ctx context.Context) error {
	const op = "Cached.Clear"
	if err := s.c.Del(ctx, s.key); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to clear session", err)
	}
	return nil
}
