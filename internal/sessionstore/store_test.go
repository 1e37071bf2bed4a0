package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireflow/interviewer/internal/cache"
	"github.com/hireflow/interviewer/internal/models"
	"github.com/hireflow/interviewer/internal/utils"
)

var alice = Session{
	Token: "tok-1",
	User:  models.UserInfo{ID: "u1", Email: "alice@example.com", Name: "Alice", Role: models.RoleCandidate},
}

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = s.Set(ctx, Session{})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	require.NoError(t, s.Set(ctx, alice))
	got, err = s.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice, *got)

	require.NoError(t, s.Clear(ctx))
	got, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set(context.Background(), alice))
	got, _ := m.Get(context.Background())
	got.Token = "mutated"

	again, _ := m.Get(context.Background())
	assert.Equal(t, "tok-1", again.Token)
}

func TestCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	exercise(t, NewCached(cache.NewRedisCache(rdb, "hf:"), "", time.Hour))
}

func TestCached_ExpiresAfterTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	s := NewCached(cache.NewRedisCache(rdb, "hf:"), "work", time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, alice))
	assert.True(t, mr.Exists("hf:client:session:work"))

	mr.FastForward(61 * time.Minute)
	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCached_RedisDownIsUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	s := NewCached(cache.NewRedisCache(rdb, ""), "x", time.Hour)
	mr.Close()

	_, err := s.Get(context.Background())
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}
