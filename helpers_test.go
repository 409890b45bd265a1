package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/guruvedhanth-s/Employee-performance-Tracker/password"
)

// memoryUserStore is an in-memory UserStore for tests.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[string]*User // by id
}

func newMemoryUserStore(users ...*User) *memoryUserStore {
	s := &memoryUserStore{users: make(map[string]*User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memoryUserStore) FindByID(_ context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memoryUserStore) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *memoryUserStore) IncrementTokenVersion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.TokenVersion++
	return nil
}

func (s *memoryUserStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (s *memoryUserStore) setActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.IsActive = active
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = "engine-test-secret"
	return cfg
}

// fastHasher keeps bcrypt out of the hot path of every engine test.
func fastHasher() Hasher {
	return password.NewBcryptHasherWithCost(4)
}

func mustHash(t *testing.T, pass string) string {
	t.Helper()
	hash, err := fastHasher().Hash(pass)
	require.NoError(t, err)
	return hash
}

func testUser(t *testing.T) *User {
	t.Helper()
	return &User{
		ID:           "u1",
		Username:     "alice",
		Role:         "admin",
		OrgID:        "org-1",
		PasswordHash: mustHash(t, "correct-password"),
		TokenVersion: 1,
		IsActive:     true,
	}
}

func newTestEngine(t *testing.T, cfg Config, users UserStore) (*Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(users).
		WithHasher(fastHasher()).
		Build()
	require.NoError(t, err)
	return engine, mr
}

func loginCtx(ip string) context.Context {
	ctx := WithClientIP(context.Background(), ip)
	return WithUserAgent(ctx, "test-agent")
}

func mustLogin(t *testing.T, engine *Engine, username, pass string) *LoginResult {
	t.Helper()
	res, err := engine.Login(loginCtx("10.0.0.1"), username, pass)
	require.NoError(t, err)
	return res
}

// waitExpiry sleeps just past d. Only used with millisecond token TTLs.
func waitExpiry(d time.Duration) {
	time.Sleep(d + 50*time.Millisecond)
}
