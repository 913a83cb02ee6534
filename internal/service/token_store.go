package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"wedge-matrix/internal/repository"
)

// TokenStore registra los jti vigentes agrupados por usuario.
type TokenStore interface {
	Store(ctx context.Context, jti, userID string, ttl time.Duration) error
	Exists(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string) error
	RevokeAll(ctx context.Context, userID string) error
}

type memoryTokenEntry struct {
	userID    string
	expiresAt time.Time
}

type memoryTokenStore struct {
	mu    sync.Mutex
	items map[string]memoryTokenEntry
}

func NewMemoryTokenStore() TokenStore {
	return &memoryTokenStore{
		items: make(map[string]memoryTokenEntry),
	}
}

func (s *memoryTokenStore) Store(_ context.Context, jti, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	s.items[jti] = memoryTokenEntry{userID: userID, expiresAt: time.Now().UTC().Add(ttl)}
	return nil
}

func (s *memoryTokenStore) Exists(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[jti]
	if !ok {
		return false, nil
	}
	if time.Now().UTC().After(entry.expiresAt) {
		delete(s.items, jti)
		return false, nil
	}
	return true, nil
}

func (s *memoryTokenStore) Revoke(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, jti)
	return nil
}

func (s *memoryTokenStore) RevokeAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti, entry := range s.items {
		if entry.userID == userID {
			delete(s.items, jti)
		}
	}
	return nil
}

type redisKVClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// redisTokenStore guarda una clave por jti con TTL y un set por usuario para revocar en bloque.
type redisTokenStore struct {
	client     redisKVClient
	prefix     string
	userPrefix string
	timeout    time.Duration
}

func NewRedisTokenStore(client *redis.Client) TokenStore {
	if client == nil {
		return nil
	}
	return newRedisTokenStore(client)
}

func newRedisTokenStore(client redisKVClient) *redisTokenStore {
	return &redisTokenStore{
		client:     client,
		prefix:     "auth:token:",
		userPrefix: "auth:user-tokens:",
		timeout:    500 * time.Millisecond,
	}
}

func (s *redisTokenStore) Store(ctx context.Context, jti, userID string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.prefix+jti, userID, ttl).Err(); err != nil {
		return err
	}
	userKey := s.userPrefix + userID
	if err := s.client.SAdd(ctx, userKey, jti).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, userKey, ttl).Err()
}

func (s *redisTokenStore) Exists(ctx context.Context, jti string) (bool, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.client.Exists(ctx, s.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisTokenStore) Revoke(ctx context.Context, jti string) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+jti).Err()
}

func (s *redisTokenStore) RevokeAll(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	userKey := s.userPrefix + userID
	jtis, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(jtis)+1)
	for _, jti := range jtis {
		keys = append(keys, s.prefix+jti)
	}
	keys = append(keys, userKey)
	return s.client.Del(ctx, keys...).Err()
}

// repositoryTokenStore persiste los jti en la base (tabla auth_tokens).
type repositoryTokenStore struct {
	repo repository.TokenRepository
	now  func() time.Time
}

func NewRepositoryTokenStore(repo repository.TokenRepository) TokenStore {
	return &repositoryTokenStore{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *repositoryTokenStore) Store(ctx context.Context, jti, userID string, ttl time.Duration) error {
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	return s.repo.Store(ctx, jti, userID, s.now().Add(ttl))
}

func (s *repositoryTokenStore) Exists(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, nil
	}
	return s.repo.Exists(ctx, jti, s.now())
}

func (s *repositoryTokenStore) Revoke(ctx context.Context, jti string) error {
	return s.repo.Revoke(ctx, jti)
}

func (s *repositoryTokenStore) RevokeAll(ctx context.Context, userID string) error {
	return s.repo.RevokeAllForUser(ctx, userID)
}
