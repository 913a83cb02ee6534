package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisLimiterClient struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	lastGetKey string
	count      string
	getErr     error
	evalErr    error
}

func (m *mockRedisLimiterClient) Get(ctx context.Context, key string) *redis.StringCmd {
	m.lastGetKey = key
	cmd := redis.NewStringCmd(ctx)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	cmd.SetVal(m.count)
	return cmd
}

func (m *mockRedisLimiterClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.evalErr != nil {
		cmd.SetErr(m.evalErr)
		return cmd
	}
	cmd.SetVal(int64(1))
	return cmd
}

func TestAttemptLimiter_OnlyFailuresCount(t *testing.T) {
	l := NewAttemptLimiter(time.Minute, 2)
	for i := 0; i < 5; i++ {
		if !l.Allow("login:a") {
			t.Fatalf("expected Allow without failures to never deny (call %d)", i+1)
		}
	}
	l.Fail("login:a")
	if !l.Allow("login:a") {
		t.Fatalf("expected one failure to stay under the limit")
	}
	l.Fail("login:a")
	if l.Allow("login:a") {
		t.Fatalf("expected deny after two failures")
	}
	if !l.Allow("login:b") {
		t.Fatalf("expected independent key allowed")
	}
}

func TestAttemptLimiter_WindowExpiryDropsKey(t *testing.T) {
	l := NewAttemptLimiter(time.Minute, 1).(*attemptLimiter)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Fail("login:a")
	if l.Allow("login:a") {
		t.Fatalf("expected deny inside window")
	}

	now = now.Add(2 * time.Minute)
	if !l.Allow("login:a") {
		t.Fatalf("expected allow after window")
	}
	if _, ok := l.hits["login:a"]; ok {
		t.Fatalf("expected expired key removed from map, got %d keys", len(l.hits))
	}
}

func TestNewAttemptLimiter_ZeroDisables(t *testing.T) {
	if l := NewAttemptLimiter(time.Minute, 0); l != nil {
		t.Fatalf("expected nil limiter for max=0")
	}
	if l := NewRedisAttemptLimiter(redis.NewClient(&redis.Options{Addr: "localhost:0"}), time.Minute, 0); l != nil {
		t.Fatalf("expected nil redis limiter for max=0")
	}
}

func TestRedisAttemptLimiterAllow(t *testing.T) {
	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisAttemptLimiter
		if !l.Allow("login:user@example.com") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		l := &redisAttemptLimiter{client: &mockRedisLimiterClient{}, window: time.Minute, max: 3, prefix: "auth:rl:"}
		if l.Allow("   ") {
			t.Fatalf("expected empty key to be rejected")
		}
	})

	t.Run("missing key allowed", func(t *testing.T) {
		mock := &mockRedisLimiterClient{getErr: redis.Nil}
		l := &redisAttemptLimiter{client: mock, window: time.Minute, max: 3, prefix: "auth:rl:"}
		if !l.Allow(" Login:User@Example.com ") {
			t.Fatalf("expected allow without recorded failures")
		}
		if mock.lastGetKey != "auth:rl:login:user@example.com" {
			t.Fatalf("unexpected key normalization, got %q", mock.lastGetKey)
		}
		if mock.lastScript != "" {
			t.Fatalf("expected Allow not to increment the counter")
		}
	})

	t.Run("allow below max", func(t *testing.T) {
		l := &redisAttemptLimiter{client: &mockRedisLimiterClient{count: "2"}, window: time.Minute, max: 3, prefix: "auth:rl:"}
		if !l.Allow("login:user@example.com") {
			t.Fatalf("expected allow when failures < max")
		}
	})

	t.Run("deny at max", func(t *testing.T) {
		l := &redisAttemptLimiter{client: &mockRedisLimiterClient{count: "3"}, window: time.Minute, max: 3, prefix: "auth:rl:"}
		if l.Allow("login:user@example.com") {
			t.Fatalf("expected deny when failures reach max")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisAttemptLimiter{client: &mockRedisLimiterClient{getErr: errors.New("redis down")}, window: time.Minute, max: 3, prefix: "auth:rl:"}
		if !l.Allow("login:user@example.com") {
			t.Fatalf("expected fail-open on redis errors")
		}
	})
}

func TestRedisAttemptLimiterFail(t *testing.T) {
	mock := &mockRedisLimiterClient{}
	l := &redisAttemptLimiter{client: mock, window: 2 * time.Minute, max: 3, prefix: "auth:rl:"}
	l.Fail(" Login:User@Example.com ")

	if mock.lastScript != redisAttemptFailScript {
		t.Fatalf("expected fail script to run")
	}
	if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "auth:rl:login:user@example.com" {
		t.Fatalf("unexpected key, got %+v", mock.lastKeys)
	}
	if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 120 {
		t.Fatalf("expected TTL seconds=120, got %+v", mock.lastArgs)
	}

	empty := &mockRedisLimiterClient{}
	(&redisAttemptLimiter{client: empty, window: time.Minute, max: 3, prefix: "auth:rl:"}).Fail("  ")
	if empty.lastScript != "" {
		t.Fatalf("expected empty key ignored")
	}
}
