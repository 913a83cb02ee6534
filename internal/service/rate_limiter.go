package service

import (
	"sync"
	"time"
)

// AttemptLimiter limita los intentos fallidos de login y registro por clave.
// Allow no consume cupo; solo Fail registra un intento.
type AttemptLimiter interface {
	Allow(key string) bool
	Fail(key string)
}

type attemptLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
	now    func() time.Time
}

// NewAttemptLimiter crea un rate limiter de ventana deslizante en memoria.
// Con max <= 0 devuelve nil y el limite queda deshabilitado.
func NewAttemptLimiter(window time.Duration, max int) AttemptLimiter {
	if max <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *attemptLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(key)) < l.max
}

func (l *attemptLimiter) Fail(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits[key] = append(l.prune(key), l.now())
}

// prune descarta los intentos fuera de la ventana y borra la clave si no queda ninguno.
func (l *attemptLimiter) prune(key string) []time.Time {
	entries, ok := l.hits[key]
	if !ok {
		return nil
	}
	cutoff := l.now().Add(-l.window)
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.hits, key)
		return nil
	}
	l.hits[key] = kept
	return kept
}
