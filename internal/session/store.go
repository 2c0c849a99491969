// Package session keeps per-session CSRF tokens in memory.
//
// The store is process local: tokens are lost on restart, which only forces
// clients to fetch a fresh one. Entries carry a TTL and a background sweeper
// evicts what the lazy expiry check hasn't touched, so the map can't grow
// without bound.
package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

const (
	defaultTTL        = 24 * time.Hour
	defaultSweepEvery = 10 * time.Minute

	tokenBytesLen = 32
)

type entry struct {
	token     string
	expiresAt time.Time
}

type Store struct {
	mu      sync.Mutex
	entries map[string]entry

	ttl  time.Duration
	done chan struct{}
	once sync.Once
}

type Config struct {
	// How long an issued token stays valid
	// If not set then default is used
	TTL time.Duration

	// How often the sweeper evicts expired entries
	// If not set then default is used
	SweepEvery time.Duration
}

func NewStore(cfg Config) *Store {
	if cfg.TTL == 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.SweepEvery == 0 {
		cfg.SweepEvery = defaultSweepEvery
	}

	s := &Store{
		entries: make(map[string]entry),
		ttl:     cfg.TTL,
		done:    make(chan struct{}),
	}

	go s.sweep(cfg.SweepEvery)

	return s
}

// Issue generates a random token for the session and stores it,
// replacing any token issued for the same session before
func (s *Store) Issue(sessionID string) (string, error) {
	b := make([]byte, tokenBytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error while generating csrf token. Err: %w", err)
	}
	token := hex.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = entry{token: token, expiresAt: time.Now().Add(s.ttl)}

	return token, nil
}

// Check reports whether the token matches the one stored for the session
// and is still within its TTL. Comparison is constant time.
func (s *Store) Check(sessionID string, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}

	s.mu.Lock()
	e, ok := s.entries[sessionID]
	if ok && time.Now().After(e.expiresAt) {
		delete(s.entries, sessionID)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(e.token), []byte(token)) == 1
}

// Stop terminates the background sweeper. Safe to call more than once.
func (s *Store) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for id, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
