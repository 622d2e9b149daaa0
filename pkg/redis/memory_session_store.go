package redis

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemorySessionStore is the in-process fallback for SessionStore when Redis
// is disabled or unreachable. Sessions do not survive a restart.
type MemorySessionStore struct {
	cache *ttlcache.Cache[string, uint]
}

// NewMemorySessionStore starts the background eviction of expired sessions.
// Call Close to stop it.
func NewMemorySessionStore() *MemorySessionStore {
	cache := ttlcache.New[string, uint](
		ttlcache.WithDisableTouchOnHit[string, uint](),
	)
	go cache.Start()
	return &MemorySessionStore{cache: cache}
}

func (s *MemorySessionStore) Save(_ context.Context, token string, userID uint, ttl time.Duration) error {
	s.cache.Set(token, userID, ttl)
	return nil
}

// Resolve returns the owner of token and restarts its TTL.
func (s *MemorySessionStore) Resolve(_ context.Context, token string, ttl time.Duration) (uint, bool, error) {
	item := s.cache.Get(token)
	if item == nil {
		return 0, false, nil
	}
	s.cache.Set(token, item.Value(), ttl)
	return item.Value(), true, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.cache.Delete(token)
	return nil
}

// Len reports how many sessions are held, expired ones included until the
// next eviction pass.
func (s *MemorySessionStore) Len() int {
	return s.cache.Len()
}

func (s *MemorySessionStore) Close() {
	s.cache.Stop()
}
