package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// SessionStore maps anonymous session tokens to the id of the anonymous user
// that owns them. Entries expire after their TTL; every successful Resolve
// slides the expiry forward.
type SessionStore struct {
	client *redis.Client
	prefix string
}

func NewSessionStore(c *redis.Client) *SessionStore {
	return &SessionStore{client: c, prefix: "anon_session:"}
}

func (s *SessionStore) key(token string) string {
	return s.prefix + token
}

func (s *SessionStore) Save(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(token), strconv.FormatUint(uint64(userID), 10), ttl).Err(); err != nil {
		logger.Error("Failed to save anonymous session", err, map[string]interface{}{
			"user_id": userID,
		})
		return fmt.Errorf("save anonymous session: %w", err)
	}
	return nil
}

// Resolve returns the user id behind token. found is false when the token is
// unknown or expired.
func (s *SessionStore) Resolve(ctx context.Context, token string, ttl time.Duration) (userID uint, found bool, err error) {
	val, err := s.client.GetEx(ctx, s.key(token), ttl).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		logger.Error("Failed to resolve anonymous session", err)
		return 0, false, fmt.Errorf("resolve anonymous session: %w", err)
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		logger.Warn("Corrupt anonymous session entry", map[string]interface{}{
			"value": val,
		})
		return 0, false, nil
	}
	return uint(id), true, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("delete anonymous session: %w", err)
	}
	return nil
}
