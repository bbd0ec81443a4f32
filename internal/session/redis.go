package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/intakehq/voice-intake/internal/intake"
)

const (
	sessionKeyPrefix = "intake:session:"
	defaultTTL       = 4 * time.Hour
)

// RedisStore keeps sessions in Redis as JSON blobs with a TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a session store backed by Redis. A zero ttl
// falls back to the default.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if rdb == nil {
		panic("session: redis client required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(callSID string) string {
	return sessionKeyPrefix + callSID
}

func (s *RedisStore) Save(ctx context.Context, sess intake.Session) error {
	if sess.CallSID == "" {
		return fmt.Errorf("session: call_sid required")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(sess.CallSID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, callSID string) (intake.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(callSID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return intake.Session{}, ErrNotFound
		}
		return intake.Session{}, fmt.Errorf("session: load: %w", err)
	}
	var sess intake.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return intake.Session{}, fmt.Errorf("session: unmarshal: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, callSID string) error {
	if err := s.rdb.Del(ctx, sessionKey(callSID)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
