package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tourvista/internal/status"
	"tourvista/models"
)

const sessionKeyPrefix = "paysession:"

// SessionStore keeps in-flight gateway checkouts in redis until the
// callback lands. Entries expire on their own; there is no sweeper.
type SessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSessionStore(redisClient *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		redis: redisClient,
		ttl:   ttl,
	}
}

func sessionKey(gatewayPaymentID string) string {
	return sessionKeyPrefix + gatewayPaymentID
}

// Put stores the session under the gateway's payment id. Writing the same
// id again replaces the entry and restarts its TTL.
func (s *SessionStore) Put(ctx context.Context, session *models.PaymentSession) error {
	if session.GatewayPaymentID == "" {
		return fmt.Errorf("put session: %w: missing gateway payment id", status.ErrValidation)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("put session: marshal: %w", err)
	}

	if err := s.redis.Set(ctx, sessionKey(session.GatewayPaymentID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("put session: redis set: %w", err)
	}

	return nil
}

// Get returns the session for a gateway payment id. A missing key means
// the session expired or was already consumed by an earlier callback.
func (s *SessionStore) Get(ctx context.Context, gatewayPaymentID string) (*models.PaymentSession, error) {
	data, err := s.redis.Get(ctx, sessionKey(gatewayPaymentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, status.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("get session: redis get: %w", err)
	}

	var session models.PaymentSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("get session: unmarshal: %w", err)
	}

	return &session, nil
}

// Delete removes a consumed session. Deleting an absent key is not an
// error so callback retries stay idempotent.
func (s *SessionStore) Delete(ctx context.Context, gatewayPaymentID string) error {
	if err := s.redis.Del(ctx, sessionKey(gatewayPaymentID)).Err(); err != nil {
		return fmt.Errorf("delete session: redis del: %w", err)
	}
	return nil
}

// ActiveCount reports how many checkouts are currently awaiting a
// callback. Used by the monitoring loop only.
func (s *SessionStore) ActiveCount(ctx context.Context) (int64, error) {
	var count int64
	var cursor uint64

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("count sessions: redis scan: %w", err)
		}
		count += int64(len(keys))
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return count, nil
}
