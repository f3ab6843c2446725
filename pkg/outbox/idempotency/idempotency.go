// Package idempotency hands out once-per-day claims so a recurring job alerts
// about the same subject at most once per UTC calendar day.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/posengine-backend/pkg/redis"
)

const dayLayout = "20060102"

// Manager stores claims in Redis with SETNX. Keys look like
// `pos:idempotency:alert:<consumer>:<yyyymmdd>:<subject_id>` and expire
// grace after the end of their day.
type Manager struct {
	store redis.IdempotencyStore
	grace time.Duration
}

func NewManager(store redis.IdempotencyStore, grace time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if grace < 0 {
		return nil, errors.New("grace must be non-negative")
	}
	return &Manager{store: store, grace: grace}, nil
}

// Claim reports true when the caller is the first to claim subjectID for the
// UTC day containing at. A false result means someone already alerted today.
func (m *Manager) Claim(ctx context.Context, consumer string, subjectID uuid.UUID, at time.Time) (bool, error) {
	key, err := m.claimKey(consumer, subjectID, at)
	if err != nil {
		return false, err
	}
	set, err := m.store.SetNX(ctx, key, at.UTC().Format(time.RFC3339), m.ttl(at))
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return set, nil
}

// Release drops a claim so a failed alert can be retried the same day.
func (m *Manager) Release(ctx context.Context, consumer string, subjectID uuid.UUID, at time.Time) error {
	key, err := m.claimKey(consumer, subjectID, at)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// ttl keeps the key until the day rolls over, plus grace for clock skew between workers.
func (m *Manager) ttl(at time.Time) time.Duration {
	day := at.UTC().Truncate(24 * time.Hour)
	remaining := day.Add(24 * time.Hour).Sub(at.UTC())
	return remaining + m.grace
}

func (m *Manager) claimKey(consumer string, subjectID uuid.UUID, at time.Time) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if subjectID == uuid.Nil {
		return "", errors.New("subject id is required")
	}
	if at.IsZero() {
		return "", errors.New("claim time is required")
	}
	scope := fmt.Sprintf("alert:%s:%s", consumer, at.UTC().Format(dayLayout))
	return m.store.IdempotencyKey(scope, subjectID.String()), nil
}
