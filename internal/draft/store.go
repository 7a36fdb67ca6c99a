package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
	"github.com/brightwash/orderdesk-backend/pkg/redis"
)

// Store persists draft snapshots between requests. Drafts are short-lived
// working state, so the store carries a TTL rather than a delete sweep.
type Store interface {
	Save(ctx context.Context, d *Draft) error
	Get(ctx context.Context, draftID string) (*Draft, error)
	Delete(ctx context.Context, draftID string) error
}

type draftKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	DraftKey(draftID string) string
}

type redisStore struct {
	kv  draftKV
	ttl time.Duration
}

// NewRedisStore keeps drafts in Redis under the draft key namespace, expiring
// them after the configured TTL of inactivity.
func NewRedisStore(kv draftKV, ttl time.Duration) (Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("draft ttl must be positive")
	}
	return &redisStore{kv: kv, ttl: ttl}, nil
}

func (s *redisStore) Save(ctx context.Context, d *Draft) error {
	if d == nil || d.ID == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "draft ID is required")
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal draft")
	}
	if err := s.kv.Set(ctx, s.kv.DraftKey(d.ID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store draft")
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, draftID string) (*Draft, error) {
	raw, err := s.kv.Get(ctx, s.kv.DraftKey(draftID))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft")
	}
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode stored draft")
	}
	return &d, nil
}

func (s *redisStore) Delete(ctx context.Context, draftID string) error {
	if err := s.kv.Del(ctx, s.kv.DraftKey(draftID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete draft")
	}
	return nil
}

type memoryStore struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

// NewMemoryStore keeps drafts in process memory. Suitable for development and
// tests; a restart loses every open draft.
func NewMemoryStore() Store {
	return &memoryStore{drafts: make(map[string][]byte)}
}

func (s *memoryStore) Save(ctx context.Context, d *Draft) error {
	if d == nil || d.ID == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "draft ID is required")
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal draft")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID] = payload
	return nil
}

func (s *memoryStore) Get(ctx context.Context, draftID string) (*Draft, error) {
	s.mu.RLock()
	payload, ok := s.drafts[draftID]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
	}
	var d Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode stored draft")
	}
	return &d, nil
}

func (s *memoryStore) Delete(ctx context.Context, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, draftID)
	return nil
}
