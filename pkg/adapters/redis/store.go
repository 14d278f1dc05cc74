package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/muster/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultSessionTTL expires sessions nobody touched for a day. Sessions are shared
// between replicas, not kept as a record.
const DefaultSessionTTL = 24 * time.Hour

// Store implements ports.SessionStore using Redis, so replicas behind the same
// Locker see the same sessions.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL sets the expiration of a session after its last save. Zero keeps sessions forever.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// NewStore creates a Redis store on client. Keys live under prefix + "session:".
func NewStore(client *backend.Client, prefix string, opts ...StoreOption) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	store := &Store{
		client: client,
		prefix: prefix + "session:",
		ttl:    DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(scope string) string {
	return s.prefix + scope
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the session and indexes its scope until it expires.
func (s *Store) Save(ctx context.Context, scope string, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Score is the expiry time; far future when sessions never expire.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(scope), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: scope})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the session of scope.
func (s *Store) Load(ctx context.Context, scope string) (*domain.Session, error) {
	val, err := s.client.Get(ctx, s.key(scope)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(val, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, scope string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(scope))
	pipe.ZRem(ctx, s.indexKey(), scope)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the scopes whose session has not expired, pruning expired index entries.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	scopes, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return scopes, nil
}
