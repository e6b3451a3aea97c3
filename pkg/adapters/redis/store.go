package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/frame/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "frame:blueprint:"

// Store implements ports.ManifestStore and ports.Watchable using Redis.
// Manifests are JSON strings; a sorted set indexes their names and a pub/sub
// channel announces every change.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for manifests.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for manifests.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) channel() string {
	return s.prefix + "changes"
}

// Save persists the manifest to Redis and announces the change.
func (s *Store) Save(ctx context.Context, m *domain.Manifest) error {
	if m == nil || m.Name == "" {
		return errors.New("manifest missing name")
	}
	name := domain.ParseRef(m.Name).Name

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(name), data, s.ttl)

	// Score = Now + TTL. If TTL = 0, Score = +Inf (approx).
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01 (Far enough for now)
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: name})
	pipe.Publish(ctx, s.channel(), name)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Manifest retrieves a manifest from Redis.
func (s *Store) Manifest(ctx context.Context, name string) (*domain.Manifest, error) {
	name = domain.ParseRef(name).Name
	val, err := s.client.Get(ctx, s.key(name)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var m domain.Manifest
	if err := json.Unmarshal([]byte(val), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Delete removes the manifest and announces the change.
func (s *Store) Delete(ctx context.Context, name string) error {
	name = domain.ParseRef(name).Name
	pipe := s.client.TxPipeline()

	pipe.Del(ctx, s.key(name))
	pipe.ZRem(ctx, s.indexKey(), name)
	pipe.Publish(ctx, s.channel(), name)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the stored manifest names, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired manifests: %w", err)
	}

	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests: %w", err)
	}
	return names, nil
}

// Watch implements ports.Watchable by subscribing to the change channel.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	sub := s.client.Subscribe(ctx, s.channel())
	// Wait for the subscription to be confirmed so no change is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case ch <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
