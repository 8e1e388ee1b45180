package state

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store is the key/value persistence surface for preferences. Values are
// stored one key per preference field.
type Store interface {
	// Load returns the stored values; missing keys are simply absent.
	Load(ctx context.Context) (map[string]string, error)
	// Save writes the full snapshot.
	Save(ctx context.Context, values map[string]string) error
}

// Factory builds a Store scoped to one namespace (user, session, device).
type Factory func(namespace string) Store

type redisStore struct {
	redisClient *redis.Client
	keyPrefix   string
	keys        []string
}

// NewRedisStore keeps each of keys under keyPrefix+namespace+":"+key with no
// expiration.
func NewRedisStore(redisClient *redis.Client, keyPrefix, namespace string, keys []string) Store {
	return &redisStore{
		redisClient: redisClient,
		keyPrefix:   keyPrefix + namespace + ":",
		keys:        keys,
	}
}

func (s *redisStore) Load(ctx context.Context) (map[string]string, error) {
	redisKeys := make([]string, len(s.keys))
	for i, key := range s.keys {
		redisKeys[i] = s.keyPrefix + key
	}

	vals, err := s.redisClient.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences from %s*: %w", s.keyPrefix, err)
	}

	values := make(map[string]string, len(s.keys))
	for i, val := range vals {
		if str, ok := val.(string); ok {
			values[s.keys[i]] = str
		}
	}
	return values, nil
}

func (s *redisStore) Save(ctx context.Context, values map[string]string) error {
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, val := range values {
			pipe.Set(ctx, s.keyPrefix+key, val, 0) // No expiration
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save preferences to %s*: %w", s.keyPrefix, err)
	}
	return nil
}

// MemoryStore keeps values in process memory and records every saved
// snapshot.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	history []map[string]string
	loadErr error
	saveErr error
}

func NewMemoryStore(initial map[string]string) *MemoryStore {
	return &MemoryStore{values: maps.Clone(initial)}
}

func (s *MemoryStore) Load(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return maps.Clone(s.values), nil
}

func (s *MemoryStore) Save(ctx context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.values == nil {
		s.values = make(map[string]string, len(values))
	}
	maps.Copy(s.values, values)
	s.history = append(s.history, maps.Clone(values))
	return nil
}

// Snapshots returns every saved snapshot in order.
func (s *MemoryStore) Snapshots() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]string, len(s.history))
	for i, snap := range s.history {
		out[i] = maps.Clone(snap)
	}
	return out
}

// FailWith makes subsequent Load and Save calls return the given errors.
func (s *MemoryStore) FailWith(loadErr, saveErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = loadErr
	s.saveErr = saveErr
}

// MemoryFactory hands out one MemoryStore per namespace.
type MemoryFactory struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{stores: make(map[string]*MemoryStore)}
}

func (f *MemoryFactory) Store(namespace string) Store {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stores[namespace]
	if !ok {
		s = NewMemoryStore(nil)
		f.stores[namespace] = s
	}
	return s
}
