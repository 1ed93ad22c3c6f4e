package memory

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sig-0/ufrates/storage/types"
)

var ErrInvalidCapacity = errors.New("invalid capacity")

// EvictFn is called with every key evicted to make room for a new one
type EvictFn func(key types.LookupKey, value string)

// Storage is a fixed-capacity, least-recently-used store.
// Each Save over capacity evicts exactly one key
type Storage struct {
	cache    *lru.Cache[types.LookupKey, string]
	capacity int
}

// NewStorage creates a new LRU store holding at most capacity keys
func NewStorage(capacity int, onEvict EvictFn) (*Storage, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	var (
		cache *lru.Cache[types.LookupKey, string]
		err   error
	)

	if onEvict != nil {
		cache, err = lru.NewWithEvict(capacity, func(k types.LookupKey, v string) {
			onEvict(k, v)
		})
	} else {
		cache, err = lru.New[types.LookupKey, string](capacity)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to create LRU cache: %w", err)
	}

	return &Storage{
		cache:    cache,
		capacity: capacity,
	}, nil
}

func (s *Storage) Get(_ context.Context, key types.LookupKey) (string, bool, error) {
	v, ok := s.cache.Get(key) // refreshes recency

	return v, ok, nil
}

func (s *Storage) Save(_ context.Context, key types.LookupKey, value string) error {
	s.cache.Add(key, value)

	return nil
}

func (s *Storage) Len() int {
	return s.cache.Len()
}

// Capacity returns the maximum number of stored keys
func (s *Storage) Capacity() int {
	return s.capacity
}
