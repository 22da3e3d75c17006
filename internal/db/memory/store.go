// Package memory is an in-process db.Store for single-instance deployments
// and tests. Entries live in a bounded LRU, except counters created by
// IncrBy, which are kept outside it so eviction never resets a rate-limit
// window. Expired entries are dropped on access and by a periodic sweep.
package memory

import (
	"context"
	"fmt"
	"maps"
	"path"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/kailas-cloud/cardquery/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultSize bounds the number of keys when no size is configured.
const DefaultSize = 100_000

type item struct {
	value     []byte
	hash      map[string]string
	expiresAt time.Time
}

func (it *item) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && !now.Before(it.expiresAt)
}

// Store keeps keys in an LRU cache and counters in a plain map. The mutex
// serializes read-modify-write operations (INCR, HSET, SET NX) so they are
// atomic like their Redis counterparts.
type Store struct {
	mu       sync.Mutex
	cache    *lru.Cache
	counters map[string]*item
	now      func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewStore creates a store holding at most size keys.
func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Store{
		cache:    cache,
		counters: make(map[string]*item),
		now:      time.Now,
		stop:     make(chan struct{}),
	}, nil
}

// StartSweeper removes expired keys every interval until Close is called.
func (s *Store) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Sweep removes every expired key and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, k := range s.cache.Keys() {
		v, ok := s.cache.Peek(k)
		if !ok {
			continue
		}
		if v.(*item).expired(now) {
			s.cache.Remove(k)
			removed++
		}
	}
	for k, it := range s.counters {
		if it.expired(now) {
			delete(s.counters, k)
			removed++
		}
	}
	return removed
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Close stops the sweeper.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
}

// lookup returns the live item for key. Caller holds mu.
func (s *Store) lookup(key string) (*item, bool) {
	if it, ok := s.counters[key]; ok {
		if it.expired(s.now()) {
			delete(s.counters, key)
			return nil, false
		}
		return it, true
	}
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	it := v.(*item)
	if it.expired(s.now()) {
		s.cache.Remove(key)
		return nil, false
	}
	return it, true
}

func (s *Store) put(key string, value []byte, ttl time.Duration) {
	it := &item{value: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expiresAt = s.now().Add(ttl)
	}
	delete(s.counters, key)
	s.cache.Add(key, it)
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.lookup(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if it.hash != nil {
		return nil, &db.Error{Op: db.OpGet, Err: fmt.Errorf("%s holds a hash", key)}
	}
	return append([]byte(nil), it.value...), nil
}

// Set stores a value without expiry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(key, value, 0)
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(key, value, ttl)
	return nil
}

// SetNX stores a value only if the key is absent.
func (s *Store) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(key); ok {
		return false, nil
	}
	s.put(key, value, ttl)
	return true, nil
}

// IncrBy increments an integer value, creating it at zero when missing.
// The existing expiry is kept.
func (s *Store) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur int64
	it, ok := s.lookup(key)
	if ok {
		n, err := strconv.ParseInt(string(it.value), 10, 64)
		if err != nil || it.hash != nil {
			return 0, &db.Error{Op: db.OpIncrBy, Err: fmt.Errorf("%s: %w", key, db.ErrNotANumber)}
		}
		cur = n
	} else {
		it = &item{}
		s.counters[key] = it
	}
	cur += val
	it.value = []byte(strconv.FormatInt(cur, 10))
	return cur, nil
}

// Expire sets the TTL of a key. With nx, only keys without expiry are touched.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.lookup(key)
	if !ok {
		return nil
	}
	if nx && !it.expiresAt.IsZero() {
		return nil
	}
	it.expiresAt = s.now().Add(ttl)
	return nil
}

// PTTL returns the remaining time to live of a key, -1 when it has none.
func (s *Store) PTTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.lookup(key)
	if !ok {
		return 0, db.ErrKeyNotFound
	}
	if it.expiresAt.IsZero() {
		return -1, nil
	}
	return it.expiresAt.Sub(s.now()), nil
}

// Del deletes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	s.cache.Remove(key)
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lookup(key)
	return ok, nil
}

// Scan returns live keys matching a glob pattern.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	live := make(map[string]*item, s.cache.Len()+len(s.counters))
	for _, k := range s.cache.Keys() {
		if v, ok := s.cache.Peek(k); ok {
			live[k.(string)] = v.(*item)
		}
	}
	maps.Copy(live, s.counters)

	var keys []string
	for key, it := range live {
		if it.expired(now) {
			continue
		}
		match, err := path.Match(pattern, key)
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		if match {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// HSet sets hash fields.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.hashItem(key, db.OpHSet)
	if err != nil {
		return err
	}
	maps.Copy(it.hash, fields)
	return nil
}

// HGetAll returns a copy of all fields of a hash.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.lookup(key)
	if !ok {
		return map[string]string{}, nil
	}
	if it.hash == nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("%s is not a hash", key)}
	}
	return maps.Clone(it.hash), nil
}

// HIncrBy increments an integer hash field.
func (s *Store) HIncrBy(_ context.Context, key, field string, val int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.hashItem(key, db.OpHIncrBy)
	if err != nil {
		return 0, err
	}
	var cur int64
	if raw, ok := it.hash[field]; ok {
		n, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			return 0, &db.Error{Op: db.OpHIncrBy, Err: fmt.Errorf("%s.%s: %w", key, field, db.ErrNotANumber)}
		}
		cur = n
	}
	cur += val
	it.hash[field] = strconv.FormatInt(cur, 10)
	return cur, nil
}

// hashItem returns the hash at key, creating it when missing. Caller holds mu.
func (s *Store) hashItem(key, op string) (*item, error) {
	it, ok := s.lookup(key)
	if !ok {
		it = &item{hash: map[string]string{}}
		s.cache.Add(key, it)
		return it, nil
	}
	if it.hash == nil {
		return nil, &db.Error{Op: op, Err: fmt.Errorf("%s is not a hash", key)}
	}
	return it, nil
}
