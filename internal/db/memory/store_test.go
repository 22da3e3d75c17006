package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/cardquery/internal/db"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, size int) (*Store, *clock) {
	t.Helper()
	s, err := NewStore(size)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	s.now = c.Now
	t.Cleanup(s.Close)
	return s, c
}

func TestGetSet(t *testing.T) {
	s, _ := newTestStore(t, 10)
	ctx := context.Background()

	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("expected v, got %s", got)
	}
}

func TestSetWithTTL_Expires(t *testing.T) {
	s, c := newTestStore(t, 10)
	ctx := context.Background()

	if err := s.SetWithTTL(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Advance(999 * time.Millisecond)
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("expected key to be alive, got %v", err)
	}
	c.Advance(time.Millisecond)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected key to be expired, got %v", err)
	}
}

func TestSetNX(t *testing.T) {
	s, c := newTestStore(t, 10)
	ctx := context.Background()

	ok, _ := s.SetNX(ctx, "lock", []byte("a"), time.Second)
	if !ok {
		t.Fatal("expected first SetNX to succeed")
	}
	ok, _ = s.SetNX(ctx, "lock", []byte("b"), time.Second)
	if ok {
		t.Fatal("expected second SetNX to fail while held")
	}
	c.Advance(time.Second)
	ok, _ = s.SetNX(ctx, "lock", []byte("c"), time.Second)
	if !ok {
		t.Fatal("expected SetNX to succeed after expiry")
	}
}

func TestIncrByAndExpireNX(t *testing.T) {
	s, c := newTestStore(t, 10)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := s.IncrBy(ctx, "cnt", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != i {
			t.Fatalf("expected %d, got %d", i, n)
		}
		if err := s.Expire(ctx, "cnt", 10*time.Second, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		c.Advance(time.Second)
	}

	// NX keeps the first expiry: 10s - 3s elapsed
	ttl, err := s.PTTL(ctx, "cnt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl != 7*time.Second {
		t.Errorf("expected 7s, got %v", ttl)
	}

	c.Advance(7 * time.Second)
	if _, err := s.PTTL(ctx, "cnt"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected counter to expire, got %v", err)
	}
}

func TestIncrBy_NotANumber(t *testing.T) {
	s, _ := newTestStore(t, 10)
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("abc"))
	if _, err := s.IncrBy(ctx, "k", 1); !errors.Is(err, db.ErrNotANumber) {
		t.Errorf("expected ErrNotANumber, got %v", err)
	}
}

func TestPTTL_NoExpiry(t *testing.T) {
	s, _ := newTestStore(t, 10)
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("v"))
	ttl, err := s.PTTL(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl != -1 {
		t.Errorf("expected -1, got %v", ttl)
	}
}

func TestHash(t *testing.T) {
	s, _ := newTestStore(t, 10)
	ctx := context.Background()

	m, err := s.HGetAll(ctx, "h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("expected empty map, got %v", m)
	}

	if err := s.HSet(ctx, "h", map[string]string{"a": "1", "b": "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := s.HIncrBy(ctx, "h", "a", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
	if _, err := s.HIncrBy(ctx, "h", "b", 1); !errors.Is(err, db.ErrNotANumber) {
		t.Errorf("expected ErrNotANumber, got %v", err)
	}

	m, _ = s.HGetAll(ctx, "h")
	m["a"] = "mutated"
	again, _ := s.HGetAll(ctx, "h")
	if again["a"] != "3" {
		t.Errorf("HGetAll must return a copy, got %v", again)
	}

	if _, err := s.Get(ctx, "h"); !isDBError(err) {
		t.Errorf("expected db.Error reading a hash as a string, got %v", err)
	}
}

func TestScanAndDel(t *testing.T) {
	s, c := newTestStore(t, 10)
	ctx := context.Background()

	_ = s.Set(ctx, "cq:a", []byte("1"))
	_ = s.Set(ctx, "cq:b", []byte("1"))
	_ = s.SetWithTTL(ctx, "cq:c", []byte("1"), time.Second)
	_ = s.Set(ctx, "other", []byte("1"))
	c.Advance(time.Second)

	keys, err := s.Scan(ctx, "cq:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "cq:a" || keys[1] != "cq:b" {
		t.Errorf("unexpected keys: %v", keys)
	}

	_ = s.Del(ctx, "cq:a")
	if ok, _ := s.Exists(ctx, "cq:a"); ok {
		t.Error("expected cq:a to be deleted")
	}
}

func TestSweep(t *testing.T) {
	s, c := newTestStore(t, 10)
	ctx := context.Background()

	_ = s.SetWithTTL(ctx, "a", []byte("1"), time.Second)
	_ = s.SetWithTTL(ctx, "b", []byte("1"), time.Minute)
	_ = s.Set(ctx, "c", []byte("1"))
	c.Advance(2 * time.Second)

	if n := s.Sweep(); n != 1 {
		t.Errorf("expected 1 swept key, got %d", n)
	}
}

func TestEviction(t *testing.T) {
	s, _ := newTestStore(t, 2)
	ctx := context.Background()

	_ = s.Set(ctx, "a", []byte("1"))
	_ = s.Set(ctx, "b", []byte("1"))
	_ = s.Set(ctx, "c", []byte("1"))

	if ok, _ := s.Exists(ctx, "a"); ok {
		t.Error("expected least recently used key to be evicted")
	}
}

func TestCountersSurviveEviction(t *testing.T) {
	s, c := newTestStore(t, 2)
	ctx := context.Background()

	if _, err := s.IncrBy(ctx, "rl:key", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Expire(ctx, "rl:key", time.Minute, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, k := range []string{"a", "b", "c", "d"} {
		_ = s.Set(ctx, k, []byte("1"))
	}

	n, err := s.IncrBy(ctx, "rl:key", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("counter = %d, want 2 after cache pressure", n)
	}
	keys, err := s.Scan(ctx, "rl:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("Scan = %v, want the counter", keys)
	}

	c.Advance(time.Minute)
	if removed := s.Sweep(); removed != 1 {
		t.Errorf("swept %d keys, want the expired counter", removed)
	}
	if ok, _ := s.Exists(ctx, "rl:key"); ok {
		t.Error("expired counter still present")
	}
}

func TestIncrBy_Concurrent(t *testing.T) {
	s, _ := newTestStore(t, 10)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.IncrBy(ctx, "cnt", 1)
		}()
	}
	wg.Wait()

	raw, _ := s.Get(ctx, "cnt")
	if string(raw) != "50" {
		t.Errorf("expected 50, got %s", raw)
	}
}

func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
