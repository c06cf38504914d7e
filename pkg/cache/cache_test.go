package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// failingStore errors on every call.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("read failed")
}
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("write failed")
}
func (failingStore) Clear(context.Context, bool) error  { return nil }
func (failingStore) Len(context.Context) (int64, error) { return 0, nil }
func (failingStore) Name() string                       { return "failing" }
func (failingStore) Close() error                       { return nil }

func counter(n *atomic.Int64, value string) ComputeFunc {
	return func(context.Context) ([]byte, error) {
		n.Add(1)
		return []byte(value), nil
	}
}

func TestGetOrComputeCachesWithinTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(NewMemoryStore(clock.Now))
	ctx := context.Background()
	var calls atomic.Int64

	v, hit, err := c.GetOrCompute(ctx, "k", time.Hour, counter(&calls, "first"))
	if err != nil || hit || string(v) != "first" {
		t.Fatalf("first call = %q, %v, %v", v, hit, err)
	}

	clock.Advance(59 * time.Minute)
	v, hit, err = c.GetOrCompute(ctx, "k", time.Hour, counter(&calls, "second"))
	if err != nil || !hit || string(v) != "first" {
		t.Fatalf("second call = %q, %v, %v", v, hit, err)
	}

	clock.Advance(time.Minute)
	v, hit, err = c.GetOrCompute(ctx, "k", time.Hour, counter(&calls, "third"))
	if err != nil || hit || string(v) != "third" {
		t.Fatalf("call after expiry = %q, %v, %v", v, hit, err)
	}

	if calls.Load() != 2 {
		t.Errorf("compute ran %d times, want 2", calls.Load())
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Hits != 1 || stats.Misses != 2 || stats.Entries != 1 || stats.Backend != "memory" {
		t.Errorf("stats = %+v", stats)
	}
}

func TestGetOrComputeDoesNotCacheErrors(t *testing.T) {
	c := New(NewMemoryStore(nil))
	ctx := context.Background()
	boom := errors.New("boom")

	_, _, err := c.GetOrCompute(ctx, "k", time.Hour, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	var calls atomic.Int64
	v, hit, err := c.GetOrCompute(ctx, "k", time.Hour, counter(&calls, "ok"))
	if err != nil || hit || string(v) != "ok" {
		t.Fatalf("retry = %q, %v, %v", v, hit, err)
	}
	if calls.Load() != 1 {
		t.Errorf("compute ran %d times, want 1", calls.Load())
	}
}

func TestGetOrComputeStoreFailureDegrades(t *testing.T) {
	c := New(failingStore{})
	ctx := context.Background()
	var calls atomic.Int64

	for i := 0; i < 2; i++ {
		v, hit, err := c.GetOrCompute(ctx, "k", time.Hour, counter(&calls, "v"))
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if hit || string(v) != "v" {
			t.Errorf("call %d = %q, hit %v", i, v, hit)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("compute ran %d times, want 2", calls.Load())
	}
}

func TestSingleFlightCoalescesConcurrentMisses(t *testing.T) {
	c := New(NewMemoryStore(nil), WithSingleFlight(true))
	ctx := context.Background()

	var calls atomic.Int64
	release := make(chan struct{})
	compute := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("shared"), nil
	}

	const workers = 8
	var started, done sync.WaitGroup
	started.Add(workers)
	done.Add(workers)
	results := make([]string, workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			v, _, err := c.GetOrCompute(ctx, "k", time.Hour, compute)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = string(v)
		}(i)
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	done.Wait()

	if calls.Load() != 1 {
		t.Errorf("compute ran %d times, want 1", calls.Load())
	}
	for i, r := range results {
		if r != "shared" {
			t.Errorf("worker %d got %q", i, r)
		}
	}
}

func TestSingleFlightIgnoresOtherCallersCancellation(t *testing.T) {
	c := New(NewMemoryStore(nil), WithSingleFlight(true))

	var calls atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		close(started)
		select {
		case <-release:
			return []byte("shared"), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := c.GetOrCompute(firstCtx, "k", time.Hour, compute)
		firstErr <- err
	}()
	<-started

	type result struct {
		value string
		err   error
	}
	second := make(chan result, 1)
	go func() {
		v, _, err := c.GetOrCompute(context.Background(), "k", time.Hour, compute)
		second <- result{string(v), err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller err = %v, want context.Canceled", err)
	}

	close(release)
	got := <-second
	if got.err != nil {
		t.Fatalf("second caller err = %v", got.err)
	}
	if got.value != "shared" {
		t.Errorf("second caller value = %q", got.value)
	}
	if calls.Load() != 1 {
		t.Errorf("compute ran %d times, want 1", calls.Load())
	}

	v, hit, err := c.GetOrCompute(context.Background(), "k", time.Hour, compute)
	if err != nil || !hit || string(v) != "shared" {
		t.Errorf("after flight: v=%q hit=%v err=%v, want cached value", v, hit, err)
	}
}

func TestClear(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(clock.Now)
	c := New(store)
	ctx := context.Background()

	_ = store.Set(ctx, "short", []byte("a"), time.Minute)
	_ = store.Set(ctx, "long", []byte("b"), time.Hour)
	clock.Advance(5 * time.Minute)

	if err := c.Clear(ctx, true); err != nil {
		t.Fatal(err)
	}
	if n, _ := store.Len(ctx); n != 1 {
		t.Errorf("Len after expired clear = %d, want 1", n)
	}
	if err := c.Clear(ctx, false); err != nil {
		t.Fatal(err)
	}
	if n, _ := store.Len(ctx); n != 0 {
		t.Errorf("Len after clear = %d, want 0", n)
	}
}

type payload struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func TestFetchTyped(t *testing.T) {
	c := New(NewMemoryStore(nil))
	ctx := context.Background()
	var calls int

	compute := func(context.Context) (payload, error) {
		calls++
		return payload{Category: "Technical", Tags: []string{"db"}}, nil
	}

	first, hit, err := Fetch(ctx, c, "k", time.Hour, compute)
	if err != nil || hit {
		t.Fatalf("first = %v, %v", hit, err)
	}
	second, hit, err := Fetch(ctx, c, "k", time.Hour, compute)
	if err != nil || !hit {
		t.Fatalf("second = %v, %v", hit, err)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
	if first.Category != second.Category || len(second.Tags) != 1 {
		t.Errorf("cached value differs: %+v vs %+v", first, second)
	}
}

func TestFetchRecomputesUndecodableEntry(t *testing.T) {
	store := NewMemoryStore(nil)
	c := New(store)
	ctx := context.Background()

	_ = store.Set(ctx, "k", []byte("not json"), time.Hour)

	got, hit, err := Fetch(ctx, c, "k", time.Hour, func(context.Context) (payload, error) {
		return payload{Category: "Billing"}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if hit || got.Category != "Billing" {
		t.Errorf("got %+v hit=%v", got, hit)
	}

	raw, ok, _ := store.Get(ctx, "k")
	if !ok || string(raw) == "not json" {
		t.Errorf("entry not overwritten: %q", raw)
	}
}

func TestMemoryStoreCopiesValue(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	buf := []byte("abc")
	_ = s.Set(ctx, "k", buf, time.Hour)
	buf[0] = 'x'

	v, _, _ := s.Get(ctx, "k")
	if string(v) != "abc" {
		t.Errorf("stored value aliased caller buffer: %q", v)
	}
}
