package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New(context.Background(), Options{Addr: mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestSetAndGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "ai:sentiment:abc", []byte(`{"sentiment":"positive"}`), 30*time.Minute); err != nil {
		t.Fatal(err)
	}
	data, ok, err := s.Get(ctx, "ai:sentiment:abc")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(data) != `{"sentiment":"positive"}` {
		t.Errorf("Get = %q, %v", data, ok)
	}

	_, ok, err = s.Get(ctx, "ai:sentiment:missing")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected miss for unknown key")
	}
}

func TestTTLExpiration(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "ai:routing:abc", []byte("data"), 15*time.Minute)
	if ttl := mr.TTL("ai:routing:abc"); ttl != 15*time.Minute {
		t.Errorf("server TTL = %v, want 15m", ttl)
	}

	mr.FastForward(15 * time.Minute)
	if _, ok, _ := s.Get(ctx, "ai:routing:abc"); ok {
		t.Error("expected miss after TTL")
	}
}

func TestClearAndLen(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "ai:classification:1", []byte("a"), time.Hour)
	_ = s.Set(ctx, "ai:classification:2", []byte("b"), time.Hour)
	if err := mr.Set("unrelated", "keep"); err != nil {
		t.Fatal(err)
	}

	n, err := s.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Len = %d, want 2", n)
	}

	if err := s.Clear(ctx, true); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Len(ctx); n != 2 {
		t.Errorf("Clear(expiredOnly) should not remove live keys, Len = %d", n)
	}

	if err := s.Clear(ctx, false); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Len(ctx); n != 0 {
		t.Errorf("Len after Clear = %d, want 0", n)
	}
	if !mr.Exists("unrelated") {
		t.Error("Clear removed a key outside the cache prefix")
	}
}

func TestNewUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := New(ctx, Options{Addr: addr}); err == nil {
		t.Fatal("expected error for unreachable server")
	}
}
