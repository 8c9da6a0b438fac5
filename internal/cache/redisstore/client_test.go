package redisstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

// creates new store connected to miniredis for testing
func newMini(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	s, err := New(ctx, mr.Addr(), 250*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestSetGetDel_HappyPath(t *testing.T) {
	s, _ := newMini(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k1", []byte("v1"), 5*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	v, ok, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || string(v) != "v1" {
		t.Fatalf("Get = %q ok=%v", v, ok)
	}

	if err := s.Del(ctx, "k1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k1"); ok {
		t.Fatalf("key survived Del")
	}
}

func TestGet_MissingKeyIsNotAnError(t *testing.T) {
	s, _ := newMini(t)
	v, ok, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok || v != nil {
		t.Fatalf("missing key: v=%q ok=%v", v, ok)
	}
}

func TestTTL_Expires(t *testing.T) {
	s, mr := newMini(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("entry should be expired")
	}
}

func TestContextCancel_IsRespected(t *testing.T) {
	s, _ := newMini(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Set(ctx, "k", []byte("v"), time.Second); err == nil {
		t.Fatalf("expected error on Set with canceled context")
	}
	if _, _, err := s.Get(ctx, "k"); err == nil {
		t.Fatalf("expected error on Get with canceled context")
	}
}

func TestPing(t *testing.T) {
	s, mr := newMini(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	mr.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping failure after close")
	}
}

func TestNew_RequiresAddr(t *testing.T) {
	if _, err := New(context.Background(), "", 0); err == nil {
		t.Fatalf("expected error for empty address")
	}
}
