package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("empty cache should miss")
	}

	want := []byte(`{"branches":[[{"x":1,"y":2}]]}`)
	if err := c.Set(ctx, "curve:abc", want, 0); err != nil {
		t.Fatal(err)
	}
	got, hit, err := c.Get(ctx, "curve:abc")
	if err != nil || !hit {
		t.Fatalf("Get after Set: hit=%v err=%v", hit, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get = %q, want %q", got, want)
	}

	if err := c.Delete(ctx, "curve:abc"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "curve:abc"); hit {
		t.Error("deleted entry should miss")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("x^2 + y^2 - 1"))
	h2 := Hash([]byte("x^2 + y^2 - 1"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("x^2 + y^2 - 4")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.SystemKey("deadbeef"); got != "system:deadbeef" {
		t.Errorf("SystemKey unexpected: %s", got)
	}
	if got := k.DocumentKey("ellipse"); got != "doc:ellipse" {
		t.Errorf("DocumentKey unexpected: %s", got)
	}

	// Different viewports must key different curve entries.
	ck1 := k.CurveKey("deadbeef", CurveKeyOpts{MinX: -5, MaxX: 5, MinY: -5, MaxY: 5, GridSize: 64})
	ck2 := k.CurveKey("deadbeef", CurveKeyOpts{MinX: -10, MaxX: 10, MinY: -5, MaxY: 5, GridSize: 64})
	if ck1 == ck2 {
		t.Error("Different viewports should produce different keys")
	}
	// Identical inputs must key identically.
	if ck1 != k.CurveKey("deadbeef", CurveKeyOpts{MinX: -5, MaxX: 5, MinY: -5, MaxY: 5, GridSize: 64}) {
		t.Error("CurveKey should be deterministic")
	}
}

func TestCurveKeyCoversTracingParams(t *testing.T) {
	k := NewDefaultKeyer()
	base := CurveKeyOpts{MinX: -5, MaxX: 5, MinY: -5, MaxY: 5, GridSize: 64, MaxSteps: 4000}

	variants := []CurveKeyOpts{base, base, base}
	variants[0].GridSize = 128
	variants[1].MaxSteps = 500
	variants[2].StepSize = 0.01
	for _, v := range variants {
		if k.CurveKey("deadbeef", base) == k.CurveKey("deadbeef", v) {
			t.Errorf("tracing change %+v should key a different curve entry", v)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "session:123:")
	if got := scoped.SystemKey("abc"); got != "session:123:system:abc" {
		t.Errorf("scoped SystemKey unexpected: %s", got)
	}
	if got := scoped.DocumentKey("n"); got != "session:123:doc:n" {
		t.Errorf("scoped DocumentKey unexpected: %s", got)
	}
}

func TestRetryWithBackoffStopsOnPermanent(t *testing.T) {
	ctx := context.Background()
	calls := 0
	permanent := errors.New("bad request")
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("got %v", err)
	}
	if calls != 1 {
		t.Errorf("permanent errors should not retry, got %d calls", calls)
	}
}

func TestRetryWithBackoffRetriesRetryable(t *testing.T) {
	ctx := context.Background()
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})
	if err != nil {
		t.Errorf("got %v, want success after retry", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
