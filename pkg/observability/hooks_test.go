package observability

import (
	"context"
	"testing"
	"time"
)

type countingLocusHooks struct {
	NoopLocusHooks
	stale int
}

func (h *countingLocusHooks) OnStale(context.Context, int, error) { h.stale++ }

func TestDefaultsAreNoop(t *testing.T) {
	ctx := context.Background()
	// None of these may panic with no hooks registered.
	Graph().OnUpdate(ctx, 3, time.Millisecond)
	Locus().OnEliminationStart(ctx, 1, 4)
	Locus().OnStale(ctx, 1, nil)
	Cache().OnCacheHit(ctx, "curve")
	HTTP().OnRequest(ctx, "POST", "localhost", "/eliminate")
}

func TestSetLocusHooks(t *testing.T) {
	h := &countingLocusHooks{}
	SetLocusHooks(h)
	defer SetLocusHooks(NoopLocusHooks{})

	Locus().OnStale(context.Background(), 2, nil)
	if h.stale != 1 {
		t.Errorf("stale events = %d, want 1", h.stale)
	}
}

func TestSetNilKeepsPrevious(t *testing.T) {
	SetCacheHooks(nil)
	if Cache() == nil {
		t.Error("nil registration should keep the previous hooks")
	}
}
