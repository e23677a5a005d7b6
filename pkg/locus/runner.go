// Package locus drives the symbolic locus pipeline: collect the
// constraint system for a target point, normalize it, ship it to the
// elimination engine, trace the resulting implicit curve, and cache the
// outcome keyed by the system's structural signature.
//
// The runner is the only place allowed to suspend (it awaits the
// engine). Display state degrades instead of failing: when the engine is
// unreachable, times out, or reports a degenerate system, the target
// keeps its previous curve and is marked stale.
package locus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/loci-dev/loci/pkg/cache"
	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/eliminate"
	"github.com/loci-dev/loci/pkg/errors"
	"github.com/loci-dev/loci/pkg/geom"
	"github.com/loci-dev/loci/pkg/implicit"
	"github.com/loci-dev/loci/pkg/normalize"
	"github.com/loci-dev/loci/pkg/observability"
)

// Engine is the elimination boundary. *eliminate.Client implements it.
type Engine interface {
	Eliminate(ctx context.Context, polynomials, eliminateVars, keepVars []string) (*eliminate.Result, error)
}

// Runner executes the locus pipeline with caching.
//
// The Runner holds per-target display state (current curve, staleness)
// but no pipeline intermediates. One Runner serves one construction at a
// time; guard it with the construction if goroutines share them.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Engine   Engine
	Selector normalize.AnchorSelector
	Logger   *log.Logger

	// TraceOpts tune the curve tracer for every build.
	TraceOpts implicit.Options
	// TTL bounds cache entries. Zero means no expiration.
	TTL time.Duration

	mu    sync.Mutex
	state map[construction.ID]*targetState
}

type targetState struct {
	curve      *implicit.SampledCurve
	curveBytes []byte
	signature  string
	stale      bool
	inFlight   bool
	dirty      bool
	removed    bool
}

// Result reports one refresh outcome.
type Result struct {
	Curve     *implicit.SampledCurve
	Signature string
	// Stale is set when the refresh failed and Curve is the previous
	// result (possibly empty).
	Stale bool
	// CacheHit is set when the whole symbolic path was skipped.
	CacheHit bool
	// Coalesced is set when a refresh was already in flight and this
	// trigger only marked the target dirty.
	Coalesced bool
	// Err is the absorbed locus failure, if any. It never aborts the
	// caller; it is carried for logging and display.
	Err error
}

// NewRunner creates a runner. Nil collaborators fall back to NullCache,
// DefaultKeyer, the default anchor selector, and the default logger; the
// engine is required.
func NewRunner(c cache.Cache, keyer cache.Keyer, engine Engine, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Engine: engine,
		Logger: logger,
		state:  make(map[construction.ID]*targetState),
	}
}

// Curve returns the target's current curve without blocking, or an empty
// curve if none has been built yet.
func (r *Runner) Curve(target construction.ID) *implicit.SampledCurve {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.state[target]; ok && st.curve != nil {
		return st.curve
	}
	return &implicit.SampledCurve{}
}

// IsStale reports whether the target's displayed curve is out of date.
func (r *Runner) IsStale(target construction.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.state[target]
	return ok && st.stale
}

// Discard drops per-target state for removed elements. An elimination
// response arriving for a discarded target is thrown away instead of
// mutating a dangling entry.
func (r *Runner) Discard(ids ...construction.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if st, ok := r.state[id]; ok {
			if st.inFlight {
				st.removed = true
			} else {
				delete(r.state, id)
			}
		}
	}
}

// Refresh runs the pipeline for one locus target. It is synchronous: on
// return the target's curve is current, stale, or the call was coalesced
// into a refresh already in flight. Locus failures (timeout, engine
// unreachable, degenerate system) are absorbed: the previous curve stays
// on display, the target is marked stale, and Result.Err carries the
// cause. Only construction-level problems (unknown element, invalid
// target) return an error.
func (r *Runner) Refresh(ctx context.Context, c *construction.Construction, target construction.ID, viewport implicit.BoundingBox) (*Result, error) {
	r.mu.Lock()
	st, ok := r.state[target]
	if !ok {
		st = &targetState{}
		r.state[target] = st
	}
	if st.inFlight {
		st.dirty = true
		res := &Result{Curve: st.curve, Signature: st.signature, Stale: st.stale, Coalesced: true}
		r.mu.Unlock()
		return res, nil
	}
	st.inFlight = true
	r.mu.Unlock()

	for {
		res, err := r.run(ctx, c, target, viewport, st)

		r.mu.Lock()
		if st.removed {
			st.inFlight = false
			delete(r.state, target)
			r.mu.Unlock()
			return res, err
		}
		if st.dirty && err == nil {
			st.dirty = false
			r.mu.Unlock()
			continue
		}
		st.inFlight = false
		r.mu.Unlock()
		return res, err
	}
}

// run executes one pipeline pass. It mutates st only under r.mu and only
// when the target has not been removed mid-flight.
func (r *Runner) run(ctx context.Context, c *construction.Construction, target construction.ID, viewport implicit.BoundingBox, st *targetState) (*Result, error) {
	sys, err := c.System(target)
	if err != nil {
		return nil, err
	}
	sig := sys.Signature()
	grid := r.TraceOpts.GridSize
	if grid <= 0 {
		grid = implicit.DefaultGridSize
	}
	steps := r.TraceOpts.MaxSteps
	if steps <= 0 {
		steps = implicit.DefaultMaxSteps
	}
	// Every tracing parameter is part of the key; a zero StepSize is
	// derived from the viewport, which the key already covers.
	curveKey := r.Keyer.CurveKey(sig, cache.CurveKeyOpts{
		MinX: viewport.MinX, MinY: viewport.MinY,
		MaxX: viewport.MaxX, MaxY: viewport.MaxY,
		GridSize: grid,
		MaxSteps: steps,
		StepSize: r.TraceOpts.StepSize,
	})

	// Cache hit skips binder, normalizer and elimination entirely and
	// returns the stored bytes unchanged.
	if data, hit, _ := r.Cache.Get(ctx, curveKey); hit {
		var curve implicit.SampledCurve
		if err := json.Unmarshal(data, &curve); err == nil {
			observability.Cache().OnCacheHit(ctx, "curve")
			r.store(target, st, &curve, data, sig)
			return &Result{Curve: &curve, Signature: sig, CacheHit: true}, nil
		}
		_ = r.Cache.Delete(ctx, curveKey)
	}
	observability.Cache().OnCacheMiss(ctx, "curve")

	polys, err := r.eliminateWithCache(ctx, c, sys, sig)
	if err != nil {
		if errors.IsLocusFailure(err) {
			return r.markStale(ctx, target, st, sig, err), nil
		}
		return nil, err
	}

	norm, err := normalize.Normalize(c, sys, r.Selector)
	if err != nil {
		if errors.IsLocusFailure(err) {
			return r.markStale(ctx, target, st, sig, err), nil
		}
		return nil, err
	}

	observability.Locus().OnTraceStart(ctx, int(target))
	start := time.Now()
	merged := &implicit.SampledCurve{}
	normViewport := normalizedViewport(norm.Transform, viewport)
	for _, ps := range polys {
		poly, perr := implicit.Parse(ps)
		if perr != nil {
			r.Logger.Warn("skipping unparsable implicit polynomial", "polynomial", ps, "error", perr)
			continue
		}
		traced := implicit.Trace(poly, normViewport, r.TraceOpts)
		for _, branch := range traced.Branches {
			merged.Branches = append(merged.Branches, norm.Transform.InvertAll(branch))
		}
	}
	observability.Locus().OnTraceComplete(ctx, int(target), len(merged.Branches), merged.Points(), time.Since(start))

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode curve")
	}
	if err := r.Cache.Set(ctx, curveKey, data, r.TTL); err != nil {
		r.Logger.Warn("curve cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "curve", len(data))
	}

	r.store(target, st, merged, data, sig)
	r.Logger.Info("locus rebuilt",
		"target", target,
		"branches", len(merged.Branches),
		"points", merged.Points())
	return &Result{Curve: merged, Signature: sig}, nil
}

// eliminateWithCache returns the implicit polynomials for the system,
// consulting the signature-keyed elimination cache first. The normalized
// system is only built on a miss.
func (r *Runner) eliminateWithCache(ctx context.Context, c *construction.Construction, sys *construction.System, sig string) ([]string, error) {
	key := r.Keyer.SystemKey(sig)
	if data, hit, _ := r.Cache.Get(ctx, key); hit {
		var polys []string
		if err := json.Unmarshal(data, &polys); err == nil && len(polys) > 0 {
			observability.Cache().OnCacheHit(ctx, "system")
			return polys, nil
		}
		_ = r.Cache.Delete(ctx, key)
	}
	observability.Cache().OnCacheMiss(ctx, "system")

	norm, err := normalize.Normalize(c, sys, r.Selector)
	if err != nil {
		return nil, err
	}

	observability.Locus().OnEliminationStart(ctx, int(sys.Target), len(norm.Polynomials))
	start := time.Now()
	res, err := r.Engine.Eliminate(ctx, norm.Strings(), norm.Eliminate, norm.Keep)
	observability.Locus().OnEliminationComplete(ctx, int(sys.Target), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("elimination ideal computed",
		"target", sys.Target,
		"polynomials", len(res.Polynomials),
		"engine_elapsed", res.Elapsed)

	if data, err := json.Marshal(res.Polynomials); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.TTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "system", len(data))
		}
	}
	return res.Polynomials, nil
}

// markStale records a failed refresh: the previous curve stays, the
// stale flag goes up.
func (r *Runner) markStale(ctx context.Context, target construction.ID, st *targetState, sig string, cause error) *Result {
	observability.Locus().OnStale(ctx, int(target), cause)
	r.Logger.Warn("locus refresh failed, serving stale curve",
		"target", target,
		"error", errors.UserMessage(cause))

	r.mu.Lock()
	defer r.mu.Unlock()
	st.stale = true
	st.signature = sig
	curve := st.curve
	if curve == nil {
		curve = &implicit.SampledCurve{}
	}
	return &Result{Curve: curve, Signature: sig, Stale: true, Err: cause}
}

func (r *Runner) store(target construction.ID, st *targetState, curve *implicit.SampledCurve, data []byte, sig string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st.removed {
		return
	}
	st.curve = curve
	st.curveBytes = data
	st.signature = sig
	st.stale = false
}

// CurveBytes returns the exact cached encoding of the target's curve.
// Two refreshes with an unchanged signature return identical bytes.
func (r *Runner) CurveBytes(target construction.ID) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.state[target]; ok {
		return st.curveBytes
	}
	return nil
}

// normalizedViewport maps the user viewport into the normalized frame,
// taking the bounding box of the transformed corners so the tracer
// covers at least the visible region.
func normalizedViewport(t normalize.Transform, box implicit.BoundingBox) implicit.BoundingBox {
	corners := []struct{ x, y float64 }{
		{box.MinX, box.MinY}, {box.MaxX, box.MinY},
		{box.MinX, box.MaxY}, {box.MaxX, box.MaxY},
	}
	out := implicit.BoundingBox{}
	for i, c := range corners {
		p := t.Apply(geom.Point{X: c.x, Y: c.y})
		if i == 0 {
			out = implicit.BoundingBox{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
			continue
		}
		out.MinX = min(out.MinX, p.X)
		out.MinY = min(out.MinY, p.Y)
		out.MaxX = max(out.MaxX, p.X)
		out.MaxY = max(out.MaxY, p.Y)
	}
	return out
}
