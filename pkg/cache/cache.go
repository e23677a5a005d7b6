// Package cache provides the caching layer for the locus pipeline.
//
// Three backends share one interface: FileCache for CLI usage, RedisCache
// for the server, and NullCache to disable caching. Keys are produced by
// a Keyer so every component agrees on the naming scheme and servers can
// scope tenants with a prefix.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// CurveKeyOpts captures everything besides the signature that changes a
// traced curve: the viewport and the tracing parameters. Every field
// must be part of the key, or a config change would replay a stale
// curve.
type CurveKeyOpts struct {
	MinX, MinY float64
	MaxX, MaxY float64
	GridSize   int
	MaxSteps   int
	StepSize   float64
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// SystemKey keys an elimination result by the structural signature
	// of the normalized constraint system.
	SystemKey(signature string) string
	// CurveKey keys a sampled curve by signature plus viewport options.
	CurveKey(signature string, opts CurveKeyOpts) string
	// DocumentKey keys a stored construction document by name.
	DocumentKey(name string) string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SystemKey generates a key for elimination result caching.
func (k *DefaultKeyer) SystemKey(signature string) string {
	return "system:" + signature
}

// CurveKey generates a key for sampled curve caching.
// Viewport options are hashed into the key so panning or zooming keys a
// different entry while the signature part stays recognizable.
func (k *DefaultKeyer) CurveKey(signature string, opts CurveKeyOpts) string {
	return hashKey("curve:"+signature, opts)
}

// DocumentKey generates a key for construction document caching.
func (k *DefaultKeyer) DocumentKey(name string) string {
	return "doc:" + name
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
