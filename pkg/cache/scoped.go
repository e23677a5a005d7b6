package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// The server uses it to give each stored construction namespace its own
// cache space while sharing one Redis instance.
//
// Example usage:
//
//	// Session-specific keys
//	sessionKeyer := NewScopedKeyer(NewDefaultKeyer(), "session:abc123:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SystemKey generates a prefixed key for elimination result caching.
func (k *ScopedKeyer) SystemKey(signature string) string {
	return k.prefix + k.inner.SystemKey(signature)
}

// CurveKey generates a prefixed key for sampled curve caching.
func (k *ScopedKeyer) CurveKey(signature string, opts CurveKeyOpts) string {
	return k.prefix + k.inner.CurveKey(signature, opts)
}

// DocumentKey generates a prefixed key for construction document caching.
func (k *ScopedKeyer) DocumentKey(name string) string {
	return k.prefix + k.inner.DocumentKey(name)
}
