package cache

// ScopedKeyer wraps a Keyer with a prefix so several namespaces can share
// one backend. The CLI scopes keys by build version, so an upgrade with a
// changed renderer never serves labels drawn by the old one.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1.2.0:")
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

// LabelKey generates a prefixed key for label caching.
func (k *ScopedKeyer) LabelKey(payload string, opts LabelKeyOpts) string {
	return k.prefix + k.inner.LabelKey(payload, opts)
}

// SheetKey generates a prefixed key for sheet caching.
func (k *ScopedKeyer) SheetKey(labelsHash string, opts SheetKeyOpts) string {
	return k.prefix + k.inner.SheetKey(labelsHash, opts)
}
