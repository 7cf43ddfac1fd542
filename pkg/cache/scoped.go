package cache

import "strings"

// Keyer derives cache keys for controller catalog endpoints.
type Keyer interface {
	// CatalogKey returns the key for an endpoint (e.g. "parts") of the
	// controller at baseURL.
	CatalogKey(baseURL, endpoint string) string
}

// DefaultKeyer hashes the controller URL so keys stay filesystem-safe.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// CatalogKey implements Keyer.
func (DefaultKeyer) CatalogKey(baseURL, endpoint string) string {
	return hashKey("catalog", strings.TrimRight(baseURL, "/"), endpoint)
}

// ScopedKeyer wraps a Keyer with a prefix, e.g. to separate catalogs per
// layout revision.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "layout:v2:")
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

// CatalogKey generates a prefixed catalog key.
func (k *ScopedKeyer) CatalogKey(baseURL, endpoint string) string {
	return k.prefix + k.inner.CatalogKey(baseURL, endpoint)
}
