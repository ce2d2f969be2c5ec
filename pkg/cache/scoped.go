package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis instance without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// PermutationKey generates a prefixed permutation key.
func (k *ScopedKeyer) PermutationKey(fingerprint string, opts PermutationKeyOpts) string {
	return k.prefix + k.inner.PermutationKey(fingerprint, opts)
}

// RenderKey generates a prefixed render key.
func (k *ScopedKeyer) RenderKey(fingerprint string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(fingerprint, opts)
}
