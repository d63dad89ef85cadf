package cache

// ScopedKeyer prefixes every key of an inner Keyer. The CLI and the server
// use it for [RedisCache] to keep their entries apart from other tools
// sharing the same Redis database.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "sheetpack:")
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

// MeasureKey returns the prefixed measurement key.
func (k *ScopedKeyer) MeasureKey(path string, opts MeasureKeyOpts) string {
	return k.prefix + k.inner.MeasureKey(path, opts)
}

// LayoutKey returns the prefixed layout key.
func (k *ScopedKeyer) LayoutKey(itemsHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(itemsHash, opts)
}

// ArtifactKey returns the prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
