package cache

// ScopedKeyer wraps a Keyer with a prefix, so that several tools or
// tenants can share one Redis instance without colliding:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "stackresolve:ci:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner uses
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, url string) string {
	return k.prefix + k.inner.HTTPKey(namespace, url)
}

func (k *ScopedKeyer) DescriptorKey(coordinate string) string {
	return k.prefix + k.inner.DescriptorKey(coordinate)
}

func (k *ScopedKeyer) MetadataKey(repositoryID, ref string) string {
	return k.prefix + k.inner.MetadataKey(repositoryID, ref)
}

func (k *ScopedKeyer) ResolutionKey(root string, opts ResolutionKeyOpts) string {
	return k.prefix + k.inner.ResolutionKey(root, opts)
}
