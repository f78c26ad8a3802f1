package cache

// ScopedKeyer prepends a fixed prefix to every key produced by an inner
// Keyer. Prefixing by threat model ID keeps analyses for different models
// (or different users sharing one Redis backend) apart:
//
//	keyer := NewScopedKeyer(nil, "tm:"+tmID+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner with the given prefix. A nil inner falls back
// to the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) AnalysisKey(repoURL string, opts AnalysisKeyOpts) string {
	return k.prefix + k.inner.AnalysisKey(repoURL, opts)
}

func (k *ScopedKeyer) ExtractKey(reportHash string, opts ExtractKeyOpts) string {
	return k.prefix + k.inner.ExtractKey(reportHash, opts)
}
