package provider

// Registry holds the closed provider set: one primary bytes-capable
// provider and an explicit ID-to-provider mapping for the URL-only
// visual search providers.
type Registry struct {
	primary      ByteAnalyzer
	urlProviders map[ID]URLAnalyzer
}

// NewRegistry builds the registry. urlProviders may be nil or partial;
// preferences that resolve to a missing provider fall through to the
// primary.
func NewRegistry(primary ByteAnalyzer, urlProviders map[ID]URLAnalyzer) *Registry {
	providers := make(map[ID]URLAnalyzer, len(urlProviders))
	for id, p := range urlProviders {
		if p != nil {
			providers[id] = p
		}
	}
	return &Registry{primary: primary, urlProviders: providers}
}

// Primary returns the bytes-capable primary provider.
func (r *Registry) Primary() ByteAnalyzer {
	return r.primary
}

// URLProvider returns the URL-capability provider for an ID, if one is
// configured.
func (r *Registry) URLProvider(id ID) (URLAnalyzer, bool) {
	p, ok := r.urlProviders[id]
	return p, ok
}
