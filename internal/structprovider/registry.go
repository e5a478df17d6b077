package structprovider

import (
	"sort"
	"strings"

	"github.com/isty2e/identedit/internal/apperr"
)

// Registry implements a deterministic, five-step grammar resolution order.
// Adapted from internal/registry/registry.go's chain-of-lookup idea,
// narrowed from a priority-scored multi-provider match to a fixed chain.
type Registry struct {
	bundled  []Provider
	header   Provider
	manifest []Provider
	json     Provider
	fallback Provider
}

// NewRegistry builds the default chain. manifestProviders may be nil; pass
// the result of LoadManifest.
func NewRegistry(manifestProviders []Provider) *Registry {
	bundled := make([]Provider, 0, len(bundledLanguages))
	for _, spec := range bundledLanguages {
		bundled = append(bundled, &treeSitterProvider{spec: spec})
	}
	return &Registry{
		bundled:  bundled,
		header:   headerProvider{},
		manifest: manifestProviders,
		json:     jsonProvider{},
		fallback: fallbackProvider{},
	}
}

// ProviderFor returns the first provider in resolution order whose
// CanHandle(path) is true. The fallback always matches, so this only
// errors if a caller passes an empty registry (never constructed via
// NewRegistry).
func (r *Registry) ProviderFor(path string) (Provider, error) {
	for _, p := range r.bundled {
		if p.CanHandle(path) {
			return p, nil
		}
	}
	if r.header != nil && r.header.CanHandle(path) {
		return r.header, nil
	}
	for _, p := range r.manifest {
		if p.CanHandle(path) {
			return p, nil
		}
	}
	if r.json != nil && r.json.CanHandle(path) {
		return r.json, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, apperr.New(apperr.NoProvider, "no provider for %s (supported: %s)", path, strings.Join(r.SupportedExtensions(), ", ")).
		WithSuggestion("Use supported extension or install grammar")
}

// SupportedExtensions returns a deduplicated, sorted list of every
// extension a non-fallback provider declares, for the no_provider error.
func (r *Registry) SupportedExtensions() []string {
	seen := make(map[string]struct{})
	add := func(p Provider) {
		for _, ext := range p.Extensions() {
			seen[ext] = struct{}{}
		}
	}
	for _, p := range r.bundled {
		add(p)
	}
	if r.header != nil {
		add(r.header)
	}
	for _, p := range r.manifest {
		add(p)
	}
	if r.json != nil {
		add(r.json)
	}

	out := make([]string, 0, len(seen))
	for ext := range seen {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Parse resolves path's provider and parses source with it.
func (r *Registry) Parse(path string, source []byte) ([]Node, error) {
	p, err := r.ProviderFor(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(source)
}
