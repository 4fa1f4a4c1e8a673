package baseline

import (
	"context"
	"fmt"
	"sort"

	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
)

// Provider supplies the code-declared baseline entries for one source.
// Complete sources declare every key they own, so store keys missing from the
// baseline may be reported as removals; partial sources must not.
type Provider interface {
	Source() string
	Complete() bool
	Entries(ctx context.Context) ([]models.BaselineEntry, error)
}

// Registry resolves source names to providers.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// NewRegistry builds a registry, rejecting duplicate source names.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		name := p.Source()
		if _, exists := r.providers[name]; exists {
			return nil, fmt.Errorf("duplicate baseline source: %s", name)
		}
		r.providers[name] = p
		r.order = append(r.order, name)
	}
	sort.Strings(r.order)
	return r, nil
}

// Sources returns all registered source names in stable order.
func (r *Registry) Sources() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the provider for a source.
func (r *Registry) Get(source string) (Provider, bool) {
	p, ok := r.providers[source]
	return p, ok
}

// Resolve maps the requested source names to providers. An empty request
// selects every registered source.
func (r *Registry) Resolve(sources []string) ([]Provider, error) {
	if len(sources) == 0 {
		out := make([]Provider, 0, len(r.order))
		for _, name := range r.order {
			out = append(out, r.providers[name])
		}
		return out, nil
	}
	out := make([]Provider, 0, len(sources))
	seen := make(map[string]struct{}, len(sources))
	for _, name := range sources {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		p, ok := r.providers[name]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown baseline source: %s", name))
		}
		out = append(out, p)
	}
	return out, nil
}

// StaticProvider serves a fixed entry set, typically compiled-in defaults.
type StaticProvider struct {
	source   string
	complete bool
	entries  []models.BaselineEntry
}

// NewStaticProvider constructs a provider from in-code entries.
func NewStaticProvider(source string, complete bool, entries []models.BaselineEntry) *StaticProvider {
	for i := range entries {
		entries[i].Source = source
	}
	return &StaticProvider{source: source, complete: complete, entries: entries}
}

// Source implements Provider.
func (p *StaticProvider) Source() string { return p.source }

// Complete implements Provider.
func (p *StaticProvider) Complete() bool { return p.complete }

// Entries implements Provider.
func (p *StaticProvider) Entries(ctx context.Context) ([]models.BaselineEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.BaselineEntry, len(p.entries))
	copy(out, p.entries)
	return out, nil
}
