package providers

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when two descriptors share an id
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Registry is the static table of providers. It is never mutated after
// NewRegistry returns, so it is safe for concurrent use without locking.
type Registry struct {
	descriptors map[string]Descriptor
	adapters    map[Family]Adapter
	ids         []string
}

// NewRegistry validates descs and builds a registry that resolves each
// descriptor's family against adapters.
func NewRegistry(adapters []Adapter, descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		descriptors: make(map[string]Descriptor, len(descs)),
		adapters:    make(map[Family]Adapter, len(adapters)),
	}

	for _, a := range adapters {
		r.adapters[a.Family()] = a
	}

	for _, d := range descs {
		if err := r.validate(d); err != nil {
			return nil, err
		}
		if _, exists := r.descriptors[d.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrProviderAlreadyRegistered, d.ID)
		}
		r.descriptors[d.ID] = cloneDescriptor(d)
		r.ids = append(r.ids, d.ID)
	}
	sort.Strings(r.ids)

	return r, nil
}

func (r *Registry) validate(d Descriptor) error {
	if d.ID == "" {
		return errors.New("provider id cannot be empty")
	}
	if d.Endpoint == "" {
		return fmt.Errorf("provider %s: endpoint cannot be empty", d.ID)
	}
	if _, err := url.ParseRequestURI(d.Endpoint); err != nil {
		return fmt.Errorf("provider %s: invalid endpoint: %w", d.ID, err)
	}
	if d.AuthStyle != AuthBearer && d.AuthStyle != AuthHeaderPair {
		return fmt.Errorf("provider %s: unsupported auth style %q", d.ID, d.AuthStyle)
	}
	if _, ok := r.adapters[d.Family]; !ok {
		return fmt.Errorf("provider %s: no adapter for family %q", d.ID, d.Family)
	}
	return nil
}

// Describe retrieves a provider descriptor by id
func (r *Registry) Describe(id string) (Descriptor, error) {
	d, ok := r.descriptors[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	return cloneDescriptor(d), nil
}

// AdapterFor returns the adapter serving desc's family
func (r *Registry) AdapterFor(desc Descriptor) (Adapter, error) {
	a, ok := r.adapters[desc.Family]
	if !ok {
		return nil, fmt.Errorf("provider %s: no adapter for family %q", desc.ID, desc.Family)
	}
	return a, nil
}

// AvailableProviders returns, sorted, the ids that have a non-empty
// credential in creds
func (r *Registry) AvailableProviders(creds CredentialSet) []string {
	available := make([]string, 0, len(r.ids))
	for _, id := range r.ids {
		if _, ok := creds.Get(id); ok {
			available = append(available, id)
		}
	}
	return available
}

// IDs returns all registered provider ids, sorted
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.ids))
	copy(ids, r.ids)
	return ids
}

// Descriptors returns every descriptor ordered by id
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, cloneDescriptor(r.descriptors[id]))
	}
	return out
}

// Count returns the number of registered providers
func (r *Registry) Count() int {
	return len(r.ids)
}

// cloneDescriptor copies the header map so callers cannot mutate the table
func cloneDescriptor(d Descriptor) Descriptor {
	if d.ExtraHeaders != nil {
		headers := make(map[string]string, len(d.ExtraHeaders))
		for k, v := range d.ExtraHeaders {
			headers[k] = v
		}
		d.ExtraHeaders = headers
	}
	return d
}
