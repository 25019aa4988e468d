package schema

import (
	"fmt"
	"strings"

	"github.com/aristath/smartwealth/internal/domain"
)

// Registry is the immutable set of schemas keyed by dataset
type Registry struct {
	schemas map[string]*Schema
	keys    []string
}

// NewRegistry builds every definition and indexes the results.
// The default dataset must be among them.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{schemas: make(map[string]*Schema, len(defs))}
	for _, def := range defs {
		s, err := New(def)
		if err != nil {
			return nil, err
		}
		if _, dup := r.schemas[s.Key()]; dup {
			return nil, &domain.ConfigError{Field: "schema.key", Reason: fmt.Sprintf("duplicate dataset %q", s.Key())}
		}
		r.schemas[s.Key()] = s
		r.keys = append(r.keys, s.Key())
	}
	if _, ok := r.schemas[domain.DefaultDataset]; !ok {
		return nil, &domain.ConfigError{Field: "schema.key", Reason: fmt.Sprintf("default dataset %q is not registered", domain.DefaultDataset)}
	}
	return r, nil
}

// NewDefaultRegistry builds the registry of the built-in datasets
func NewDefaultRegistry(tables Tables) (*Registry, error) {
	return NewRegistry(Catalog(tables)...)
}

// Get returns the schema for key, matched case-insensitively
func (r *Registry) Get(key string) (*Schema, bool) {
	s, ok := r.schemas[strings.ToLower(strings.TrimSpace(key))]
	return s, ok
}

// Lookup returns the schema for key, or the default dataset's schema
// when key is unknown
func (r *Registry) Lookup(key string) *Schema {
	if s, ok := r.Get(key); ok {
		return s
	}
	return r.schemas[domain.DefaultDataset]
}

// Keys returns the dataset keys in registration order
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// All returns the schemas in registration order
func (r *Registry) All() []*Schema {
	out := make([]*Schema, 0, len(r.keys))
	for _, key := range r.keys {
		out = append(out, r.schemas[key])
	}
	return out
}

// ByMode returns the schemas using the given execution mode
func (r *Registry) ByMode(mode domain.ExecutionMode) []*Schema {
	var out []*Schema
	for _, s := range r.All() {
		if s.Mode() == mode {
			out = append(out, s)
		}
	}
	return out
}
