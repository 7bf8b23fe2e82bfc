package forge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rios0rios0/mirrorkeep/domain"
)

// Factory builds a ForgeClient from an auth token.
type Factory func(token string) domain.ForgeClient

// Registry maps forge names to client factories.
type Registry struct {
	forges map[string]Factory
}

// NewRegistry creates an empty forge registry.
func NewRegistry() *Registry {
	return &Registry{
		forges: make(map[string]Factory),
	}
}

// Register adds a forge factory under the given name (e.g. "github").
func (r *Registry) Register(name string, factory Factory) {
	r.forges[name] = factory
}

// Get returns a configured forge client for the given name and token. The
// error for an unknown name lists what is registered, since the name usually
// comes from user configuration.
func (r *Registry) Get(name, token string) (domain.ForgeClient, error) {
	factory, ok := r.forges[name]
	if !ok {
		registered := make([]string, 0, len(r.forges))
		for known := range r.forges {
			registered = append(registered, known)
		}
		sort.Strings(registered)
		return nil, fmt.Errorf("unknown forge type %q (registered: %s)",
			name, strings.Join(registered, ", "))
	}
	return factory(token), nil
}
