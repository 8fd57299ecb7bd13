package runtime

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/vk/composegrid/internal/catalog"
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

// Module is the interface that all component modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the component factories and entry builders of a single
// application instance.
type Registry struct {
	mu         sync.RWMutex
	order      []string
	components map[string]*RegisteredComponent
	entries    map[string]EntryFunc
}

// New creates a Registry with the built-in entry builders installed.
func New() *Registry {
	r := &Registry{
		components: make(map[string]*RegisteredComponent),
		entries:    make(map[string]EntryFunc),
	}
	registerBuiltinEntries(r)
	return r
}

// RegisteredComponent binds a component type to the Go functions that build
// and release its instances. Packaged are the profiles shipped with the type.
type RegisteredComponent struct {
	Type     *meta.Type
	Packaged []*profile.ComponentProfile
	Create   CreateFunc
	Destroy  DestroyFunc
}

// RegisterComponent registers a component type and its lifecycle functions.
func (r *Registry) RegisterComponent(c *RegisteredComponent) {
	if c == nil || c.Type == nil || c.Create == nil {
		panic("component registration requires a type and a Create function")
	}
	name := c.Type.Name()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.components[name]; exists {
		panic(fmt.Sprintf("component with type '%s' already registered", name))
	}
	slog.Debug("Registering component.", "type", name, "packaged", len(c.Packaged))
	r.components[name] = c
	r.order = append(r.order, name)
}

// RegisterEntry registers a builder for context entries of the given type key.
func (r *Registry) RegisterEntry(key string, fn EntryFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[key]; exists {
		panic(fmt.Sprintf("entry builder with key '%s' already registered", key))
	}
	slog.Debug("Registering entry builder.", "key", key)
	r.entries[key] = fn
}

// Component returns the registration for a type name.
func (r *Registry) Component(name string) (*RegisteredComponent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	return c, ok
}

// Components returns every registration in registration order.
func (r *Registry) Components() []*RegisteredComponent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*RegisteredComponent, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.components[name])
	}
	return out
}

// EntryKeys returns the registered entry type keys, sorted.
func (r *Registry) EntryKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// PopulateCatalog registers every component type, with its packaged
// profiles, into cat.
func (r *Registry) PopulateCatalog(cat *catalog.Catalog) error {
	for _, c := range r.Components() {
		if err := cat.Register(c.Type, c.Packaged...); err != nil {
			return fmt.Errorf("populating catalog: %w", err)
		}
	}
	return nil
}

// RegisterModules lets each module register its components.
func (r *Registry) RegisterModules(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}
