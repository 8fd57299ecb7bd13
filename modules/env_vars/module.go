package env_vars

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/runtime"
)

// TypeName is the component type and the service it provides.
const TypeName = "composegrid.Environment"

// Module implements the runtime.Module interface for this package.
type Module struct{}

// Environment is a snapshot of the process environment taken at activation.
type Environment struct {
	vars map[string]string
}

// Get returns the value of key.
func (e *Environment) Get(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Keys returns the captured variable names, sorted.
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of captured variables.
func (e *Environment) Len() int {
	return len(e.vars)
}

// Create captures the environment. With a "prefix" configuration only
// matching variables are kept, with the prefix stripped when "strip" is true.
func Create(_ context.Context, req *runtime.Request) (any, error) {
	prefix := cast.ToString(req.Configuration["prefix"])
	strip := cast.ToBool(req.Configuration["strip"])

	vars := make(map[string]string)
	for _, e := range os.Environ() {
		k, v, ok := strings.Cut(e, "=")
		if !ok || !strings.HasPrefix(k, prefix) {
			continue
		}
		if strip {
			k = strings.TrimPrefix(k, prefix)
		}
		vars[k] = v
	}
	req.Logger.Debug("Environment captured.", "prefix", prefix, "count", len(vars))
	return &Environment{vars: vars}, nil
}

// Register registers the component with the runtime.
func (m *Module) Register(r *runtime.Registry) {
	r.RegisterComponent(&runtime.RegisteredComponent{
		Type: &meta.Type{
			Info: meta.InfoDescriptor{Name: TypeName, Version: "1.0.0"},
			Services: []meta.ServiceDescriptor{{
				Reference: meta.ReferenceDescriptor{Type: TypeName, Version: "1.0.0"},
			}},
		},
		Create: Create,
	})
}
