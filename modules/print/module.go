package print

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
	"github.com/vk/composegrid/internal/runtime"
	"github.com/vk/composegrid/modules/env_vars"
)

// TypeName is the component type and the service it provides.
const TypeName = "composegrid.Printer"

// Module implements the runtime.Module interface for this package.
type Module struct{}

// Printer writes messages to its component's log channel.
type Printer struct {
	logger *slog.Logger
	prefix string
}

// Print logs msg with the configured prefix.
func (p *Printer) Print(msg string, args ...any) {
	p.logger.Info(p.prefix+msg, args...)
}

// Create logs the component's configuration in key order and returns a
// Printer. When an environment is bound it also reports its size.
func Create(_ context.Context, req *runtime.Request) (any, error) {
	p := &Printer{logger: req.Logger}
	if prefix, ok := req.Configuration["prefix"]; ok {
		p.prefix = fmt.Sprint(prefix)
	}

	if len(req.Configuration) == 0 {
		p.Print("Printing configuration", "value", "(null)")
	}
	keys := make([]string, 0, len(req.Configuration))
	for k := range req.Configuration {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.Print("Printing configuration", "key", k, "value", fmt.Sprintf("%v", req.Configuration[k]))
	}

	if env, ok := req.Dependency("env").(*env_vars.Environment); ok {
		p.Print("Environment bound", "variables", env.Len())
	}
	return p, nil
}

// Register registers the component with the runtime.
func (m *Module) Register(r *runtime.Registry) {
	r.RegisterComponent(&runtime.RegisteredComponent{
		Type: &meta.Type{
			Info: meta.InfoDescriptor{Name: TypeName, Version: "1.0.0"},
			Services: []meta.ServiceDescriptor{{
				Reference: meta.ReferenceDescriptor{Type: TypeName, Version: "1.0.0"},
			}},
			Dependencies: []meta.DependencyDescriptor{{
				Key:       "env",
				Reference: meta.ReferenceDescriptor{Type: env_vars.TypeName, Version: "1"},
				Optional:  true,
			}},
		},
		Packaged: []*profile.ComponentProfile{{
			ProfileName:   "default",
			Configuration: map[string]any{"prefix": ""},
		}},
		Create: Create,
	})
}
