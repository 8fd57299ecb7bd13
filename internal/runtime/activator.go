package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/model"
)

var (
	// ErrNoFactory is returned when a type has no registered component.
	ErrNoFactory = errors.New("no component factory registered")
	// ErrNotContextualizer is returned when a context strategy provider
	// does not implement Contextualizer.
	ErrNotContextualizer = errors.New("context provider is not a Contextualizer")
	// ErrNotExtension is returned when a stage provider does not implement Extension.
	ErrNotExtension = errors.New("stage provider is not an Extension")
)

// Request is what a component factory receives.
type Request struct {
	// Path is the model path of the component.
	Path          string
	Type          *meta.Type
	Configuration map[string]any
	Context       map[string]any
	Dependencies  map[string]any
	Logger        *slog.Logger
}

// Dependency returns the provider instance bound under key, or nil.
func (r *Request) Dependency(key string) any {
	return r.Dependencies[key]
}

// CreateFunc builds a component instance.
type CreateFunc func(ctx context.Context, req *Request) (any, error)

// DestroyFunc releases a component instance.
type DestroyFunc func(ctx context.Context, instance any) error

// Contextualizer is implemented by providers of a non-default context
// strategy. It may add or replace entries before the instance is created.
type Contextualizer interface {
	Contextualize(ctx context.Context, req *Request) error
}

// Extension is implemented by stage providers.
type Extension interface {
	Create(ctx context.Context, stage string, instance any) error
	Destroy(ctx context.Context, stage string, instance any) error
}

// Activate implements model.Activator.
func (r *Registry) Activate(ctx context.Context, act *model.Activation) (any, error) {
	c, ok := r.Component(act.Type.Name())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoFactory, act.Type.Name())
	}

	req := &Request{
		Path:          act.Model.Path(),
		Type:          act.Type,
		Configuration: act.Configuration,
		Context:       maps.Clone(act.Context),
		Dependencies:  act.Dependencies,
		Logger:        act.Logger,
	}
	if req.Context == nil {
		req.Context = make(map[string]any)
	}
	if req.Logger == nil {
		req.Logger = slog.Default()
	}

	if act.ContextProvider != nil {
		cz, ok := act.ContextProvider.(Contextualizer)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrNotContextualizer, act.ContextProvider)
		}
		if err := cz.Contextualize(ctx, req); err != nil {
			return nil, fmt.Errorf("contextualizing %s: %w", req.Path, err)
		}
	}

	instance, err := c.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", req.Path, err)
	}

	for i, s := range act.Stages {
		ext, ok := s.Provider.(Extension)
		if !ok {
			err = fmt.Errorf("stage %q: %w: %T", s.Key, ErrNotExtension, s.Provider)
		} else {
			err = ext.Create(ctx, s.Key, instance)
		}
		if err != nil {
			rollback := r.release(ctx, c, act.Stages[:i], instance)
			return nil, errors.Join(fmt.Errorf("stage %q of %s: %w", s.Key, req.Path, err), rollback)
		}
	}

	req.Logger.Debug("Component instance created.", "stages", len(act.Stages))
	return instance, nil
}

// Deactivate implements model.Activator.
func (r *Registry) Deactivate(ctx context.Context, act *model.Activation, instance any) error {
	c, ok := r.Component(act.Type.Name())
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoFactory, act.Type.Name())
	}
	return r.release(ctx, c, act.Stages, instance)
}

// release destroys stages in reverse order, then the instance.
func (r *Registry) release(ctx context.Context, c *RegisteredComponent, stages []model.StageInstance, instance any) error {
	var errs []error
	for i := len(stages) - 1; i >= 0; i-- {
		if ext, ok := stages[i].Provider.(Extension); ok {
			if err := ext.Destroy(ctx, stages[i].Key, instance); err != nil {
				errs = append(errs, fmt.Errorf("stage %q: %w", stages[i].Key, err))
			}
		}
	}
	if c.Destroy != nil {
		if err := c.Destroy(ctx, instance); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate checks that every type in the catalog has a registered factory
// and that every entry type its context declares has a builder.
func (r *Registry) Validate(types []*meta.Type) error {
	var errs []string
	for _, t := range types {
		if _, ok := r.Component(t.Name()); !ok {
			errs = append(errs, fmt.Sprintf("type '%s': no component factory registered", t.Name()))
		}
		if t.Context == nil {
			continue
		}
		for _, e := range t.Context.Entries {
			if e.Type == "" {
				continue
			}
			if _, ok := r.entry(e.Type); !ok {
				errs = append(errs, fmt.Sprintf("type '%s', entry '%s': unknown entry type '%s'", t.Name(), e.Key, e.Type))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

var (
	_ model.Activator    = (*Registry)(nil)
	_ model.EntryFactory = (*Registry)(nil)
)
