package model

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/composegrid/internal/catalog"
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

func ref(typ string) meta.ReferenceDescriptor {
	return meta.ReferenceDescriptor{Type: typ}
}

// providerType offers svc with the given attributes.
func providerType(name, svc string, attrs meta.Attributes) *meta.Type {
	return &meta.Type{
		Info:     meta.InfoDescriptor{Name: name},
		Services: []meta.ServiceDescriptor{{Reference: ref(svc), Attributes: attrs}},
	}
}

// consumerType depends on svc under key.
func consumerType(name, key, svc string, optional bool) *meta.Type {
	return &meta.Type{
		Info:         meta.InfoDescriptor{Name: name},
		Dependencies: []meta.DependencyDescriptor{{Key: key, Reference: ref(svc), Optional: optional}},
	}
}

func explicit(name, typeName string) *profile.ComponentProfile {
	return &profile.ComponentProfile{
		ProfileName: name,
		TypeName:    typeName,
		ProfileMode: profile.Explicit,
		Collection:  meta.CollectionUndefined,
	}
}

func container(name string, children ...profile.Profile) *profile.ContainmentProfile {
	return &profile.ContainmentProfile{ProfileName: name, ProfileMode: profile.Explicit, Profiles: children}
}

type catalogEntry struct {
	typ      *meta.Type
	packaged []*profile.ComponentProfile
}

func entry(t *meta.Type, packaged ...*profile.ComponentProfile) catalogEntry {
	return catalogEntry{typ: t, packaged: packaged}
}

func newCatalog(t *testing.T, entries ...catalogEntry) *catalog.Catalog {
	t.Helper()
	cat := catalog.New(nil)
	for _, e := range entries {
		require.NoError(t, cat.Register(e.typ, e.packaged...))
	}
	return cat
}

// instance is what the recording activator hands out.
type instance struct {
	name     string
	deps     map[string]any
	stages   []StageInstance
	context  map[string]any
	provider any
	config   map[string]any
}

// recorder is an Activator that logs activations ("+name") and
// deactivations ("-name") in order.
type recorder struct {
	mu     sync.Mutex
	events []string
	fail   map[string]error
}

func (r *recorder) Activate(_ context.Context, act *Activation) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[act.Model.Name()]; err != nil {
		return nil, err
	}
	r.events = append(r.events, "+"+act.Model.Name())
	return &instance{
		name:     act.Model.Name(),
		deps:     act.Dependencies,
		stages:   act.Stages,
		context:  act.Context,
		provider: act.ContextProvider,
		config:   act.Configuration,
	}, nil
}

func (r *recorder) Deactivate(_ context.Context, act *Activation, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "-"+act.Model.Name())
	return nil
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSystem(cat Catalog, act Activator) *System {
	return &System{Catalog: cat, Activator: act, Logger: quietLogger()}
}

func buildRoot(t *testing.T, sys *System, children ...profile.Profile) *ContainmentModel {
	t.Helper()
	root, err := NewRoot(context.Background(), sys, container("root", children...))
	require.NoError(t, err)
	return root
}

func mustModel(t *testing.T, c *ContainmentModel, path string) DeploymentModel {
	t.Helper()
	m, err := c.GetModel(path)
	require.NoError(t, err)
	return m
}

func mustComponent(t *testing.T, c *ContainmentModel, path string) *ComponentModel {
	t.Helper()
	m, ok := mustModel(t, c, path).(*ComponentModel)
	require.True(t, ok, "%s is not a component", path)
	return m
}

func paths(models []DeploymentModel) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = m.Path()
	}
	return out
}

// stubModel satisfies DeploymentModel for selector and graph tests. Methods
// not overridden panic through the nil embedded interface.
type stubModel struct {
	DeploymentModel
	path       string
	mode       profile.Mode
	services   []meta.ServiceDescriptor
	extensions []string
}

func stub(path string, mode profile.Mode, svc ...string) *stubModel {
	s := &stubModel{path: path, mode: mode}
	for _, name := range svc {
		s.services = append(s.services, meta.ServiceDescriptor{Reference: ref(name)})
	}
	return s
}

func (s *stubModel) Name() string                       { return s.path }
func (s *stubModel) Path() string                       { return s.path }
func (s *stubModel) Mode() profile.Mode                 { return s.mode }
func (s *stubModel) Services() []meta.ServiceDescriptor { return s.services }
func (s *stubModel) String() string                     { return fmt.Sprintf("%s(%s)", s.path, s.mode) }

func (s *stubModel) IsaCandidate(dep meta.DependencyDescriptor) bool {
	for _, svc := range s.services {
		if svc.Reference.Matches(dep.Reference) {
			return true
		}
	}
	return false
}

func (s *stubModel) IsaStageCandidate(stage meta.StageDescriptor) bool {
	return slices.Contains(s.extensions, stage.Extension)
}
