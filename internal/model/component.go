// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements ComponentModel, the leaf of the model tree. A
// component is assembled by its container's engine, commissioned by its
// container's Commissioner, and instantiated through the Activator either at
// commission time or on first resolution.
package model

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/composegrid/internal/address"
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

// ComponentModel is the deployment model of one component instance.
type ComponentModel struct {
	deploymentModel

	container    *ContainmentModel
	typ          *meta.Type
	profile      *profile.ComponentProfile
	activation   profile.ActivationPolicy
	collection   meta.CollectionPolicy
	timeout      time.Duration
	dependencies []*DependencyModel
	stages       []*StageModel
	context      *ContextModel

	// assembly is held for the duration of one Assemble call. assembled is
	// set once every pass has run, optional dependencies included.
	assembly  sync.Mutex
	assembled atomic.Bool

	// state guards configuration and the activation state below.
	state         sync.Mutex
	overrides     map[string]any
	commissioned  atomic.Bool
	instance      any
	activationReq *Activation
}

func newComponentModel(c *ContainmentModel, t *meta.Type, p *profile.ComponentProfile) (*ComponentModel, error) {
	path := address.Join(c.scope, p.Name())
	if err := address.ValidateName(p.Name()); err != nil {
		return nil, &ModelError{Path: path, Op: "create component", Err: err}
	}

	m := &ComponentModel{
		container:  c,
		typ:        t,
		profile:    p,
		activation: p.Activation.Resolve(p.Mode()),
		timeout:    t.DeploymentTimeout,
	}
	m.setup(c.logger, p.Name(), c.scope, path, p.Mode())
	if m.timeout <= 0 {
		m.timeout = c.system.DeploymentTimeout
	}
	m.collection = m.resolveCollection()

	for _, key := range directiveKeys(p) {
		if _, ok := t.Dependency(key); !ok {
			if _, ok := t.Stage(key); !ok {
				m.logger.Warn("Ignoring directive for undeclared requirement.", "key", key, "type", t.Name())
			}
		}
	}

	for _, desc := range t.Dependencies {
		dep, err := NewDependencyModel(c.scope, desc, p.Dependency(desc.Key))
		if err != nil {
			return nil, &ModelError{Path: path, Op: "create component", Err: err}
		}
		m.dependencies = append(m.dependencies, dep)
	}
	for _, desc := range t.Stages {
		stage, err := NewStageModel(c.scope, desc, p.Stage(desc.Key))
		if err != nil {
			return nil, &ModelError{Path: path, Op: "create component", Err: err}
		}
		m.stages = append(m.stages, stage)
	}
	m.context = NewContextModel(t.Context, p.Context)
	m.SetCategories(p.Categories)

	m.logger.Debug("Component model created.", "type", t.Name(), "mode", p.Mode().String(), "activation", m.activation.String())
	return m, nil
}

func directiveKeys(p *profile.ComponentProfile) []string {
	var keys []string
	for _, d := range p.Dependencies {
		keys = append(keys, d.Key)
	}
	for _, s := range p.Stages {
		keys = append(keys, s.Key)
	}
	return keys
}

// resolveCollection applies the profile override unless it would weaken the
// type's minimum.
func (m *ComponentModel) resolveCollection() meta.CollectionPolicy {
	minimum := m.typ.Info.Collection
	requested := m.profile.Collection
	if requested == meta.CollectionUndefined {
		return minimum
	}
	if requested < minimum {
		m.logger.Warn("Ignoring collection policy below the type minimum.",
			"requested", requested.String(), "minimum", minimum.String())
		return minimum
	}
	return requested
}

func (m *ComponentModel) Type() *meta.Type                          { return m.typ }
func (m *ComponentModel) Profile() *profile.ComponentProfile        { return m.profile }
func (m *ComponentModel) Container() *ContainmentModel              { return m.container }
func (m *ComponentModel) ActivationPolicy() profile.ActivationPolicy { return m.activation }
func (m *ComponentModel) CollectionPolicy() meta.CollectionPolicy   { return m.collection }
func (m *ComponentModel) Dependencies() []*DependencyModel          { return m.dependencies }
func (m *ComponentModel) Stages() []*StageModel                     { return m.stages }
func (m *ComponentModel) ContextModel() *ContextModel               { return m.context }
func (m *ComponentModel) DeploymentTimeout() time.Duration          { return m.timeout }
func (m *ComponentModel) Services() []meta.ServiceDescriptor        { return m.typ.Services }

// Dependency returns the dependency declared under key.
func (m *ComponentModel) Dependency(key string) *DependencyModel {
	for _, d := range m.dependencies {
		if d.Key() == key {
			return d
		}
	}
	return nil
}

// Stage returns the stage declared under key.
func (m *ComponentModel) Stage(key string) *StageModel {
	for _, s := range m.stages {
		if s.Key() == key {
			return s
		}
	}
	return nil
}

func (m *ComponentModel) IsaCandidate(dep meta.DependencyDescriptor) bool {
	_, ok := m.typ.Service(dep.Reference)
	return ok
}

func (m *ComponentModel) IsaStageCandidate(stage meta.StageDescriptor) bool {
	_, ok := m.typ.Extension(stage.Extension)
	return ok
}

// Configuration returns type defaults overlaid by the profile and then by
// any targets applied at runtime.
func (m *ComponentModel) Configuration() map[string]any {
	m.state.Lock()
	defer m.state.Unlock()
	return profile.MergeConfiguration(m.typ.Configuration, m.profile.Configuration, m.overrides)
}

// SetConfiguration overlays cfg onto previously applied overrides.
func (m *ComponentModel) SetConfiguration(cfg map[string]any) {
	m.state.Lock()
	defer m.state.Unlock()
	m.overrides = profile.MergeConfiguration(m.overrides, cfg)
}

// IsAssembled reports whether every required dependency, every stage and a
// non-default context strategy have providers.
func (m *ComponentModel) IsAssembled() bool {
	if m.context != nil && !m.context.IsDefault() && m.context.Provider() == nil {
		return false
	}
	for _, s := range m.stages {
		if s.Provider() == nil {
			return false
		}
	}
	for _, d := range m.dependencies {
		if !d.Descriptor().Optional && d.Provider() == nil {
			return false
		}
	}
	return true
}

// Assemble delegates to the enclosing container's assembly engine.
func (m *ComponentModel) Assemble(ctx context.Context, stack *ResolutionStack) error {
	return m.container.assembler.assembleComponent(ctx, m, stack)
}

// Disassemble releases every provider binding and its graph edge.
func (m *ComponentModel) Disassemble() {
	m.assembly.Lock()
	defer m.assembly.Unlock()

	release := func(b *binding) {
		if p := b.Provider(); p != nil {
			m.container.graph.Disconnect(p, m)
			b.SetProvider(nil)
		}
	}
	if m.context != nil {
		release(&m.context.binding)
	}
	for _, s := range m.stages {
		release(&s.binding)
	}
	for _, d := range m.dependencies {
		release(&d.binding)
	}
	m.assembled.Store(false)
	m.logger.Debug("Component disassembled.")
}

// Providers returns the distinct bound providers: context, stages, then
// dependencies.
func (m *ComponentModel) Providers() ([]DeploymentModel, error) {
	if !m.IsAssembled() {
		return nil, &ModelError{Path: m.Path(), Op: "providers", Err: ErrNotAssembled}
	}
	var out []DeploymentModel
	add := func(p DeploymentModel) {
		if p == nil {
			return
		}
		for _, existing := range out {
			if existing == p {
				return
			}
		}
		out = append(out, p)
	}
	if m.context != nil {
		add(m.context.Provider())
	}
	for _, s := range m.stages {
		add(s.Provider())
	}
	for _, d := range m.dependencies {
		add(d.Provider())
	}
	return out, nil
}

func (m *ComponentModel) IsCommissioned() bool {
	return m.commissioned.Load()
}

// Commission assembles the component if needed and, under the startup
// activation policy, instantiates it.
func (m *ComponentModel) Commission(ctx context.Context) error {
	if !m.assembled.Load() {
		if err := m.Assemble(ctx, NewResolutionStack()); err != nil {
			return err
		}
	}

	m.state.Lock()
	defer m.state.Unlock()
	if m.commissioned.Load() {
		return nil
	}
	if m.activation == profile.ActivationStartup {
		if err := m.activateLocked(ctx); err != nil {
			return err
		}
	}
	m.commissioned.Store(true)
	m.logger.Debug("Component commissioned.", "instantiated", m.instance != nil)
	return nil
}

// Decommission releases the instance, if any.
func (m *ComponentModel) Decommission(ctx context.Context) error {
	m.state.Lock()
	defer m.state.Unlock()
	if !m.commissioned.Load() {
		return nil
	}
	m.commissioned.Store(false)

	instance, act := m.instance, m.activationReq
	m.instance, m.activationReq = nil, nil
	if instance == nil {
		m.logger.Debug("Component decommissioned.")
		return nil
	}
	if err := m.container.system.activator().Deactivate(ctx, act, instance); err != nil {
		return &RuntimeError{Op: fmt.Sprintf("deactivate %s", m.Path()), Err: err}
	}
	m.logger.Debug("Component decommissioned.")
	return nil
}

// Resolve returns the component's instance, instantiating it on first use
// under the lazy activation policy.
func (m *ComponentModel) Resolve(ctx context.Context) (any, error) {
	m.state.Lock()
	defer m.state.Unlock()
	if !m.commissioned.Load() {
		return nil, &ModelError{Path: m.Path(), Op: "resolve", Err: ErrNotCommissioned}
	}
	if m.instance == nil {
		if err := m.activateLocked(ctx); err != nil {
			return nil, err
		}
	}
	return m.instance, nil
}

func (m *ComponentModel) activateLocked(ctx context.Context) error {
	act, err := m.buildActivation(ctx)
	if err != nil {
		return err
	}
	instance, err := m.container.system.activator().Activate(ctx, act)
	if err != nil {
		return &RuntimeError{Op: fmt.Sprintf("activate %s", m.Path()), Err: err}
	}
	m.instance, m.activationReq = instance, act
	m.logger.Info("Component activated.", "type", m.typ.Name())
	return nil
}

func (m *ComponentModel) buildActivation(ctx context.Context) (*Activation, error) {
	act := &Activation{
		Model:         m,
		Type:          m.typ,
		Configuration: profile.MergeConfiguration(m.typ.Configuration, m.profile.Configuration, m.overrides),
		Dependencies:  make(map[string]any),
		Logger:        m.logger,
	}

	if m.context != nil {
		entries, err := m.context.Entries(ctx, m.container.system.Entries)
		if err != nil {
			return nil, &ModelError{Path: m.Path(), Op: "build context", Err: err}
		}
		act.Context = entries
		if p := m.context.Provider(); p != nil {
			inst, err := p.Resolve(ctx)
			if err != nil {
				return nil, &RuntimeError{Op: fmt.Sprintf("resolve context provider of %s", m.Path()), Err: err}
			}
			act.ContextProvider = inst
		}
	}

	for _, s := range m.stages {
		inst, err := s.Provider().Resolve(ctx)
		if err != nil {
			return nil, &RuntimeError{Op: fmt.Sprintf("resolve stage %q of %s", s.Key(), m.Path()), Err: err}
		}
		act.Stages = append(act.Stages, StageInstance{Key: s.Key(), Provider: inst})
	}

	for _, d := range m.dependencies {
		p := d.Provider()
		if p == nil {
			continue
		}
		inst, err := resolveService(ctx, p, d.Descriptor().Reference)
		if err != nil {
			return nil, &RuntimeError{Op: fmt.Sprintf("resolve dependency %q of %s", d.Key(), m.Path()), Err: err}
		}
		act.Dependencies[d.Key()] = inst
	}
	return act, nil
}

// resolveService resolves p, asking containers for the exported service.
func resolveService(ctx context.Context, p DeploymentModel, ref meta.ReferenceDescriptor) (any, error) {
	if c, ok := p.(*ContainmentModel); ok {
		return c.ResolveService(ctx, ref)
	}
	return p.Resolve(ctx)
}
