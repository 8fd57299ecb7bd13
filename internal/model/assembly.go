// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements the assembly engine of a container. For each
// unassembled component it runs three passes (context strategy, stages,
// service dependencies). Each pass pushes the component onto the shared
// resolution stack while it recurses into providers.
//
// A requirement is resolved, in order, through:
//
//  1. an explicit source path, navigated directly;
//  2. live candidates from the repository chain, filtered and ranked;
//  3. a packaged or implicit profile of a compatible type, materialized
//     into a new model in this container.
//
// A provider already on the resolution stack means the requirement closes a
// cycle and fails with ErrCyclicDependency.
package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

type assembler struct {
	c        *ContainmentModel
	models   ModelSelector
	profiles ProfileSelector
}

func newAssembler(c *ContainmentModel) *assembler {
	return &assembler{c: c}
}

func (a *assembler) assembleComponent(ctx context.Context, m *ComponentModel, stack *ResolutionStack) error {
	if stack == nil {
		stack = NewResolutionStack()
	}
	if stack.Contains(m) || m.assembled.Load() {
		return nil
	}

	m.assembly.Lock()
	defer m.assembly.Unlock()
	if m.assembled.Load() {
		return nil
	}

	m.logger.Debug("Assembling component.", "stack", stack.Paths())
	if err := a.assembleContext(ctx, m, stack); err != nil {
		return err
	}
	if err := a.assembleStages(ctx, m, stack); err != nil {
		return err
	}
	if err := a.assembleDependencies(ctx, m, stack); err != nil {
		return err
	}
	m.assembled.Store(true)
	m.logger.Debug("Component assembled.")
	return nil
}

func (a *assembler) fail(m *ComponentModel, phase Phase, key string, err error) error {
	return &AssemblyError{Partition: a.c.scope, Component: m.Name(), Phase: phase, Key: key, Err: err}
}

func (a *assembler) bind(m *ComponentModel, b *binding, provider DeploymentModel) error {
	if err := a.c.graph.Connect(provider, m); err != nil {
		return err
	}
	b.SetProvider(provider)
	m.logger.Debug("Provider bound.", "provider", provider.Path())
	return nil
}

func (a *assembler) assembleContext(ctx context.Context, m *ComponentModel, stack *ResolutionStack) error {
	cm := m.context
	if cm == nil || cm.IsDefault() || cm.Provider() != nil {
		return nil
	}

	stack.Push(m)
	defer stack.Pop()

	stage := cm.StageDescriptor()
	provider, err := a.resolveStage(ctx, m, stage, "", stack)
	if err != nil {
		return a.fail(m, PhaseContext, stage.Extension, err)
	}
	if err := a.bind(m, &cm.binding, provider); err != nil {
		return a.fail(m, PhaseContext, stage.Extension, err)
	}
	return nil
}

func (a *assembler) assembleStages(ctx context.Context, m *ComponentModel, stack *ResolutionStack) error {
	stack.Push(m)
	defer stack.Pop()

	for _, s := range m.stages {
		if s.Provider() != nil {
			continue
		}
		provider, err := a.resolveStage(ctx, m, s.Descriptor(), s.Source(), stack)
		if err != nil {
			return a.fail(m, PhaseStage, s.Key(), err)
		}
		if err := a.bind(m, &s.binding, provider); err != nil {
			return a.fail(m, PhaseStage, s.Key(), err)
		}
	}
	return nil
}

func (a *assembler) assembleDependencies(ctx context.Context, m *ComponentModel, stack *ResolutionStack) error {
	stack.Push(m)
	defer stack.Pop()

	for _, d := range m.dependencies {
		if d.Provider() != nil {
			continue
		}
		provider, err := a.resolveDependency(ctx, m, d, stack)
		if err != nil {
			if d.Descriptor().Optional && errors.Is(err, ErrNoProvider) {
				m.logger.Debug("Optional dependency left unresolved.", "key", d.Key())
				continue
			}
			return a.fail(m, PhaseDependency, d.Key(), err)
		}
		if err := a.bind(m, &d.binding, provider); err != nil {
			return a.fail(m, PhaseDependency, d.Key(), err)
		}
	}
	return nil
}

func (a *assembler) resolveDependency(ctx context.Context, m *ComponentModel, d *DependencyModel, stack *ResolutionStack) (DeploymentModel, error) {
	desc := d.Descriptor()
	if d.Source() != "" {
		return a.locate(ctx, m, d.Source(), stack)
	}

	candidates, err := d.FilterCandidates(without(a.c.repository.CandidateProviders(desc), m))
	if err != nil {
		return nil, err
	}
	if winner := a.models.Select(candidates, desc); winner != nil {
		return a.use(ctx, winner, stack)
	}

	var templates []*profile.ComponentProfile
	for _, t := range a.c.system.Catalog.TypesForDependency(desc) {
		ok, err := d.Filter(t.Services)
		if err != nil {
			return nil, err
		}
		if ok {
			templates = append(templates, a.c.system.Catalog.Profiles(t)...)
		}
	}
	if p := a.profiles.Select(templates); p != nil {
		return a.materialize(ctx, p, stack)
	}
	return nil, fmt.Errorf("%w: unable to locate a service provider for %s", ErrNoProvider, desc.Reference)
}

func (a *assembler) resolveStage(ctx context.Context, m *ComponentModel, stage meta.StageDescriptor, source string, stack *ResolutionStack) (DeploymentModel, error) {
	if source != "" {
		return a.locate(ctx, m, source, stack)
	}

	candidates := without(a.c.repository.StageCandidateProviders(stage), m)
	if winner := a.models.SelectStage(candidates, stage); winner != nil {
		return a.use(ctx, winner, stack)
	}

	var templates []*profile.ComponentProfile
	for _, t := range a.c.system.Catalog.TypesForStage(stage) {
		templates = append(templates, a.c.system.Catalog.Profiles(t)...)
	}
	if p := a.profiles.Select(templates); p != nil {
		return a.materialize(ctx, p, stack)
	}
	return nil, fmt.Errorf("%w: unable to locate an extension provider for %s", ErrNoProvider, stage.Extension)
}

// locate resolves an explicit provider path.
func (a *assembler) locate(ctx context.Context, m *ComponentModel, path string, stack *ResolutionStack) (DeploymentModel, error) {
	target, err := a.c.GetModel(path)
	if err != nil {
		return nil, fmt.Errorf("could not locate a model at %q: %w", path, err)
	}
	if target == DeploymentModel(m) {
		return nil, fmt.Errorf("%w: %s refers to itself", ErrCyclicDependency, path)
	}
	return a.use(ctx, target, stack)
}

// use assembles the chosen provider unless doing so would close a cycle.
func (a *assembler) use(ctx context.Context, provider DeploymentModel, stack *ResolutionStack) (DeploymentModel, error) {
	if stack.Contains(provider) {
		return nil, fmt.Errorf("%w: %s is still being assembled (via %v)", ErrCyclicDependency, provider.Path(), stack.Paths())
	}
	if err := provider.Assemble(ctx, stack); err != nil {
		return nil, err
	}
	return provider, nil
}

// materialize builds a model from a template, registers it here and
// assembles it. A model that fails to assemble is removed again.
func (a *assembler) materialize(ctx context.Context, p *profile.ComponentProfile, stack *ResolutionStack) (DeploymentModel, error) {
	t, err := a.c.system.Catalog.Type(p.TypeName)
	if err != nil {
		return nil, err
	}
	name := a.c.uniqueName(p.Name())
	m, err := newComponentModel(a.c, t, p.Rename(name, p.Mode()))
	if err != nil {
		return nil, err
	}
	if err := a.c.register(m); err != nil {
		return nil, err
	}
	if err := m.Assemble(ctx, stack); err != nil {
		m.Disassemble()
		if rmErr := a.c.RemoveModel(name); rmErr != nil {
			a.c.logger.Warn("Failed to remove unassembled model.", "name", name, "error", rmErr)
		}
		return nil, err
	}
	a.c.logger.Info("Materialized provider from profile.", "model", m.Path(), "type", t.Name(), "mode", p.Mode().String())
	return m, nil
}

func without(models []DeploymentModel, exclude DeploymentModel) []DeploymentModel {
	out := make([]DeploymentModel, 0, len(models))
	for _, m := range models {
		if m != exclude {
			out = append(out, m)
		}
	}
	return out
}
