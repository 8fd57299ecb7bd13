// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements ContainmentModel, the scope node of the model tree.
// A container owns a repository of child models and a partition of the
// dependency graph, builds children from profiles, and commissions them in
// dependency order.
package model

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/composegrid/internal/address"
	"github.com/vk/composegrid/internal/commission"
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

// ServiceModel is a resolved container export.
type ServiceModel struct {
	Directive profile.ServiceDirective
	Provider  DeploymentModel
}

// ContainmentModel is the deployment model of a container.
type ContainmentModel struct {
	deploymentModel

	system     *System
	parent     *ContainmentModel
	profile    *profile.ContainmentProfile
	scope      string
	repository *Repository
	graph      *DependencyGraph
	assembler  *assembler

	// mutation pairs repository and graph updates.
	mutation sync.Mutex

	assembly  sync.Mutex
	assembled atomic.Bool
	exportsMu sync.RWMutex
	exports   []*ServiceModel

	commissioning sync.Mutex
	commissioned  atomic.Bool
}

// NewRoot builds the root container of a model tree from p.
func NewRoot(ctx context.Context, sys *System, p *profile.ContainmentProfile) (*ContainmentModel, error) {
	if sys == nil || sys.Catalog == nil {
		return nil, &ModelError{Path: address.Root, Op: "create root", Err: errors.New("a catalog is required")}
	}
	return newContainmentModel(ctx, sys, nil, p)
}

func newContainmentModel(ctx context.Context, sys *System, parent *ContainmentModel, p *profile.ContainmentProfile) (*ContainmentModel, error) {
	c := &ContainmentModel{
		system:  sys,
		parent:  parent,
		profile: p,
	}

	if parent == nil {
		c.scope = address.Root
		c.setup(sys.logger(), p.Name(), address.Root, address.Root, p.Mode())
		c.repository = NewRepository(nil)
		c.graph = NewDependencyGraph(c.scope)
	} else {
		path := address.Join(parent.scope, p.Name())
		if err := address.ValidateName(p.Name()); err != nil {
			return nil, &ModelError{Path: path, Op: "create container", Err: err}
		}
		c.scope = address.ChildPartition(parent.scope, p.Name())
		c.setup(parent.logger, p.Name(), parent.scope, path, p.Mode())
		c.repository = NewRepository(parent.repository)
		c.graph = parent.graph.NewChild(c.scope)
	}
	c.assembler = newAssembler(c)
	c.SetCategories(p.Categories)

	for _, child := range p.Profiles {
		if _, err := c.AddModel(ctx, child); err != nil {
			if parent != nil {
				parent.graph.RemoveChild(c.graph)
			}
			return nil, err
		}
	}

	c.logger.Debug("Containment model created.", "children", c.repository.Len())
	return c, nil
}

// Path returns "/" for the root and partition+name otherwise.
func (c *ContainmentModel) Path() string {
	if c.parent == nil {
		return address.Root
	}
	return c.deploymentModel.Path()
}

func (c *ContainmentModel) Scope() string                         { return c.scope }
func (c *ContainmentModel) Parent() *ContainmentModel             { return c.parent }
func (c *ContainmentModel) Profile() *profile.ContainmentProfile  { return c.profile }
func (c *ContainmentModel) Repository() *Repository               { return c.repository }
func (c *ContainmentModel) Graph() *DependencyGraph               { return c.graph }
func (c *ContainmentModel) Models() []DeploymentModel             { return c.repository.Models() }
func (c *ContainmentModel) IsaStageCandidate(meta.StageDescriptor) bool { return false }
func (c *ContainmentModel) DeploymentTimeout() time.Duration      { return c.system.ContainmentTimeout }

// Root walks the parent chain to the outermost container.
func (c *ContainmentModel) Root() *ContainmentModel {
	root := c
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Services returns the exported services. Each carries the attributes of the
// inner model its export names, whether or not the container is assembled.
func (c *ContainmentModel) Services() []meta.ServiceDescriptor {
	out := make([]meta.ServiceDescriptor, 0, len(c.profile.Exports))
	for _, d := range c.profile.Exports {
		sd := meta.ServiceDescriptor{Reference: d.Reference}
		if provider := c.exportSource(d); provider != nil {
			for _, s := range provider.Services() {
				if s.Reference.Matches(d.Reference) {
					sd.Attributes = s.Attributes
					break
				}
			}
		}
		out = append(out, sd)
	}
	return out
}

// exportSource returns the model an export points at, or nil if the path
// does not resolve yet.
func (c *ContainmentModel) exportSource(d profile.ServiceDirective) DeploymentModel {
	src, err := address.Resolve(c.scope, d.Source)
	if err != nil {
		return nil
	}
	m, err := c.GetModel(src)
	if err != nil || m == DeploymentModel(c) {
		return nil
	}
	return m
}

func (c *ContainmentModel) IsaCandidate(dep meta.DependencyDescriptor) bool {
	for _, e := range c.profile.Exports {
		if e.Reference.Matches(dep.Reference) {
			return true
		}
	}
	return false
}

// Exports returns the resolved export bindings.
func (c *ContainmentModel) Exports() []*ServiceModel {
	c.exportsMu.RLock()
	defer c.exportsMu.RUnlock()
	return append([]*ServiceModel(nil), c.exports...)
}

// Model returns the direct child named name.
func (c *ContainmentModel) Model(name string) (DeploymentModel, bool) {
	return c.repository.Model(name)
}

// AddModel builds a model from p and registers it in this container.
func (c *ContainmentModel) AddModel(ctx context.Context, p profile.Profile) (DeploymentModel, error) {
	m, err := c.createDeploymentModel(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := c.register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// AddContainmentModel loads the block at ref through the block resolver and
// adds it as a nested container.
func (c *ContainmentModel) AddContainmentModel(ctx context.Context, ref string) (*ContainmentModel, error) {
	m, err := c.AddModel(ctx, &profile.BlockIncludeDirective{Path: ref, Base: c.profile.Source})
	if err != nil {
		return nil, err
	}
	return m.(*ContainmentModel), nil
}

// RemoveModel unregisters the named child and severs its graph edges.
func (c *ContainmentModel) RemoveModel(name string) error {
	c.mutation.Lock()
	defer c.mutation.Unlock()

	m, ok := c.repository.Remove(name)
	if !ok {
		return &ModelError{Path: address.Join(c.scope, name), Op: "remove", Err: ErrNotFound}
	}
	c.graph.Remove(m)
	if child, ok := m.(*ContainmentModel); ok {
		c.graph.RemoveChild(child.graph)
	}
	c.logger.Debug("Model removed.", "name", name)
	return nil
}

func (c *ContainmentModel) register(m DeploymentModel) error {
	c.mutation.Lock()
	defer c.mutation.Unlock()

	if err := c.repository.Add(m); err != nil {
		if child, ok := m.(*ContainmentModel); ok {
			c.graph.RemoveChild(child.graph)
		}
		return &ModelError{Path: m.Path(), Op: "add", Err: err}
	}
	c.graph.Add(m)
	return nil
}

// uniqueName returns base, or base with a numeric suffix if base is taken.
func (c *ContainmentModel) uniqueName(base string) string {
	if _, taken := c.repository.Model(base); !taken {
		return base
	}
	for i := 2; ; i++ {
		name := base + "-" + strconv.Itoa(i)
		if _, taken := c.repository.Model(name); !taken {
			return name
		}
	}
}

// createDeploymentModel turns a profile variant into a model.
func (c *ContainmentModel) createDeploymentModel(ctx context.Context, p profile.Profile) (DeploymentModel, error) {
	path := address.Join(c.scope, p.Name())
	switch p := p.(type) {
	case *profile.ComponentProfile:
		t, err := c.system.Catalog.Type(p.TypeName)
		if err != nil {
			return nil, &ModelError{Path: path, Op: "create component", Err: err}
		}
		return newComponentModel(c, t, p)

	case *profile.ContainmentProfile:
		return newContainmentModel(ctx, c.system, c, p)

	case *profile.NamedComponentProfile:
		t, err := c.system.Catalog.Type(p.TypeName)
		if err != nil {
			return nil, &ModelError{Path: path, Op: "create named component", Err: err}
		}
		template, err := c.system.Catalog.Profile(t, p.Key)
		if err != nil {
			return nil, &ModelError{Path: path, Op: "create named component", Err: err}
		}
		return newComponentModel(c, t, template.Rename(p.Name(), profile.Explicit))

	case *profile.BlockIncludeDirective:
		block, err := c.resolveBlock(ctx, p.Base, p.Path, path)
		if err != nil {
			return nil, err
		}
		if p.Name() != "" {
			block.ProfileName = p.Name()
		}
		return newContainmentModel(ctx, c.system, c, block)

	case *profile.BlockCompositionDirective:
		block, err := c.resolveBlock(ctx, p.Base, p.Resource, path)
		if err != nil {
			return nil, err
		}
		block.ProfileName = p.Name()
		child, err := newContainmentModel(ctx, c.system, c, block)
		if err != nil {
			return nil, err
		}
		child.ApplyTargets(ctx, p.Targets)
		return child, nil

	default:
		return nil, &ModelError{Path: path, Op: "create", Err: fmt.Errorf("%w: %T", ErrUnknownProfile, p)}
	}
}

// resolveBlock returns a private copy of the resolved block in Explicit mode.
func (c *ContainmentModel) resolveBlock(ctx context.Context, base, ref, path string) (*profile.ContainmentProfile, error) {
	if c.system.Blocks == nil {
		return nil, &ModelError{Path: path, Op: "include block", Err: ErrNoBlockResolver}
	}
	if base == "" {
		base = c.profile.Source
	}
	block, err := c.system.Blocks.ResolveBlock(ctx, base, ref)
	if err != nil {
		return nil, &ModelError{Path: path, Op: "include block", Err: err}
	}
	for a := c; a != nil; a = a.parent {
		if a.profile.Source != "" && a.profile.Source == block.Source {
			return nil, &ModelError{Path: path, Op: "include block", Err: fmt.Errorf("%w: %s includes itself", ErrCyclicDependency, block.Source)}
		}
	}
	cp := *block
	cp.ProfileMode = profile.Explicit
	return &cp, nil
}

func (c *ContainmentModel) IsAssembled() bool {
	return c.assembled.Load()
}

// Assemble assembles every child in declaration order, then resolves exports.
func (c *ContainmentModel) Assemble(ctx context.Context, stack *ResolutionStack) error {
	if stack == nil {
		stack = NewResolutionStack()
	}
	if stack.Contains(c) || c.assembled.Load() {
		return nil
	}

	c.assembly.Lock()
	defer c.assembly.Unlock()
	if c.assembled.Load() {
		return nil
	}

	stack.Push(c)
	defer stack.Pop()

	c.logger.Debug("Assembling container.", "children", c.repository.Len())
	for _, m := range c.repository.Models() {
		if err := m.Assemble(ctx, stack); err != nil {
			return err
		}
	}
	if err := c.resolveExports(ctx, stack); err != nil {
		return err
	}
	c.assembled.Store(true)
	c.logger.Debug("Container assembled.")
	return nil
}

func (c *ContainmentModel) resolveExports(ctx context.Context, stack *ResolutionStack) error {
	var exports []*ServiceModel
	for _, d := range c.profile.Exports {
		fail := func(err error) error {
			return &AssemblyError{Partition: c.scope, Component: c.Name(), Phase: PhaseExport, Key: d.Reference.String(), Err: err}
		}
		src, err := address.Resolve(c.scope, d.Source)
		if err != nil {
			return fail(err)
		}
		provider, err := c.GetModel(src)
		if err != nil {
			return fail(err)
		}
		if !provider.IsaCandidate(meta.DependencyDescriptor{Reference: d.Reference}) {
			return fail(fmt.Errorf("%w: %s does not provide %s", ErrNoProvider, provider.Path(), d.Reference))
		}
		if err := provider.Assemble(ctx, stack); err != nil {
			return fail(err)
		}
		exports = append(exports, &ServiceModel{Directive: d, Provider: provider})
	}

	c.exportsMu.Lock()
	c.exports = exports
	c.exportsMu.Unlock()
	return nil
}

// Disassemble releases the bindings of every child and the exports.
func (c *ContainmentModel) Disassemble() {
	c.assembly.Lock()
	defer c.assembly.Unlock()

	for _, m := range c.repository.Models() {
		m.Disassemble()
	}
	c.exportsMu.Lock()
	c.exports = nil
	c.exportsMu.Unlock()
	c.assembled.Store(false)
}

// Providers returns the providers bound by children that live outside this
// container's partition.
func (c *ContainmentModel) Providers() ([]DeploymentModel, error) {
	if !c.IsAssembled() {
		return nil, &ModelError{Path: c.Path(), Op: "providers", Err: ErrNotAssembled}
	}
	var out []DeploymentModel
	seen := make(map[DeploymentModel]bool)
	for _, m := range c.repository.Models() {
		providers, err := m.Providers()
		if err != nil {
			return nil, err
		}
		for _, p := range providers {
			if _, inside := address.LocalName(c.scope, p.Path()); inside || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *ContainmentModel) IsCommissioned() bool {
	return c.commissioned.Load()
}

// Commission assembles the container if needed, then commissions every child
// in startup order on a dedicated Commissioner.
func (c *ContainmentModel) Commission(ctx context.Context) error {
	if !c.IsAssembled() {
		if err := c.Assemble(ctx, NewResolutionStack()); err != nil {
			return err
		}
	}

	c.commissioning.Lock()
	defer c.commissioning.Unlock()
	if c.commissioned.Load() {
		return nil
	}

	startup, err := c.graph.StartupGraph()
	if err != nil {
		return err
	}

	cm := commission.New(c.logger, commission.Commissioning, c.system.CommissionerOptions...)
	defer cm.Dispose()

	for _, child := range startup {
		elapsed, err := cm.Commission(ctx, child)
		if err != nil {
			c.logger.Error("Child commissioning failed.", "child", child.Path(), "error", err)
			return err
		}
		c.logger.Debug("Child commissioned.", "child", child.Path(), "elapsed", elapsed)
	}

	c.commissioned.Store(true)
	c.logger.Info("Container commissioned.", "children", len(startup))
	return nil
}

// Decommission hands the children to the configured teardown policy and
// marks the container decommissioned.
func (c *ContainmentModel) Decommission(ctx context.Context) error {
	c.commissioning.Lock()
	defer c.commissioning.Unlock()
	if !c.commissioned.Load() {
		return nil
	}
	err := c.system.teardown().Teardown(ctx, c)
	c.commissioned.Store(false)
	c.logger.Info("Container decommissioned.")
	return err
}

// Resolve returns the instance of the first exported service.
func (c *ContainmentModel) Resolve(ctx context.Context) (any, error) {
	exports := c.Exports()
	if len(exports) == 0 {
		return nil, &ModelError{Path: c.Path(), Op: "resolve", Err: ErrNoExport}
	}
	return resolveService(ctx, exports[0].Provider, exports[0].Directive.Reference)
}

// ResolveService returns the instance behind the export satisfying ref.
func (c *ContainmentModel) ResolveService(ctx context.Context, ref meta.ReferenceDescriptor) (any, error) {
	for _, e := range c.Exports() {
		if e.Directive.Reference.Matches(ref) {
			return resolveService(ctx, e.Provider, ref)
		}
	}
	return nil, &ModelError{Path: c.Path(), Op: "resolve " + ref.String(), Err: ErrNoExport}
}
