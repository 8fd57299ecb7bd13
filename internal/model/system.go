// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file declares the collaborators a model tree depends on. The engine
// never builds objects or reads files itself; it asks these capabilities.
package model

import (
	"context"
	"log/slog"
	"time"

	"github.com/vk/composegrid/internal/commission"
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

// Catalog is the read-only metadata layer: component types and their
// packaged profiles.
type Catalog interface {
	Type(name string) (*meta.Type, error)
	TypesForDependency(dep meta.DependencyDescriptor) []*meta.Type
	TypesForStage(stage meta.StageDescriptor) []*meta.Type
	Profiles(t *meta.Type) []*profile.ComponentProfile
	Profile(t *meta.Type, key string) (*profile.ComponentProfile, error)
}

// Activation is everything needed to instantiate one component.
type Activation struct {
	Model           *ComponentModel
	Type            *meta.Type
	Configuration   map[string]any
	Context         map[string]any
	ContextProvider any
	Dependencies    map[string]any
	Stages          []StageInstance
	Logger          *slog.Logger
}

// StageInstance pairs a stage key with its provider's instance.
type StageInstance struct {
	Key      string
	Provider any
}

// Activator instantiates and releases components.
type Activator interface {
	Activate(ctx context.Context, act *Activation) (any, error)
	Deactivate(ctx context.Context, act *Activation, instance any) error
}

// NopActivator returns the activation itself as the instance.
type NopActivator struct{}

func (NopActivator) Activate(_ context.Context, act *Activation) (any, error) {
	return act, nil
}

func (NopActivator) Deactivate(context.Context, *Activation, any) error {
	return nil
}

// EntryFactory builds context entry values from their recipes.
type EntryFactory interface {
	BuildEntry(ctx context.Context, entry profile.EntryDirective) (any, error)
}

// BlockResolver loads the container profile a block include or composition
// refers to. base is the location of the including block.
type BlockResolver interface {
	ResolveBlock(ctx context.Context, base, path string) (*profile.ContainmentProfile, error)
}

// System bundles the collaborators shared by every model in a tree.
type System struct {
	Catalog   Catalog
	Activator Activator
	Entries   EntryFactory
	Blocks    BlockResolver
	Logger    *slog.Logger
	// DeploymentTimeout applies to components whose type declares none.
	DeploymentTimeout time.Duration
	// ContainmentTimeout applies to nested containers. Zero waits without bound.
	ContainmentTimeout time.Duration
	// Teardown decides what Decommission does with children. Nil is NoTeardown.
	Teardown            TeardownPolicy
	CommissionerOptions []commission.Option
}

func (s *System) activator() Activator {
	if s.Activator == nil {
		return NopActivator{}
	}
	return s.Activator
}

func (s *System) teardown() TeardownPolicy {
	if s.Teardown == nil {
		return NoTeardown{}
	}
	return s.Teardown
}

func (s *System) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
