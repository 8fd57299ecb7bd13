// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file holds the DeploymentModel contract, its capability interfaces and
// the identity shared by every model variant.
package model

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/vk/composegrid/internal/address"
	"github.com/vk/composegrid/internal/ctxlog"
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

// Assemblable models bind their requirements to providers.
type Assemblable interface {
	Assemble(ctx context.Context, stack *ResolutionStack) error
	IsAssembled() bool
	Disassemble()
}

// Commissionable models can be activated and deactivated.
type Commissionable interface {
	Commission(ctx context.Context) error
	Decommission(ctx context.Context) error
	IsCommissioned() bool
}

// Resolvable models hand out their runtime instance.
type Resolvable interface {
	Resolve(ctx context.Context) (any, error)
}

// DeploymentModel is a node of the model tree.
type DeploymentModel interface {
	Name() string
	Path() string
	Partition() string
	Mode() profile.Mode
	Services() []meta.ServiceDescriptor
	IsaCandidate(dep meta.DependencyDescriptor) bool
	IsaStageCandidate(stage meta.StageDescriptor) bool
	Providers() ([]DeploymentModel, error)
	DeploymentTimeout() time.Duration
	Categories() *profile.CategoriesDirective
	SetCategories(c *profile.CategoriesDirective)
	Logger() *slog.Logger

	Assemblable
	Commissionable
	Resolvable
}

// deploymentModel is the identity embedded by every variant.
type deploymentModel struct {
	name      string
	partition string
	mode      profile.Mode

	logger *slog.Logger
	level  *slog.LevelVar

	mu         sync.RWMutex
	categories *profile.CategoriesDirective
}

func (m *deploymentModel) setup(parent *slog.Logger, name, partition, path string, mode profile.Mode) {
	m.name = name
	m.partition = partition
	m.mode = mode
	m.logger, m.level = ctxlog.Channel(parent, "model", path)
}

func (m *deploymentModel) Name() string         { return m.name }
func (m *deploymentModel) Partition() string    { return m.partition }
func (m *deploymentModel) Mode() profile.Mode   { return m.mode }
func (m *deploymentModel) Logger() *slog.Logger { return m.logger }

func (m *deploymentModel) Path() string {
	return address.Join(m.partition, m.name)
}

func (m *deploymentModel) Categories() *profile.CategoriesDirective {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.categories
}

// SetCategories replaces the categories and adjusts the channel's level.
func (m *deploymentModel) SetCategories(c *profile.CategoriesDirective) {
	m.mu.Lock()
	m.categories = c
	m.mu.Unlock()
	if c == nil || c.Priority == "" {
		return
	}
	level, ok := ctxlog.ParseLevel(c.Priority)
	if !ok {
		m.logger.Warn("Ignoring unknown logging priority.", "priority", c.Priority)
		return
	}
	m.level.Set(level)
}

// ResolutionStack records the models whose assembly is in progress on the
// current call chain.
type ResolutionStack struct {
	models []DeploymentModel
}

// NewResolutionStack returns an empty stack.
func NewResolutionStack() *ResolutionStack {
	return &ResolutionStack{}
}

func (s *ResolutionStack) Push(m DeploymentModel) {
	s.models = append(s.models, m)
}

func (s *ResolutionStack) Pop() {
	if len(s.models) > 0 {
		s.models = s.models[:len(s.models)-1]
	}
}

func (s *ResolutionStack) Contains(m DeploymentModel) bool {
	return slices.Contains(s.models, m)
}

func (s *ResolutionStack) Len() int {
	return len(s.models)
}

// Paths lists the stacked models' paths, bottom first.
func (s *ResolutionStack) Paths() []string {
	out := make([]string, len(s.models))
	for i, m := range s.models {
		out[i] = m.Path()
	}
	return out
}
