// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements the model repository: an insertion-ordered name to
// model map with a parent chain for scoped lookup.
package model

import (
	"fmt"
	"slices"
	"sync"

	"github.com/vk/composegrid/internal/meta"
)

// Repository stores the models of one containment scope.
type Repository struct {
	mu     sync.RWMutex
	parent *Repository
	order  []string
	models map[string]DeploymentModel
}

// NewRepository creates an empty repository chained to parent, which may be nil.
func NewRepository(parent *Repository) *Repository {
	return &Repository{
		parent: parent,
		models: make(map[string]DeploymentModel),
	}
}

// Parent returns the enclosing repository.
func (r *Repository) Parent() *Repository {
	return r.parent
}

// Add registers m under its name.
func (r *Repository) Add(m DeploymentModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[m.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateModel, m.Name())
	}
	r.models[m.Name()] = m
	r.order = append(r.order, m.Name())
	return nil
}

// Remove unregisters the named model and returns it.
func (r *Repository) Remove(name string) (DeploymentModel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.models[name]
	if !ok {
		return nil, false
	}
	delete(r.models, name)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == name })
	return m, true
}

// Model looks up a model in this repository only.
func (r *Repository) Model(name string) (DeploymentModel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// Models returns the local models in insertion order.
func (r *Repository) Models() []DeploymentModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DeploymentModel, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.models[name])
	}
	return out
}

// Len returns the number of local models.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// CandidateProviders returns the models able to satisfy dep: local matches
// first, then matches from each ancestor in turn.
func (r *Repository) CandidateProviders(dep meta.DependencyDescriptor) []DeploymentModel {
	return r.collect(func(m DeploymentModel) bool { return m.IsaCandidate(dep) })
}

// StageCandidateProviders returns the models able to handle stage, local first.
func (r *Repository) StageCandidateProviders(stage meta.StageDescriptor) []DeploymentModel {
	return r.collect(func(m DeploymentModel) bool { return m.IsaStageCandidate(stage) })
}

func (r *Repository) collect(match func(DeploymentModel) bool) []DeploymentModel {
	var out []DeploymentModel
	for repo := r; repo != nil; repo = repo.parent {
		for _, m := range repo.Models() {
			if match(m) {
				out = append(out, m)
			}
		}
	}
	return out
}
