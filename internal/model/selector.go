// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements candidate ranking. Both selectors apply the same
// fixed three-tier priority: the first Explicit candidate, else the first
// Packaged, else the first Implicit. Candidate order is the caller's, so
// ranking is deterministic as long as candidate lists are.
package model

import (
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

var modePriority = []profile.Mode{profile.Explicit, profile.Packaged, profile.Implicit}

// selectByMode returns the first item of the highest-priority mode present.
func selectByMode[T any](items []T, mode func(T) profile.Mode) (T, bool) {
	for _, want := range modePriority {
		for _, item := range items {
			if mode(item) == want {
				return item, true
			}
		}
	}
	var zero T
	return zero, false
}

// ModelSelector ranks live candidate models.
type ModelSelector struct{}

// Select returns the best candidate able to satisfy dep, or nil.
func (ModelSelector) Select(candidates []DeploymentModel, dep meta.DependencyDescriptor) DeploymentModel {
	var compatible []DeploymentModel
	for _, m := range candidates {
		if m.IsaCandidate(dep) {
			compatible = append(compatible, m)
		}
	}
	m, _ := selectByMode(compatible, DeploymentModel.Mode)
	return m
}

// SelectStage returns the best candidate able to handle stage, or nil.
func (ModelSelector) SelectStage(candidates []DeploymentModel, stage meta.StageDescriptor) DeploymentModel {
	var compatible []DeploymentModel
	for _, m := range candidates {
		if m.IsaStageCandidate(stage) {
			compatible = append(compatible, m)
		}
	}
	m, _ := selectByMode(compatible, DeploymentModel.Mode)
	return m
}

// ProfileSelector ranks profile templates when no live candidate exists.
type ProfileSelector struct{}

// Select returns the best profile, or nil.
func (ProfileSelector) Select(profiles []*profile.ComponentProfile) *profile.ComponentProfile {
	p, _ := selectByMode(profiles, (*profile.ComponentProfile).Mode)
	return p
}
