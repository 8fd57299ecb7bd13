// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file models the requirements of a component: service dependencies,
// lifecycle stages, and the selection filters that narrow candidate providers.
package model

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vk/composegrid/internal/address"
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

// binding is a mutable provider reference.
type binding struct {
	mu       sync.RWMutex
	provider DeploymentModel
}

func (b *binding) Provider() DeploymentModel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.provider
}

func (b *binding) SetProvider(m DeploymentModel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.provider = m
}

// DependencyModel is one service dependency of a component.
type DependencyModel struct {
	binding
	descriptor meta.DependencyDescriptor
	source     string
	selections []profile.SelectionDirective
}

// NewDependencyModel binds a dependency descriptor to its optional directive.
// An explicit source is resolved against partition immediately.
func NewDependencyModel(partition string, desc meta.DependencyDescriptor, directive *profile.DependencyDirective) (*DependencyModel, error) {
	d := &DependencyModel{descriptor: desc}
	if directive == nil {
		return d, nil
	}
	if directive.Source != "" {
		src, err := address.Resolve(partition, directive.Source)
		if err != nil {
			return nil, fmt.Errorf("dependency %q source: %w", desc.Key, err)
		}
		d.source = src
	}
	for _, sel := range directive.Selections {
		if err := validateCriteria(sel.Criteria); err != nil {
			return nil, fmt.Errorf("dependency %q selection %q: %w", desc.Key, sel.Feature, err)
		}
	}
	d.selections = directive.Selections
	return d, nil
}

func (d *DependencyModel) Key() string                              { return d.descriptor.Key }
func (d *DependencyModel) Descriptor() meta.DependencyDescriptor    { return d.descriptor }
func (d *DependencyModel) Source() string                           { return d.source }
func (d *DependencyModel) Selections() []profile.SelectionDirective { return d.selections }

// Filter reports whether any service in services satisfies the dependency's
// reference and all of its required selections.
func (d *DependencyModel) Filter(services []meta.ServiceDescriptor) (bool, error) {
	for _, s := range services {
		if !s.Reference.Matches(d.descriptor.Reference) {
			continue
		}
		ok, err := d.accepts(s.Attributes)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// FilterCandidates keeps the models whose services pass Filter, preserving order.
func (d *DependencyModel) FilterCandidates(candidates []DeploymentModel) ([]DeploymentModel, error) {
	if len(d.selections) == 0 {
		return candidates, nil
	}
	var out []DeploymentModel
	for _, m := range candidates {
		ok, err := d.Filter(m.Services())
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (d *DependencyModel) accepts(attrs meta.Attributes) (bool, error) {
	for _, sel := range d.selections {
		if !sel.Required {
			continue
		}
		ok, err := MatchSelection(sel, attrs)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func validateCriteria(c profile.Criteria) error {
	switch c {
	case profile.CriteriaEquals, profile.CriteriaExists, profile.CriteriaIncludes:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCriteria, c)
	}
}

// MatchSelection evaluates one selection against service attributes.
func MatchSelection(sel profile.SelectionDirective, attrs meta.Attributes) (bool, error) {
	value, declared := attrs.Get(sel.Feature)
	switch sel.Criteria {
	case profile.CriteriaEquals:
		return declared && value == sel.Value, nil
	case profile.CriteriaExists:
		return declared, nil
	case profile.CriteriaIncludes:
		return declared && strings.Contains(value, sel.Value), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidCriteria, sel.Criteria)
	}
}

// StageModel is one lifecycle stage of a component.
type StageModel struct {
	binding
	descriptor meta.StageDescriptor
	source     string
}

// NewStageModel binds a stage descriptor to its optional directive.
func NewStageModel(partition string, desc meta.StageDescriptor, directive *profile.StageDirective) (*StageModel, error) {
	s := &StageModel{descriptor: desc}
	if directive != nil && directive.Source != "" {
		src, err := address.Resolve(partition, directive.Source)
		if err != nil {
			return nil, fmt.Errorf("stage %q source: %w", desc.Key, err)
		}
		s.source = src
	}
	return s, nil
}

func (s *StageModel) Key() string                     { return s.descriptor.Key }
func (s *StageModel) Descriptor() meta.StageDescriptor { return s.descriptor }
func (s *StageModel) Source() string                  { return s.source }
