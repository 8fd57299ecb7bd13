// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file models the activation context of a component: the strategy that
// contextualizes its instance and the entries built for it.
package model

import (
	"context"
	"fmt"

	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

// ContextModel pairs a type's context requirements with a profile's recipes.
type ContextModel struct {
	binding
	descriptor *meta.ContextDescriptor
	directive  *profile.ContextDirective
}

// NewContextModel returns nil when neither side declares a context.
func NewContextModel(desc *meta.ContextDescriptor, directive *profile.ContextDirective) *ContextModel {
	if desc == nil && directive == nil {
		return nil
	}
	return &ContextModel{descriptor: desc, directive: directive}
}

// Strategy is the profile override if present, else the type's strategy.
func (c *ContextModel) Strategy() string {
	if c.directive != nil && c.directive.Strategy != "" {
		return c.directive.Strategy
	}
	return c.descriptor.EffectiveStrategy()
}

// IsDefault reports whether the strategy needs no provider.
func (c *ContextModel) IsDefault() bool {
	return c.Strategy() == meta.DefaultContextStrategy
}

// StageDescriptor is the extension requirement of a non-default strategy.
func (c *ContextModel) StageDescriptor() meta.StageDescriptor {
	return meta.StageDescriptor{Key: string(PhaseContext), Extension: c.Strategy()}
}

// Entries builds every declared entry. Entries the type declares must have a
// recipe unless optional; recipes without a declaration are built as well.
func (c *ContextModel) Entries(ctx context.Context, factory EntryFactory) (map[string]any, error) {
	out := make(map[string]any)
	declared := make(map[string]bool)

	if c.descriptor != nil {
		for _, ed := range c.descriptor.Entries {
			declared[ed.Key] = true
			recipe, ok := c.directive.Entry(ed.Key)
			if !ok {
				if ed.Optional {
					continue
				}
				return nil, fmt.Errorf("%w: %q", ErrMissingEntry, ed.Key)
			}
			if recipe.Type == "" {
				recipe.Type = ed.Type
			}
			v, err := buildEntry(ctx, factory, recipe)
			if err != nil {
				return nil, err
			}
			out[ed.Key] = v
		}
	}

	if c.directive != nil {
		for _, recipe := range c.directive.Entries {
			if declared[recipe.Key] {
				continue
			}
			v, err := buildEntry(ctx, factory, recipe)
			if err != nil {
				return nil, err
			}
			out[recipe.Key] = v
		}
	}
	return out, nil
}

func buildEntry(ctx context.Context, factory EntryFactory, recipe profile.EntryDirective) (any, error) {
	if factory == nil {
		return recipe.Value, nil
	}
	v, err := factory.BuildEntry(ctx, recipe)
	if err != nil {
		return nil, fmt.Errorf("context entry %q: %w", recipe.Key, err)
	}
	return v, nil
}
