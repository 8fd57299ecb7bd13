// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file applies runtime targets: configuration and logging overrides
// addressed by model path.
package model

import (
	"context"

	"github.com/vk/composegrid/internal/profile"
)

// ApplyTargets applies each target to the model its path names. Unresolvable
// targets are logged and skipped. It returns the number of targets applied.
func (c *ContainmentModel) ApplyTargets(ctx context.Context, targets []profile.TargetDirective) int {
	applied := 0
	for _, t := range targets {
		m, err := c.GetModel(t.Path)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping target.", "path", t.Path, "error", err)
			continue
		}

		switch m := m.(type) {
		case *ComponentModel:
			if t.Configuration != nil {
				m.SetConfiguration(t.Configuration)
			}
		case *ContainmentModel:
			if t.Configuration != nil {
				c.logger.WarnContext(ctx, "Ignoring configuration target for a container.", "path", m.Path())
			}
		}
		if t.Categories != nil {
			m.SetCategories(t.Categories)
		}
		applied++
		c.logger.DebugContext(ctx, "Target applied.", "path", m.Path())
	}
	return applied
}
