// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements path navigation across the containment hierarchy.
// Paths use "/" as separator. A leading "/" starts at the root container,
// ".." steps to the parent and "." stays put. Every other segment except the
// last must name a child container.
package model

import (
	"fmt"
	"strings"

	"github.com/vk/composegrid/internal/address"
)

// GetModel resolves path relative to this container.
func (c *ContainmentModel) GetModel(path string) (DeploymentModel, error) {
	switch {
	case path == "" || path == ".":
		return c, nil
	case strings.HasPrefix(path, address.Separator):
		return c.Root().GetModel(strings.TrimLeft(path, address.Separator))
	case path == "..":
		if c.parent == nil {
			return nil, fmt.Errorf("%w: %q steps above the root", ErrInvalidPath, path)
		}
		return c.parent, nil
	case strings.HasPrefix(path, "../"):
		if c.parent == nil {
			return nil, fmt.Errorf("%w: %q steps above the root", ErrInvalidPath, path)
		}
		return c.parent.GetModel(path[len("../"):])
	case strings.HasPrefix(path, "./"):
		return c.GetModel(path[len("./"):])
	}

	head, rest, nested := strings.Cut(path, address.Separator)
	m, ok := c.repository.Model(head)
	if !nested {
		if !ok {
			return nil, fmt.Errorf("%w: %q in %s", ErrNotFound, head, c.Path())
		}
		return m, nil
	}
	if !ok {
		return nil, fmt.Errorf("%w: unknown segment %q in %s", ErrInvalidPath, head, c.Path())
	}
	child, isContainer := m.(*ContainmentModel)
	if !isContainer {
		return nil, fmt.Errorf("%w: segment %q in %s is not a container", ErrInvalidPath, head, c.Path())
	}
	return child.GetModel(rest)
}
