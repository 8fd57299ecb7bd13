// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file holds the policies a container uses to tear down its children
// when it is decommissioned.
package model

import (
	"context"
	"errors"

	"github.com/vk/composegrid/internal/commission"
)

// TeardownPolicy decides what happens to a container's children on Decommission.
type TeardownPolicy interface {
	Teardown(ctx context.Context, c *ContainmentModel) error
}

// NoTeardown leaves children commissioned. Only the container's own flag changes.
type NoTeardown struct{}

func (NoTeardown) Teardown(context.Context, *ContainmentModel) error { return nil }

// ReverseTeardown decommissions children in shutdown order on a dedicated
// decommissioning Commissioner. Every child is attempted; failures are joined.
type ReverseTeardown struct{}

func (ReverseTeardown) Teardown(ctx context.Context, c *ContainmentModel) error {
	shutdown, err := c.graph.ShutdownGraph()
	if err != nil {
		return err
	}

	cm := commission.New(c.logger, commission.Decommissioning, c.system.CommissionerOptions...)
	defer cm.Dispose()

	var errs []error
	for _, child := range shutdown {
		if !child.IsCommissioned() {
			continue
		}
		if _, err := cm.Commission(ctx, child); err != nil {
			c.logger.Error("Child decommissioning failed.", "child", child.Path(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
