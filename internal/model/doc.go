// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model implements the deployment models of the component container:
// the live, resolvable representation of profiles during assembly and
// execution.
//
// # Core Concepts
//
//   - DeploymentModel: a node in the model tree. Every model has a name, a
//     partition (the namespace path of its enclosing container), an
//     establishment mode and the services it offers.
//
//   - ComponentModel: a leaf wrapping one component type. It holds one
//     DependencyModel per declared service dependency, one StageModel per
//     lifecycle stage and an optional ContextModel.
//
//   - ContainmentModel: a container that owns a Repository of child models
//     and a partition of the DependencyGraph. Containers may export services
//     provided by their children.
//
// # Lifecycle
//
// Models move from unassembled to assembled to commissioned and back to
// decommissioned. Assembly binds every dependency, stage and non-default
// context strategy to a provider model; when no live provider exists, the
// engine materializes one from a packaged profile. Commissioning walks the
// local DependencyGraph in provider-before-consumer order on a dedicated
// worker from the commission package.
package model
