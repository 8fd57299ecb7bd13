// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the error taxonomy of the model layer. Sentinel errors
// classify failures for errors.Is; the struct types carry the location of a
// failure and chain to its cause.
package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotAssembled     = errors.New("model is not assembled")
	ErrNotCommissioned  = errors.New("model is not commissioned")
	ErrNoProvider       = errors.New("no provider available")
	ErrCyclicDependency = errors.New("cyclic dependency")
	ErrInvalidPath      = errors.New("invalid model path")
	ErrNotFound         = errors.New("model not found")
	ErrDuplicateModel   = errors.New("duplicate model name")
	ErrUnknownProfile   = errors.New("unsupported profile kind")
	ErrInvalidCriteria  = errors.New("invalid selection criteria")
	ErrMissingEntry     = errors.New("missing context entry")
	ErrNoExport         = errors.New("container exports no matching service")
	ErrNoBlockResolver  = errors.New("no block resolver configured")
)

// ModelError reports a failure to construct or configure a model.
type ModelError struct {
	Path string
	Op   string
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %q: %s: %v", e.Path, e.Op, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// Phase names the resolution pass that failed during assembly.
type Phase string

const (
	PhaseContext    Phase = "context"
	PhaseStage      Phase = "stage"
	PhaseDependency Phase = "dependency"
	PhaseExport     Phase = "export"
)

// AssemblyError reports an unresolved requirement. Failures inside a
// provider's own assembly are chained through Err.
type AssemblyError struct {
	Partition string
	Component string
	Phase     Phase
	Key       string
	Err       error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("unable to assemble component %q in partition %q: unresolved %s %q: %v",
		e.Component, e.Partition, e.Phase, e.Key, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// RuntimeError reports an unexpected failure while operating on assembled models.
type RuntimeError struct {
	Op  string
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
