package commission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Target is something a Commissioner can commission or decommission.
type Target interface {
	Path() string
	DeploymentTimeout() time.Duration
	Commission(ctx context.Context) error
	Decommission(ctx context.Context) error
}

type outcomeKind int

const (
	outcomeDone outcomeKind = iota
	outcomeInterrupted
	outcomeFailed
)

type outcome struct {
	kind outcomeKind
	err  error
}

// request pairs a target with the channel its outcome is delivered on.
type request struct {
	id     uuid.UUID
	target Target
	ctx    context.Context
	cancel context.CancelCauseFunc
	result chan outcome
}

func newRequest(ctx context.Context, target Target) *request {
	reqCtx, cancel := context.WithCancelCause(ctx)
	return &request{
		id:     uuid.New(),
		target: target,
		ctx:    reqCtx,
		cancel: cancel,
		result: make(chan outcome, 1),
	}
}

// interrupt cancels the request's context with ErrInterrupted.
func (r *request) interrupt() {
	r.cancel(ErrInterrupted)
}

// classify turns the target's return value into an outcome. An error that
// follows our own interruption counts as acknowledgement.
func (r *request) classify(err error) outcome {
	if err == nil {
		return outcome{kind: outcomeDone}
	}
	if errors.Is(context.Cause(r.ctx), ErrInterrupted) &&
		(errors.Is(err, context.Canceled) || errors.Is(err, ErrInterrupted)) {
		return outcome{kind: outcomeInterrupted, err: err}
	}
	return outcome{kind: outcomeFailed, err: err}
}
