package commission

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is matched by recoverable commissioning timeouts.
	ErrTimeout = errors.New("commissioning timeout")
	// ErrFatal is matched by timeouts where the worker did not respond to
	// cancellation.
	ErrFatal = errors.New("commissioning handler unresponsive")
	// ErrInterrupted is the cancellation cause given to a request whose
	// first wait window expired.
	ErrInterrupted = errors.New("commissioning interrupted")
	// ErrDisposed is returned when submitting to a disposed Commissioner.
	ErrDisposed = errors.New("commissioner disposed")
)

// CommissioningError reports a timeout after which the target acknowledged
// cancellation. The operation may be retried.
type CommissioningError struct {
	Path      string
	Direction Direction
	Timeout   time.Duration
	Elapsed   time.Duration
}

func (e *CommissioningError) Error() string {
	return fmt.Sprintf("%s of %q exceeded timeout %s and was interrupted after %s",
		e.Direction, e.Path, e.Timeout, e.Elapsed.Round(time.Millisecond))
}

func (e *CommissioningError) Unwrap() error {
	return ErrTimeout
}

// FatalCommissioningError reports a timeout where the target ignored
// cancellation for a second full window. The worker is presumed stuck.
type FatalCommissioningError struct {
	Path      string
	Direction Direction
	Timeout   time.Duration
	Elapsed   time.Duration
}

func (e *FatalCommissioningError) Error() string {
	return fmt.Sprintf("%s of %q exceeded timeout %s and did not respond to interruption after %s",
		e.Direction, e.Path, e.Timeout, e.Elapsed.Round(time.Millisecond))
}

func (e *FatalCommissioningError) Unwrap() error {
	return ErrFatal
}
