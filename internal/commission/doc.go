// Package commission runs lifecycle transitions of deployment models on a
// dedicated worker goroutine with bounded waiting.
//
// A Commissioner owns one worker and one request channel and moves in a
// single direction: it either commissions or decommissions. Callers submit
// a target and block until the worker reports back. Each wait is split into
// two windows of the target's deployment timeout:
//
//  1. The caller waits up to T for the transition to finish.
//  2. On expiry it cancels the request's context and waits up to T more.
//
// A target that returns after cancellation yields a recoverable
// *CommissioningError. A target that ignores cancellation yields a
// *FatalCommissioningError, and the worker is abandoned. Any other error
// from the target is returned to the caller unchanged.
package commission
