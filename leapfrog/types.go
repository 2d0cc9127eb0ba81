// Package leapfrog: configuration and sentinel errors for the symplectic
// integrators.
//
// An Integrator is an immutable value. Adaptation never mutates the step
// size in place; WithStepSize returns a modified copy and the kernel is
// rebuilt around it. That keeps reversibility and determinism testable.
//
// Variants (closed set):
//
//	PlainKind    - constant step size ε.
//	JitteredKind - ε is multiplied by 1 + jitter·U(-1,1), drawn once per
//	               Step invocation (not per leap).
//	TemperedKind - the momentum is scaled by √α on the first half of the
//	               trajectory and by 1/√α on the second.
//
// Errors (sentinel):
//
//	ErrBadStepSize - ε is not strictly positive and finite.
//	ErrBadJitter   - jitter is outside [0, 1).
//	ErrBadAlpha    - tempering factor is not strictly positive and finite.
package leapfrog

import (
	"errors"
	"math"
)

// Sentinel errors for integrator construction.
var (
	// ErrBadStepSize indicates a step size that is not strictly positive and finite.
	ErrBadStepSize = errors.New("leapfrog: step size must be positive and finite")

	// ErrBadJitter indicates a jitter fraction outside [0, 1).
	ErrBadJitter = errors.New("leapfrog: jitter must be in [0, 1)")

	// ErrBadAlpha indicates a tempering factor that is not strictly positive and finite.
	ErrBadAlpha = errors.New("leapfrog: tempering factor must be positive and finite")
)

// Kind tags the closed set of integrator variants.
type Kind int

const (
	// PlainKind integrates with a constant step size.
	PlainKind Kind = iota

	// JitteredKind randomizes the step size once per trajectory.
	JitteredKind

	// TemperedKind scales the momentum along the trajectory.
	TemperedKind
)

// String returns the canonical name of the kind.
func (k Kind) String() string {
	switch k {
	case PlainKind:
		return "leapfrog"
	case JitteredKind:
		return "jittered-leapfrog"
	case TemperedKind:
		return "tempered-leapfrog"
	default:
		return "unknown"
	}
}

// Option is a functional option for New.
type Option func(*Integrator)

// WithJitter randomizes the step size by the fraction j per trajectory:
// ε' = ε·(1 + j·U(-1,1)). Panics on j outside [0, 1) (programmer error).
func WithJitter(j float64) Option {
	return func(lf *Integrator) {
		if j < 0 || j >= 1 || math.IsNaN(j) {
			panic(ErrBadJitter.Error())
		}
		lf.kind = JitteredKind
		lf.jitter = j
	}
}

// WithTempering scales the momentum by √alpha on the first half of each
// multi-step trajectory and by 1/√alpha on the second half. Panics on a
// non-positive or non-finite alpha (programmer error).
func WithTempering(alpha float64) Option {
	return func(lf *Integrator) {
		if !(alpha > 0) || math.IsInf(alpha, 0) {
			panic(ErrBadAlpha.Error())
		}
		lf.kind = TemperedKind
		lf.alpha = alpha
	}
}
