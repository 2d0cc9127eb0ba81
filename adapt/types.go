// Package adapt: adaptor contract, sentinel errors and defaults for the
// warmup machinery.
//
// The adaptation engine has three layers:
//
//	Welford estimators - online variance/covariance accumulators.
//	Leaf adaptors      - DualAveraging (step size) and MassAdaptor (metric).
//	WindowedAdaptor    - the Stan-style three-phase scheduler composing them.
//
// Every adaptor consumes one (θ, α) observation per warmup iteration and
// reports what changed through an Update value; the driver applies the
// changes by rebuilding the Hamiltonian and kernel.
//
// Errors (sentinel):
//
//	ErrBadDim          - a non-positive dimension, or a nil sub-adaptor, was supplied.
//	ErrBadTargetAccept - target acceptance rate outside (0, 1).
//	ErrBadStepSize     - initial step size not strictly positive and finite.
//	ErrBadNumAdapt     - negative adaptation length.
//	ErrSingular        - the estimated mass matrix is not usable.
package adapt

import (
	"errors"

	"github.com/katalvlaran/hamwalk/metric"
)

// Sentinel errors for adaptor construction and finalization.
var (
	// ErrBadDim indicates a non-positive estimator dimension; NewWindowed
	// and NewStepSizeOnly also return it for a nil sub-adaptor.
	ErrBadDim = errors.New("adapt: dimension must be positive")

	// ErrBadTargetAccept indicates a target acceptance rate outside (0, 1).
	ErrBadTargetAccept = errors.New("adapt: target acceptance rate must be in (0, 1)")

	// ErrBadStepSize indicates an initial step size that is not strictly
	// positive and finite.
	ErrBadStepSize = errors.New("adapt: initial step size must be positive and finite")

	// ErrBadNumAdapt indicates a negative adaptation length.
	ErrBadNumAdapt = errors.New("adapt: number of adaptation steps must be non-negative")

	// ErrSingular indicates that a mass-matrix estimate failed its
	// positive-definiteness check at finalize. The prior metric is kept.
	ErrSingular = errors.New("adapt: singular mass matrix estimate")
)

// Update reports what one adaptation step changed. The driver applies the
// step size every warmup iteration and rebuilds the Hamiltonian whenever
// MetricUpdated is set.
type Update struct {
	// StepSize is the nominal integrator step size to use next iteration.
	StepSize float64

	// Metric is the replacement mass matrix, valid when MetricUpdated.
	Metric metric.Metric

	// MetricUpdated reports that a mass-matrix window closed this step.
	MetricUpdated bool

	// Finalized reports that adaptation is complete and StepSize holds the
	// committed dual-averaged value.
	Finalized bool

	// Err carries a non-fatal adaptation fault, e.g. ErrSingular when a
	// window's estimate was rejected. Divergences are data, not errors;
	// the driver logs Err and continues.
	Err error
}

// Adaptor is the per-iteration warmup contract: consume the position and
// acceptance statistic of iteration i and report the resulting changes.
// Implementations are stateful and single-chain; clone one per chain.
type Adaptor interface {
	Adapt(theta []float64, alpha float64) Update
}
