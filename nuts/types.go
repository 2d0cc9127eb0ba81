// Package nuts: kernel configuration, transition statistics, sentinel
// errors and defaults.
//
// Three transition kernels form a closed set:
//
//	Static - integrate a fixed number of leapfrog steps, MH-accept the endpoint.
//	HMCDA  - integrate for a fixed simulation time λ, MH-accept the endpoint.
//	NUTS   - recursive tree doubling with a no-U-turn termination criterion
//	         and slice or multinomial trajectory sampling.
//
// Errors (sentinel):
//
//	ErrBadNLeapfrog - static step count below one.
//	ErrBadLambda    - non-positive simulation time.
//	ErrBadMaxDepth  - tree depth below one.
//	ErrBadDeltaMax  - non-positive divergence threshold.
package nuts

import (
	"errors"

	"github.com/katalvlaran/hamwalk/hamiltonian"
)

// Sentinel errors for kernel construction.
var (
	// ErrBadNLeapfrog indicates a static trajectory length below one step.
	ErrBadNLeapfrog = errors.New("nuts: number of leapfrog steps must be at least 1")

	// ErrBadLambda indicates a non-positive HMCDA simulation time.
	ErrBadLambda = errors.New("nuts: trajectory simulation time must be positive")

	// ErrBadMaxDepth indicates a maximum tree depth below one.
	ErrBadMaxDepth = errors.New("nuts: maximum tree depth must be at least 1")

	// ErrBadDeltaMax indicates a non-positive divergence threshold.
	ErrBadDeltaMax = errors.New("nuts: divergence threshold must be positive")
)

// Defaults for NUTS tree building.
const (
	// DefaultMaxDepth bounds tree doubling at 2^10 - 1 = 1023 leapfrog
	// steps, a trajectory of 1024 points including the start.
	DefaultMaxDepth = 10

	// DefaultDeltaMax is the energy-error threshold beyond which a leaf is
	// declared divergent, matching the Stan default.
	DefaultDeltaMax = 1000.0
)

// Criterion tags the closed set of no-U-turn termination tests.
type Criterion int

const (
	// GeneralizedNoUTurn tests the integrated momentum against the
	// momentum at both subtree endpoints, including the cross-subtree
	// checks at every merge. The default.
	GeneralizedNoUTurn Criterion = iota

	// ClassicNoUTurn tests the position difference of the subtree
	// endpoints against the momentum at each end, as in Hoffman & Gelman.
	ClassicNoUTurn
)

// String returns the canonical name of the criterion.
func (c Criterion) String() string {
	switch c {
	case GeneralizedNoUTurn:
		return "generalized-no-u-turn"
	case ClassicNoUTurn:
		return "classic-no-u-turn"
	default:
		return "unknown"
	}
}

// Sampling tags the closed set of trajectory samplers used by NUTS.
type Sampling int

const (
	// MultinomialSampling weighs every trajectory point by exp(-H),
	// accumulated in log space. The default.
	MultinomialSampling Sampling = iota

	// SliceSampling counts points accepted under an auxiliary slice
	// variable, as in the original NUTS paper.
	SliceSampling
)

// String returns the canonical name of the sampling scheme.
func (s Sampling) String() string {
	switch s {
	case MultinomialSampling:
		return "multinomial"
	case SliceSampling:
		return "slice"
	default:
		return "unknown"
	}
}

// Stat records per-transition diagnostics, one record per draw.
type Stat struct {
	// NSteps is the number of leapfrog steps integrated.
	NSteps int

	// IsAccept reports whether the transition moved off its start point.
	IsAccept bool

	// AcceptRate is the MH acceptance probability for static kernels, and
	// the mean of min(1, exp(-ΔH)) over all proposals for NUTS. It feeds
	// dual-averaging adaptation.
	AcceptRate float64

	// LogDensity is ℓπ at the accepted position.
	LogDensity float64

	// Energy is the Hamiltonian at the accepted phase point.
	Energy float64

	// NumericalError reports a divergent trajectory: the energy error
	// exceeded the threshold or a phase point became non-finite.
	NumericalError bool

	// StepSize is the step size actually used this transition (post-jitter).
	StepSize float64

	// NomStepSize is the nominal step size (the dual-averaging value).
	NomStepSize float64

	// TreeDepth is the depth reached by tree doubling (0 for static kernels).
	TreeDepth int
}

// Transition is the outcome of one kernel application: the accepted phase
// point plus its statistics record.
type Transition struct {
	// Z is the accepted phase point.
	Z hamiltonian.PhasePoint

	// Stat carries the per-transition diagnostics.
	Stat Stat
}

// Options configures the NUTS kernel.
//
// MaxDepth  - maximum tree doubling depth (≥ 1). Default DefaultMaxDepth.
// DeltaMax  - divergence threshold on the energy error (> 0). Default DefaultDeltaMax.
// Criterion - termination test. Default GeneralizedNoUTurn.
// Sampling  - trajectory sampler. Default MultinomialSampling.
type Options struct {
	MaxDepth  int
	DeltaMax  float64
	Criterion Criterion
	Sampling  Sampling
}

// Option is a functional option for NewNUTS.
type Option func(*Options)

// WithMaxDepth bounds tree doubling at depth d. Panics on d < 1
// (programmer error).
func WithMaxDepth(d int) Option {
	return func(o *Options) {
		if d < 1 {
			panic(ErrBadMaxDepth.Error())
		}
		o.MaxDepth = d
	}
}

// WithDeltaMax sets the divergence threshold. Panics on a non-positive
// value (programmer error).
func WithDeltaMax(dm float64) Option {
	return func(o *Options) {
		if !(dm > 0) {
			panic(ErrBadDeltaMax.Error())
		}
		o.DeltaMax = dm
	}
}

// WithCriterion selects the no-U-turn termination test.
func WithCriterion(c Criterion) Option {
	return func(o *Options) { o.Criterion = c }
}

// WithSampling selects the trajectory sampler.
func WithSampling(s Sampling) Option {
	return func(o *Options) { o.Sampling = s }
}

// DefaultOptions returns the NUTS defaults: depth 10, Δmax 1000,
// generalized criterion, multinomial sampling.
func DefaultOptions() Options {
	return Options{
		MaxDepth:  DefaultMaxDepth,
		DeltaMax:  DefaultDeltaMax,
		Criterion: GeneralizedNoUTurn,
		Sampling:  MultinomialSampling,
	}
}
