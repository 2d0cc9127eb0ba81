// Package hamiltonian combines a metric with a target into the energy
// function sampled by HMC, and defines the cached phase points that flow
// through the trajectory pipeline.
//
// A Hamiltonian is pure: Update returns a replacement sharing the target
// rather than mutating in place. Phase points are immutable values; every
// operation that would change one builds a new point instead.
//
// Sign conventions:
//
//	H(θ, r)  = -ℓπ(θ) - ℓκ(r)
//	ℓπ       = un-normalized log-density of the target.
//	ℓκ(r)    = -r·M⁻¹·r / 2, the negative kinetic energy;
//	           its gradient with respect to r is -M⁻¹r.
//
// Errors (sentinel):
//
//	ErrNilTarget - the target is nil.
//	ErrBadInit   - the initial position has a non-finite log-density.
package hamiltonian

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/hamwalk/core"
	"github.com/katalvlaran/hamwalk/metric"
)

// Sentinel errors for Hamiltonian construction and initialization.
var (
	// ErrNilTarget indicates that a nil target was supplied.
	ErrNilTarget = errors.New("hamiltonian: target is nil")

	// ErrBadInit indicates that the initial position evaluates to a
	// non-finite log-density, so no valid starting phase point exists.
	ErrBadInit = errors.New("hamiltonian: initial position has non-finite log-density")
)

// Hamiltonian pairs a metric with a target. The zero value is unusable;
// build one with New.
type Hamiltonian struct {
	metric metric.Metric
	target core.Target
}

// New combines a metric and a target.
// Returns ErrNilTarget for a nil target and core.ErrDimMismatch when the
// metric and target disagree on the dimension.
func New(m metric.Metric, t core.Target) (Hamiltonian, error) {
	if t == nil {
		return Hamiltonian{}, ErrNilTarget
	}
	if m.Dim() != t.Dim() {
		return Hamiltonian{}, fmt.Errorf("%w: metric dim %d, target dim %d",
			core.ErrDimMismatch, m.Dim(), t.Dim())
	}

	return Hamiltonian{metric: m, target: t}, nil
}

// Metric returns the current mass matrix.
func (h Hamiltonian) Metric() metric.Metric { return h.metric }

// Target returns the wrapped target.
func (h Hamiltonian) Target() core.Target { return h.target }

// Update returns a new Hamiltonian with metric m, sharing the target.
func (h Hamiltonian) Update(m metric.Metric) Hamiltonian {
	return Hamiltonian{metric: m, target: h.target}
}

// PhasePoint caches everything the trajectory pipeline needs about a
// position/momentum pair: the log-density dual at Theta and the negative
// kinetic energy dual at R. Treat as immutable.
type PhasePoint struct {
	// Theta is the position.
	Theta []float64

	// R is the momentum.
	R []float64

	// LogPi is the cached log-density and gradient at Theta.
	LogPi core.DualValue

	// LogKappa is the cached negative kinetic energy at (R, metric);
	// its gradient is -M⁻¹R.
	LogKappa core.DualValue
}

// Dim returns the phase-point dimension.
func (z PhasePoint) Dim() int { return len(z.Theta) }

// IsValid reports whether every component of the point is finite. An
// invalid point is divergent: it may still flow through the pipeline but
// carries Hamiltonian +Inf (zero weight).
func (z PhasePoint) IsValid() bool {
	if !z.LogPi.IsFinite() || !z.LogKappa.IsFinite() {
		return false
	}
	for _, v := range z.Theta {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range z.R {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

// Energy returns H(θ, r) = -ℓπ - ℓκ, or +Inf for an invalid point.
func (z PhasePoint) Energy() float64 {
	if !z.IsValid() {
		return math.Inf(1)
	}

	return -z.LogPi.Value - z.LogKappa.Value
}

// PhasePoint evaluates the target at theta and assembles a phase point
// with momentum r. Both slices are copied.
func (h Hamiltonian) PhasePoint(theta, r []float64) PhasePoint {
	th := make([]float64, len(theta))
	copy(th, theta)
	mom := make([]float64, len(r))
	copy(mom, r)

	return NewPoint(h, th, mom, h.target.LogDensity(th))
}

// NewPoint assembles a phase point from freshly computed parts, taking
// ownership of theta and r without copying. Used by integrators on the
// hot path; callers must not retain or mutate the slices afterwards.
func NewPoint(h Hamiltonian, theta, r []float64, logpi core.DualValue) PhasePoint {
	return PhasePoint{Theta: theta, R: r, LogPi: logpi, LogKappa: h.kineticDual(r)}
}

// kineticDual computes ℓκ(r) = -r·M⁻¹·r/2 and its gradient -M⁻¹r with a
// single inverse-mass product.
func (h Hamiltonian) kineticDual(r []float64) core.DualValue {
	g := make([]float64, len(r))
	h.metric.InvMul(r, g)

	var ke float64
	for i, v := range g {
		ke += r[i] * v
	}
	ke *= 0.5

	for i := range g {
		g[i] = -g[i]
	}

	return core.DualValue{Value: -ke, Grad: g}
}

// Refresh redraws the momentum r ~ N(0, M) and returns a new phase point
// reusing the cached log-density at Theta; the target is not evaluated.
func (h Hamiltonian) Refresh(rng core.RNG, z PhasePoint) PhasePoint {
	r := make([]float64, len(z.R))
	h.metric.SampleMomentum(rng, r)

	return PhasePoint{Theta: z.Theta, R: r, LogPi: z.LogPi, LogKappa: h.kineticDual(r)}
}

// Init evaluates the target at theta0, draws an initial momentum and
// returns the starting phase point. Returns ErrBadInit when the
// log-density at theta0 is not finite.
func (h Hamiltonian) Init(rng core.RNG, theta0 []float64) (PhasePoint, error) {
	if len(theta0) != h.metric.Dim() {
		return PhasePoint{}, fmt.Errorf("%w: metric dim %d, theta dim %d",
			core.ErrDimMismatch, h.metric.Dim(), len(theta0))
	}

	th := make([]float64, len(theta0))
	copy(th, theta0)
	r := make([]float64, len(theta0))
	h.metric.SampleMomentum(rng, r)

	z := NewPoint(h, th, r, h.target.LogDensity(th))
	if !z.IsValid() {
		return PhasePoint{}, fmt.Errorf("%w: logπ = %v", ErrBadInit, z.LogPi.Value)
	}

	return z, nil
}
