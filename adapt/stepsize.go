// Package adapt - Nesterov dual-averaging step-size adaptation,
// following Hoffman & Gelman §3.2.1.
//
// With target acceptance δ and initial step size ε₀, set μ = log(10·ε₀).
// On adapt step m ≥ 1 with observed acceptance statistic α:
//
//	H̄ₘ   = (1 - 1/(m+t₀))·H̄ₘ₋₁ + (1/(m+t₀))·(δ - α)
//	logε  = μ - √m/γ · H̄ₘ
//	logε̄ₘ = m^(-κ)·logε + (1 - m^(-κ))·logε̄ₘ₋₁
//
// During adaptation the integrator runs at exp(logε); at finalize it is
// rebuilt with the averaged exp(logε̄). A non-finite α is coerced to 0,
// so a divergent trajectory pushes the step size down instead of
// poisoning the average.
package adapt

import (
	"fmt"
	"math"
)

// Dual-averaging defaults, as in Hoffman & Gelman.
const (
	// DefaultGamma controls the shrinkage of logε toward μ.
	DefaultGamma = 0.05

	// DefaultT0 damps the early iterations.
	DefaultT0 = 10.0

	// DefaultKappa is the averaging decay exponent.
	DefaultKappa = 0.75

	// DefaultTargetAccept is the usual NUTS target acceptance rate.
	DefaultTargetAccept = 0.8
)

// DualAveraging adapts the nominal step size toward a target acceptance
// rate. The zero value is unusable; build one with NewDualAveraging.
// Single-chain state; clone one per chain.
type DualAveraging struct {
	delta float64
	gamma float64
	t0    float64
	kappa float64

	eps0      float64
	mu        float64
	hbar      float64
	logEps    float64
	logEpsBar float64
	m         int
}

// NewDualAveraging returns a dual-averaging adaptor starting from step
// size eps0 with target acceptance delta.
// Returns ErrBadStepSize unless eps0 is strictly positive and finite, and
// ErrBadTargetAccept unless delta lies in (0, 1).
func NewDualAveraging(eps0, delta float64) (*DualAveraging, error) {
	if !(eps0 > 0) || math.IsInf(eps0, 0) {
		return nil, fmt.Errorf("%w: %v", ErrBadStepSize, eps0)
	}
	if !(delta > 0 && delta < 1) {
		return nil, fmt.Errorf("%w: %v", ErrBadTargetAccept, delta)
	}

	da := &DualAveraging{
		delta: delta,
		gamma: DefaultGamma,
		t0:    DefaultT0,
		kappa: DefaultKappa,
	}
	da.Restart(eps0)

	return da, nil
}

// Target returns the target acceptance rate δ.
func (da *DualAveraging) Target() float64 { return da.delta }

// Steps returns the number of adapt steps since the last Restart.
func (da *DualAveraging) Steps() int { return da.m }

// Current returns the step size to use while adaptation is running,
// exp(logε).
func (da *DualAveraging) Current() float64 { return math.Exp(da.logEps) }

// Finalized returns the committed step size exp(logε̄), or the restart
// value when no adapt step has run yet.
func (da *DualAveraging) Finalized() float64 {
	if da.m == 0 {
		return da.eps0
	}

	return math.Exp(da.logEpsBar)
}

// Restart re-anchors the adaptor at step size eps: μ = log(10·ε),
// H̄ = 0, logε̄ = 0, m = 0. Called when a mass-matrix window closes, so
// step-size search restarts around the step size that suits the new
// metric.
func (da *DualAveraging) Restart(eps float64) {
	da.eps0 = eps
	da.mu = math.Log(10 * eps)
	da.hbar = 0
	da.logEps = math.Log(eps)
	da.logEpsBar = 0
	da.m = 0
}

// Adapt consumes one acceptance statistic and returns the step size for
// the next iteration. Complexity: O(1).
func (da *DualAveraging) Adapt(alpha float64) float64 {
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}

	da.m++
	m := float64(da.m)

	eta := 1 / (m + da.t0)
	da.hbar = (1-eta)*da.hbar + eta*(da.delta-alpha)
	da.logEps = da.mu - math.Sqrt(m)/da.gamma*da.hbar
	pow := math.Pow(m, -da.kappa)
	da.logEpsBar = pow*da.logEps + (1-pow)*da.logEpsBar

	return math.Exp(da.logEps)
}
