// Package leapfrog implements the symplectic integrators driving HMC.
//
// Algorithm outline (one full step of size ε from (θ, r)):
//  1. Half kick:  r½ = r + (ε/2)·∇ℓπ(θ)
//  2. Drift:      θ' = θ + ε·M⁻¹·r½
//  3. Re-evaluate ℓπ(θ') (one target evaluation per step).
//  4. Half kick:  r' = r½ + (ε/2)·∇ℓπ(θ')
//
// Step repeats this |n| times; the sign of n selects the direction of
// integration by flipping the sign of ε. If any intermediate point becomes
// non-finite, integration breaks early and returns the last valid point
// with a divergence flag.
//
// Complexity: O(|n|·(D + cost of one target evaluation)); dense metrics
// add O(D²) per step for the inverse-mass product.
package leapfrog

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/hamwalk/core"
	"github.com/katalvlaran/hamwalk/hamiltonian"
)

// Integrator is a tagged, immutable leapfrog variant.
// Build one with New; derive adapted copies with WithStepSize.
type Integrator struct {
	kind   Kind
	eps    float64 // nominal step size
	jitter float64 // JitteredKind: relative half-width of the ε perturbation
	alpha  float64 // TemperedKind: momentum tempering factor
}

// New returns an integrator with nominal step size eps.
// Returns ErrBadStepSize unless eps is strictly positive and finite.
// Variants are selected with WithJitter / WithTempering.
func New(eps float64, opts ...Option) (Integrator, error) {
	if !(eps > 0) || math.IsInf(eps, 0) {
		return Integrator{}, fmt.Errorf("%w: %v", ErrBadStepSize, eps)
	}
	lf := Integrator{kind: PlainKind, eps: eps, alpha: 1}
	for _, opt := range opts {
		opt(&lf)
	}

	return lf, nil
}

// Kind returns the variant tag.
func (lf Integrator) Kind() Kind { return lf.kind }

// NomStepSize returns the nominal (pre-jitter) step size. Dual-averaging
// adaptation reads and replaces this value; jitter is applied on top of it
// per trajectory. On an instance returned by Prepare it reports the
// perturbed value, so the nominal value is read from the unprepared
// integrator.
func (lf Integrator) NomStepSize() float64 { return lf.eps }

// StepSize returns the step size the integrator steps with. It always
// equals NomStepSize of the same instance; on an instance returned by
// Prepare both report the perturbed step size.
func (lf Integrator) StepSize() float64 { return lf.eps }

// WithStepSize returns a copy of lf with nominal step size eps, keeping
// the variant and its parameters. Panics on a non-positive eps
// (programmer error; adapted step sizes are exp() of a finite value).
func (lf Integrator) WithStepSize(eps float64) Integrator {
	if !(eps > 0) {
		panic(ErrBadStepSize.Error())
	}
	out := lf
	out.eps = eps

	return out
}

// Prepare resolves per-trajectory randomness: for JitteredKind it draws
// the step-size perturbation once and returns a plain-stepping copy; for
// the other kinds it returns lf unchanged. Kernels call Prepare once per
// transition, then take unit steps on the result.
func (lf Integrator) Prepare(rng core.RNG) Integrator {
	if lf.kind != JitteredKind {
		return lf
	}
	out := lf
	out.kind = PlainKind
	out.jitter = 0
	out.eps = lf.eps * (1 + lf.jitter*(2*rng.Float64()-1))

	return out
}

// Step integrates |n| leapfrog steps from z, backward when n is negative.
// It returns the final phase point and a divergence flag; on divergence
// the returned point is the last valid one reached.
//
// Tempering (TemperedKind) scales the momentum by √α before the kick on
// steps i ≤ ⌈|n|/2⌉ and after the kick on steps i ≤ ⌊|n|/2⌋, and by 1/√α
// otherwise; for odd |n| the midpoint receives a single net √α boost.
// Single-step calls (|n| = 1, as issued by tree building) behave plainly.
//
// Jitter is resolved once per Step invocation; use Prepare when several
// Step calls must share one perturbed ε.
func (lf Integrator) Step(rng core.RNG, h hamiltonian.Hamiltonian, z hamiltonian.PhasePoint, n int) (hamiltonian.PhasePoint, bool) {
	if n == 0 {
		return z, false
	}

	steps := n
	eps := lf.eps
	if lf.kind == JitteredKind {
		eps *= 1 + lf.jitter*(2*rng.Float64()-1)
	}
	if steps < 0 {
		steps = -steps
		eps = -eps
	}

	sqrtAlpha := 1.0
	if lf.kind == TemperedKind && steps > 1 {
		sqrtAlpha = math.Sqrt(lf.alpha)
	}

	dim := z.Dim()
	theta := make([]float64, dim)
	copy(theta, z.Theta)
	r := make([]float64, dim)
	copy(r, z.R)
	drift := make([]float64, dim)

	logpi := z.LogPi
	cur := z
	for i := 1; i <= steps; i++ {
		// Pre-kick tempering: boost on the first ⌈n/2⌉ steps.
		if sqrtAlpha != 1 {
			if 2*i <= steps+1 {
				floats.Scale(sqrtAlpha, r)
			} else {
				floats.Scale(1/sqrtAlpha, r)
			}
		}

		// Half kick, drift, re-evaluate, half kick.
		floats.AddScaled(r, eps/2, logpi.Grad)
		h.Metric().InvMul(r, drift)
		floats.AddScaled(theta, eps, drift)
		logpi = h.Target().LogDensity(theta)
		floats.AddScaled(r, eps/2, logpi.Grad)

		// Post-kick tempering: boost on the first ⌊n/2⌋ steps.
		if sqrtAlpha != 1 {
			if 2*i <= steps {
				floats.Scale(sqrtAlpha, r)
			} else {
				floats.Scale(1/sqrtAlpha, r)
			}
		}

		th := make([]float64, dim)
		copy(th, theta)
		mom := make([]float64, dim)
		copy(mom, r)
		next := hamiltonian.NewPoint(h, th, mom, logpi)
		if !next.IsValid() {
			return cur, true
		}
		cur = next
	}

	return cur, false
}
