// Package nuts - recursive trajectory tree building.
//
// Algorithm outline (one NUTS transition):
//  1. Start with the single-point tree at z₀; record H₀.
//  2. At depth j, choose a direction v uniformly and grow a depth-j
//     subtree from the matching tip, one leapfrog step at a time.
//  3. If the subtree did not terminate, accept its candidate with the
//     biased progressive probability min(1, w_new/w_old), then merge:
//     endpoints extend, momentum sums add, weights logsumexp-accumulate.
//  4. Re-check termination over the merged tree (plus the cross-join
//     checks of the generalized criterion); stop on termination,
//     divergence, or depth = MaxDepth.
//
// Weights are ΔH-relative (leaf log-weight = H₀ - H), so the initial point
// carries log-weight 0 and the accumulation never mixes large magnitudes.
//
// Divergent leaves (energy error above Δmax, or a non-finite point)
// contribute zero weight to the accumulator and terminate their subtree.
package nuts

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/hamwalk/core"
	"github.com/katalvlaran/hamwalk/hamiltonian"
	"github.com/katalvlaran/hamwalk/leapfrog"
)

// tree is one (sub)trajectory during doubling: the trajectory-order
// extreme phase points, the progressive-sampling candidate, the
// accumulated log-weight and momentum sum, and the termination flags.
type tree struct {
	zleft, zright hamiltonian.PhasePoint
	zcand         hamiltonian.PhasePoint
	logw          float64
	rsum          []float64
	divergent     bool
	terminated    bool
}

// builder carries the per-transition state shared by the recursion:
// the prepared integrator, the termination configuration, the slice
// variable, scratch storage and the acceptance-statistic accumulators.
type builder struct {
	rng      core.RNG
	h        hamiltonian.Hamiltonian
	lf       leapfrog.Integrator
	crit     Criterion
	sampling Sampling
	deltaMax float64

	h0   float64 // energy at the start point
	logu float64 // slice variable, SliceSampling only

	dtheta []float64 // scratch for the classic criterion
	rho    []float64 // scratch for cross-join momentum sums

	nSteps     int
	sumAccept  float64
	nProposals int
}

// newTree returns the single-point tree at the start point z0.
func newTree(z0 hamiltonian.PhasePoint) tree {
	rsum := make([]float64, len(z0.R))
	copy(rsum, z0.R)

	return tree{zleft: z0, zright: z0, zcand: z0, logw: 0, rsum: rsum}
}

// leaf wraps a freshly integrated phase point as a depth-0 tree and
// accumulates the acceptance statistic. divergedEarly marks an integrator
// that broke before completing the step.
func (b *builder) leaf(z hamiltonian.PhasePoint, divergedEarly bool) tree {
	en := z.Energy()
	dh := en - b.h0

	// Divergence: energy error beyond the threshold, a non-finite point,
	// or an integrator that never completed the step. NaN compares false,
	// so the negated form catches it.
	div := divergedEarly || !(dh <= b.deltaMax)

	logw := math.Inf(-1)
	if !div {
		switch b.sampling {
		case SliceSampling:
			if b.logu <= -en {
				logw = 0
			}
		default:
			logw = -dh
		}
	}

	// min(1, exp(-ΔH)) with NaN coerced to zero.
	alpha := math.Exp(-dh)
	if math.IsNaN(alpha) {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}
	b.sumAccept += alpha
	b.nProposals++

	rsum := make([]float64, len(z.R))
	copy(rsum, z.R)

	return tree{
		zleft: z, zright: z, zcand: z,
		logw: logw, rsum: rsum,
		divergent: div, terminated: div,
	}
}

// build grows a depth-j subtree from z in direction v (±1), recursing as
// two depth-(j-1) halves. A terminated first half short-circuits; a
// terminated second half propagates without merging candidates.
//
// Complexity: O(2^j) leapfrog steps.
func (b *builder) build(z hamiltonian.PhasePoint, v, depth int) tree {
	if depth == 0 {
		zn, div := b.lf.Step(b.rng, b.h, z, v)
		b.nSteps++

		return b.leaf(zn, div)
	}

	t1 := b.build(z, v, depth-1)
	if t1.terminated {
		return t1
	}

	tip := t1.zright
	if v < 0 {
		tip = t1.zleft
	}
	t2 := b.build(tip, v, depth-1)
	if t2.terminated {
		t1.divergent = t1.divergent || t2.divergent
		t1.terminated = true

		return t1
	}

	merged, _ := b.combine(t1, t2, v, false)

	return merged
}

// combine merges tree t2, grown in direction v off t1, into one tree and
// re-checks termination over the result. With biased=false the candidate
// is chosen proportionally to the subtree weights (uniform progressive
// sampling inside a doubling); with biased=true the new half's candidate
// is accepted with probability min(1, w₂/w₁) (biased progressive sampling
// across doublings). The second return reports whether t2's candidate won.
func (b *builder) combine(t1, t2 tree, v int, biased bool) (tree, bool) {
	tl, tr := t1, t2
	if v < 0 {
		tl, tr = t2, t1
	}

	out := tree{
		zleft:     tl.zleft,
		zright:    tr.zright,
		divergent: t1.divergent || t2.divergent,
	}
	out.logw = logAddExp(t1.logw, t2.logw)

	out.rsum = make([]float64, len(t1.rsum))
	floats.AddTo(out.rsum, t1.rsum, t2.rsum)

	// Candidate selection. A -Inf total means no point of either half is
	// live (slice sampling with no acceptances); keep the old candidate.
	took := false
	switch {
	case math.IsInf(out.logw, -1):
		out.zcand = t1.zcand
	case biased:
		if b.rng.Float64() < math.Exp(t2.logw-t1.logw) {
			out.zcand = t2.zcand
			took = true
		} else {
			out.zcand = t1.zcand
		}
	default:
		if math.Log(b.rng.Float64()) < t2.logw-out.logw {
			out.zcand = t2.zcand
			took = true
		} else {
			out.zcand = t1.zcand
		}
	}

	out.terminated = turning(b.crit, out.zleft, out.zright, out.rsum, b.dtheta) ||
		b.crossTurn(tl, tr)

	return out, took
}

// crossTurn runs the generalized criterion's join checks between the two
// halves of a merge: the left half plus the right half's inner endpoint,
// and mirrored on the other side. The classic criterion has no join check.
func (b *builder) crossTurn(tl, tr tree) bool {
	if b.crit != GeneralizedNoUTurn {
		return false
	}

	floats.AddTo(b.rho, tl.rsum, tr.zleft.R)
	if turning(b.crit, tl.zleft, tr.zleft, b.rho, b.dtheta) {
		return true
	}

	floats.AddTo(b.rho, tl.zright.R, tr.rsum)

	return turning(b.crit, tl.zright, tr.zright, b.rho, b.dtheta)
}

// logAddExp returns log(exp(a) + exp(b)) without overflow.
func logAddExp(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if a < b {
		a, b = b, a
	}

	return a + math.Log1p(math.Exp(b-a))
}
