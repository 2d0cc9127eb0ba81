// Package nuts - no-U-turn termination tests.
//
// A subtree with trajectory-order endpoints z⁻, z⁺ and integrated momentum
// r_sum has made a U-turn when further integration starts moving the ends
// back toward each other:
//
//	Classic:     (θ⁺-θ⁻)·r⁻ < 0  ∨  (θ⁺-θ⁻)·r⁺ < 0
//	Generalized: r_sum·M⁻¹r⁻ < 0 ∨  r_sum·M⁻¹r⁺ < 0
//
// The generalized test additionally runs across every subtree join
// (combining the left half's momentum sum with the right half's inner
// endpoint and vice versa), which catches U-turns spanning the join that
// the combined-endpoint test alone misses.
//
// M⁻¹r is never recomputed here: phase points cache it as the negated
// kinetic gradient.
package nuts

import (
	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/hamwalk/hamiltonian"
)

// turning reports whether the subtree spanned by (zl, zr) with integrated
// momentum rsum satisfies the termination criterion. dtheta is a caller
// scratch slice of dimension D, used only by the classic test.
//
// Complexity: O(D).
func turning(crit Criterion, zl, zr hamiltonian.PhasePoint, rsum, dtheta []float64) bool {
	if crit == ClassicNoUTurn {
		floats.SubTo(dtheta, zr.Theta, zl.Theta)

		return floats.Dot(dtheta, zl.R) < 0 || floats.Dot(dtheta, zr.R) < 0
	}

	// LogKappa.Grad caches -M⁻¹r, so the projections flip sign.
	return -floats.Dot(rsum, zl.LogKappa.Grad) < 0 ||
		-floats.Dot(rsum, zr.LogKappa.Grad) < 0
}
