// Package metric implements the mass-matrix variants of the sampler.
//
// Construction validates invariants once; afterwards a Metric is an
// immutable value. Adaptation never mutates a Metric in place - it builds
// a replacement via the constructors and rebuilds the Hamiltonian.
//
// Dense linear algebra is delegated to gonum: the inverse mass matrix is a
// mat.SymDense, and momentum sampling uses the inverse upper Cholesky
// factor U⁻¹ of M⁻¹ = UᵀU, so that r = U⁻¹z with z ~ N(0, I) has
// covariance U⁻¹U⁻ᵀ = M.
package metric

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hamwalk/core"
)

// Metric is a tagged mass-matrix variant. The zero value is an empty unit
// metric; build real ones with NewUnit, NewDiag or NewDense.
type Metric struct {
	kind Kind
	dim  int

	// invDiag holds the inverse-mass entries m⁻¹ (DiagKind only).
	invDiag []float64

	// invDense holds M⁻¹ (DenseKind only).
	invDense *mat.SymDense

	// sampleTri holds U⁻¹ where M⁻¹ = UᵀU (DenseKind only), so momentum
	// draws are a triangular matrix-vector product.
	sampleTri *mat.TriDense
}

// NewUnit returns the identity metric of the given dimension.
// Returns ErrBadDim if dim < 1.
func NewUnit(dim int) (Metric, error) {
	if dim < 1 {
		return Metric{}, ErrBadDim
	}

	return Metric{kind: UnitKind, dim: dim}, nil
}

// NewDiag returns a diagonal metric from the inverse-mass entries m⁻¹.
// The slice is copied. Every entry must be strictly positive and finite;
// otherwise ErrNotPositive is returned with the offending index.
func NewDiag(invMass []float64) (Metric, error) {
	if len(invMass) == 0 {
		return Metric{}, ErrBadDim
	}
	for i, v := range invMass {
		if !(v > 0) || math.IsInf(v, 0) {
			return Metric{}, fmt.Errorf("%w: entry %d = %v", ErrNotPositive, i, v)
		}
	}
	inv := make([]float64, len(invMass))
	copy(inv, invMass)

	return Metric{kind: DiagKind, dim: len(inv), invDiag: inv}, nil
}

// NewDense returns a dense metric from the inverse mass matrix M⁻¹.
// The matrix is copied. M⁻¹ must be symmetric positive-definite; a failed
// Cholesky factorization yields ErrNotSPD.
func NewDense(invMass *mat.SymDense) (Metric, error) {
	if invMass == nil {
		return Metric{}, ErrBadDim
	}
	d := invMass.SymmetricDim()
	if d < 1 {
		return Metric{}, ErrBadDim
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(invMass); !ok {
		return Metric{}, ErrNotSPD
	}

	// Cache U⁻¹ for momentum sampling. Inverting the triangular factor once
	// trades a per-draw back-substitution for a matrix-vector product.
	u := mat.NewTriDense(d, mat.Upper, nil)
	chol.UTo(u)
	uinv := mat.NewTriDense(d, mat.Upper, nil)
	if err := uinv.InverseTri(u); err != nil {
		return Metric{}, fmt.Errorf("%w: %v", ErrNotSPD, err)
	}

	inv := mat.NewSymDense(d, nil)
	inv.CopySym(invMass)

	return Metric{kind: DenseKind, dim: d, invDense: inv, sampleTri: uinv}, nil
}

// Kind returns the variant tag.
func (m Metric) Kind() Kind { return m.kind }

// Dim returns the metric dimension.
func (m Metric) Dim() int { return m.dim }

// String renders the metric for log records, e.g. "dense(12)".
func (m Metric) String() string { return fmt.Sprintf("%s(%d)", m.kind, m.dim) }

// Resize returns an identity metric of the same kind with dimension dim.
// It is used once, at driver initialization, to reconcile a default metric
// with the dimension of the initial position.
func (m Metric) Resize(dim int) Metric {
	if dim == m.dim {
		return m
	}
	switch m.kind {
	case DiagKind:
		ones := make([]float64, dim)
		for i := range ones {
			ones[i] = 1
		}
		rm, _ := NewDiag(ones)

		return rm
	case DenseKind:
		eye := mat.NewSymDense(dim, nil)
		for i := 0; i < dim; i++ {
			eye.SetSym(i, i, 1)
		}
		rm, _ := NewDense(eye)

		return rm
	default:
		rm, _ := NewUnit(dim)

		return rm
	}
}

// InvMul writes M⁻¹·r into dst. dst must not alias r for DenseKind.
// Complexity: O(D) for unit/diag, O(D²) for dense.
func (m Metric) InvMul(r, dst []float64) {
	switch m.kind {
	case DiagKind:
		for i, v := range m.invDiag {
			dst[i] = v * r[i]
		}
	case DenseKind:
		rv := mat.NewVecDense(len(r), r)
		dv := mat.NewVecDense(len(dst), dst)
		dv.MulVec(m.invDense, rv)
	default:
		copy(dst, r)
	}
}

// KineticEnergy returns r·M⁻¹·r / 2.
// Complexity: O(D) for unit/diag, O(D²) for dense.
func (m Metric) KineticEnergy(r []float64) float64 {
	switch m.kind {
	case DiagKind:
		var s float64
		for i, v := range m.invDiag {
			s += v * r[i] * r[i]
		}

		return 0.5 * s
	case DenseKind:
		tmp := make([]float64, len(r))
		m.InvMul(r, tmp)

		return 0.5 * floats.Dot(r, tmp)
	default:
		return 0.5 * floats.Dot(r, r)
	}
}

// SampleMomentum fills dst with a draw r ~ N(0, M).
// Complexity: O(D) for unit/diag, O(D²) for dense.
func (m Metric) SampleMomentum(rng core.RNG, dst []float64) {
	switch m.kind {
	case DiagKind:
		// r_i = z_i / sqrt(m⁻¹_i), i.e. Var(r_i) = m_i.
		for i, v := range m.invDiag {
			dst[i] = rng.NormFloat64() / math.Sqrt(v)
		}
	case DenseKind:
		z := make([]float64, m.dim)
		rng.NormVector(z)
		zv := mat.NewVecDense(m.dim, z)
		dv := mat.NewVecDense(len(dst), dst)
		dv.MulVec(m.sampleTri, zv)
	default:
		rng.NormVector(dst)
	}
}

// InvDiag returns a copy of the inverse-mass diagonal. For UnitKind it is
// all ones; for DenseKind it is the diagonal of M⁻¹.
func (m Metric) InvDiag() []float64 {
	out := make([]float64, m.dim)
	switch m.kind {
	case DiagKind:
		copy(out, m.invDiag)
	case DenseKind:
		for i := 0; i < m.dim; i++ {
			out[i] = m.invDense.At(i, i)
		}
	default:
		for i := range out {
			out[i] = 1
		}
	}

	return out
}

// InvDense returns a copy of M⁻¹ as a dense symmetric matrix, whatever the
// kind. Used by adaptation tests and diagnostics, not on hot paths.
func (m Metric) InvDense() *mat.SymDense {
	out := mat.NewSymDense(m.dim, nil)
	switch m.kind {
	case DenseKind:
		out.CopySym(m.invDense)
	default:
		for i, v := range m.InvDiag() {
			out.SetSym(i, i, v)
		}
	}

	return out
}
