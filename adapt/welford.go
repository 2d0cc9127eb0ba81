// Package adapt - online moment estimators.
//
// Both estimators implement Welford's numerically stable single-pass
// recurrence: on push(x),
//
//	n += 1;  δ = x - m;  m += δ/n;  s += δ ⊙ (x - m)
//
// (with the rank-one outer product in the covariance case), so that after
// n ≥ 2 pushes s/(n-1) is the unbiased sample variance/covariance.
//
// Estimate applies the Stan shrinkage toward a small identity:
//
//	w·Σ̂ + (1-w)·10⁻³·I,  w = n/(n+5)
//
// which keeps early, noisy estimates from producing ill-conditioned mass
// matrices. Below two samples the estimate is the identity (cold start).
package adapt

import (
	"gonum.org/v1/gonum/mat"
)

// regularizationScale is the diagonal magnitude of the shrinkage anchor.
const regularizationScale = 1e-3

// shrinkWeight returns the Stan shrinkage weight n/(n+5).
func shrinkWeight(n int) float64 { return float64(n) / (float64(n) + 5) }

// VarEstimator accumulates per-coordinate running variance.
// The zero value is unusable; build one with NewVarEstimator.
type VarEstimator struct {
	dim  int
	n    int
	mean []float64
	m2   []float64
}

// NewVarEstimator returns a variance estimator of the given dimension.
// Returns ErrBadDim if dim < 1.
func NewVarEstimator(dim int) (*VarEstimator, error) {
	if dim < 1 {
		return nil, ErrBadDim
	}

	return &VarEstimator{dim: dim, mean: make([]float64, dim), m2: make([]float64, dim)}, nil
}

// Dim returns the estimator dimension.
func (e *VarEstimator) Dim() int { return e.dim }

// Count returns the number of samples pushed since the last Reset.
func (e *VarEstimator) Count() int { return e.n }

// Push folds one sample into the running moments. Complexity: O(D).
func (e *VarEstimator) Push(x []float64) {
	e.n++
	for i, v := range x {
		delta := v - e.mean[i]
		e.mean[i] += delta / float64(e.n)
		e.m2[i] += delta * (v - e.mean[i])
	}
}

// Reset clears the accumulators for the next adaptation window.
func (e *VarEstimator) Reset() {
	e.n = 0
	for i := range e.mean {
		e.mean[i] = 0
		e.m2[i] = 0
	}
}

// Mean returns a copy of the running mean.
func (e *VarEstimator) Mean() []float64 {
	out := make([]float64, e.dim)
	copy(out, e.mean)

	return out
}

// Variance returns the unbiased sample variance, or nil before two
// samples have been pushed.
func (e *VarEstimator) Variance() []float64 {
	if e.n < 2 {
		return nil
	}
	out := make([]float64, e.dim)
	for i, v := range e.m2 {
		out[i] = v / float64(e.n-1)
	}

	return out
}

// Estimate returns the regularized variance estimate; the all-ones vector
// before two samples have been pushed.
func (e *VarEstimator) Estimate() []float64 {
	out := make([]float64, e.dim)
	if e.n < 2 {
		for i := range out {
			out[i] = 1
		}

		return out
	}

	w := shrinkWeight(e.n)
	for i, v := range e.m2 {
		out[i] = w*v/float64(e.n-1) + (1-w)*regularizationScale
	}

	return out
}

// CovEstimator accumulates a running covariance matrix.
// The zero value is unusable; build one with NewCovEstimator.
type CovEstimator struct {
	dim   int
	n     int
	mean  []float64
	m2    *mat.SymDense
	delta []float64 // scratch: x - mean before the mean update
}

// NewCovEstimator returns a covariance estimator of the given dimension.
// Returns ErrBadDim if dim < 1.
func NewCovEstimator(dim int) (*CovEstimator, error) {
	if dim < 1 {
		return nil, ErrBadDim
	}

	return &CovEstimator{
		dim:   dim,
		mean:  make([]float64, dim),
		m2:    mat.NewSymDense(dim, nil),
		delta: make([]float64, dim),
	}, nil
}

// Dim returns the estimator dimension.
func (e *CovEstimator) Dim() int { return e.dim }

// Count returns the number of samples pushed since the last Reset.
func (e *CovEstimator) Count() int { return e.n }

// Push folds one sample into the running moments. The outer-product
// update δδᵀ·(n-1)/n is symmetric, so a single rank-one update suffices.
// Complexity: O(D²).
func (e *CovEstimator) Push(x []float64) {
	e.n++
	nf := float64(e.n)
	for i, v := range x {
		e.delta[i] = v - e.mean[i]
		e.mean[i] += e.delta[i] / nf
	}
	e.m2.SymRankOne(e.m2, (nf-1)/nf, mat.NewVecDense(e.dim, e.delta))
}

// Reset clears the accumulators for the next adaptation window.
func (e *CovEstimator) Reset() {
	e.n = 0
	for i := range e.mean {
		e.mean[i] = 0
	}
	e.m2.Zero()
}

// Covariance returns the unbiased sample covariance, or nil before two
// samples have been pushed.
func (e *CovEstimator) Covariance() *mat.SymDense {
	if e.n < 2 {
		return nil
	}
	out := mat.NewSymDense(e.dim, nil)
	out.CopySym(e.m2)
	out.ScaleSym(1/float64(e.n-1), out)

	return out
}

// Estimate returns the regularized covariance estimate; the identity
// before two samples have been pushed.
func (e *CovEstimator) Estimate() *mat.SymDense {
	out := mat.NewSymDense(e.dim, nil)
	if e.n < 2 {
		for i := 0; i < e.dim; i++ {
			out.SetSym(i, i, 1)
		}

		return out
	}

	w := shrinkWeight(e.n)
	out.CopySym(e.m2)
	out.ScaleSym(w/float64(e.n-1), out)
	reg := (1 - w) * regularizationScale
	for i := 0; i < e.dim; i++ {
		out.SetSym(i, i, out.At(i, i)+reg)
	}

	return out
}
