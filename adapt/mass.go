// Package adapt - mass-matrix adaptors.
//
// A MassAdaptor feeds post-warmup-window positions into a Welford
// estimator and, when a window closes, turns the regularized estimate of
// the posterior covariance into a replacement metric: the inverse mass
// matrix of HMC is exactly the covariance the sampler should see as unit.
package adapt

import (
	"fmt"

	"github.com/katalvlaran/hamwalk/metric"
)

// MassAdaptor estimates a diagonal or dense mass matrix online.
// The zero value is unusable; build one with NewDiagMassAdaptor or
// NewDenseMassAdaptor. Single-chain state; clone one per chain.
type MassAdaptor struct {
	kind metric.Kind
	varE *VarEstimator
	covE *CovEstimator
}

// NewDiagMassAdaptor returns an adaptor estimating a diagonal metric of
// the given dimension. Returns ErrBadDim if dim < 1.
func NewDiagMassAdaptor(dim int) (*MassAdaptor, error) {
	ve, err := NewVarEstimator(dim)
	if err != nil {
		return nil, err
	}

	return &MassAdaptor{kind: metric.DiagKind, varE: ve}, nil
}

// NewDenseMassAdaptor returns an adaptor estimating a dense metric of the
// given dimension. Returns ErrBadDim if dim < 1.
func NewDenseMassAdaptor(dim int) (*MassAdaptor, error) {
	ce, err := NewCovEstimator(dim)
	if err != nil {
		return nil, err
	}

	return &MassAdaptor{kind: metric.DenseKind, covE: ce}, nil
}

// Kind returns the metric kind the adaptor produces.
func (a *MassAdaptor) Kind() metric.Kind { return a.kind }

// Dim returns the adaptor dimension.
func (a *MassAdaptor) Dim() int {
	if a.kind == metric.DenseKind {
		return a.covE.Dim()
	}

	return a.varE.Dim()
}

// Count returns the number of positions pushed since the last Reset.
func (a *MassAdaptor) Count() int {
	if a.kind == metric.DenseKind {
		return a.covE.Count()
	}

	return a.varE.Count()
}

// Push folds one position into the running estimate.
func (a *MassAdaptor) Push(theta []float64) {
	if a.kind == metric.DenseKind {
		a.covE.Push(theta)

		return
	}
	a.varE.Push(theta)
}

// Reset clears the estimator for the next adaptation window.
func (a *MassAdaptor) Reset() {
	if a.kind == metric.DenseKind {
		a.covE.Reset()

		return
	}
	a.varE.Reset()
}

// Metric materializes the current regularized estimate as a metric.
// A dense estimate that fails its positive-definiteness check yields
// ErrSingular; the caller keeps the prior metric in that case.
func (a *MassAdaptor) Metric() (metric.Metric, error) {
	if a.kind == metric.DenseKind {
		m, err := metric.NewDense(a.covE.Estimate())
		if err != nil {
			return metric.Metric{}, fmt.Errorf("%w: %v", ErrSingular, err)
		}

		return m, nil
	}

	m, err := metric.NewDiag(a.varE.Estimate())
	if err != nil {
		return metric.Metric{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	return m, nil
}
