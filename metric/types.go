// Package metric: kinds, sentinel errors and defaults for mass matrices.
//
// A metric parameterizes the momentum distribution r ~ N(0, M) and the
// kinetic energy K(r) = r·M⁻¹·r / 2. Three closed variants exist:
//
//	UnitKind  - M = I; nothing is stored.
//	DiagKind  - M⁻¹ is diagonal; the inverse-mass entries are stored.
//	DenseKind - M⁻¹ is a full SPD matrix; its Cholesky-derived sampling
//	            factor is cached for momentum draws.
//
// Errors (sentinel):
//
//	ErrBadDim      - requested dimension is non-positive.
//	ErrNotPositive - a diagonal inverse-mass entry is non-positive or non-finite.
//	ErrNotSPD      - a dense inverse mass matrix is not symmetric positive-definite.
//	ErrDimMismatch - a vector's length disagrees with the metric dimension.
package metric

import "errors"

// Sentinel errors for metric construction and use.
var (
	// ErrBadDim indicates a non-positive metric dimension.
	ErrBadDim = errors.New("metric: dimension must be positive")

	// ErrNotPositive indicates a diagonal inverse-mass entry that is not
	// strictly positive and finite.
	ErrNotPositive = errors.New("metric: inverse mass entries must be positive and finite")

	// ErrNotSPD indicates that a dense inverse mass matrix failed the
	// Cholesky factorization, i.e. it is not symmetric positive-definite.
	ErrNotSPD = errors.New("metric: inverse mass matrix is not positive-definite")

	// ErrDimMismatch indicates a vector whose length disagrees with the
	// metric dimension.
	ErrDimMismatch = errors.New("metric: dimension mismatch")
)

// Kind tags the closed set of metric variants.
type Kind int

const (
	// UnitKind is the identity mass matrix.
	UnitKind Kind = iota

	// DiagKind is a diagonal mass matrix stored as inverse-mass entries.
	DiagKind

	// DenseKind is a full SPD mass matrix stored as M⁻¹ plus a cached
	// sampling factor.
	DenseKind
)

// String returns the canonical name of the kind.
func (k Kind) String() string {
	switch k {
	case UnitKind:
		return "unit"
	case DiagKind:
		return "diag"
	case DenseKind:
		return "dense"
	default:
		return "unknown"
	}
}
