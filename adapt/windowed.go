// Package adapt - the Stan-style windowed warmup scheduler.
//
// Warmup iterations i ∈ [1, nAdapt] are split into three phases:
//
//	Phase I   (init buffer)  - only the step size adapts.
//	Phase II  (windows)      - step size and mass matrix adapt; windows of
//	                           doubling width each end in a mass-matrix
//	                           finalize plus a dual-averaging restart.
//	Phase III (term buffer)  - only the step size adapts.
//
// With the defaults (init 75, term 50, base window 25) and nAdapt = 1000
// the window splits are [100, 150, 250, 450, 950]: each window doubles,
// and a window whose successor could not fully double before the term
// buffer is extended to meet it. When the buffers cannot fit, the
// schedule collapses to 15% init, 10% term and a single window between.
//
// At i = nAdapt the dual-averaged step size is committed. The scheduler
// is a four-state machine (init, window, term, done) keyed on the
// iteration index; the windows list is computed once at construction.
package adapt

import (
	"fmt"

	"github.com/katalvlaran/hamwalk/metric"
)

// Stan warmup schedule defaults.
const (
	// DefaultInitBuffer is the length of the step-size-only phase I.
	DefaultInitBuffer = 75

	// DefaultTermBuffer is the length of the step-size-only phase III.
	DefaultTermBuffer = 50

	// DefaultBaseWindow is the width of the first mass-matrix window.
	DefaultBaseWindow = 25
)

// WindowOption is a functional option for NewWindowed.
type WindowOption func(*WindowedAdaptor)

// WithInitBuffer overrides the phase-I length. Panics on a negative value
// (programmer error).
func WithInitBuffer(n int) WindowOption {
	return func(w *WindowedAdaptor) {
		if n < 0 {
			panic(ErrBadNumAdapt.Error())
		}
		w.initBuffer = n
	}
}

// WithTermBuffer overrides the phase-III length. Panics on a negative
// value (programmer error).
func WithTermBuffer(n int) WindowOption {
	return func(w *WindowedAdaptor) {
		if n < 0 {
			panic(ErrBadNumAdapt.Error())
		}
		w.termBuffer = n
	}
}

// WithBaseWindow overrides the first window width. Panics on a
// non-positive value (programmer error).
func WithBaseWindow(n int) WindowOption {
	return func(w *WindowedAdaptor) {
		if n < 1 {
			panic(ErrBadNumAdapt.Error())
		}
		w.baseWindow = n
	}
}

// WindowedAdaptor composes dual averaging and a mass adaptor under the
// Stan window schedule. Single-chain state; clone one per chain.
type WindowedAdaptor struct {
	da   *DualAveraging
	mass *MassAdaptor

	nAdapt     int
	initBuffer int
	termBuffer int
	baseWindow int

	windowStart int
	windowEnd   int
	splits      []int

	i        int
	splitIdx int
	done     bool

	finalMetric metric.Metric
	hasMetric   bool
}

// NewWindowed returns a windowed adaptor over nAdapt warmup iterations.
// Returns ErrBadNumAdapt for a negative nAdapt and ErrBadDim when the
// step-size and mass adaptors are nil.
func NewWindowed(da *DualAveraging, mass *MassAdaptor, nAdapt int, opts ...WindowOption) (*WindowedAdaptor, error) {
	if nAdapt < 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadNumAdapt, nAdapt)
	}
	if da == nil || mass == nil {
		return nil, ErrBadDim
	}

	w := &WindowedAdaptor{
		da:         da,
		mass:       mass,
		nAdapt:     nAdapt,
		initBuffer: DefaultInitBuffer,
		termBuffer: DefaultTermBuffer,
		baseWindow: DefaultBaseWindow,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.schedule()

	return w, nil
}

// schedule computes the window splits once, at construction.
func (w *WindowedAdaptor) schedule() {
	if w.nAdapt == 0 {
		w.done = true

		return
	}

	init, term, base := w.initBuffer, w.termBuffer, w.baseWindow
	if init+term+base > w.nAdapt {
		// Degenerate schedule: shrink the buffers and run one window.
		init = int(0.15 * float64(w.nAdapt))
		term = int(0.1 * float64(w.nAdapt))
		base = w.nAdapt - init - term
	}
	w.initBuffer, w.termBuffer, w.baseWindow = init, term, base
	w.windowStart = init + 1
	w.windowEnd = w.nAdapt - term

	width := base
	next := init + width
	for {
		if next+2*width > w.windowEnd {
			// The successor window cannot fully double before the term
			// buffer; extend this one to meet it.
			next = w.windowEnd
		}
		w.splits = append(w.splits, next)
		if next >= w.windowEnd {
			break
		}
		width *= 2
		next += width
	}
}

// Splits returns a copy of the window close indices.
func (w *WindowedAdaptor) Splits() []int {
	out := make([]int, len(w.splits))
	copy(out, w.splits)

	return out
}

// WindowStart returns the first mass-accumulating iteration.
func (w *WindowedAdaptor) WindowStart() int { return w.windowStart }

// WindowEnd returns the last mass-accumulating iteration.
func (w *WindowedAdaptor) WindowEnd() int { return w.windowEnd }

// NumAdapt returns the total number of warmup iterations.
func (w *WindowedAdaptor) NumAdapt() int { return w.nAdapt }

// FinalMetric returns the most recently finalized metric, if any window
// has closed successfully yet.
func (w *WindowedAdaptor) FinalMetric() (metric.Metric, bool) {
	return w.finalMetric, w.hasMetric
}

// Adapt consumes the (θ, α) observation of the next warmup iteration.
//
// Every phase adapts the step size. Phase II additionally accumulates θ
// and, when the iteration closes a window, finalizes the mass matrix,
// resets the estimator and restarts dual averaging around the current
// step size. At the last iteration the dual-averaged step size is
// committed. A rejected (singular) estimate is reported through
// Update.Err and the prior metric stays in force.
func (w *WindowedAdaptor) Adapt(theta []float64, alpha float64) Update {
	if w.done {
		return Update{StepSize: w.da.Finalized(), Finalized: true}
	}

	w.i++
	u := Update{StepSize: w.da.Adapt(alpha)}

	inWindow := w.i > w.initBuffer && w.i <= w.windowEnd
	if inWindow {
		w.mass.Push(theta)
	}

	if w.splitIdx < len(w.splits) && w.i == w.splits[w.splitIdx] {
		w.splitIdx++

		m, err := w.mass.Metric()
		if err != nil {
			u.Err = err
		} else {
			w.finalMetric = m
			w.hasMetric = true
			u.Metric = m
			u.MetricUpdated = true
		}

		w.mass.Reset()
		w.da.Restart(u.StepSize)
	}

	if w.i == w.nAdapt {
		w.done = true
		u.StepSize = w.da.Finalized()
		u.Finalized = true
	}

	return u
}

// StepSizeOnly adapts the step size for nAdapt iterations with no
// mass-matrix estimation, the warmup used by HMCDA and by NUTS runs that
// keep a fixed metric. Single-chain state; clone one per chain.
type StepSizeOnly struct {
	da     *DualAveraging
	nAdapt int
	i      int
	done   bool
}

// NewStepSizeOnly returns a step-size-only adaptor over nAdapt warmup
// iterations. Returns ErrBadNumAdapt for a negative nAdapt and ErrBadDim
// for a nil dual-averaging state.
func NewStepSizeOnly(da *DualAveraging, nAdapt int) (*StepSizeOnly, error) {
	if nAdapt < 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadNumAdapt, nAdapt)
	}
	if da == nil {
		return nil, ErrBadDim
	}

	return &StepSizeOnly{da: da, nAdapt: nAdapt, done: nAdapt == 0}, nil
}

// Adapt consumes one acceptance statistic; the position is unused.
func (s *StepSizeOnly) Adapt(_ []float64, alpha float64) Update {
	if s.done {
		return Update{StepSize: s.da.Finalized(), Finalized: true}
	}

	s.i++
	u := Update{StepSize: s.da.Adapt(alpha)}
	if s.i == s.nAdapt {
		s.done = true
		u.StepSize = s.da.Finalized()
		u.Finalized = true
	}

	return u
}
