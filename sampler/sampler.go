// Package sampler drives the per-iteration refresh → transition → adapt
// loop and exposes the resulting draws.
//
// Algorithm outline (one run):
//  1. Reconcile the metric dimension with θ₀ (init-time only) and build
//     the starting phase point.
//  2. For i = 1..n: refresh the momentum, apply the kernel, feed the
//     adaptor during warmup and rebuild Hamiltonian/kernel on change,
//     record the draw, invoke the progress callback.
//  3. Optionally drop the warmup draws.
//
// The loop is single-threaded and allocates one phase point per step
// beyond the recorded draws. Cancellation is checked between iterations
// only - never mid-trajectory - and returns the draws gathered so far
// together with the context error.
package sampler

import (
	"context"
	"fmt"

	"github.com/katalvlaran/hamwalk/core"
	"github.com/katalvlaran/hamwalk/hamiltonian"
	"github.com/katalvlaran/hamwalk/nuts"
)

// Draw is one recorded sample: the position and its transition record.
type Draw struct {
	// Theta is the sampled position.
	Theta []float64

	// Stat carries the per-transition diagnostics of this draw.
	Stat nuts.Stat
}

// Sample runs a single chain of nSamples iterations from theta0 and
// returns the recorded draws.
//
// On cancellation the draws gathered so far are returned together with
// ctx.Err(); configuration faults surface as sentinel errors before any
// iteration runs.
func Sample(ctx context.Context, rng core.RNG, h hamiltonian.Hamiltonian, k nuts.Kernel,
	theta0 []float64, nSamples int, opts ...Option) ([]Draw, error) {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Adaptor == nil && cfg.AdaptorFactory != nil {
		cfg.Adaptor = cfg.AdaptorFactory()
	}

	return sample(ctx, rng, h, k, theta0, nSamples, cfg)
}

// sample is the shared driver body for Sample and SampleChains.
func sample(ctx context.Context, rng core.RNG, h hamiltonian.Hamiltonian, k nuts.Kernel,
	theta0 []float64, nSamples int, cfg Options) ([]Draw, error) {
	if nSamples < 1 {
		return nil, fmt.Errorf("%w: %d", ErrBadNumSamples, nSamples)
	}
	if cfg.NumAdapt > 0 && cfg.Adaptor == nil {
		return nil, ErrNoAdaptor
	}

	// Init-time dimension fix-up: rebuild the metric around θ₀. A mid-run
	// mismatch is a programmer error and surfaces from the Hamiltonian.
	if h.Metric().Dim() != len(theta0) {
		h = h.Update(h.Metric().Resize(len(theta0)))
	}

	z, err := h.Init(rng, theta0)
	if err != nil {
		return nil, err
	}

	draws := make([]Draw, 0, nSamples)
	t := nuts.Transition{Z: z}

	for i := 1; i <= nSamples; i++ {
		select {
		case <-ctx.Done():
			cfg.Logger.Info("sampling cancelled",
				"iteration", i, "collected", len(draws))

			return draws, ctx.Err()
		default:
		}

		t = k.Transition(rng, h, h.Refresh(rng, t.Z))

		if cfg.Adaptor != nil && i <= cfg.NumAdapt {
			u := cfg.Adaptor.Adapt(t.Z.Theta, t.Stat.AcceptRate)
			if u.Err != nil {
				cfg.Logger.Warn("mass matrix update rejected, keeping prior metric",
					"iteration", i, "err", u.Err)
			}
			if u.MetricUpdated {
				h = h.Update(u.Metric)
			}
			k = k.WithStepSize(u.StepSize)
			if u.Finalized && cfg.Verbose {
				cfg.Logger.Debug("adaptation finalized",
					"iteration", i, "step_size", u.StepSize, "metric", h.Metric().String())
			}
		}

		if !(cfg.DiscardAdapt && i <= cfg.NumAdapt) {
			draws = append(draws, Draw{Theta: t.Z.Theta, Stat: t.Stat})
		}

		if cfg.Verbose {
			cfg.Logger.Debug("iteration",
				"i", i,
				"logdensity", t.Stat.LogDensity,
				"accept", t.Stat.AcceptRate,
				"depth", t.Stat.TreeDepth,
				"divergent", t.Stat.NumericalError,
				"step_size", t.Stat.StepSize)
		}
		if cfg.Progress != nil {
			cfg.Progress(i, t)
		}
	}

	return draws, nil
}
