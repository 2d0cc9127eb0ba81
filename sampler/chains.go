// Package sampler - embarrassingly parallel multi-chain execution.
//
// Each chain owns its RNG stream (derived from one base seed), its
// Hamiltonian and kernel values, and its own adaptor built by the
// configured factory. No state is shared between chains; the target must
// be stateless or safe to share, which is a contract on the caller.
package sampler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/hamwalk/core"
	"github.com/katalvlaran/hamwalk/hamiltonian"
	"github.com/katalvlaran/hamwalk/nuts"
)

// Chain is the outcome of one chain of a multi-chain run.
type Chain struct {
	// ID is the chain index in [0, nChains).
	ID int

	// Draws are the recorded samples of this chain.
	Draws []Draw
}

// Summary condenses a chain's diagnostics for logging.
type Summary struct {
	// NumDraws is the number of recorded samples.
	NumDraws int

	// MeanAccept is the average acceptance statistic.
	MeanAccept float64

	// Divergences counts draws flagged with a numerical error.
	Divergences int

	// MeanTreeDepth is the average tree depth (0 for static kernels).
	MeanTreeDepth float64
}

// Summary computes the chain's diagnostic summary. Complexity: O(draws).
func (c Chain) Summary() Summary {
	s := Summary{NumDraws: len(c.Draws)}
	if s.NumDraws == 0 {
		return s
	}
	for _, d := range c.Draws {
		s.MeanAccept += d.Stat.AcceptRate
		s.MeanTreeDepth += float64(d.Stat.TreeDepth)
		if d.Stat.NumericalError {
			s.Divergences++
		}
	}
	s.MeanAccept /= float64(s.NumDraws)
	s.MeanTreeDepth /= float64(s.NumDraws)

	return s
}

// SampleChains runs nChains independent chains in parallel from theta0,
// deriving one decorrelated RNG stream per chain from seed.
//
// Warmup requires WithAdaptorFactory: adaptors are stateful and cannot be
// shared, so WithAdaptor alone is rejected here. Cancellation stops every
// chain at its next iteration boundary; the partial chains are returned
// with the context error.
func SampleChains(ctx context.Context, seed int64, h hamiltonian.Hamiltonian, k nuts.Kernel,
	theta0 []float64, nSamples, nChains int, opts ...Option) ([]Chain, error) {
	if nChains < 1 {
		return nil, fmt.Errorf("%w: %d", ErrBadNumChains, nChains)
	}

	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.NumAdapt > 0 && cfg.AdaptorFactory == nil {
		return nil, ErrNoAdaptor
	}

	chains := make([]Chain, nChains)
	g, gctx := errgroup.WithContext(ctx)

	for c := 0; c < nChains; c++ {
		c := c
		g.Go(func() error {
			ccfg := cfg
			if ccfg.AdaptorFactory != nil {
				ccfg.Adaptor = ccfg.AdaptorFactory()
			}
			ccfg.Logger = cfg.Logger.With("chain", c)

			rng := core.NewRNG(core.DeriveSeed(seed, uint64(c)+1))
			draws, err := sample(gctx, rng, h, k, theta0, nSamples, ccfg)
			chains[c] = Chain{ID: c, Draws: draws}

			return err
		})
	}

	err := g.Wait()
	for _, c := range chains {
		s := c.Summary()
		cfg.Logger.Debug("chain finished",
			"chain", c.ID,
			"draws", s.NumDraws,
			"mean_accept", s.MeanAccept,
			"divergences", s.Divergences)
	}

	return chains, err
}
