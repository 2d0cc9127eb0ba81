// Package nuts implements the transition kernels: static fixed-length
// HMC, fixed-time HMCDA, and the No-U-Turn Sampler with multinomial or
// slice trajectory sampling under a classic or generalized termination
// criterion.
//
// A Kernel is an immutable value; adaptation derives replacements via
// WithStepSize / WithIntegrator rather than mutating.
package nuts

import (
	"fmt"
	"math"

	"github.com/katalvlaran/hamwalk/core"
	"github.com/katalvlaran/hamwalk/hamiltonian"
	"github.com/katalvlaran/hamwalk/leapfrog"
)

// kernelKind tags the closed set of transition kernels.
type kernelKind int

const (
	staticKind kernelKind = iota
	hmcdaKind
	nutsKind
)

// Kernel is a tagged transition kernel around a leapfrog integrator.
// Build one with NewStatic, NewHMCDA or NewNUTS.
type Kernel struct {
	kind kernelKind
	lf   leapfrog.Integrator

	nLeapfrog int     // staticKind
	lambda    float64 // hmcdaKind

	maxDepth  int
	deltaMax  float64
	criterion Criterion
	sampling  Sampling
}

// NewStatic returns a fixed-length kernel: integrate exactly nLeapfrog
// steps and MH-accept the endpoint. Returns ErrBadNLeapfrog for
// nLeapfrog < 1.
func NewStatic(lf leapfrog.Integrator, nLeapfrog int) (Kernel, error) {
	if nLeapfrog < 1 {
		return Kernel{}, fmt.Errorf("%w: %d", ErrBadNLeapfrog, nLeapfrog)
	}

	return Kernel{kind: staticKind, lf: lf, nLeapfrog: nLeapfrog, deltaMax: DefaultDeltaMax}, nil
}

// NewHMCDA returns a fixed-time kernel: integrate max(1, round(λ/ε))
// steps and MH-accept the endpoint. Returns ErrBadLambda for a
// non-positive λ.
func NewHMCDA(lf leapfrog.Integrator, lambda float64) (Kernel, error) {
	if !(lambda > 0) || math.IsInf(lambda, 0) {
		return Kernel{}, fmt.Errorf("%w: %v", ErrBadLambda, lambda)
	}

	return Kernel{kind: hmcdaKind, lf: lf, lambda: lambda, deltaMax: DefaultDeltaMax}, nil
}

// NewNUTS returns a No-U-Turn kernel with the supplied options
// (see DefaultOptions for the defaults).
func NewNUTS(lf leapfrog.Integrator, opts ...Option) (Kernel, error) {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxDepth < 1 {
		return Kernel{}, fmt.Errorf("%w: %d", ErrBadMaxDepth, cfg.MaxDepth)
	}
	if !(cfg.DeltaMax > 0) {
		return Kernel{}, fmt.Errorf("%w: %v", ErrBadDeltaMax, cfg.DeltaMax)
	}

	return Kernel{
		kind:      nutsKind,
		lf:        lf,
		maxDepth:  cfg.MaxDepth,
		deltaMax:  cfg.DeltaMax,
		criterion: cfg.Criterion,
		sampling:  cfg.Sampling,
	}, nil
}

// Integrator returns the kernel's leapfrog integrator.
func (k Kernel) Integrator() leapfrog.Integrator { return k.lf }

// WithIntegrator returns a copy of k around lf.
func (k Kernel) WithIntegrator(lf leapfrog.Integrator) Kernel {
	k.lf = lf

	return k
}

// WithStepSize returns a copy of k whose integrator uses the nominal step
// size eps. Used by step-size adaptation on every warmup iteration.
func (k Kernel) WithStepSize(eps float64) Kernel {
	k.lf = k.lf.WithStepSize(eps)

	return k
}

// Transition applies the kernel once from z. The momentum of z is used as
// drawn; refreshing it is the driver's responsibility.
func (k Kernel) Transition(rng core.RNG, h hamiltonian.Hamiltonian, z hamiltonian.PhasePoint) Transition {
	if k.kind == nutsKind {
		return k.nutsTransition(rng, h, z)
	}

	return k.staticTransition(rng, h, z)
}

// staticTransition integrates a fixed trajectory and MH-accepts the
// endpoint with probability min(1, exp(H₀-H₁)). On reject the original
// phase point is returned.
func (k Kernel) staticTransition(rng core.RNG, h hamiltonian.Hamiltonian, z hamiltonian.PhasePoint) Transition {
	lf := k.lf.Prepare(rng)

	n := k.nLeapfrog
	if k.kind == hmcdaKind {
		n = int(math.Round(k.lambda / lf.StepSize()))
		if n < 1 {
			n = 1
		}
	}

	h0 := z.Energy()
	z1, divergedEarly := lf.Step(rng, h, z, n)
	h1 := z1.Energy()

	alpha := math.Exp(h0 - h1)
	if math.IsNaN(alpha) {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}

	numErr := divergedEarly || !(h1-h0 <= k.deltaMax)

	accepted := rng.Float64() < alpha
	zf := z
	if accepted {
		zf = z1
	}

	return Transition{
		Z: zf,
		Stat: Stat{
			NSteps:         n,
			IsAccept:       accepted,
			AcceptRate:     alpha,
			LogDensity:     zf.LogPi.Value,
			Energy:         zf.Energy(),
			NumericalError: numErr,
			StepSize:       lf.StepSize(),
			NomStepSize:    k.lf.NomStepSize(),
			TreeDepth:      0,
		},
	}
}

// nutsTransition grows a trajectory by tree doubling and returns the
// progressively sampled candidate.
func (k Kernel) nutsTransition(rng core.RNG, h hamiltonian.Hamiltonian, z hamiltonian.PhasePoint) Transition {
	lf := k.lf.Prepare(rng)
	dim := z.Dim()

	b := &builder{
		rng:      rng,
		h:        h,
		lf:       lf,
		crit:     k.criterion,
		sampling: k.sampling,
		deltaMax: k.deltaMax,
		h0:       z.Energy(),
		dtheta:   make([]float64, dim),
		rho:      make([]float64, dim),
	}
	if k.sampling == SliceSampling {
		// u ~ U(0, exp(-H₀)), kept in log space relative to nothing:
		// logu ≤ -H is the slice-acceptance test for a leaf at energy H.
		b.logu = math.Log(rng.Float64()) - b.h0
	}

	cur := newTree(z)
	divergent := false
	moved := false
	depth := 0

	for depth < k.maxDepth {
		v := 1
		if rng.Float64() < 0.5 {
			v = -1
		}

		var sub tree
		if v > 0 {
			sub = b.build(cur.zright, v, depth)
		} else {
			sub = b.build(cur.zleft, v, depth)
		}
		divergent = divergent || sub.divergent

		if sub.terminated {
			break
		}

		merged, took := b.combine(cur, sub, v, true)
		moved = moved || took
		cur = merged
		depth++

		if cur.terminated {
			break
		}
	}

	accept := 0.0
	if b.nProposals > 0 {
		accept = b.sumAccept / float64(b.nProposals)
	}

	zf := cur.zcand

	return Transition{
		Z: zf,
		Stat: Stat{
			NSteps:         b.nSteps,
			IsAccept:       moved,
			AcceptRate:     accept,
			LogDensity:     zf.LogPi.Value,
			Energy:         zf.Energy(),
			NumericalError: divergent,
			StepSize:       lf.StepSize(),
			NomStepSize:    k.lf.NomStepSize(),
			TreeDepth:      depth,
		},
	}
}
