// Package nuts_test exercises the transition kernels under various
// targets: construction validation, static MH behavior, HMCDA step
// counts, NUTS tree statistics and divergence handling.
package nuts_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/hamwalk/core"
	"github.com/katalvlaran/hamwalk/hamiltonian"
	"github.com/katalvlaran/hamwalk/leapfrog"
	"github.com/katalvlaran/hamwalk/metric"
	"github.com/katalvlaran/hamwalk/nuts"
)

// KernelSuite exercises the transition kernels on a standard normal.
type KernelSuite struct {
	suite.Suite

	h  hamiltonian.Hamiltonian
	lf leapfrog.Integrator
}

func (s *KernelSuite) SetupTest() {
	target, err := core.NewTarget(2, func(theta []float64) (float64, []float64) {
		v := -0.5 * (theta[0]*theta[0] + theta[1]*theta[1])

		return v, []float64{-theta[0], -theta[1]}
	})
	require.NoError(s.T(), err)
	m, err := metric.NewUnit(2)
	require.NoError(s.T(), err)
	s.h, err = hamiltonian.New(m, target)
	require.NoError(s.T(), err)
	s.lf, err = leapfrog.New(0.1)
	require.NoError(s.T(), err)
}

// TestStatic_SmallStepAccepts integrates short trajectories with a tiny
// step size: the energy error is tiny, so acceptance must stay near one.
func (s *KernelSuite) TestStatic_SmallStepAccepts() {
	k, err := nuts.NewStatic(s.lf.WithStepSize(0.01), 5)
	require.NoError(s.T(), err)

	rng := core.NewRNG(55)
	z, err := s.h.Init(rng, []float64{0.5, -0.5})
	require.NoError(s.T(), err)

	accepted := 0
	for i := 0; i < 200; i++ {
		z = s.h.Refresh(rng, z)
		t := k.Transition(rng, s.h, z)
		require.Equal(s.T(), 5, t.Stat.NSteps)
		require.False(s.T(), t.Stat.NumericalError)
		require.GreaterOrEqual(s.T(), t.Stat.AcceptRate, 0.99)
		if t.Stat.IsAccept {
			accepted++
		}
		z = t.Z
	}
	require.Greater(s.T(), accepted, 190)
}

// TestStatic_RejectKeepsPoint forces certain rejection with an absurd
// step size and checks the original point is returned.
func (s *KernelSuite) TestStatic_RejectKeepsPoint() {
	k, err := nuts.NewStatic(s.lf.WithStepSize(50), 3)
	require.NoError(s.T(), err)

	rng := core.NewRNG(57)
	z, err := s.h.Init(rng, []float64{0.1, 0.2})
	require.NoError(s.T(), err)
	z = s.h.Refresh(rng, z)

	t := k.Transition(rng, s.h, z)
	require.False(s.T(), t.Stat.IsAccept)
	require.Equal(s.T(), z.Theta, t.Z.Theta)
	require.Equal(s.T(), 0.0, t.Stat.AcceptRate)
}

// TestHMCDA_StepCount checks n = max(1, round(λ/ε)).
func (s *KernelSuite) TestHMCDA_StepCount() {
	k, err := nuts.NewHMCDA(s.lf, 1.0) // ε = 0.1 → 10 steps
	require.NoError(s.T(), err)

	rng := core.NewRNG(59)
	z, err := s.h.Init(rng, []float64{0.3, 0.3})
	require.NoError(s.T(), err)

	t := k.Transition(rng, s.h, s.h.Refresh(rng, z))
	require.Equal(s.T(), 10, t.Stat.NSteps)

	// λ far below ε still integrates one step.
	k1, err := nuts.NewHMCDA(s.lf, 1e-6)
	require.NoError(s.T(), err)
	t1 := k1.Transition(rng, s.h, s.h.Refresh(rng, z))
	require.Equal(s.T(), 1, t1.Stat.NSteps)
}

// TestNUTS_Transition runs NUTS transitions and sanity-checks the tree
// statistics: depth within bounds, at least one leapfrog step, valid
// acceptance statistic, the nominal step size recorded, no divergences on
// a friendly target, and at least one trajectory of depth two or more.
func (s *KernelSuite) TestNUTS_Transition() {
	k, err := nuts.NewNUTS(s.lf)
	require.NoError(s.T(), err)

	rng := core.NewRNG(61)
	z, err := s.h.Init(rng, []float64{0.5, 0.5})
	require.NoError(s.T(), err)

	sawDepth := false
	for i := 0; i < 100; i++ {
		z = s.h.Refresh(rng, z)
		t := k.Transition(rng, s.h, z)

		require.False(s.T(), t.Stat.NumericalError)
		require.GreaterOrEqual(s.T(), t.Stat.TreeDepth, 0)
		require.LessOrEqual(s.T(), t.Stat.TreeDepth, nuts.DefaultMaxDepth)
		require.GreaterOrEqual(s.T(), t.Stat.NSteps, 1)
		require.True(s.T(), t.Stat.AcceptRate >= 0 && t.Stat.AcceptRate <= 1)
		require.Equal(s.T(), 0.1, t.Stat.NomStepSize)
		if t.Stat.TreeDepth >= 2 {
			sawDepth = true
		}
		z = t.Z
	}
	require.True(s.T(), sawDepth, "trajectories never doubled twice")
}

// TestNUTS_SliceSampling runs the slice-sampling variant end to end.
func (s *KernelSuite) TestNUTS_SliceSampling() {
	k, err := nuts.NewNUTS(s.lf, nuts.WithSampling(nuts.SliceSampling))
	require.NoError(s.T(), err)

	rng := core.NewRNG(63)
	z, err := s.h.Init(rng, []float64{0.2, -0.4})
	require.NoError(s.T(), err)

	moved := 0
	for i := 0; i < 100; i++ {
		z = s.h.Refresh(rng, z)
		t := k.Transition(rng, s.h, z)
		require.False(s.T(), t.Stat.NumericalError)
		if t.Stat.IsAccept {
			moved++
		}
		z = t.Z
	}
	require.Greater(s.T(), moved, 50, "slice sampler barely moves")
}

// TestNUTS_ClassicCriterion runs the classic termination variant.
func (s *KernelSuite) TestNUTS_ClassicCriterion() {
	k, err := nuts.NewNUTS(s.lf, nuts.WithCriterion(nuts.ClassicNoUTurn))
	require.NoError(s.T(), err)

	rng := core.NewRNG(65)
	z, err := s.h.Init(rng, []float64{1, 1})
	require.NoError(s.T(), err)

	for i := 0; i < 50; i++ {
		z = s.h.Refresh(rng, z)
		t := k.Transition(rng, s.h, z)
		require.False(s.T(), t.Stat.NumericalError)
		z = t.Z
	}
}

// TestNUTS_DivergenceIsDataNotError puts NUTS on a cliff target: the
// transitions must flag numerical errors yet keep returning usable
// phase points.
func (s *KernelSuite) TestNUTS_DivergenceIsDataNotError() {
	target, err := core.NewTarget(1, func(theta []float64) (float64, []float64) {
		if math.Abs(theta[0]) > 2 {
			return math.Inf(-1), []float64{math.NaN()}
		}

		return -0.5 * theta[0] * theta[0], []float64{-theta[0]}
	})
	require.NoError(s.T(), err)
	m, err := metric.NewUnit(1)
	require.NoError(s.T(), err)
	h, err := hamiltonian.New(m, target)
	require.NoError(s.T(), err)

	lf, err := leapfrog.New(1.5) // coarse steps jump off the cliff
	require.NoError(s.T(), err)
	k, err := nuts.NewNUTS(lf)
	require.NoError(s.T(), err)

	rng := core.NewRNG(67)
	z, err := h.Init(rng, []float64{0})
	require.NoError(s.T(), err)

	divergences := 0
	for i := 0; i < 100; i++ {
		z = h.Refresh(rng, z)
		t := k.Transition(rng, h, z)
		if t.Stat.NumericalError {
			divergences++
		}
		require.True(s.T(), t.Z.IsValid(), "kernel returned an invalid point")
		require.LessOrEqual(s.T(), math.Abs(t.Z.Theta[0]), 2.0)
		z = t.Z
	}
	require.Greater(s.T(), divergences, 0, "cliff target never diverged")
}

func TestKernelSuite(t *testing.T) {
	suite.Run(t, new(KernelSuite))
}

func TestKernel_Validation(t *testing.T) {
	lf, err := leapfrog.New(0.1)
	require.NoError(t, err)

	_, err = nuts.NewStatic(lf, 0)
	require.ErrorIs(t, err, nuts.ErrBadNLeapfrog)

	_, err = nuts.NewHMCDA(lf, 0)
	require.ErrorIs(t, err, nuts.ErrBadLambda)
	_, err = nuts.NewHMCDA(lf, -1)
	require.ErrorIs(t, err, nuts.ErrBadLambda)

	require.Panics(t, func() { _, _ = nuts.NewNUTS(lf, nuts.WithMaxDepth(0)) })
	require.Panics(t, func() { _, _ = nuts.NewNUTS(lf, nuts.WithDeltaMax(-1)) })
}

func TestKernel_WithStepSize(t *testing.T) {
	lf, err := leapfrog.New(0.1)
	require.NoError(t, err)
	k, err := nuts.NewNUTS(lf)
	require.NoError(t, err)

	k2 := k.WithStepSize(0.05)
	require.Equal(t, 0.05, k2.Integrator().NomStepSize())
	require.Equal(t, 0.1, k.Integrator().NomStepSize(), "original kernel must be untouched")
}
