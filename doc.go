// Package hamwalk is an in-memory toolkit for drawing samples from a
// continuous distribution on ℝᴰ whose un-normalized log-density and
// gradient can be evaluated pointwise: Hamiltonian Monte Carlo from core
// primitives to adaptive NUTS.
//
// 🚀 What is hamwalk?
//
//	A deterministic, explicitly-seeded sampling library that brings together:
//		• Core primitives: targets, dual values, phase points, explicit RNG streams
//		• Metrics: unit, diagonal and dense mass matrices (gonum-backed Cholesky)
//		• Integrators: leapfrog plus jittered and tempered variants
//		• Kernels: static HMC, HMCDA, and NUTS with multinomial or slice sampling
//		• Termination: classic and generalized no-U-turn tests
//		• Adaptation: Welford estimators, dual-averaging step size, Stan windows
//		• Driver: streaming draws, progress callbacks, parallel chains
//
// ✨ Why choose hamwalk?
//
//   - Deterministic - one seed, one trajectory; the RNG is passed everywhere explicitly
//   - Immutable pipeline - phase points, metrics and kernels flow as values
//   - Divergence-safe - numerical failures are data in the stats, never panics
//   - Extensible - bring your own gradient backend behind the Target boundary
//
// Under the hood, everything is organized under seven subpackages:
//
//	core/        - Target boundary, dual values, deterministic RNG streams
//	metric/      - unit/diag/dense mass matrices and momentum draws
//	hamiltonian/ - energies, cached phase points, momentum refresh
//	leapfrog/    - symplectic integrators
//	nuts/        - termination criteria, tree doubling, transition kernels
//	adapt/       - Welford, dual averaging, windowed warmup
//	sampler/     - the per-iteration driver and multi-chain fan-out
//
// Quick sketch:
//
//	target, _ := core.NewTarget(2, logDensityAndGrad)
//	m, _ := metric.NewDiag([]float64{1, 1})
//	h, _ := hamiltonian.New(m, target)
//	lf, _ := leapfrog.New(0.1)
//	k, _ := nuts.NewNUTS(lf)
//	draws, _ := sampler.Sample(ctx, core.NewRNG(42), h, k, theta0, 2000, ...)
//
// Dive into DESIGN.md for the architecture notes and the Example
// functions in sampler/example_test.go for runnable scenarios.
//
//	go get github.com/katalvlaran/hamwalk
package hamwalk
