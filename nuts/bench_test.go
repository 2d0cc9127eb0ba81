package nuts_test

import (
	"testing"

	"github.com/katalvlaran/hamwalk/core"
	"github.com/katalvlaran/hamwalk/hamiltonian"
	"github.com/katalvlaran/hamwalk/leapfrog"
	"github.com/katalvlaran/hamwalk/metric"
	"github.com/katalvlaran/hamwalk/nuts"
)

// benchmarkTransition measures full NUTS transitions (refresh included)
// on a dim-dimensional standard normal.
func benchmarkTransition(b *testing.B, dim int, sampling nuts.Sampling) {
	target, err := core.NewTarget(dim, func(theta []float64) (float64, []float64) {
		v := 0.0
		g := make([]float64, len(theta))
		for i, x := range theta {
			v -= 0.5 * x * x
			g[i] = -x
		}

		return v, g
	})
	if err != nil {
		b.Fatalf("NewTarget: %v", err)
	}
	m, _ := metric.NewUnit(dim)
	h, err := hamiltonian.New(m, target)
	if err != nil {
		b.Fatalf("hamiltonian.New: %v", err)
	}
	lf, _ := leapfrog.New(0.1)
	k, err := nuts.NewNUTS(lf, nuts.WithSampling(sampling))
	if err != nil {
		b.Fatalf("NewNUTS: %v", err)
	}

	rng := core.NewRNG(1)
	z, err := h.Init(rng, make([]float64, dim))
	if err != nil {
		b.Fatalf("Init: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		z = h.Refresh(rng, z)
		t := k.Transition(rng, h, z)
		z = t.Z
	}
}

// BenchmarkNUTS_Multinomial_D10 measures multinomial NUTS in 10 dimensions.
func BenchmarkNUTS_Multinomial_D10(b *testing.B) {
	benchmarkTransition(b, 10, nuts.MultinomialSampling)
}

// BenchmarkNUTS_Multinomial_D50 measures multinomial NUTS in 50 dimensions.
func BenchmarkNUTS_Multinomial_D50(b *testing.B) {
	benchmarkTransition(b, 50, nuts.MultinomialSampling)
}

// BenchmarkNUTS_Slice_D10 measures slice-sampling NUTS in 10 dimensions.
func BenchmarkNUTS_Slice_D10(b *testing.B) {
	benchmarkTransition(b, 10, nuts.SliceSampling)
}
