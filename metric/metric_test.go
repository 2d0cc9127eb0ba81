// Package metric_test contains unit tests for the mass-matrix variants:
// construction validation, kinetic energy and gradient consistency across
// kinds, momentum-draw moments and resizing.
package metric_test

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/hamwalk/core"
	"github.com/katalvlaran/hamwalk/metric"
)

func TestNewDiag_Validation(t *testing.T) {
	cases := [][]float64{
		nil,
		{},
		{1, 0},
		{1, -2},
		{1, math.NaN()},
		{1, math.Inf(1)},
	}
	for _, c := range cases {
		if _, err := metric.NewDiag(c); err == nil {
			t.Fatalf("expected error for %v", c)
		}
	}

	m, err := metric.NewDiag([]float64{0.5, 2})
	if err != nil {
		t.Fatalf("valid diag rejected: %v", err)
	}
	if m.Kind() != metric.DiagKind || m.Dim() != 2 {
		t.Fatalf("unexpected metric %v", m)
	}
}

func TestNewDense_RejectsIndefinite(t *testing.T) {
	// Eigenvalues 3 and -1: symmetric but not positive-definite.
	bad := mat.NewSymDense(2, []float64{1, 2, 2, 1})
	if _, err := metric.NewDense(bad); !errors.Is(err, metric.ErrNotSPD) {
		t.Fatalf("expected ErrNotSPD, got %v", err)
	}

	if _, err := metric.NewDense(nil); !errors.Is(err, metric.ErrBadDim) {
		t.Fatalf("expected ErrBadDim for nil, got %v", err)
	}
}

// TestKinetic_ConsistencyAcrossKinds builds a dense metric whose M⁻¹ is
// diagonal and requires it to agree with the diag and unit variants.
func TestKinetic_ConsistencyAcrossKinds(t *testing.T) {
	inv := []float64{0.5, 2, 1.25}
	r := []float64{0.3, -1.1, 0.7}

	diag, err := metric.NewDiag(inv)
	if err != nil {
		t.Fatalf("NewDiag: %v", err)
	}
	sym := mat.NewSymDense(3, nil)
	for i, v := range inv {
		sym.SetSym(i, i, v)
	}
	dense, err := metric.NewDense(sym)
	if err != nil {
		t.Fatalf("NewDense: %v", err)
	}

	if d := math.Abs(diag.KineticEnergy(r) - dense.KineticEnergy(r)); d > 1e-12 {
		t.Fatalf("kinetic energies disagree by %g", d)
	}

	gd := make([]float64, 3)
	gz := make([]float64, 3)
	diag.InvMul(r, gd)
	dense.InvMul(r, gz)
	for i := range gd {
		if math.Abs(gd[i]-gz[i]) > 1e-12 {
			t.Fatalf("InvMul disagrees at %d: %v vs %v", i, gd[i], gz[i])
		}
	}

	unit, _ := metric.NewUnit(3)
	want := 0.5 * (r[0]*r[0] + r[1]*r[1] + r[2]*r[2])
	if math.Abs(unit.KineticEnergy(r)-want) > 1e-15 {
		t.Fatalf("unit kinetic energy wrong")
	}
}

// TestSampleMomentum_DiagMoments draws many momenta and checks the
// per-coordinate variance matches the mass m = 1/m⁻¹.
func TestSampleMomentum_DiagMoments(t *testing.T) {
	rng := core.NewRNG(101)
	m, err := metric.NewDiag([]float64{4, 0.25})
	if err != nil {
		t.Fatalf("NewDiag: %v", err)
	}

	const n = 40000
	r := make([]float64, 2)
	var s0, s1 float64
	for i := 0; i < n; i++ {
		m.SampleMomentum(rng, r)
		s0 += r[0] * r[0]
		s1 += r[1] * r[1]
	}
	v0, v1 := s0/n, s1/n

	// Var(r_i) = m_i = 1/m⁻¹_i.
	if math.Abs(v0-0.25) > 0.02 {
		t.Fatalf("Var(r0) = %v, want 0.25", v0)
	}
	if math.Abs(v1-4) > 0.3 {
		t.Fatalf("Var(r1) = %v, want 4", v1)
	}
}

// TestSampleMomentum_DenseMoments draws from a correlated dense metric
// and checks the empirical covariance approaches M = (M⁻¹)⁻¹.
func TestSampleMomentum_DenseMoments(t *testing.T) {
	rng := core.NewRNG(103)
	inv := mat.NewSymDense(2, []float64{2, 0.5, 0.5, 1})
	m, err := metric.NewDense(inv)
	if err != nil {
		t.Fatalf("NewDense: %v", err)
	}

	// M = inv(M⁻¹) for det = 2-0.25 = 1.75.
	want := [2][2]float64{
		{1 / 1.75, -0.5 / 1.75},
		{-0.5 / 1.75, 2 / 1.75},
	}

	const n = 60000
	r := make([]float64, 2)
	var c00, c01, c11 float64
	for i := 0; i < n; i++ {
		m.SampleMomentum(rng, r)
		c00 += r[0] * r[0]
		c01 += r[0] * r[1]
		c11 += r[1] * r[1]
	}
	c00, c01, c11 = c00/n, c01/n, c11/n

	if math.Abs(c00-want[0][0]) > 0.05 {
		t.Fatalf("Cov(0,0) = %v, want %v", c00, want[0][0])
	}
	if math.Abs(c01-want[0][1]) > 0.05 {
		t.Fatalf("Cov(0,1) = %v, want %v", c01, want[0][1])
	}
	if math.Abs(c11-want[1][1]) > 0.06 {
		t.Fatalf("Cov(1,1) = %v, want %v", c11, want[1][1])
	}
}

func TestResize(t *testing.T) {
	d, _ := metric.NewDiag([]float64{3, 5})
	r := d.Resize(4)
	if r.Kind() != metric.DiagKind || r.Dim() != 4 {
		t.Fatalf("unexpected resize result %v", r)
	}
	for i, v := range r.InvDiag() {
		if v != 1 {
			t.Fatalf("resized diag entry %d = %v, want identity", i, v)
		}
	}

	same := d.Resize(2)
	if same.InvDiag()[0] != 3 {
		t.Fatal("same-dimension resize must keep the metric")
	}

	u, _ := metric.NewUnit(2)
	if got := u.Resize(7).Dim(); got != 7 {
		t.Fatalf("unit resize dim = %d", got)
	}
}

func TestInvDense_RoundTrip(t *testing.T) {
	inv := mat.NewSymDense(2, []float64{1.5, -0.25, -0.25, 0.75})
	m, err := metric.NewDense(inv)
	if err != nil {
		t.Fatalf("NewDense: %v", err)
	}
	got := m.InvDense()
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(got.At(i, j)-inv.At(i, j)) > 1e-15 {
				t.Fatalf("InvDense mismatch at (%d,%d)", i, j)
			}
		}
	}
}
