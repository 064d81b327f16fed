// Package testutil holds shared helpers for the numeric tests: tolerance
// comparisons and deterministic displacement data.
package testutil

import (
	"math"
	"math/rand"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if any
// element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any displacement component is NaN or Inf.
func RequireFinite(t *testing.T, disp []float64) {
	t.Helper()

	for i, v := range disp {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RandomDisp generates a deterministic pseudo-random displacement slice with
// standard normal components.
func RandomDisp(seed int64, length int) []float64 {
	rng := rand.New(rand.NewSource(seed))

	out := make([]float64, length)
	for i := range out {
		out[i] = rng.NormFloat64()
	}

	return out
}

// MaxAbsDiff returns the maximum absolute difference between two equal-length
// slices.
func MaxAbsDiff(a, b []float64) float64 {
	var maxDiff float64

	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > maxDiff {
			maxDiff = d
		}
	}

	return maxDiff
}
