// stats.go - Mediane und t-Test fuer Timing-Matrizen
//
// Dieses Modul enthaelt:
// - Timings: Geordnete Stichproben-Matrix (Referenz, Beschleunigt)
// - median: Median mit Mittelpunkt-Konvention
// - welchPValue: Zweiseitiger Welch-t-Test
package bench

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Timings collects one (reference, accelerated) duration pair per
// measured repetition, in seconds.
type Timings struct {
	ref  []float64
	lazy []float64
}

// NewTimings erzeugt eine leere Matrix fuer n Wiederholungen
func NewTimings(n int) *Timings {
	return &Timings{
		ref:  make([]float64, 0, n),
		lazy: make([]float64, 0, n),
	}
}

// Append records one repetition.
func (t *Timings) Append(ref, lazy float64) {
	t.ref = append(t.ref, ref)
	t.lazy = append(t.lazy, lazy)
}

// Medians returns the column medians.
func (t *Timings) Medians() (ref, lazy float64) {
	return median(t.ref), median(t.lazy)
}

// PValue returns the two-sided p-value of a Welch t-test over the two
// columns.
func (t *Timings) PValue() float64 {
	return welchPValue(t.ref, t.lazy)
}

// median uses the midpoint convention: odd lengths take the middle
// sample, even lengths the mean of the two middle samples. The
// Quantile kinds of gonum/stat interpolate differently, so this stays
// hand-written.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}

	s := slices.Clone(xs)
	slices.Sort(s)

	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// welchPValue computes the two-sided p-value of a Welch two-sample
// t-test. Welch does not assume equal variances, which timing columns
// of two different backends never have.
func welchPValue(a, b []float64) float64 {
	if len(a) < 2 || len(b) < 2 {
		return math.NaN()
	}

	ma, mb := stat.Mean(a, nil), stat.Mean(b, nil)
	va, vb := stat.Variance(a, nil), stat.Variance(b, nil)
	na, nb := float64(len(a)), float64(len(b))

	sa, sb := va/na, vb/nb
	se2 := sa + sb
	if se2 == 0 {
		// both columns are constant
		if ma == mb {
			return 1
		}
		return 0
	}

	t := (ma - mb) / math.Sqrt(se2)

	// Welch-Satterthwaite Freiheitsgrade
	df := se2 * se2 / (sa*sa/(na-1) + sb*sb/(nb-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.CDF(-math.Abs(t))
}
