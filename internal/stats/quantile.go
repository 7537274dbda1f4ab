// Package stats holds the small amount of order statistics the outlier
// filter needs.
package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// MinIQRSample is the smallest sample for which IQR bounds are computed.
// Smaller samples pass the filter unchanged.
const MinIQRSample = 4

// ErrEmptySample is returned by Quantile for an empty input.
var ErrEmptySample = errors.New("stats: empty sample")

// Quantile returns the p-quantile (0 <= p <= 1) of xs using linear
// interpolation between closest ranks: h = (n-1)p and
// q = x[floor(h)] + (h-floor(h))(x[floor(h)+1]-x[floor(h)]).
// xs is not modified.
func Quantile(xs []float64, p float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptySample
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("stats: quantile %v out of range [0,1]", p)
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	return quantileSorted(sorted, p), nil
}

func quantileSorted(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// Bounds is a closed acceptance interval derived from the interquartile range.
type Bounds struct {
	Q1, Q3       float64
	Lower, Upper float64
	// Applied is false when the sample was too small to compute bounds and
	// every value is accepted.
	Applied bool
}

// Contains reports whether v lies within the closed interval. When the bounds
// were not applied every value is contained.
func (b Bounds) Contains(v float64) bool {
	if !b.Applied {
		return true
	}
	return v >= b.Lower && v <= b.Upper
}

// String renders the bounds for log lines.
func (b Bounds) String() string {
	if !b.Applied {
		return "unbounded"
	}
	return fmt.Sprintf("[%g, %g] q1=%g q3=%g", b.Lower, b.Upper, b.Q1, b.Q3)
}

// IQRBounds computes [Q1 - k*IQR, Q3 + k*IQR] over xs. Samples smaller than
// MinIQRSample yield unapplied bounds.
func IQRBounds(xs []float64, k float64) Bounds {
	if len(xs) < MinIQRSample {
		return Bounds{}
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	q1 := quantileSorted(sorted, 0.25)
	q3 := quantileSorted(sorted, 0.75)
	iqr := q3 - q1
	return Bounds{
		Q1:      q1,
		Q3:      q3,
		Lower:   q1 - k*iqr,
		Upper:   q3 + k*iqr,
		Applied: true,
	}
}
