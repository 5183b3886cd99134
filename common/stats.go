package common

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Stats is an unordered collection of numeric samples.
type Stats []float64

func (s *Stats) Update(v float64) {
	*s = append(*s, v)
}

func (s Stats) Count() int {
	return len(s)
}

func (s Stats) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	return stat.Mean(s, nil)
}

func (s Stats) StdDev() float64 {
	if len(s) < 2 {
		return 0
	}
	return stat.StdDev(s, nil)
}

// Percentile computes the interpolated percentile p in [0,100] using
// linear interpolation between the two nearest ranks: for a sorted copy
// of n samples the target index is p/100*(n-1); a fractional index
// interpolates between its neighbors. A single sample is returned for
// every percentile. An empty collection is an error.
func (s Stats) Percentile(p float64) (float64, error) {
	if len(s) == 0 {
		return 0, errors.New("percentile of empty sample set")
	}
	if p < 0 || p > 100 {
		return 0, errors.Errorf("percentile %v out of range [0,100]", p)
	}
	sorted := make([]float64, len(s))
	copy(sorted, s)
	sort.Float64s(sorted)

	idx := p / 100 * float64(len(sorted)-1)
	lo := int(idx)
	frac := idx - float64(lo)
	if frac == 0 {
		return sorted[lo], nil
	}
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac, nil
}

// Distribution is the descriptive summary of a non-empty sample set.
type Distribution struct {
	Mean   float64
	Min    float64
	Max    float64
	P50    float64
	P95    float64
	P99    float64
	StdDev float64
}

// Summary computes the distribution. Callers must guard Count() > 0.
func (s Stats) Summary() (Distribution, error) {
	if len(s) == 0 {
		return Distribution{}, errors.New("summary of empty sample set")
	}
	sorted := make(Stats, len(s))
	copy(sorted, s)
	sort.Float64s(sorted)

	p50, _ := sorted.Percentile(50)
	p95, _ := sorted.Percentile(95)
	p99, _ := sorted.Percentile(99)

	return Distribution{
		Mean:   sorted.Mean(),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P50:    p50,
		P95:    p95,
		P99:    p99,
		StdDev: sorted.StdDev(),
	}, nil
}
