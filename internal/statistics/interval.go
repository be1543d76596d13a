// Package statistics provides the small amount of statistics the accuracy
// store needs: bootstrap confidence intervals over observed accuracy samples.
package statistics

import (
	"math"
	"math/rand"
	"sort"
)

// Interval holds the result of a bootstrap confidence interval computation
// over accuracy samples.
type Interval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
	Resamples       int     `json:"resamples"`
}

// DefaultResamples is the number of bootstrap resamples.
const DefaultResamples = 10000

// BootstrapInterval computes a percentile-method bootstrap confidence
// interval over the given samples. confidenceLevel should be in (0, 1),
// e.g. 0.95. With fewer than 2 samples the interval degenerates to the mean.
func BootstrapInterval(samples []float64, confidenceLevel float64) Interval {
	return BootstrapIntervalWithSeed(samples, confidenceLevel, -1)
}

// BootstrapIntervalWithSeed is like BootstrapInterval but accepts a seed for
// reproducibility. A negative seed uses a non-deterministic source.
func BootstrapIntervalWithSeed(samples []float64, confidenceLevel float64, seed int64) Interval {
	n := len(samples)
	m := Mean(samples)
	if n < 2 {
		return Interval{
			Lower:           m,
			Upper:           m,
			Mean:            m,
			ConfidenceLevel: confidenceLevel,
			Resamples:       0,
		}
	}

	var rng *rand.Rand
	if seed >= 0 {
		rng = rand.New(rand.NewSource(seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	iters := DefaultResamples
	resampleMeans := make([]float64, iters)
	resample := make([]float64, n)
	for i := 0; i < iters; i++ {
		for j := 0; j < n; j++ {
			resample[j] = samples[rng.Intn(n)]
		}
		resampleMeans[i] = Mean(resample)
	}

	sort.Float64s(resampleMeans)

	alpha := 1.0 - confidenceLevel
	loIdx := int(math.Floor(alpha / 2.0 * float64(iters)))
	hiIdx := int(math.Floor((1.0 - alpha/2.0) * float64(iters)))
	if hiIdx >= iters {
		hiIdx = iters - 1
	}

	return Interval{
		Lower:           resampleMeans[loIdx],
		Upper:           resampleMeans[hiIdx],
		Mean:            m,
		ConfidenceLevel: confidenceLevel,
		Resamples:       iters,
	}
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of the values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}
	m := Mean(values)
	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
