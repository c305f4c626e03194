package engine

import (
	"math"
	"time"
)

const (
	nanoPerSec = 1e9
	nanoPerMin = 60 * nanoPerSec
)

// SecToNano converts seconds to integer nanoseconds, rounding to nearest.
func SecToNano(sec float64) uint64 {
	return uint64(math.Round(sec * nanoPerSec))
}

// MinToNano converts minutes to integer nanoseconds, rounding to nearest.
func MinToNano(min float64) uint64 {
	return uint64(math.Round(min * nanoPerMin))
}

// DurationToNano converts a non-negative duration to engine nanoseconds.
func DurationToNano(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d.Nanoseconds())
}

func NanoToSec(ns uint64) float64 { return float64(ns) / nanoPerSec }
func NanoToMin(ns uint64) float64 { return float64(ns) / nanoPerMin }

// NanosToMinutes converts a slice of sample times to minutes.
func NanosToMinutes(ns []uint64) []float64 {
	out := make([]float64, len(ns))
	for i, v := range ns {
		out[i] = NanoToMin(v)
	}
	return out
}
