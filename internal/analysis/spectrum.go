package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrTooShort = errors.New("analysis: need at least 4 samples")

// Peak is a spectral line. Period is zero for a flat spectrum.
type Peak struct {
	Bin       int
	Frequency float64
	Period    float64
	Power     float64
}

// PowerSpectrum returns the magnitude of the first half of the spectrum of
// data after removing its mean and applying a Hann window. Any length is
// accepted.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	windowed := make([]float64, n)
	for i, v := range data {
		w := 1.0
		if n > 1 {
			w = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		}
		windowed[i] = (v - mean) * w
	}

	spectrum := fft.FFTReal(windowed)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency finds the strongest bin above DC. sampleRate is in Hz.
func DominantFrequency(data []float64, sampleRate float64) (Peak, error) {
	if len(data) < 4 {
		return Peak{}, ErrTooShort
	}
	ps := PowerSpectrum(data)
	peak := Peak{}
	for i := 1; i < len(ps); i++ {
		if ps[i] > peak.Power {
			peak.Bin = i
			peak.Power = ps[i]
		}
	}
	if peak.Bin == 0 {
		return peak, nil
	}
	peak.Frequency = float64(peak.Bin) * sampleRate / float64(len(data))
	peak.Period = 1 / peak.Frequency
	return peak, nil
}
