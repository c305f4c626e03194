// Package analysis provides frequency-domain tools for recorded telemetry.
//
//   - [PowerSpectrum]: Hann-windowed magnitude spectrum of a uniformly
//     sampled series
//   - [DominantFrequency]: strongest non-DC spectral peak
//
// Typical use is finding the nutation or wheel-coupling frequency in body
// rates:
//
//	peak, err := analysis.DominantFrequency(omega1, 1/dt)
//	if err == nil {
//	    fmt.Printf("%.4f Hz (%.1f s)\n", peak.Frequency, peak.Period)
//	}
package analysis
