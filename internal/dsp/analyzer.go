package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// Analyzer maintains a sliding time-domain buffer of length N and produces
// the windowed magnitude spectrum for one FFT resolution (§4.2). The main
// feature extractor runs one Analyzer at N=2048; the beat pipeline (package
// beat) runs three more at 4096/1024/512 off the same capture stream.
type Analyzer struct {
	N      int
	window []float64
	buf    []float64 // time-domain ring, length N, oldest first

	prevMag []float64 // previous frame's magnitude spectrum, for spectral flux
}

// NewAnalyzer creates an Analyzer for an N-point FFT. N should be a power
// of two (2048, 4096, 1024, 512 per spec).
func NewAnalyzer(n int) *Analyzer {
	return &Analyzer{
		N:       n,
		window:  HannWindow(n),
		buf:     make([]float64, n),
		prevMag: make([]float64, n/2+1),
	}
}

// Push shifts new samples into the sliding buffer. If samples is longer than
// N, only the last N are kept (spec §4.2 "if input exceeds window, keep only
// the last N").
func (a *Analyzer) Push(samples []float32) {
	if len(samples) >= a.N {
		for i := 0; i < a.N; i++ {
			a.buf[i] = float64(samples[len(samples)-a.N+i])
		}
		return
	}
	shift := len(samples)
	copy(a.buf, a.buf[shift:])
	for i, s := range samples {
		a.buf[a.N-shift+i] = float64(s)
	}
}

// Spectrum windows the current buffer and returns the magnitude spectrum
// for bins [0, N/2], scaled |X[k]|*2/N per §4.2. The previous spectrum
// (used for spectral flux) is tracked internally and rotated after the
// caller is done with the returned slice — callers must not retain it
// across the next call to Spectrum.
func (a *Analyzer) Spectrum() (mag, prevMag []float64) {
	windowed := make([]complex128, a.N)
	for i := 0; i < a.N; i++ {
		windowed[i] = complex(a.buf[i]*a.window[i], 0)
	}
	spec := fft.FFT(windowed)

	half := a.N/2 + 1
	mag = make([]float64, half)
	scale := 2.0 / float64(a.N)
	for k := 0; k < half; k++ {
		re := real(spec[k])
		im := imag(spec[k])
		mag[k] = math.Sqrt(re*re+im*im) * scale
	}

	prev := a.prevMag
	a.prevMag = mag
	return mag, prev
}
