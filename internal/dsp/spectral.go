package dsp

import "math"

// Calibration gains are empirical (§9 open question): retune against the
// test scenarios in spec §8 rather than treating these as physical
// constants.
const (
	bassGain   = 25.0
	midGain    = 40.0
	trebleGain = 60.0
	fluxGain   = 30.0
	flatGain   = 3.0
	zcrGain    = 4.0
	rmsGain    = 8.0
)

// SpectralExtractor runs the single 2048-point Hann-windowed FFT feature
// extractor described in §4.2, reusing an Analyzer for the FFT work.
type SpectralExtractor struct {
	analyzer   *Analyzer
	sampleRate float64
}

// NewSpectralExtractor creates the main feature extractor. n is the FFT
// size (2048 per spec); sampleRate is the capture rate (44100 per spec).
func NewSpectralExtractor(n int, sampleRate float64) *SpectralExtractor {
	return &SpectralExtractor{
		analyzer:   NewAnalyzer(n),
		sampleRate: sampleRate,
	}
}

// Descriptors is the raw (pre-smoothing) spectral output of one analysis
// pass — every field here remains finite even at silence (§4.2).
type Descriptors struct {
	SevenBand
	RMS       float32
	Centroid  float32
	Flux      float32
	Flatness  float32
	Rolloff   float32
	Bandwidth float32
	ZCR       float32
}

// Analyze pushes samples into the sliding buffer and computes the full set
// of spectral descriptors for the resulting window.
func (s *SpectralExtractor) Analyze(samples []float32) Descriptors {
	s.analyzer.Push(samples)
	mag, prevMag := s.analyzer.Spectrum()
	n := s.analyzer.N
	nyquist := s.sampleRate / 2

	binHz := nyquist / float64(n/2)

	var d Descriptors
	d.SevenBand = ComputeSevenBand(mag, binHz, nyquist)
	d.RMS = rmsOf(s.analyzer.buf, rmsGain)
	d.Centroid = spectralCentroid(mag, binHz, nyquist)
	d.Flux = spectralFlux(mag, prevMag, fluxGain)
	d.Flatness = spectralFlatness(mag, flatGain)
	d.Rolloff = spectralRolloff(mag, binHz, nyquist)
	d.Bandwidth = spectralBandwidth(mag, binHz, d.Centroid, nyquist)
	d.ZCR = zeroCrossingRate(s.analyzer.buf, zcrGain)
	return d
}

// bandRMS computes the RMS of magnitudes whose bin frequency falls in
// [loHz, hiHz), scaled by gain and clamped to [0,1].
func bandRMS(mag []float64, binHz, loHz, hiHz, gain float64) float32 {
	loBin := int(loHz / binHz)
	hiBin := int(hiHz / binHz)
	if hiBin > len(mag) {
		hiBin = len(mag)
	}
	if loBin < 0 {
		loBin = 0
	}
	if loBin >= hiBin {
		return 0
	}
	var sum float64
	for k := loBin; k < hiBin; k++ {
		sum += mag[k] * mag[k]
	}
	rms := math.Sqrt(sum/float64(hiBin-loBin)) * gain
	return Clamp01f64(rms)
}

// rmsOf computes sqrt(mean(x^2))*gain, clamped to [0,1].
func rmsOf(x []float64, gain float64) float32 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	rms := math.Sqrt(sum/float64(len(x))) * gain
	return Clamp01f64(rms)
}

// spectralCentroid = Σf·|X| / Σ|X|, normalized by Nyquist.
func spectralCentroid(mag []float64, binHz, nyquist float64) float32 {
	var num, den float64
	for k, m := range mag {
		f := float64(k) * binHz
		num += f * m
		den += m
	}
	if den < Eps {
		return 0
	}
	return Clamp01f64(num / den / nyquist)
}

// spectralFlux = Σ max(|X_t|-|X_{t-1}|, 0), scaled and clamped.
func spectralFlux(mag, prevMag []float64, gain float64) float32 {
	var sum float64
	for k, m := range mag {
		var prev float64
		if k < len(prevMag) {
			prev = prevMag[k]
		}
		diff := m - prev
		if diff > 0 {
			sum += diff
		}
	}
	return Clamp01f64(sum * gain)
}

// spectralFlatness = geometric_mean/arithmetic_mean of magnitudes (bin>0),
// scaled and clamped.
func spectralFlatness(mag []float64, gain float64) float32 {
	if len(mag) <= 1 {
		return 0
	}
	var logSum, arSum float64
	count := 0
	for k := 1; k < len(mag); k++ {
		m := mag[k] + Eps
		logSum += math.Log(m)
		arSum += m
		count++
	}
	if count == 0 || arSum < Eps {
		return 0
	}
	geo := math.Exp(logSum / float64(count))
	ar := arSum / float64(count)
	return Clamp01f64(geo / ar * gain)
}

// spectralRolloff is the frequency at which cumulative magnitude² reaches
// 85% of the total, normalized by Nyquist.
func spectralRolloff(mag []float64, binHz, nyquist float64) float32 {
	var total float64
	for _, m := range mag {
		total += m * m
	}
	if total < Eps {
		return 0
	}
	target := total * 0.85
	var cum float64
	for k, m := range mag {
		cum += m * m
		if cum >= target {
			return Clamp01f64(float64(k) * binHz / nyquist)
		}
	}
	return 1
}

// spectralBandwidth = sqrt(Σ(f-centroid)²·|X| / Σ|X|), normalized by Nyquist.
func spectralBandwidth(mag []float64, binHz float64, centroid float32, nyquist float64) float32 {
	centroidHz := float64(centroid) * nyquist
	var num, den float64
	for k, m := range mag {
		f := float64(k) * binHz
		diff := f - centroidHz
		num += diff * diff * m
		den += m
	}
	if den < Eps {
		return 0
	}
	return Clamp01f64(math.Sqrt(num/den) / nyquist)
}

// zeroCrossingRate = crossings/(N-1), scaled and clamped.
func zeroCrossingRate(x []float64, gain float64) float32 {
	if len(x) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(x); i++ {
		if (x[i-1] >= 0) != (x[i] >= 0) {
			crossings++
		}
	}
	rate := float64(crossings) / float64(len(x)-1)
	return Clamp01f64(rate * gain)
}
