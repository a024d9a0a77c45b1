// Package beat implements the three-stage beat pipeline (§4.3-§4.5): a
// multi-band onset detector, an autocorrelation tempo estimator tracked by
// a Kalman filter in log₂-BPM space, and a beat scheduler state machine
// that reconciles predicted and observed onsets into a single (is_beat,
// beat_phase, bpm) output per frame.
package beat

import (
	"math"
	"sort"

	"phosphor/internal/dsp"
)

// band describes one of the onset detector's four weighted frequency bands
// (§4.3). Each band reads its magnitude spectrum from whichever FFT
// resolution is appropriate for its frequency range.
type band struct {
	loHz, hiHz float64
	weight     float64
	resolution int // FFT size: 4096, 1024, or 512
}

// onsetBands are the four bands and weights from §4.3, in order.
var onsetBands = []band{
	{loHz: 20, hiHz: 80, weight: 0.4, resolution: 4096},
	{loHz: 80, hiHz: 250, weight: 0.3, resolution: 4096},
	{loHz: 500, hiHz: 2000, weight: 0.2, resolution: 1024},
	{loHz: 2000, hiHz: 4000, weight: 0.1, resolution: 512},
}

const (
	silenceRMSThreshold = 0.002
	madK                = 2.0
	thresholdFloor      = 0.001
	shortWindowSeconds  = 0.5
	longWindowSeconds   = 4.0
	// sustainedSilenceSeconds is the §4.3 "30 consecutive silent frames at
	// 100 Hz" threshold expressed as wall-clock time so it scales with
	// FrameRate instead of hard coding "30" (§9 Open Question).
	sustainedSilenceSeconds = 0.30
)

// OnsetDetector implements §4.3. It owns the 4096/1024/512-point analyzers
// that back its four weighted bands; the main 2048-point feature extractor
// (package dsp) runs independently off the same capture stream.
type OnsetDetector struct {
	frameRate float64

	analyzers map[int]*dsp.Analyzer // resolution -> analyzer

	shortHist []float64 // ring of combined flux, ~0.5s
	longHist  []float64 // ring of combined flux, ~4s
	shortPos  int
	longPos   int
	shortFull bool
	longFull  bool

	silentFrames        int
	sustainedSilenceLen int // frame count equivalent to sustainedSilenceSeconds
}

// NewOnsetDetector creates an OnsetDetector for the given frame rate (the
// cadence at which Process is called, not the audio sample rate).
func NewOnsetDetector(frameRate float64) *OnsetDetector {
	shortLen := maxInt(1, int(shortWindowSeconds*frameRate))
	longLen := maxInt(1, int(longWindowSeconds*frameRate))

	analyzers := make(map[int]*dsp.Analyzer)
	for _, b := range onsetBands {
		if _, ok := analyzers[b.resolution]; !ok {
			analyzers[b.resolution] = dsp.NewAnalyzer(b.resolution)
		}
	}

	return &OnsetDetector{
		frameRate:           frameRate,
		analyzers:           analyzers,
		shortHist:           make([]float64, shortLen),
		longHist:            make([]float64, longLen),
		sustainedSilenceLen: maxInt(1, int(sustainedSilenceSeconds*frameRate)),
	}
}

// Result is the per-frame output of the onset detector.
type Result struct {
	Onset            bool
	Strength         float32
	SustainedSilence bool
}

// Process pushes samples into the internal analyzers and returns the onset
// decision for this frame (§4.3).
func (o *OnsetDetector) Process(samples []float32) Result {
	rms := rawRMS(samples)
	if rms < silenceRMSThreshold {
		o.silentFrames++
		// A silent frame still advances the flux histories with zero so
		// the adaptive threshold decays rather than freezing at its last
		// active-signal value.
		o.pushFlux(0)
		return Result{
			Onset:            false,
			Strength:         0,
			SustainedSilence: o.silentFrames >= o.sustainedSilenceLen,
		}
	}
	o.silentFrames = 0

	for _, a := range o.analyzers {
		a.Push(samples)
	}

	combined := o.combinedLogFlux()
	o.pushFlux(combined)

	threshold := o.adaptiveThreshold()
	isOnset := combined > threshold

	longMax := maxOf(o.longHist)
	strength := float32(0)
	if longMax > dsp.Eps {
		strength = dsp.Clamp01f64(combined / longMax)
	}

	return Result{Onset: isOnset, Strength: strength}
}

// combinedLogFlux computes the weighted sum of each band's log-magnitude
// spectral flux (§4.3 step 2-3).
func (o *OnsetDetector) combinedLogFlux() float64 {
	specCache := make(map[int]struct{ mag, prev []float64 })
	var combined float64
	for _, b := range onsetBands {
		c, ok := specCache[b.resolution]
		if !ok {
			mag, prev := o.analyzers[b.resolution].Spectrum()
			c = struct{ mag, prev []float64 }{mag, prev}
			specCache[b.resolution] = c
		}
		combined += b.weight * logFlux(c.mag, c.prev, b.loHz, b.hiHz, o.analyzers[b.resolution].N, SampleRateForResolution)
	}
	return combined
}

// SampleRateForResolution is the capture sample rate used to convert a
// band's Hz range into bin indices. All onset-band analyzers run off the
// same 44.1 kHz capture stream (§2).
const SampleRateForResolution = 44100.0

// logFlux = Σ max(ln(|X|+ε) - ln(|X_prev|+ε), 0) / bin_count over the bins
// covering [loHz, hiHz) at the given FFT size.
func logFlux(mag, prev []float64, loHz, hiHz float64, n int, sampleRate float64) float64 {
	nyquist := sampleRate / 2
	binHz := nyquist / float64(n/2)
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
		var p float64
		if k < len(prev) {
			p = prev[k]
		}
		d := math.Log(mag[k]+dsp.Eps) - math.Log(p+dsp.Eps)
		if d > 0 {
			sum += d
		}
	}
	return sum / float64(hiBin-loBin)
}

func (o *OnsetDetector) pushFlux(v float64) {
	o.shortHist[o.shortPos] = v
	o.shortPos++
	if o.shortPos >= len(o.shortHist) {
		o.shortPos = 0
		o.shortFull = true
	}
	o.longHist[o.longPos] = v
	o.longPos++
	if o.longPos >= len(o.longHist) {
		o.longPos = 0
		o.longFull = true
	}
}

// adaptiveThreshold implements §4.3 step 5: median + k*MAD of the short
// history, capped at 80% of the short max and ceiling*long max, floored at
// thresholdFloor.
func (o *OnsetDetector) adaptiveThreshold() float64 {
	short := validSlice(o.shortHist, o.shortPos, o.shortFull)
	if len(short) == 0 {
		return thresholdFloor
	}
	med := median(short)
	mad := medianAbsoluteDeviation(short, med)
	threshold := med + madK*mad

	shortMax := maxOf(short)
	if threshold > 0.8*shortMax {
		threshold = 0.8 * shortMax
	}

	long := validSlice(o.longHist, o.longPos, o.longFull)
	longMax := maxOf(long)
	const ceiling = 1.0 // cap at ceiling*long_max, per §4.3
	if longMax > 0 && threshold > ceiling*longMax {
		threshold = ceiling * longMax
	}

	if threshold < thresholdFloor {
		threshold = thresholdFloor
	}
	return threshold
}

func validSlice(ring []float64, pos int, full bool) []float64 {
	if full {
		return ring
	}
	return ring[:pos]
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func medianAbsoluteDeviation(xs []float64, med float64) float64 {
	dev := make([]float64, len(xs))
	for i, x := range xs {
		dev[i] = math.Abs(x - med)
	}
	return median(dev)
}

func maxOf(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

func rawRMS(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
