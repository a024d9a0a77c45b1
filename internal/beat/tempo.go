package beat

import (
	"math"
	"sort"

	"github.com/mjibson/go-dsp/fft"
)

const (
	minBPM = 40.0
	maxBPM = 300.0

	tempoHistorySeconds = 8.0
	tempoUpdatePeriod   = 6 // frames between autocorrelation passes (§4.4: ~16 Hz at 100 fps)

	tempoPriorCenterBPM = 150.0
	tempoPriorSigmaLog2 = 1.5

	confidenceGateThreshold = 0.15
)

// octaveRatios are the candidate lag ratios searched for octave correction
// (§4.4 step 4): quarter/third/half/two-thirds/three-quarters/unity and
// their reciprocal-side counterparts.
var octaveRatios = []float64{1.0 / 4, 1.0 / 3, 1.0 / 2, 2.0 / 3, 3.0 / 4, 1.0, 4.0 / 3, 3.0 / 2, 2.0}

// TempoEstimator implements §4.4: FFT-based generalized autocorrelation
// (Wiener-Khinchin) over a sliding onset-strength history, multi-ratio
// octave correction, parabolic sub-lag interpolation, and Kalman tracking
// of the result in log2(BPM) space.
type TempoEstimator struct {
	frameRate float64

	hist     []float64
	pos      int
	full     bool
	sinceEst int

	kalman  *logBPMKalman
	lastBPM float64
}

// NewTempoEstimator creates a TempoEstimator for the given onset-detector
// frame rate.
func NewTempoEstimator(frameRate float64) *TempoEstimator {
	histLen := maxInt(1, int(tempoHistorySeconds*frameRate))
	return &TempoEstimator{
		frameRate: frameRate,
		hist:      make([]float64, histLen),
		kalman:    newLogBPMKalman(),
	}
}

// Estimate is the tempo estimator's per-frame output.
type Estimate struct {
	BPM           float64
	Confidence    float64
	PeriodSeconds float64
}

// Push feeds one frame's onset strength into the history and, every
// tempoUpdatePeriod frames once enough history has accumulated, recomputes
// the autocorrelation-based tempo and updates the Kalman filter. It always
// returns the filter's current (possibly unchanged) estimate. Per §8, with
// fewer than 2 s of history the estimator reports (0, 0, 0).
func (t *TempoEstimator) Push(onsetStrength float32) Estimate {
	t.hist[t.pos] = float64(onsetStrength)
	t.pos++
	if t.pos >= len(t.hist) {
		t.pos = 0
		t.full = true
	}

	minHistoryFrames := int(2.0 * t.frameRate)
	haveEnough := t.full || t.pos >= minHistoryFrames

	t.sinceEst++
	if haveEnough && t.sinceEst >= tempoUpdatePeriod {
		t.sinceEst = 0
		if bpm, confidence, ok := t.estimateRawBPM(); ok {
			if confidence < confidenceGateThreshold && t.lastBPM > 0 {
				// Gated: keep tracking the previous estimate rather than
				// trusting a low-confidence measurement.
			} else {
				t.lastBPM = t.kalman.Update(bpm, confidence)
			}
		}
	}

	if !haveEnough {
		return Estimate{}
	}
	bpm := t.kalman.BPM()
	if bpm == 0 {
		return Estimate{}
	}
	return Estimate{
		BPM:           bpm,
		Confidence:    t.kalman.Confidence(),
		PeriodSeconds: 60.0 / bpm,
	}
}

// estimateRawBPM runs one full §4.4 autocorrelation pass and returns
// (bpm, confidence, ok).
func (t *TempoEstimator) estimateRawBPM() (float64, float64, bool) {
	signal := unrotate(t.hist, t.pos)
	ac := autocorrelate(signal)

	lagMin := int(t.frameRate * 60.0 / maxBPM)
	lagMax := int(t.frameRate * 60.0 / minBPM)
	if lagMax >= len(ac) {
		lagMax = len(ac) - 1
	}
	if lagMin < 1 || lagMin >= lagMax {
		return 0, 0, false
	}

	peakLag, peakVal := findPeak(ac, lagMin, lagMax)
	if peakVal <= 0 {
		return 0, 0, false
	}

	correctedLag := multiRatioCorrect(ac, peakLag, lagMin, lagMax, t.frameRate)
	correctedLag = cascadingOctaveUp(ac, correctedLag)
	refinedLag := parabolicRefine(ac, correctedLag)
	if refinedLag <= 0 {
		return 0, 0, false
	}

	bpm := 60.0 * t.frameRate / refinedLag
	if bpm < minBPM || bpm > maxBPM {
		return 0, 0, false
	}

	confidence := tempoConfidence(ac, lagMin, lagMax, peakVal)
	return bpm, confidence, true
}

// multiRatioCorrect implements §4.4 step 4: search ratios of the detected
// lag, score each by its own autocorrelation value plus its harmonics
// (h=2..4), weighted by a log-Gaussian prior centered at 150 BPM, and keep
// whichever ratio wins.
func multiRatioCorrect(ac []float64, lag, lagMin, lagMax int, frameRate float64) int {
	bestLag := lag
	bestScore := -math.MaxFloat64
	for _, ratio := range octaveRatios {
		candidate := int(math.Round(float64(lag) * ratio))
		if candidate < lagMin || candidate > lagMax || candidate <= 0 {
			continue
		}
		score := harmonicScore(ac, candidate) * tempoPriorWeight(candidate, frameRate)
		if score > bestScore {
			bestScore = score
			bestLag = candidate
		}
	}
	return bestLag
}

func harmonicScore(ac []float64, lag int) float64 {
	score := acAt(ac, lag)
	for h := 2; h <= 4; h++ {
		score += acAt(ac, lag*h) / float64(h)
	}
	return score
}

func acAt(ac []float64, lag int) float64 {
	if lag < 0 || lag >= len(ac) {
		return 0
	}
	return ac[lag]
}

// tempoPriorWeight is a log-Gaussian prior over lag (converted to BPM)
// centered at 150 BPM with sigma=1.5 in log2 units.
func tempoPriorWeight(lag int, frameRate float64) float64 {
	if lag <= 0 {
		return 0
	}
	bpm := 60.0 * frameRate / float64(lag)
	d := math.Log2(bpm) - math.Log2(tempoPriorCenterBPM)
	return math.Exp(-(d * d) / (2 * tempoPriorSigmaLog2 * tempoPriorSigmaLog2))
}

// cascadingOctaveUp implements §4.4 step 5: while the half-lag is itself a
// local peak (within ±1 sample of lag/2) at least 40% as tall as acr[lag],
// adopt it, and repeat.
func cascadingOctaveUp(ac []float64, lag int) int {
	for {
		half := lag / 2
		if half < 1 {
			return lag
		}
		localPeak, localVal := findPeak(ac, maxInt(1, half-1), half+1)
		isLocalPeak := localPeak < lag &&
			localVal >= acAt(ac, localPeak-1) && localVal >= acAt(ac, localPeak+1)
		if isLocalPeak && localVal >= 0.4*acAt(ac, lag) {
			lag = localPeak
			continue
		}
		return lag
	}
}

// tempoConfidence implements §4.4 step 7.
func tempoConfidence(ac []float64, lagMin, lagMax int, peak float64) float64 {
	window := append([]float64(nil), ac[lagMin:lagMax+1]...)
	sort.Float64s(window)
	med := median(window)
	denom := math.Max(1-med, 1e-10)
	c := (peak - med) / denom
	return math.Max(0, math.Min(1, c))
}

// unrotate linearizes a ring buffer whose oldest element starts at pos.
func unrotate(ring []float64, pos int) []float64 {
	n := len(ring)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = ring[(pos+i)%n]
	}
	return out
}

// autocorrelate computes the normalized autocorrelation of signal via the
// Wiener-Khinchin theorem: mean-subtract, FFT, multiply by its own
// conjugate (the power spectrum), inverse FFT, normalize by the zero-lag
// value. Only the first len(signal) entries are meaningful (the rest is
// circular wraparound from zero-padding).
func autocorrelate(signal []float64) []float64 {
	var mean float64
	for _, v := range signal {
		mean += v
	}
	mean /= float64(len(signal))

	n := nextPow2(2 * len(signal))
	padded := make([]complex128, n)
	for i, v := range signal {
		padded[i] = complex(v-mean, 0)
	}
	spec := fft.FFT(padded)
	power := make([]complex128, n)
	for i, c := range spec {
		power[i] = c * complex(real(c), -imag(c))
	}
	ac := fft.IFFT(power)

	out := make([]float64, len(signal))
	zeroLag := real(ac[0])
	if zeroLag == 0 {
		zeroLag = 1
	}
	for i := range out {
		out[i] = real(ac[i]) / zeroLag
	}
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

func findPeak(xs []float64, lo, hi int) (idx int, val float64) {
	val = -math.MaxFloat64
	if lo < 0 {
		lo = 0
	}
	if hi >= len(xs) {
		hi = len(xs) - 1
	}
	for i := lo; i <= hi; i++ {
		if xs[i] > val {
			val = xs[i]
			idx = i
		}
	}
	return idx, val
}

// parabolicRefine fits a parabola through the three samples around idx to
// recover sub-sample lag precision.
func parabolicRefine(xs []float64, idx int) float64 {
	if idx <= 0 || idx >= len(xs)-1 {
		return float64(idx)
	}
	y0, y1, y2 := xs[idx-1], xs[idx], xs[idx+1]
	denom := y0 - 2*y1 + y2
	if denom == 0 {
		return float64(idx)
	}
	offset := 0.5 * (y0 - y2) / denom
	return float64(idx) + offset
}
