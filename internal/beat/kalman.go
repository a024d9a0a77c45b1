package beat

import "math"

// logBPMKalman is a scalar Kalman filter tracking tempo as log2(BPM) (§4.4),
// so octave errors (half/double tempo) show up as a roughly constant ±1.0
// offset regardless of the underlying tempo.
type logBPMKalman struct {
	initialized bool
	x           float64 // state estimate, log2(bpm)
	p           float64 // estimate variance

	snapStreak    int // consecutive frames treated as an octave-error snap
	divergeStreak int // consecutive frames exceeding the divergence tolerance
}

const (
	kalmanInitialVariance = 1.0

	// octaveRatioTolerance is how close measurement/current must be to 2.0
	// or 0.5 to be treated as an octave error (§4.4: "within 5% of 2.0 or
	// 0.5").
	octaveRatioTolerance = 0.05
	// snapEscapeFrames: a measurement that looks like a consistent octave
	// error for this many consecutive frames is no longer noise — the
	// track actually changed tempo to a harmonic, so the snap is released.
	snapEscapeFrames = 50

	// divergenceRatioTolerance and divergenceFrames gate the hard reset:
	// a measurement more than 10% off the current estimate for 15
	// straight frames forces the filter to re-acquire from scratch.
	divergenceRatioTolerance = 0.10
	divergenceFrames         = 15

	qNormal    = 0.001
	qDivergent = 0.1
)

func newLogBPMKalman() *logBPMKalman {
	return &logBPMKalman{}
}

func withinRatioTolerance(ratio, target, tolerance float64) bool {
	return math.Abs(ratio-target) <= target*tolerance
}

// Update feeds a raw BPM measurement (plus the estimator's confidence for
// that measurement, used to scale measurement noise) into the filter and
// returns the filtered BPM.
func (k *logBPMKalman) Update(bpmMeasurement, confidence float64) float64 {
	if bpmMeasurement <= 0 {
		return k.BPM()
	}
	if !k.initialized {
		k.x = math.Log2(bpmMeasurement)
		k.p = kalmanInitialVariance
		k.initialized = true
		return bpmMeasurement
	}

	currentBPM := math.Exp2(k.x)
	ratio := bpmMeasurement / currentBPM

	if withinRatioTolerance(ratio, 2.0, octaveRatioTolerance) || withinRatioTolerance(ratio, 0.5, octaveRatioTolerance) {
		k.snapStreak++
		if k.snapStreak <= snapEscapeFrames {
			// Treat as transient octave noise: snap the measurement back
			// to the current estimate instead of letting it pull the
			// state toward the wrong octave.
			k.divergeStreak = 0
			return k.predictUpdate(k.x, confidence, qNormal)
		}
		// Escaped: sustained octave-ratio measurements mean the tempo
		// genuinely moved to a harmonic. Stop treating it as noise and
		// fall through to a normal (divergent-rate) update below.
		k.snapStreak = 0
	} else {
		k.snapStreak = 0
	}

	z := math.Log2(bpmMeasurement)
	divergent := !withinRatioTolerance(ratio, 1.0, divergenceRatioTolerance)
	if divergent {
		k.divergeStreak++
		if k.divergeStreak >= divergenceFrames {
			k.x = z
			k.p = kalmanInitialVariance
			k.divergeStreak = 0
			return bpmMeasurement
		}
		return k.predictUpdate(z, confidence, qDivergent)
	}
	k.divergeStreak = 0
	return k.predictUpdate(z, confidence, qNormal)
}

// predictUpdate runs one predict/update step of the scalar Kalman filter
// with process noise q and measurement noise derived from confidence
// (§4.4: R = 0.01 + (1-confidence)*0.5).
func (k *logBPMKalman) predictUpdate(z, confidence, q float64) float64 {
	r := 0.01 + (1-confidence)*0.5
	pPred := k.p + q
	gain := pPred / (pPred + r)
	k.x = k.x + gain*(z-k.x)
	k.p = (1 - gain) * pPred
	return math.Exp2(k.x)
}

// BPM returns the filter's current estimate converted out of log2 space.
func (k *logBPMKalman) BPM() float64 {
	if !k.initialized {
		return 0
	}
	return math.Exp2(k.x)
}

// Confidence maps the filter's variance to a [0,1] confidence score; lower
// variance (a settled filter) scores higher.
func (k *logBPMKalman) Confidence() float64 {
	if !k.initialized {
		return 0
	}
	c := 1.0 / (1.0 + k.p*10)
	return math.Max(0, math.Min(1, c))
}
