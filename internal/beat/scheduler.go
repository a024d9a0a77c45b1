package beat

import "math"

// State is the beat scheduler's state machine position (§4.5).
type State int

const (
	Waiting State = iota
	Expecting
	Confirmed
	Missed
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Expecting:
		return "expecting"
	case Confirmed:
		return "confirmed"
	case Missed:
		return "missed"
	default:
		return "unknown"
	}
}

const (
	refractorySeconds    = 0.150
	onsetCooldownSeconds = 0.050
	beatWindowSeconds    = 0.080
	phaseCorrectionGain  = 0.3

	predictiveConfidenceThreshold = 0.4
	onsetOnlyFireRatio            = 0.9

	missDegradeThreshold   = 4
	missConfidencePenalty  = 0.30 // "degrade ... by 30%"
	beatTimeoutSeconds     = 3.0
	timeoutConfidenceScale = 0.3

	confidenceRiseOnFire    = 0.15
	confidenceDecayPerFrame = 0.0005

	onsetEnvelopeReleaseTau = 0.2

	defaultTrackingConfidence = 0.5
	unsetTime                 = -1e9
)

// Scheduler implements §4.5: it reconciles the tempo estimator's predicted
// beat clock against the onset detector's observations through a
// Waiting/Expecting/Confirmed/Missed state machine, falling back to
// onset-only triggering when tempo confidence is too low to predict.
type Scheduler struct {
	now float64 // running clock, seconds

	lastFireTime      float64
	lastGatedOnset    float64
	nextPredicted     float64
	nextPredictedSet  bool
	storedPeriod      float64
	lastBPM           float64
	trackingConfidence float64
	consecutiveMisses int
	onsetEnvelope     float64
	state             State
}

// NewScheduler creates a Scheduler. frameRate is accepted for API symmetry
// with the other beat-stage constructors; the scheduler itself reasons in
// wall-clock seconds rather than frame counts.
func NewScheduler(frameRate float64) *Scheduler {
	return &Scheduler{
		lastFireTime:       unsetTime,
		lastGatedOnset:     unsetTime,
		trackingConfidence: defaultTrackingConfidence,
	}
}

// Output is the scheduler's per-frame result (§3: is_beat, beat_phase, bpm).
type Output struct {
	IsBeat       bool
	BeatPhase    float32
	BPM          float32
	BeatStrength float32
	State        State
}

// Process advances the beat clock by dt seconds and reconciles it against
// this frame's onset result and tempo estimate. During silence it returns
// (false, phase=0, bpm=previous_bpm) regardless of onset input (§8
// scenario 6).
func (s *Scheduler) Process(dt float64, isSilence bool, onset Result, tempo Estimate) Output {
	s.now += dt

	if isSilence {
		return Output{IsBeat: false, BeatPhase: 0, BPM: float32(s.lastBPM), State: s.state}
	}

	gatedOnset := onset.Onset && s.now-s.lastGatedOnset >= onsetCooldownSeconds
	if gatedOnset {
		s.lastGatedOnset = s.now
	}
	s.stepOnsetEnvelope(gatedOnset, float64(onset.Strength), dt)

	period := tempo.PeriodSeconds
	confidence := tempo.Confidence
	notRefractory := s.now-s.lastFireTime >= refractorySeconds

	isBeat := false
	if confidence < predictiveConfidenceThreshold || period <= 0 {
		isBeat = s.processOnsetOnly(gatedOnset, notRefractory, period)
	} else {
		isBeat = s.processPredictive(gatedOnset, notRefractory, period)
	}

	if s.lastFireTime != unsetTime && s.now-s.lastFireTime > beatTimeoutSeconds {
		s.trackingConfidence *= timeoutConfidenceScale
		s.state = Waiting
	}

	if isBeat {
		s.trackingConfidence = math.Min(1, s.trackingConfidence+confidenceRiseOnFire)
	} else {
		s.trackingConfidence = math.Max(0, s.trackingConfidence-confidenceDecayPerFrame)
	}

	s.storedPeriod = period
	s.lastBPM = tempo.BPM

	return Output{
		IsBeat:       isBeat,
		BeatPhase:    float32(s.phase(period)),
		BPM:          float32(tempo.BPM),
		BeatStrength: float32(s.onsetEnvelope),
		State:        s.state,
	}
}

// processOnsetOnly implements §4.5's low-confidence fallback: fire on any
// non-refractory gated onset, or on a predicted beat if the last fire was
// at least 90% of a beat period ago.
func (s *Scheduler) processOnsetOnly(gatedOnset, notRefractory bool, period float64) bool {
	if gatedOnset && notRefractory {
		s.fire(period)
		s.state = Confirmed
		return true
	}
	if s.storedPeriod > 0 && s.lastFireTime != unsetTime && s.now-s.lastFireTime >= onsetOnlyFireRatio*s.storedPeriod {
		s.fire(period)
		s.state = Missed
		return true
	}
	return false
}

// processPredictive implements §4.5's tempo-locked mode: a beat window
// around next_predicted, phase correction on confirmation, and a missed
// count that degrades tracking confidence after 4 consecutive misses.
func (s *Scheduler) processPredictive(gatedOnset, notRefractory bool, period float64) bool {
	if !s.nextPredictedSet {
		s.nextPredicted = s.now + period
		s.nextPredictedSet = true
	}

	inWindow := math.Abs(s.now-s.nextPredicted) <= beatWindowSeconds
	if gatedOnset && inWindow && notRefractory {
		distance := s.now - s.nextPredicted
		s.nextPredicted += phaseCorrectionGain * distance
		s.fire(period)
		s.state = Confirmed
		s.consecutiveMisses = 0
		s.nextPredicted = s.now + period
		return true
	}

	if s.now > s.nextPredicted+beatWindowSeconds {
		s.fire(period)
		s.state = Missed
		s.consecutiveMisses++
		if s.consecutiveMisses >= missDegradeThreshold {
			s.trackingConfidence *= (1 - missConfidencePenalty)
			s.consecutiveMisses = 0
		}
		s.nextPredicted = s.now + period
		return true
	}

	if s.now >= s.nextPredicted-beatWindowSeconds && s.state != Confirmed {
		s.state = Expecting
	}
	return false
}

func (s *Scheduler) fire(period float64) {
	s.lastFireTime = s.now
}

func (s *Scheduler) phase(period float64) float64 {
	if period <= 0 || s.lastFireTime == unsetTime {
		return 0
	}
	p := math.Mod(s.now-s.lastFireTime, period) / period
	if p < 0 {
		p += 1
	}
	return p
}

func (s *Scheduler) stepOnsetEnvelope(gatedOnset bool, strength, dt float64) {
	target := 0.0
	if gatedOnset {
		target = strength
	}
	if target > s.onsetEnvelope {
		s.onsetEnvelope = target // instant attack
		return
	}
	if onsetEnvelopeReleaseTau <= 0 {
		s.onsetEnvelope = target
		return
	}
	alpha := 1 - math.Exp(-dt/onsetEnvelopeReleaseTau)
	s.onsetEnvelope += alpha * (target - s.onsetEnvelope)
}
