// Package smooth implements the asymmetric attack/release one-pole
// exponential moving average that turns the raw per-frame feature vector
// into the smoothed values shaders actually read (§4.6).
package smooth

import (
	"math"

	"phosphor/internal/dsp"
)

// Coefficients holds the attack and release time constants, in seconds,
// for one smoothed channel. Attack governs rises (signal increasing),
// release governs falls, matching how a compressor's envelope follower
// reacts faster to transients than it decays.
type Coefficients struct {
	AttackSeconds  float64
	ReleaseSeconds float64
}

// DefaultCoefficients are the per-field smoothing times from §4.6: fast
// attack so transients read immediately, slower release so the visual
// decay reads as motion rather than flicker.
func DefaultCoefficients() map[string]Coefficients {
	return map[string]Coefficients{
		"sub_bass":      {AttackSeconds: 0.01, ReleaseSeconds: 0.15},
		"bass":          {AttackSeconds: 0.01, ReleaseSeconds: 0.15},
		"low_mid":       {AttackSeconds: 0.015, ReleaseSeconds: 0.18},
		"mid":           {AttackSeconds: 0.015, ReleaseSeconds: 0.18},
		"upper_mid":     {AttackSeconds: 0.015, ReleaseSeconds: 0.18},
		"presence":      {AttackSeconds: 0.02, ReleaseSeconds: 0.2},
		"brilliance":    {AttackSeconds: 0.02, ReleaseSeconds: 0.2},
		"rms":           {AttackSeconds: 0.01, ReleaseSeconds: 0.12},
		"kick":          {AttackSeconds: 0.005, ReleaseSeconds: 0.1},
		"centroid":      {AttackSeconds: 0.05, ReleaseSeconds: 0.25},
		"flux":          {AttackSeconds: 0.01, ReleaseSeconds: 0.15},
		"flatness":      {AttackSeconds: 0.05, ReleaseSeconds: 0.3},
		"rolloff":       {AttackSeconds: 0.05, ReleaseSeconds: 0.3},
		"bandwidth":     {AttackSeconds: 0.05, ReleaseSeconds: 0.3},
		"zcr":           {AttackSeconds: 0.05, ReleaseSeconds: 0.3},
		"onset":         {AttackSeconds: 0.001, ReleaseSeconds: 0.05},
		"bpm":           {AttackSeconds: 0.5, ReleaseSeconds: 1.0},
		"beat_strength": {AttackSeconds: 0.01, ReleaseSeconds: 0.15},
	}
}

// channel tracks one smoothed scalar's current value and coefficients.
type channel struct {
	coef    Coefficients
	current float64
	init    bool
}

func (c *channel) step(target float64, dt float64) float64 {
	if !c.init {
		c.current = target
		c.init = true
		return c.current
	}
	tau := c.coef.ReleaseSeconds
	if target > c.current {
		tau = c.coef.AttackSeconds
	}
	if tau <= 0 {
		c.current = target
		return c.current
	}
	alpha := 1 - math.Exp(-dt/tau)
	c.current += alpha * (target - c.current)
	return c.current
}

// Smoother applies DefaultCoefficients' asymmetric EMA to every field of a
// dsp.FeatureVector, including onset/bpm/beat_strength (§4.6: each has its
// own tau pair, same as every other channel). Beat and BeatPhase alone pass
// through unsmoothed: they already carry their own temporal logic (a gate
// pulse and a scheduler-owned phase, not a level to smooth).
type Smoother struct {
	bypass bool

	subBass, bass, lowMid, mid, upperMid   channel
	presence, brilliance                   channel
	rms, kick                              channel
	centroid, flux, flatness               channel
	rolloff, bandwidth, zcr                channel
	onset, bpm, beatStrength                channel
}

// NewSmoother creates a Smoother with the default coefficient set.
func NewSmoother() *Smoother {
	c := DefaultCoefficients()
	s := &Smoother{}
	s.subBass.coef = c["sub_bass"]
	s.bass.coef = c["bass"]
	s.lowMid.coef = c["low_mid"]
	s.mid.coef = c["mid"]
	s.upperMid.coef = c["upper_mid"]
	s.presence.coef = c["presence"]
	s.brilliance.coef = c["brilliance"]
	s.rms.coef = c["rms"]
	s.kick.coef = c["kick"]
	s.centroid.coef = c["centroid"]
	s.flux.coef = c["flux"]
	s.flatness.coef = c["flatness"]
	s.rolloff.coef = c["rolloff"]
	s.bandwidth.coef = c["bandwidth"]
	s.zcr.coef = c["zcr"]
	s.onset.coef = c["onset"]
	s.bpm.coef = c["bpm"]
	s.beatStrength.coef = c["beat_strength"]
	return s
}

// SetBypass enables or disables smoothing. While bypassed, Process returns
// its input unchanged (§4.6: a "raw mode" toggle for debugging).
func (s *Smoother) SetBypass(bypass bool) {
	s.bypass = bypass
}

// Process smooths every field except Beat and BeatPhase and returns the
// result; in itself is not modified. dt is the elapsed time in seconds
// since the previous frame.
func (s *Smoother) Process(in dsp.FeatureVector, dt float64) dsp.FeatureVector {
	if s.bypass {
		return in
	}
	out := in
	out.SubBass = float32(s.subBass.step(float64(in.SubBass), dt))
	out.Bass = float32(s.bass.step(float64(in.Bass), dt))
	out.LowMid = float32(s.lowMid.step(float64(in.LowMid), dt))
	out.Mid = float32(s.mid.step(float64(in.Mid), dt))
	out.UpperMid = float32(s.upperMid.step(float64(in.UpperMid), dt))
	out.Presence = float32(s.presence.step(float64(in.Presence), dt))
	out.Brilliance = float32(s.brilliance.step(float64(in.Brilliance), dt))
	out.RMS = float32(s.rms.step(float64(in.RMS), dt))
	out.Kick = float32(s.kick.step(float64(in.Kick), dt))
	out.Centroid = float32(s.centroid.step(float64(in.Centroid), dt))
	out.Flux = float32(s.flux.step(float64(in.Flux), dt))
	out.Flatness = float32(s.flatness.step(float64(in.Flatness), dt))
	out.Rolloff = float32(s.rolloff.step(float64(in.Rolloff), dt))
	out.Bandwidth = float32(s.bandwidth.step(float64(in.Bandwidth), dt))
	out.ZCR = float32(s.zcr.step(float64(in.ZCR), dt))
	out.Onset = float32(s.onset.step(float64(in.Onset), dt))
	out.BPM = float32(s.bpm.step(float64(in.BPM), dt))
	out.BeatStrength = float32(s.beatStrength.step(float64(in.BeatStrength), dt))
	return out
}
