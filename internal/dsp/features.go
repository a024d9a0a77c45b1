// Package dsp turns raw mono PCM into the normalized perceptual feature
// vector that drives every shader uniform in Phosphor. It owns the
// multi-resolution short-time FFT analysis (§4.2) that both the main
// feature extractor and the beat pipeline (package beat) read from.
package dsp

import "math"

// FeatureVector is the 20-field normalized audio feature snapshot shared
// with GPU shaders (spec §3, §6). Field order here does not need to match
// the GPU uniform byte layout — that packing lives in package gpu — but the
// set of fields and their semantics must.
type FeatureVector struct {
	SubBass    float32
	Bass       float32
	LowMid     float32
	Mid        float32
	UpperMid   float32
	Presence   float32
	Brilliance float32
	RMS        float32
	Kick       float32
	Centroid   float32
	Flux       float32
	Flatness   float32
	Rolloff    float32
	Bandwidth  float32
	ZCR        float32
	Onset      float32
	Beat       float32 // 0 or 1
	BeatPhase  float32 // 0..1, reset to 0 during silence
	BPM        float32 // normalized by /300
	BeatStrength float32
}

// IsFinite reports whether every field is a finite float (spec §3 invariant:
// "all finite"). NaN/Inf anywhere indicates a DSP bug upstream.
func (f FeatureVector) IsFinite() bool {
	vals := [...]float32{
		f.SubBass, f.Bass, f.LowMid, f.Mid, f.UpperMid, f.Presence, f.Brilliance,
		f.RMS, f.Kick, f.Centroid, f.Flux, f.Flatness, f.Rolloff, f.Bandwidth,
		f.ZCR, f.Onset, f.Beat, f.BeatPhase, f.BPM, f.BeatStrength,
	}
	for _, v := range vals {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}

// Clamp01 clamps x to [0, 1]. Used throughout the spectral analyzer —
// calibration gains can push an already-hot signal over unity.
func Clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Clamp01f64 is Clamp01 for intermediate float64 math (FFT magnitudes and
// band sums accumulate in float64 to keep the geometric-mean/log math in
// spectral flatness and flux numerically sane).
func Clamp01f64(x float64) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return float32(x)
}

// Eps is the division guard used throughout §4.2's spectral descriptors so
// that silence (all-zero input) never produces NaN/Inf.
const Eps = 1e-10
