// Package gpu holds the fixed-layout GPU uniform structures shared between
// the render orchestrator and every effect shader (§6, §9). The uniform
// block is a versioned binary contract: its field order and size must
// match the WGSL struct declaration bit-for-bit.
package gpu

import (
	"encoding/binary"
	"math"

	"phosphor/internal/dsp"
)

// GlobalUniforms is the per-frame uniform block bound at group 0 binding 0
// of every fragment pass (§6). Field order matches the WGSL layout
// exactly; do not reorder without updating every shader that declares
// PhosphorUniforms.
type GlobalUniforms struct {
	Time          float32
	DeltaTime     float32
	ResolutionX   float32
	ResolutionY   float32
	SubBass       float32
	Bass          float32
	LowMid        float32
	Mid           float32
	UpperMid      float32
	Presence      float32
	Brilliance    float32
	RMS           float32
	Kick          float32
	Centroid      float32
	Flux          float32
	Flatness      float32
	Rolloff       float32
	Bandwidth     float32
	ZCR           float32
	Onset         float32
	Beat          float32
	BeatPhase     float32
	BPM           float32
	BeatStrength  float32
	Params        [16]float32
	FeedbackDecay float32
	FrameIndex    float32
}

// GlobalUniformsSize is the byte size of GlobalUniforms on the wire: 24
// scalar f32 fields + 16 params floats + 2 trailing scalars (168 bytes),
// followed by 8 bytes of zero padding. The WGSL struct takes the 16-byte
// alignment of its params array, so its size rounds up to 176.
const GlobalUniformsSize = (24 + 16 + 2 + 2) * 4

// NewGlobalUniforms builds a GlobalUniforms from the current frame state.
// The feature vector's fields are passed through unchanged: they're
// already 0..1-normalized by the DSP/beat pipeline, and BPM already
// carries bpm/300 (§3).
func NewGlobalUniforms(timeSeconds, deltaTime float64, resX, resY float32, fv dsp.FeatureVector, params [16]float32, feedbackDecay float32, frameIndex uint32) GlobalUniforms {
	return GlobalUniforms{
		Time:          float32(timeSeconds),
		DeltaTime:     float32(deltaTime),
		ResolutionX:   resX,
		ResolutionY:   resY,
		SubBass:       fv.SubBass,
		Bass:          fv.Bass,
		LowMid:        fv.LowMid,
		Mid:           fv.Mid,
		UpperMid:      fv.UpperMid,
		Presence:      fv.Presence,
		Brilliance:    fv.Brilliance,
		RMS:           fv.RMS,
		Kick:          fv.Kick,
		Centroid:      fv.Centroid,
		Flux:          fv.Flux,
		Flatness:      fv.Flatness,
		Rolloff:       fv.Rolloff,
		Bandwidth:     fv.Bandwidth,
		ZCR:           fv.ZCR,
		Onset:         fv.Onset,
		Beat:          fv.Beat,
		BeatPhase:     fv.BeatPhase,
		BPM:           fv.BPM,
		BeatStrength:  fv.BeatStrength,
		Params:        params,
		FeedbackDecay: feedbackDecay,
		FrameIndex:    float32(frameIndex),
	}
}

// Bytes encodes u in little-endian wire format matching the WGSL layout.
func (u GlobalUniforms) Bytes() []byte {
	buf := make([]byte, GlobalUniformsSize)
	scalars := []float32{
		u.Time, u.DeltaTime, u.ResolutionX, u.ResolutionY,
		u.SubBass, u.Bass, u.LowMid, u.Mid, u.UpperMid, u.Presence, u.Brilliance,
		u.RMS, u.Kick, u.Centroid, u.Flux, u.Flatness, u.Rolloff, u.Bandwidth, u.ZCR,
		u.Onset, u.Beat, u.BeatPhase, u.BPM, u.BeatStrength,
	}
	off := 0
	for _, f := range scalars {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
		off += 4
	}
	for _, f := range u.Params {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(u.FeedbackDecay))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(u.FrameIndex))
	off += 4
	return buf
}
