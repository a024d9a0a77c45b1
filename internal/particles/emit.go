package particles

import (
	"math"

	"phosphor/internal/dsp"
)

// Accumulator tracks the fractional particle-emission count across frames
// (§4.9 step 1: "emit_accumulator += emit_rate*dt"). Kept separate from
// the GPU-facing Simulator so the emission math is unit-testable without a
// device.
type Accumulator struct {
	value float64
}

// Step advances the accumulator by rate*dt seconds, adds burstOnBeat extra
// particles when beat is set, and returns the whole-number emit count for
// this frame, leaving the fractional remainder for next frame.
func (a *Accumulator) Step(rate float64, dt float64, beat bool, burstOnBeat int) int {
	a.value += rate * dt
	if beat {
		a.value += float64(burstOnBeat)
	}
	count := math.Floor(a.value)
	a.value -= count
	return int(count)
}

// BuildUniforms assembles the §4.9 per-frame ParticleUniforms from a
// particle Def, the current audio feature vector, elapsed time, and the
// emit count computed by Accumulator.Step.
func BuildUniforms(def Def, fv dsp.FeatureVector, timeSeconds, dt float64, resX, resY float32, emitCount int) ParticleUniforms {
	seed := float32(math.Mod(timeSeconds*1000, 65536))
	return ParticleUniforms{
		Dt:              float32(dt),
		Time:            float32(timeSeconds),
		ResolutionX:     resX,
		ResolutionY:     resY,
		Gravity:         def.Gravity,
		Drag:            def.Drag,
		Turbulence:      def.Turbulence,
		AttractionX:     def.Emitter.PositionX,
		AttractionY:     def.Emitter.PositionY,
		AttractionForce: def.AttractionStrength,
		InitialSpeed:    def.InitialSpeed,
		InitialSize:     def.InitialSize,
		SizeEnd:         def.SizeEnd,
		LifetimeSeconds: def.LifetimeSeconds,
		EmitCount:       float32(emitCount),
		Seed:            seed,
		Features: [16]float32{
			fv.SubBass, fv.Bass, fv.LowMid, fv.Mid, fv.UpperMid, fv.Presence, fv.Brilliance,
			fv.RMS, fv.Kick, fv.Centroid, fv.Flux, fv.Flatness,
			fv.Onset, fv.Beat, fv.BeatPhase, fv.BPM,
		},
	}
}

// WorkgroupSize is the §4.9 compute dispatch workgroup size.
const WorkgroupSize = 256

// DispatchGroups returns the number of workgroups needed to cover
// maxCount particles at WorkgroupSize threads each (§4.9: "groups =
// ceil(max/256)").
func DispatchGroups(maxCount int) int {
	if maxCount <= 0 {
		return 0
	}
	return (maxCount + WorkgroupSize - 1) / WorkgroupSize
}
