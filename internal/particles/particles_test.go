package particles

import (
	"testing"

	"phosphor/internal/dsp"
)

func TestAccumulatorStepAccumulatesFractionalRate(t *testing.T) {
	var a Accumulator
	// 10 particles/sec at 0.05s steps accumulates 0.5 per step, so every
	// other step emits 1.
	var total int
	for i := 0; i < 20; i++ {
		total += a.Step(10, 0.05, false, 0)
	}
	if total != 10 {
		t.Errorf("total emitted over 1s at rate 10/s = %d, want 10", total)
	}
}

func TestAccumulatorStepBurstOnBeatAddsExtra(t *testing.T) {
	var a Accumulator
	count := a.Step(0, 0, true, 25)
	if count != 25 {
		t.Errorf("beat burst of 25 with zero rate = %d, want 25", count)
	}
}

func TestAccumulatorStepKeepsFractionalRemainder(t *testing.T) {
	var a Accumulator
	// 3 particles/sec at 0.1s steps accumulates 0.3/step; after 10 steps
	// that's exactly 3.0 — verifies no drift from repeated truncation.
	var total int
	for i := 0; i < 10; i++ {
		total += a.Step(3, 0.1, false, 0)
	}
	if total != 3 {
		t.Errorf("total over 1s at rate 3/s = %d, want 3", total)
	}
}

func TestDispatchGroupsRoundsUp(t *testing.T) {
	cases := []struct {
		max  int
		want int
	}{
		{0, 0},
		{1, 1},
		{256, 1},
		{257, 2},
		{4096, 16},
		{4097, 17},
	}
	for _, c := range cases {
		if got := DispatchGroups(c.max); got != c.want {
			t.Errorf("DispatchGroups(%d) = %d, want %d", c.max, got, c.want)
		}
	}
}

func TestBuildUniformsCarriesDefAndFeatureFields(t *testing.T) {
	def := DefaultDef()
	def.Gravity = 0.5
	fv := dsp.FeatureVector{SubBass: 0.1, Bass: 0.2, LowMid: 0.3, Mid: 0.4, UpperMid: 0.5, Presence: 0.6, Brilliance: 0.7,
		RMS: 0.8, Kick: 0.9, Centroid: 0.2, Flux: 0.3, Flatness: 0.4, Onset: 1, Beat: 1, BeatPhase: 0.5, BPM: 0.4}
	u := BuildUniforms(def, fv, 1.5, 1.0/60.0, 1920, 1080, 42)
	if u.Gravity != 0.5 {
		t.Errorf("Gravity = %v, want 0.5", u.Gravity)
	}
	if u.EmitCount != 42 {
		t.Errorf("EmitCount = %v, want 42", u.EmitCount)
	}
	if u.ResolutionX != 1920 || u.ResolutionY != 1080 {
		t.Errorf("resolution = (%v, %v), want (1920, 1080)", u.ResolutionX, u.ResolutionY)
	}
	if u.Features[0] != fv.SubBass {
		t.Errorf("Features[0] = %v, want SubBass %v", u.Features[0], fv.SubBass)
	}
	if u.Features[15] != fv.BPM {
		t.Errorf("Features[15] = %v, want BPM %v", u.Features[15], fv.BPM)
	}
}
