package smooth

import (
	"testing"

	"phosphor/internal/dsp"
)

func TestBypassPassesThroughExactly(t *testing.T) {
	s := NewSmoother()
	s.SetBypass(true)
	in := dsp.FeatureVector{Bass: 0.7, RMS: 0.3, Centroid: 1200}
	out := s.Process(in, 1.0/60.0)
	if out != in {
		t.Errorf("bypass should pass through unchanged: got %+v, want %+v", out, in)
	}
}

func TestFirstFrameSnapsToInput(t *testing.T) {
	s := NewSmoother()
	in := dsp.FeatureVector{Bass: 0.5}
	out := s.Process(in, 1.0/60.0)
	if out.Bass != 0.5 {
		t.Errorf("expected first frame to initialize exactly to input, got %v", out.Bass)
	}
}

func TestAttackFasterThanRelease(t *testing.T) {
	s := NewSmoother()
	s.Process(dsp.FeatureVector{Bass: 0}, 1.0/60.0)

	rising := s.Process(dsp.FeatureVector{Bass: 1.0}, 1.0/60.0).Bass

	s2 := NewSmoother()
	s2.Process(dsp.FeatureVector{Bass: 1.0}, 1.0/60.0)
	falling := s2.Process(dsp.FeatureVector{Bass: 0}, 1.0/60.0).Bass

	riseDelta := rising - 0
	fallDelta := 1.0 - falling
	if riseDelta <= fallDelta {
		t.Errorf("expected attack (rise=%v) to move faster than release (fall=%v)", riseDelta, fallDelta)
	}
}

func TestZeroDtIsIdentity(t *testing.T) {
	s := NewSmoother()
	s.Process(dsp.FeatureVector{Bass: 0.2}, 1.0/60.0)
	out := s.Process(dsp.FeatureVector{Bass: 0.9}, 0)
	if out.Bass != 0.2 {
		t.Errorf("dt=0 should leave the smoothed value unchanged, got %v", out.Bass)
	}
}
