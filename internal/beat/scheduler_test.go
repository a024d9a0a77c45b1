package beat

import "testing"

const frameDt = 1.0 / 100.0

// TestSchedulerSilenceReturnsZeroPhase is §8 scenario 6: with is_silence,
// process returns (false, phase=0, bpm=previous_bpm) regardless of onset.
func TestSchedulerSilenceReturnsZeroPhase(t *testing.T) {
	s := NewScheduler(100)
	tempo := Estimate{BPM: 120, Confidence: 1, PeriodSeconds: 0.5}

	// Warm up with a real (non-silent) frame so lastBPM has a value.
	s.Process(frameDt, false, Result{}, tempo)

	out := s.Process(frameDt, true, Result{Onset: true, Strength: 1}, tempo)
	if out.IsBeat {
		t.Error("expected no beat during silence")
	}
	if out.BeatPhase != 0 {
		t.Errorf("expected phase=0 during silence, got %v", out.BeatPhase)
	}
	if out.BPM != 120 {
		t.Errorf("expected bpm to hold at previous value 120, got %v", out.BPM)
	}
}

func TestSchedulerFiresPredictedBeatsWithoutOnsets(t *testing.T) {
	s := NewScheduler(100)
	tempo := Estimate{BPM: 120, Confidence: 1, PeriodSeconds: 0.5}

	framesPerBeat := int(0.5 / frameDt)
	beats := 0
	for i := 0; i < framesPerBeat*4; i++ {
		out := s.Process(frameDt, false, Result{}, tempo)
		if out.IsBeat {
			beats++
		}
	}
	if beats < 3 || beats > 5 {
		t.Errorf("expected roughly 4 predicted beats over 4 beat periods, got %d", beats)
	}
}

func TestSchedulerConfirmsOnsetNearPredictedBeat(t *testing.T) {
	s := NewScheduler(100)
	tempo := Estimate{BPM: 120, Confidence: 1, PeriodSeconds: 0.5}

	framesPerBeat := int(0.5 / frameDt)
	var sawConfirmed bool
	for i := 0; i < framesPerBeat; i++ {
		s.Process(frameDt, false, Result{}, tempo)
	}
	// Right around the predicted beat time, feed a confirming onset.
	out := s.Process(frameDt, false, Result{Onset: true, Strength: 0.8}, tempo)
	if out.IsBeat && out.State == Confirmed {
		sawConfirmed = true
	}
	if !sawConfirmed {
		t.Error("expected an onset near the predicted beat time to be confirmed")
	}
}

func TestBeatPhaseStaysInUnitRange(t *testing.T) {
	s := NewScheduler(100)
	tempo := Estimate{BPM: 140, Confidence: 1, PeriodSeconds: 60.0 / 140.0}
	for i := 0; i < 1000; i++ {
		out := s.Process(frameDt, false, Result{}, tempo)
		if out.BeatPhase < 0 || out.BeatPhase >= 1 {
			t.Fatalf("frame %d: beat phase %v out of [0,1)", i, out.BeatPhase)
		}
	}
}

func TestOnsetOnlyModeFiresOnLowConfidence(t *testing.T) {
	s := NewScheduler(100)
	tempo := Estimate{BPM: 0, Confidence: 0, PeriodSeconds: 0}

	out := s.Process(frameDt, false, Result{Onset: true, Strength: 0.9}, tempo)
	if !out.IsBeat {
		t.Error("expected an onset to fire immediately in onset-only mode")
	}
}
