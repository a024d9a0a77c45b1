package dsp_test

import (
	"math"
	"testing"

	"phosphor/internal/dsp"
)

func TestSilenceIsFinite(t *testing.T) {
	ex := dsp.NewSpectralExtractor(2048, 44100)
	silence := make([]float32, 1024)
	for i := 0; i < 5; i++ {
		d := ex.Analyze(silence)
		v := dsp.FeatureVector{
			SubBass: d.SubBass, Bass: d.Bass, LowMid: d.LowMid, Mid: d.Mid,
			UpperMid: d.UpperMid, Presence: d.Presence, Brilliance: d.Brilliance,
			RMS: d.RMS, Kick: d.Kick, Centroid: d.Centroid, Flux: d.Flux,
			Flatness: d.Flatness, Rolloff: d.Rolloff, Bandwidth: d.Bandwidth, ZCR: d.ZCR,
		}
		if !v.IsFinite() {
			t.Fatalf("silence produced non-finite feature: %+v", v)
		}
		if d.RMS != 0 {
			t.Errorf("expected zero RMS on silence, got %v", d.RMS)
		}
	}
}

func TestLowToneProducesFiniteNonZeroBands(t *testing.T) {
	ex := dsp.NewSpectralExtractor(2048, 44100)
	buf := make([]float32, 1024)
	// 100 Hz sine burst — should register in the sub-bass/bass bands.
	for i := range buf {
		buf[i] = float32(math.Sin(2 * math.Pi * 100 * float64(i) / 44100))
	}
	var d dsp.Descriptors
	for i := 0; i < 4; i++ {
		d = ex.Analyze(buf)
	}
	if d.Bass == 0 && d.SubBass == 0 {
		t.Error("expected non-zero low-frequency energy for a 100 Hz tone")
	}
	if d.ZCR < 0 || d.ZCR > 1 {
		t.Errorf("ZCR out of range: %v", d.ZCR)
	}
}

func TestClamp01(t *testing.T) {
	if dsp.Clamp01(-1) != 0 {
		t.Error("expected negative clamp to 0")
	}
	if dsp.Clamp01(2) != 1 {
		t.Error("expected >1 clamp to 1")
	}
	if dsp.Clamp01(0.5) != 0.5 {
		t.Error("expected mid-range value to pass through")
	}
}
