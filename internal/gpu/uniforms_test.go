package gpu

import (
	"testing"

	"phosphor/internal/dsp"
)

func TestGlobalUniformsSizeMatchesWireLayout(t *testing.T) {
	u := NewGlobalUniforms(1, 2, 1920, 1080, dsp.FeatureVector{}, [16]float32{}, 0.9, 42)
	got := len(u.Bytes())
	if got != GlobalUniformsSize {
		t.Fatalf("encoded size = %d, want %d", got, GlobalUniformsSize)
	}
	if GlobalUniformsSize%4 != 0 {
		t.Fatalf("uniform size %d is not a multiple of 4 bytes", GlobalUniformsSize)
	}
}

func TestBPMIsNormalizedBy300(t *testing.T) {
	fv := dsp.FeatureVector{BPM: 150.0 / 300} // the feature vector already carries bpm/300
	u := NewGlobalUniforms(0, 0, 1, 1, fv, [16]float32{}, 0, 0)
	if u.BPM != 0.5 {
		t.Errorf("BPM 150 (0.5 in the feature vector) should reach the uniform as 0.5, got %v", u.BPM)
	}
}

func TestParamsSlotCountMatchesSpecUniformABI(t *testing.T) {
	u := GlobalUniforms{}
	if len(u.Params) != 16 {
		t.Errorf("params slot count = %d, want 16", len(u.Params))
	}
}
