package compositor

import (
	"math"
	"testing"

	"phosphor/internal/layer"
)

func approxEq3(a, b [3]float32, eps float32) bool {
	for i := range a {
		if float32(math.Abs(float64(a[i]-b[i]))) > eps {
			return false
		}
	}
	return true
}

func TestBlendNormalIsLerp(t *testing.T) {
	bg := [3]float32{0, 0, 0}
	fg := [3]float32{1, 1, 1}
	got := BlendRGB(layer.BlendNormal, bg, fg, 0.5)
	want := [3]float32{0.5, 0.5, 0.5}
	if !approxEq3(got, want, 1e-6) {
		t.Errorf("Normal blend at 0.5 opacity = %v, want %v", got, want)
	}
}

func TestBlendAddSumsScaledByOpacity(t *testing.T) {
	bg := [3]float32{0.2, 0.2, 0.2}
	fg := [3]float32{0.3, 0.3, 0.3}
	got := BlendRGB(layer.BlendAdd, bg, fg, 1.0)
	want := [3]float32{0.5, 0.5, 0.5}
	if !approxEq3(got, want, 1e-6) {
		t.Errorf("Add blend = %v, want %v", got, want)
	}
}

func TestBlendMultiplyAtFullOpacity(t *testing.T) {
	bg := [3]float32{0.5, 0.5, 0.5}
	fg := [3]float32{0.5, 0.5, 0.5}
	got := BlendRGB(layer.BlendMultiply, bg, fg, 1.0)
	want := [3]float32{0.25, 0.25, 0.25}
	if !approxEq3(got, want, 1e-6) {
		t.Errorf("Multiply blend = %v, want %v", got, want)
	}
}

func TestBlendScreenWithWhiteIsWhite(t *testing.T) {
	bg := [3]float32{0.3, 0.4, 0.5}
	fg := [3]float32{1, 1, 1}
	got := BlendRGB(layer.BlendScreen, bg, fg, 1.0)
	want := [3]float32{1, 1, 1}
	if !approxEq3(got, want, 1e-6) {
		t.Errorf("Screen blend with white fg = %v, want %v", got, want)
	}
}

func TestBlendDifferenceIsSymmetric(t *testing.T) {
	a := BlendRGB(layer.BlendDifference, [3]float32{0.2, 0.6, 0.9}, [3]float32{0.7, 0.1, 0.9}, 1.0)
	b := BlendRGB(layer.BlendDifference, [3]float32{0.7, 0.1, 0.9}, [3]float32{0.2, 0.6, 0.9}, 1.0)
	if !approxEq3(a, b, 1e-6) {
		t.Errorf("Difference blend should be symmetric: %v vs %v", a, b)
	}
}

func TestBlendZeroOpacityIsBackground(t *testing.T) {
	bg := [3]float32{0.1, 0.2, 0.3}
	fg := [3]float32{0.9, 0.9, 0.9}
	for _, m := range []layer.BlendMode{layer.BlendNormal, layer.BlendMultiply, layer.BlendScreen, layer.BlendOverlay, layer.BlendSoftLight, layer.BlendDifference} {
		got := BlendRGB(m, bg, fg, 0)
		if !approxEq3(got, bg, 1e-6) {
			t.Errorf("mode %v at opacity 0 = %v, want unchanged background %v", m, got, bg)
		}
	}
}

func TestAlphaOutTakesMax(t *testing.T) {
	if got := AlphaOut(0.8, 0.5, 1.0); got != 0.8 {
		t.Errorf("AlphaOut(0.8, 0.5, 1.0) = %v, want 0.8", got)
	}
	if got := AlphaOut(0.2, 0.9, 1.0); got != 0.9 {
		t.Errorf("AlphaOut(0.2, 0.9, 1.0) = %v, want 0.9", got)
	}
}
