package render

import "testing"

func TestScaledDimensionAppliesScale(t *testing.T) {
	if got := scaledDimension(1920, 0.5); got != 960 {
		t.Errorf("scaledDimension(1920, 0.5) = %d, want 960", got)
	}
}

func TestScaledDimensionDefaultsUnsetScale(t *testing.T) {
	if got := scaledDimension(1920, 0); got != 1920 {
		t.Errorf("scaledDimension(1920, 0) = %d, want 1920 (default scale 1.0)", got)
	}
	if got := scaledDimension(1080, -1); got != 1080 {
		t.Errorf("scaledDimension(1080, -1) = %d, want 1080 (negative scale treated as unset)", got)
	}
}

func TestScaledDimensionFloorsToOnePixel(t *testing.T) {
	if got := scaledDimension(1, 0.01); got != 1 {
		t.Errorf("scaledDimension(1, 0.01) = %d, want 1 (floor at 1px)", got)
	}
}

func TestMaxU32(t *testing.T) {
	if maxU32(3, 5) != 5 {
		t.Error("maxU32(3, 5) should be 5")
	}
	if maxU32(5, 3) != 5 {
		t.Error("maxU32(5, 3) should be 5")
	}
}
