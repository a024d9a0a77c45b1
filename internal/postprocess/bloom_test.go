package postprocess

import "testing"

func TestSoftKneeBelowThresholdIsZero(t *testing.T) {
	if got := SoftKnee(0.2, 0.8, 0.3); got != 0 {
		t.Errorf("expected 0 below threshold-knee, got %v", got)
	}
}

func TestSoftKneeAboveThresholdPassesThrough(t *testing.T) {
	got := SoftKnee(2.0, 0.8, 0.3)
	if got <= 0 {
		t.Errorf("expected positive bloom contribution well above threshold, got %v", got)
	}
}

func TestGaussianKernelSumsToOne(t *testing.T) {
	k := GaussianKernel9Tap()
	var sum float32
	for _, w := range k {
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("kernel weights sum to %v, want ~1.0", sum)
	}
}

func TestVignetteCenterIsBrightest(t *testing.T) {
	center := VignetteFalloff(0.5, 0.5, 0.35)
	corner := VignetteFalloff(0, 0, 0.35)
	if center <= corner {
		t.Errorf("expected center (%v) brighter than corner (%v)", center, corner)
	}
}

func TestGrainHashInUnitRange(t *testing.T) {
	for i := 0; i < 20; i++ {
		h := GrainHash(float32(i)*0.1, float32(i)*0.05, float32(i))
		if h < 0 || h >= 1 {
			t.Fatalf("hash %v out of [0,1) at i=%d", h, i)
		}
	}
}
