package postprocess

import "testing"

func TestQuarterDimensionFloorsToOnePixel(t *testing.T) {
	cases := []struct {
		in, want uint32
	}{
		{1920, 480},
		{1080, 270},
		{3, 1},
		{4, 1},
		{7, 1},
		{8, 2},
	}
	for _, c := range cases {
		if got := quarterDimension(c.in); got != c.want {
			t.Errorf("quarterDimension(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestBoolToF32(t *testing.T) {
	if boolToF32(true) != 1 {
		t.Error("boolToF32(true) should be 1")
	}
	if boolToF32(false) != 0 {
		t.Error("boolToF32(false) should be 0")
	}
}
