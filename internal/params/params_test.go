package params

import (
	"encoding/json"
	"testing"
)

// TestParamScalingRoundTrip is §8 scenario 4.
func TestParamScalingRoundTrip(t *testing.T) {
	const min, max = float32(10), float32(20)
	if got := ScaleFloat(min, max, 0.5); got != 15.0 {
		t.Errorf("0.5 -> %v, want 15.0", got)
	}
	if got := ScaleFloat(min, max, 1.0); got != 20.0 {
		t.Errorf("1.0 -> %v, want 20.0", got)
	}
	if got := ScaleFloat(min, max, -5.0); got != min {
		t.Errorf("clamp below 0: got %v, want %v", got, min)
	}
	if got := ScaleFloat(min, max, 5.0); got != max {
		t.Errorf("clamp above 1: got %v, want %v", got, max)
	}
}

func TestPackToBufferAlwaysReturns16Floats(t *testing.T) {
	s := NewStore()
	s.LoadDefs([]ParamDef{
		{Type: KindFloat, Name: "speed", FloatDefault: 1},
		{Type: KindColor, Name: "tint", ColorDefault: [4]float32{1, 0, 0, 1}},
		{Type: KindBool, Name: "glow", BoolDefault: true},
		{Type: KindPoint2D, Name: "offset", Point2DDefault: [2]float32{0.5, 0.25}},
	})
	buf := s.PackToBuffer()
	if len(buf) != 16 {
		t.Fatalf("len(buf) = %d, want 16", len(buf))
	}
	want := [16]float32{1, 1, 0, 0, 1, 1, 0.5, 0.25}
	if buf != want {
		t.Errorf("buf = %v, want %v", buf, want)
	}
}

func TestPackToBufferEmptyStoreIsAllZero(t *testing.T) {
	s := NewStore()
	buf := s.PackToBuffer()
	for i, v := range buf {
		if v != 0 {
			t.Errorf("index %d: got %v, want 0", i, v)
		}
	}
}

func TestResetAllRestoresDefaults(t *testing.T) {
	s := NewStore()
	s.LoadDefs([]ParamDef{{Type: KindFloat, Name: "speed", FloatDefault: 1, FloatMin: 0, FloatMax: 2}})
	s.Set("speed", Value{Kind: KindFloat, Float: 1.8})
	s.ClearDirty()
	s.ResetAll()
	v, _ := s.Get("speed")
	if v.Float != 1 {
		t.Errorf("expected reset to restore default 1, got %v", v.Float)
	}
	if !s.Dirty() {
		t.Error("expected ResetAll to mark the store dirty")
	}
}

func TestLoadDefsSeedsMissingValuesOnly(t *testing.T) {
	s := NewStore()
	s.LoadDefs([]ParamDef{{Type: KindFloat, Name: "speed", FloatDefault: 1}})
	s.Set("speed", Value{Kind: KindFloat, Float: 1.5})
	// Reloading the same defs (e.g. effect reload) must not clobber the
	// explicitly-set value.
	s.LoadDefs([]ParamDef{{Type: KindFloat, Name: "speed", FloatDefault: 1}})
	v, _ := s.Get("speed")
	if v.Float != 1.5 {
		t.Errorf("expected existing value preserved, got %v", v.Float)
	}
}

func TestParamDefJSONRoundTrip(t *testing.T) {
	defs := []ParamDef{
		{Type: KindFloat, Name: "speed", FloatDefault: 1, FloatMin: 0, FloatMax: 2},
		{Type: KindColor, Name: "tint", ColorDefault: [4]float32{1, 0, 0, 1}},
		{Type: KindBool, Name: "glow", BoolDefault: true},
		{Type: KindPoint2D, Name: "offset", Point2DDefault: [2]float32{0.1, 0.2}, Point2DMin: [2]float32{-1, -1}, Point2DMax: [2]float32{1, 1}},
	}
	data, err := json.Marshal(defs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got []ParamDef
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != len(defs) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(defs))
	}
	for i := range defs {
		if got[i] != defs[i] {
			t.Errorf("index %d: got %+v, want %+v", i, got[i], defs[i])
		}
	}
}
