package layer

import "testing"

func TestBlendModeStableEncodingRoundTrips(t *testing.T) {
	modes := []BlendMode{BlendNormal, BlendAdd, BlendMultiply, BlendScreen, BlendOverlay, BlendSoftLight, BlendDifference}
	for _, m := range modes {
		if got := BlendModeFromU32(m.AsU32()); got != m {
			t.Errorf("BlendModeFromU32(%d.AsU32()) = %v, want %v", m, got, m)
		}
	}
}

func TestBlendModeJSONRoundTrip(t *testing.T) {
	for _, m := range []BlendMode{BlendNormal, BlendScreen, BlendDifference} {
		data, err := m.MarshalJSON()
		if err != nil {
			t.Fatalf("marshal %v: %v", m, err)
		}
		var got BlendMode
		if err := got.UnmarshalJSON(data); err != nil {
			t.Fatalf("unmarshal %v: %v", m, err)
		}
		if got != m {
			t.Errorf("round trip %v -> %q -> %v", m, data, got)
		}
	}
}
