package layer

import (
	"testing"

	"phosphor/internal/effect"
)

func newTestLayer(name string) *Layer {
	return NewEffectLayer(name, effect.Descriptor{Name: name, Shader: "x.wgsl"})
}

func TestStackEnforcesMinimumOneLayer(t *testing.T) {
	s := NewStack(newTestLayer("a"))
	if err := s.Remove(0); err == nil {
		t.Error("removing the only layer should fail the §3 minimum-1 invariant")
	}
	if s.Len() != 1 {
		t.Errorf("layer count = %d, want 1 (remove must not have succeeded)", s.Len())
	}
}

func TestStackEnforcesMaximumEightLayers(t *testing.T) {
	s := NewStack(newTestLayer("0"))
	for i := 1; i < MaxLayers; i++ {
		if err := s.Add(newTestLayer("x")); err != nil {
			t.Fatalf("add layer %d: %v", i, err)
		}
	}
	if err := s.Add(newTestLayer("overflow")); err == nil {
		t.Error("adding a 9th layer should fail the §3 maximum-8 invariant")
	}
	if s.Len() != MaxLayers {
		t.Errorf("layer count = %d, want %d", s.Len(), MaxLayers)
	}
}

func TestStackIndicesStableAcrossAdd(t *testing.T) {
	s := NewStack(newTestLayer("a"))
	s.Add(newTestLayer("b"))
	first := s.At(0)
	s.Add(newTestLayer("c"))
	if s.At(0) != first {
		t.Error("adding a layer must not disturb an existing layer's index/identity")
	}
}

func TestStackResizeGrowsAndShrinks(t *testing.T) {
	s := NewStack(newTestLayer("a"))
	s.Resize(5, func() *Layer { return newTestLayer("gen") })
	if s.Len() != 5 {
		t.Fatalf("after grow, len = %d, want 5", s.Len())
	}
	s.Resize(2, func() *Layer { return newTestLayer("gen") })
	if s.Len() != 2 {
		t.Fatalf("after shrink, len = %d, want 2", s.Len())
	}
}

func TestStackResizeClampsToInvariantRange(t *testing.T) {
	s := NewStack(newTestLayer("a"))
	s.Resize(0, func() *Layer { return newTestLayer("gen") })
	if s.Len() != MinLayers {
		t.Errorf("resize(0) should clamp to %d, got %d", MinLayers, s.Len())
	}
	s.Resize(99, func() *Layer { return newTestLayer("gen") })
	if s.Len() != MaxLayers {
		t.Errorf("resize(99) should clamp to %d, got %d", MaxLayers, s.Len())
	}
}

func TestDisplayNameFallsBackToName(t *testing.T) {
	l := newTestLayer("base")
	if l.DisplayName() != "base" {
		t.Errorf("DisplayName() = %q, want %q", l.DisplayName(), "base")
	}
	l.CustomName = "custom"
	if l.DisplayName() != "custom" {
		t.Errorf("DisplayName() = %q, want %q", l.DisplayName(), "custom")
	}
}
