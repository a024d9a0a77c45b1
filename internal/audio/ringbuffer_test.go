package audio_test

import (
	"testing"

	"phosphor/internal/audio"
)

func TestDrainReturnsPushedSamples(t *testing.T) {
	rb := audio.NewRingBuffer(16)
	rb.Push([]float32{1, 2, 3})
	got := rb.Drain(nil)
	want := []float32{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDrainIsEmptyAfterDrain(t *testing.T) {
	rb := audio.NewRingBuffer(16)
	rb.Push([]float32{1, 2, 3})
	rb.Drain(nil)
	if rb.Len() != 0 {
		t.Errorf("expected empty ring after drain, got len %d", rb.Len())
	}
	if got := rb.Drain(nil); len(got) != 0 {
		t.Errorf("expected no samples on second drain, got %v", got)
	}
}

func TestOverflowDropsOldestPreservesCapacity(t *testing.T) {
	rb := audio.NewRingBuffer(4)
	rb.Push([]float32{1, 2, 3, 4, 5, 6}) // overflow by 2
	if rb.Capacity() != 4 {
		t.Fatalf("capacity changed: got %d, want 4", rb.Capacity())
	}
	got := rb.Drain(nil)
	want := []float32{3, 4, 5, 6} // oldest (1, 2) dropped
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPushAcrossMultipleDrains(t *testing.T) {
	rb := audio.NewRingBuffer(8)
	rb.Push([]float32{1, 2})
	first := rb.Drain(nil)
	rb.Push([]float32{3, 4})
	second := rb.Drain(nil)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("unexpected lengths: %v %v", first, second)
	}
	if second[0] != 3 || second[1] != 4 {
		t.Errorf("second drain got %v, want [3 4]", second)
	}
}
