package audio

import (
	"errors"
	"testing"
	"time"
)

// fakeStream is a paStream double that fills buf with a constant value on
// each Read and optionally fails N times before succeeding.
type fakeStream struct {
	buf        []float32
	failsLeft  int
	readCalled chan struct{}
	stopped    bool
}

func (f *fakeStream) Start() error { return nil }
func (f *fakeStream) Stop() error  { f.stopped = true; return nil }
func (f *fakeStream) Close() error { return nil }
func (f *fakeStream) Read() error {
	if f.failsLeft > 0 {
		f.failsLeft--
		return errors.New("transient backend error")
	}
	for i := range f.buf {
		f.buf[i] = 0.5
	}
	select {
	case f.readCalled <- struct{}{}:
	default:
	}
	return nil
}

func TestCaptureDrainsIntoRingBuffer(t *testing.T) {
	fs := &fakeStream{readCalled: make(chan struct{}, 1)}
	orig := openStream
	openStream = func(deviceID int, buf []float32) (paStream, error) {
		fs.buf = buf
		return fs, nil
	}
	defer func() { openStream = orig }()

	c := NewCapture(-1, FragmentSize*8)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	select {
	case <-fs.readCalled:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a capture read")
	}

	// Give the loop a moment to push into the ring.
	time.Sleep(10 * time.Millisecond)
	if c.Ring.Len() == 0 {
		t.Error("expected samples pushed into the ring buffer")
	}
	if !c.Alive() {
		t.Error("expected capture to report alive while running")
	}
}

func TestCaptureRetriesOnTransientError(t *testing.T) {
	fs := &fakeStream{failsLeft: 2, readCalled: make(chan struct{}, 1)}
	orig := openStream
	openStream = func(deviceID int, buf []float32) (paStream, error) {
		fs.buf = buf
		return fs, nil
	}
	defer func() { openStream = orig }()

	c := NewCapture(-1, FragmentSize*8)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	select {
	case <-fs.readCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("expected capture to recover from transient errors and keep running")
	}
	if !c.Alive() {
		t.Error("expected capture to remain alive after a transient error")
	}
}

func TestStopSetsNotAlive(t *testing.T) {
	fs := &fakeStream{readCalled: make(chan struct{}, 1)}
	orig := openStream
	openStream = func(deviceID int, buf []float32) (paStream, error) {
		fs.buf = buf
		return fs, nil
	}
	defer func() { openStream = orig }()

	c := NewCapture(-1, FragmentSize*8)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-fs.readCalled
	c.Stop()
	if c.Alive() {
		t.Error("expected capture to report not-alive after Stop")
	}
	if !fs.stopped {
		t.Error("expected underlying stream to be stopped")
	}
}
