package media

import "fmt"

// Direction is the animated-media playback direction (§3).
type Direction int

const (
	Forward Direction = iota
	Reverse
	PingPong
)

// Transport drives a Source's playback position (§4.12). It owns no GPU
// resources itself; the media layer uploads whichever frame Transport
// currently selects.
type Transport struct {
	Playing  bool
	Looping  bool
	Speed    float64 // playback speed multiplier
	Direction Direction

	frameIndex     int
	frameElapsedMs float64
	reversing      bool // PingPong internal direction state
	needsUpload    bool

	liveFrame []byte // set by SetLiveFrame, consumed by CurrentFrameBytes for Live sources
}

// SetLiveFrame stores the latest externally-produced frame for a Live
// source and marks it pending upload (§4.12 "external producer writes via
// set_live_frame(bytes) then upload_frame uploads").
func (t *Transport) SetLiveFrame(rgba []byte) {
	t.liveFrame = rgba
	t.needsUpload = true
}

// NewTransport creates a Transport at frame 0, playing and looping by
// default, at normal speed.
func NewTransport() *Transport {
	return &Transport{Playing: true, Looping: true, Speed: 1.0, needsUpload: true}
}

// FrameIndex reports the currently selected frame.
func (t *Transport) FrameIndex() int { return t.frameIndex }

// NeedsUpload reports whether the current frame hasn't yet been uploaded
// to the GPU texture.
func (t *Transport) NeedsUpload() bool { return t.needsUpload }

// ClearUpload marks the current frame as uploaded (§4.12
// "upload_frame... clear flag").
func (t *Transport) ClearUpload() { t.needsUpload = false }

// DurationMs returns the source's total animation duration in
// milliseconds (sum of all delays).
func DurationMs(s Source) float64 {
	var total float64
	for _, d := range s.DelaysMs {
		total += float64(d)
	}
	return total
}

// Advance accumulates dt (seconds) scaled by Speed into the frame-elapsed
// timer and steps frameIndex forward as frames' delays are consumed
// (§4.12). A no-op for Static/Live sources (no delay table to walk) or
// while paused.
func (t *Transport) Advance(s Source, dt float64) {
	if !t.Playing || s.Kind != Animated || len(s.Frames) == 0 {
		return
	}
	t.frameElapsedMs += dt * 1000 * t.Speed
	for {
		delay := float64(s.DelaysMs[t.frameIndex])
		if delay <= 0 {
			delay = minFrameDelayMs
		}
		if t.frameElapsedMs < delay {
			return
		}
		t.frameElapsedMs -= delay
		t.stepFrame(s)
		t.needsUpload = true
	}
}

// minFrameDelayMs is the §6 GIF decode floor ("minimum 20 ms delay"),
// reused here as a guard against a zero/negative delay entry stalling
// Advance in an infinite loop.
const minFrameDelayMs = 20

func (t *Transport) stepFrame(s Source) {
	n := s.FrameCount()
	if n <= 1 {
		return
	}
	switch t.Direction {
	case Forward:
		t.frameIndex++
		if t.frameIndex >= n {
			if t.Looping {
				t.frameIndex = 0
			} else {
				t.frameIndex = n - 1
				t.Playing = false
			}
		}
	case Reverse:
		t.frameIndex--
		if t.frameIndex < 0 {
			if t.Looping {
				t.frameIndex = n - 1
			} else {
				t.frameIndex = 0
				t.Playing = false
			}
		}
	case PingPong:
		if t.reversing {
			t.frameIndex--
			if t.frameIndex <= 0 {
				t.frameIndex = 0
				t.reversing = false
				if !t.Looping {
					t.Playing = false
				}
			}
		} else {
			t.frameIndex++
			if t.frameIndex >= n-1 {
				t.frameIndex = n - 1
				t.reversing = true
			}
		}
	}
}

// SeekToFrame jumps directly to frame i (§4.12, §8: idempotent — a second
// call with the same i is a no-op).
func (t *Transport) SeekToFrame(s Source, i int) error {
	n := s.FrameCount()
	if n == 0 {
		return fmt.Errorf("media: seek on source with no frames")
	}
	if i < 0 || i >= n {
		return fmt.Errorf("media: frame %d out of range [0,%d)", i, n)
	}
	if i == t.frameIndex {
		return nil
	}
	t.frameIndex = i
	t.frameElapsedMs = 0
	t.needsUpload = true
	return nil
}

// SeekToSecs seeks to the frame whose cumulative delay total first exceeds
// t*1000 ms (§8).
func (t *Transport) SeekToSecs(s Source, secs float64) error {
	targetMs := secs * 1000
	var cum float64
	frame := 0
	for i, d := range s.DelaysMs {
		cum += float64(d)
		if cum > targetMs {
			frame = i
			break
		}
		frame = i
	}
	return t.SeekToFrame(s, frame)
}

// Letterbox is the scale/offset pair applied to map a media source's
// native aspect ratio into a (possibly different-aspect) viewport without
// distortion (§4.12).
type Letterbox struct {
	ScaleX, ScaleY   float32
	OffsetX, OffsetY float32
}

// ComputeLetterbox implements §4.12's letterbox math.
func ComputeLetterbox(mediaWidth, mediaHeight, viewportWidth, viewportHeight int) Letterbox {
	mediaAspect := float32(mediaWidth) / float32(mediaHeight)
	viewportAspect := float32(viewportWidth) / float32(viewportHeight)

	var l Letterbox
	if mediaAspect > viewportAspect {
		l.ScaleX, l.ScaleY = 1, viewportAspect/mediaAspect
	} else {
		l.ScaleX, l.ScaleY = mediaAspect/viewportAspect, 1
	}
	l.OffsetX = (1 - l.ScaleX) / 2
	l.OffsetY = (1 - l.ScaleY) / 2
	return l
}

// CurrentFrameBytes returns the raw RGBA bytes Transport currently selects
// for upload, or nil for a Live source (external producer supplies bytes
// via SetLiveFrame).
func (t *Transport) CurrentFrameBytes(s Source) []byte {
	if s.Kind == Live {
		return t.liveFrame
	}
	if t.frameIndex >= len(s.Frames) {
		return nil
	}
	return s.Frames[t.frameIndex]
}
