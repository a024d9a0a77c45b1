// Package media implements media layer sources, decoding, and playback
// transport (§4.12).
package media

import "fmt"

// Kind identifies a media Source's variant (§3).
type Kind int

const (
	Static Kind = iota
	Animated
	Live
)

// Source holds decoded (or, for Live, not-yet-arrived) frame data. Frames
// are raw RGBA8 bytes, width*height*4 each.
type Source struct {
	Kind      Kind
	Width     int
	Height    int
	Frames    [][]byte // len 1 for Static, one per animation frame for Animated, 0 for Live
	DelaysMs  []int    // parallel to Frames for Animated
	FromVideo bool
}

// FrameCount returns the number of distinct frames this source can play.
func (s Source) FrameCount() int {
	switch s.Kind {
	case Static:
		return 1
	case Animated:
		return len(s.Frames)
	default:
		return 0
	}
}

// maxVideoDurationSeconds is the §6 cap: pre-decoded video is rejected if
// its total duration exceeds 60 s.
const maxVideoDurationSeconds = 60.0

// NewVideoSource builds a Source from frames pre-decoded by an external
// probe (§4.12: "video metadata probed externally; frames pre-decoded as
// raw RGBA in one pass"). It enforces the 60 s duration cap.
func NewVideoSource(width, height int, frames [][]byte, delaysMs []int) (Source, error) {
	if len(frames) != len(delaysMs) {
		return Source{}, fmt.Errorf("media: %d frames but %d delays", len(frames), len(delaysMs))
	}
	var totalMs int
	for _, d := range delaysMs {
		totalMs += d
	}
	if float64(totalMs)/1000.0 > maxVideoDurationSeconds {
		return Source{}, fmt.Errorf("media: video duration %.1fs exceeds %.0fs cap", float64(totalMs)/1000.0, maxVideoDurationSeconds)
	}
	return Source{
		Kind:      Animated,
		Width:     width,
		Height:    height,
		Frames:    frames,
		DelaysMs:  delaysMs,
		FromVideo: true,
	}, nil
}

// NewLiveSource creates a Live source with no pre-decoded frames; an
// external producer feeds it via Transport.SetLiveFrame.
func NewLiveSource(width, height int) Source {
	return Source{Kind: Live, Width: width, Height: height}
}
