package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// VideoProbe decodes a video file into raw RGBA frames via an external
// tool (§4.12: "video metadata probed externally; frames pre-decoded as
// raw RGBA in one pass"). Phosphor has no bundled video decoder — a host
// application wires this to whatever probe it has on hand (ffmpeg binary,
// a platform media framework, etc).
type VideoProbe func(path string) (width, height int, frames [][]byte, delaysMs []int, err error)

// DecodeFile dispatches a media layer's source path to the right decoder
// by file extension (§4.12, §6). This is the entry point the preset
// worker's decode jobs go through.
func DecodeFile(path string, probe VideoProbe) (Source, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg":
		f, err := os.Open(path)
		if err != nil {
			return Source{}, fmt.Errorf("media: open %s: %w", path, err)
		}
		defer f.Close()
		return DecodeStatic(f)
	case ".gif":
		f, err := os.Open(path)
		if err != nil {
			return Source{}, fmt.Errorf("media: open %s: %w", path, err)
		}
		defer f.Close()
		return DecodeGIF(f)
	case ".webp":
		f, err := os.Open(path)
		if err != nil {
			return Source{}, fmt.Errorf("media: open %s: %w", path, err)
		}
		defer f.Close()
		src, _, err := DecodeWebP(f)
		return src, err
	default:
		if probe == nil {
			return Source{}, fmt.Errorf("media: no video probe configured for %s", path)
		}
		w, h, frames, delays, err := probe(path)
		if err != nil {
			return Source{}, fmt.Errorf("media: probe video %s: %w", path, err)
		}
		return NewVideoSource(w, h, frames, delays)
	}
}
