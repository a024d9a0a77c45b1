package media

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/webp"
)

// minGIFDelayMs is the §6 floor applied to GIF frame delays ("minimum 20
// ms delay" — some encoders emit 0 cs delays that browsers/players treat
// as this floor rather than literally zero).
const minGIFDelayMs = 20

// DecodeStatic decodes a single-frame PNG or JPEG image into a Static
// Source, converting to RGBA8 (§6 "Static: PNG/JPEG via generic decoder").
func DecodeStatic(r io.Reader) (Source, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return Source{}, fmt.Errorf("media: decode image: %w", err)
	}
	_ = format
	rgba := toRGBA(img)
	b := rgba.Bounds()
	return Source{Kind: Static, Width: b.Dx(), Height: b.Dy(), Frames: [][]byte{rgba.Pix}}, nil
}

func init() {
	image.RegisterFormat("png", "\x89PNG\r\n\x1a\n", png.Decode, png.DecodeConfig)
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
}

// DecodeGIF decodes an animated GIF into an Animated Source. Each GIF
// frame only specifies the pixels that changed since the previous frame
// (per its disposal method), so frames are progressively composited onto
// a persistent canvas rather than decoded independently (§4.12, §6).
func DecodeGIF(r io.Reader) (Source, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return Source{}, fmt.Errorf("media: decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return Source{}, fmt.Errorf("media: gif has no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	canvas := image.NewRGBA(bounds)

	frames := make([][]byte, 0, len(g.Image))
	delays := make([]int, 0, len(g.Image))

	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		out := make([]byte, len(canvas.Pix))
		copy(out, canvas.Pix)
		frames = append(frames, out)

		delayMs := g.Delay[i] * 10
		if delayMs < minGIFDelayMs {
			delayMs = minGIFDelayMs
		}
		delays = append(delays, delayMs)

		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			eraseRect(canvas, frame.Bounds())
		}
	}

	return Source{
		Kind:     Animated,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Frames:   frames,
		DelaysMs: delays,
	}, nil
}

func eraseRect(canvas *image.RGBA, r image.Rectangle) {
	zero := image.NewUniform(image.Transparent)
	draw.Draw(canvas, r, zero, image.Point{}, draw.Src)
}

// DecodeWebP decodes a WebP image via the native x/image/webp decoder
// (§6 "WebP: native decoder; animated detected automatically"). x/image's
// decoder only surfaces the base (first) frame of an animated WebP; an
// ANIM chunk is reported back via animated=true so callers can log that
// only the first frame was captured rather than silently dropping motion.
func DecodeWebP(r io.Reader) (src Source, animated bool, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Source{}, false, fmt.Errorf("media: read webp: %w", err)
	}
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return Source{}, false, fmt.Errorf("media: decode webp: %w", err)
	}
	rgba := toRGBA(img)
	b := rgba.Bounds()
	return Source{Kind: Static, Width: b.Dx(), Height: b.Dy(), Frames: [][]byte{rgba.Pix}}, hasAnimChunk(data), nil
}

// hasAnimChunk sniffs the RIFF container for a WebP "ANIM" chunk without
// fully parsing VP8X extended-format chunks.
func hasAnimChunk(data []byte) bool {
	return bytes.Contains(data, []byte("ANIM"))
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}
