package particles

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// maxImageDim is the §4.9 cap on an image emitter's longest dimension
// before sampling ("resized with max dim 512 px preserving aspect").
const maxImageDim = 512

// Aux is one entry of the image-emitter auxiliary buffer (§4.9:
// "ParticleAux[] = home xy in clip space + packed RGBA + sprite index").
type Aux struct {
	ClipX, ClipY float32
	R, G, B, A   float32
	SpriteIndex  uint32
}

// ResizeForSampling scales src down (never up) so its longest dimension is
// at most maxImageDim, preserving aspect ratio.
func ResizeForSampling(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxImageDim && h <= maxImageDim {
		return src
	}
	scale := float64(maxImageDim) / float64(w)
	if h > w {
		scale = float64(maxImageDim) / float64(h)
	}
	nw := maxInt(1, int(float64(w)*scale))
	nh := maxInt(1, int(float64(h)*scale))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// SampleImage pre-samples img into up to maxCount Aux entries per the
// configured SampleMode (§4.9). Positions are mapped into clip space
// ([-1,1]) with aspect correction so a non-square image doesn't distort
// when drawn against a square viewport-normalized particle quad.
func SampleImage(img image.Image, cfg ImageSampleConfig, maxCount int, rngSeed uint64) []Aux {
	img = ResizeForSampling(img)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || maxCount <= 0 {
		return nil
	}
	aspect := float32(w) / float32(h)

	toClip := func(x, y int) (float32, float32) {
		u := float32(x) / float32(w)
		v := float32(y) / float32(h)
		cx := (u*2 - 1)
		cy := -(v*2 - 1)
		if aspect >= 1 {
			cy /= aspect
		} else {
			cx *= aspect
		}
		return cx, cy
	}

	switch cfg.Mode {
	case SampleThreshold:
		return sampleThreshold(img, b, w, h, toClip, cfg.Threshold, maxCount)
	case SampleRandom:
		return sampleRandom(img, b, w, h, toClip, maxCount, rngSeed)
	default: // SampleGrid
		return sampleGrid(img, b, w, h, toClip, maxCount)
	}
}

func sampleGrid(img image.Image, b image.Rectangle, w, h int, toClip func(int, int) (float32, float32), maxCount int) []Aux {
	total := w * h
	stride := total / maxCount
	if stride < 1 {
		stride = 1
	}
	var out []Aux
	for i := 0; i < total && len(out) < maxCount; i += stride {
		x := b.Min.X + i%w
		y := b.Min.Y + i/w
		out = append(out, pixelToAux(img, x, y, toClip))
	}
	return out
}

func sampleThreshold(img image.Image, b image.Rectangle, w, h int, toClip func(int, int) (float32, float32), threshold float32, maxCount int) []Aux {
	var candidates []image.Point
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if brightness(img.At(x, y)) > threshold {
				candidates = append(candidates, image.Pt(x, y))
			}
		}
	}
	stride := 1
	if len(candidates) > maxCount {
		stride = len(candidates) / maxCount
	}
	var out []Aux
	for i := 0; i < len(candidates) && len(out) < maxCount; i += stride {
		p := candidates[i]
		out = append(out, pixelToAux(img, p.X, p.Y, toClip))
	}
	return out
}

func sampleRandom(img image.Image, b image.Rectangle, w, h int, toClip func(int, int) (float32, float32), maxCount int, seed uint64) []Aux {
	rng := newLCG(seed)
	out := make([]Aux, 0, maxCount)
	for len(out) < maxCount {
		x := b.Min.X + int(rng.next()%uint64(w))
		y := b.Min.Y + int(rng.next()%uint64(h))
		out = append(out, pixelToAux(img, x, y, toClip))
	}
	return out
}

func pixelToAux(img image.Image, x, y int, toClip func(int, int) (float32, float32)) Aux {
	cx, cy := toClip(x-img.Bounds().Min.X, y-img.Bounds().Min.Y)
	r, g, bl, a := normalizedRGBA(img.At(x, y))
	return Aux{ClipX: cx, ClipY: cy, R: r, G: g, B: bl, A: a}
}

func brightness(c color.Color) float32 {
	r, g, b, _ := normalizedRGBA(c)
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func normalizedRGBA(c color.Color) (r, g, b, a float32) {
	rr, gg, bb, aa := c.RGBA()
	return float32(rr) / 65535, float32(gg) / 65535, float32(bb) / 65535, float32(aa) / 65535
}

// lcg is a minimal linear congruential generator used for the §4.9
// "random" image-sample mode. Deterministic given a seed — not
// cryptographic, purely a cheap deterministic pick.
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &lcg{state: seed}
}

// next returns the next pseudo-random value using the Numerical Recipes
// LCG constants.
func (l *lcg) next() uint64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return l.state >> 16
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
