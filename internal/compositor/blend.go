// Package compositor blends N layer render targets into one HDR target
// via a ping-pong accumulator (§4.10).
package compositor

import "phosphor/internal/layer"

// BlendRGB applies mode to a background/foreground RGB pair at the given
// opacity, in linear RGB space (§4.10). Inputs and outputs are in [0,1]
// (HDR values above 1 pass through the formulas unclamped, matching a
// shader's behavior).
func BlendRGB(mode layer.BlendMode, bg, fg [3]float32, opacity float32) [3]float32 {
	switch mode {
	case layer.BlendAdd:
		return [3]float32{bg[0] + fg[0]*opacity, bg[1] + fg[1]*opacity, bg[2] + fg[2]*opacity}
	case layer.BlendMultiply:
		return lerp3(bg, mul3(bg, fg), opacity)
	case layer.BlendScreen:
		return lerp3(bg, screen3(bg, fg), opacity)
	case layer.BlendOverlay:
		return lerp3(bg, overlay3(bg, fg), opacity)
	case layer.BlendSoftLight:
		return lerp3(bg, softLight3(bg, fg), opacity)
	case layer.BlendDifference:
		return lerp3(bg, diff3(bg, fg), opacity)
	default: // BlendNormal
		return lerp3(bg, fg, opacity)
	}
}

// AlphaOut computes the output alpha for a composite: max(bg.a, fg.a *
// opacity) (§4.10).
func AlphaOut(bgA, fgA, opacity float32) float32 {
	fa := fgA * opacity
	if bgA > fa {
		return bgA
	}
	return fa
}

func lerp3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{lerp(a[0], b[0], t), lerp(a[1], b[1], t), lerp(a[2], b[2], t)}
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func mul3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func screen3(bg, fg [3]float32) [3]float32 {
	return [3]float32{screen(bg[0], fg[0]), screen(bg[1], fg[1]), screen(bg[2], fg[2])}
}

func screen(a, b float32) float32 { return 1 - (1-a)*(1-b) }

func overlay3(bg, fg [3]float32) [3]float32 {
	return [3]float32{overlay(bg[0], fg[0]), overlay(bg[1], fg[1]), overlay(bg[2], fg[2])}
}

// overlay is the standard Porter-Duff-style overlay formula: multiply when
// the background is dark, screen when it's light (§4.10).
func overlay(bg, fg float32) float32 {
	if bg <= 0.5 {
		return 2 * bg * fg
	}
	return 1 - 2*(1-bg)*(1-fg)
}

func softLight3(bg, fg [3]float32) [3]float32 {
	return [3]float32{softLight(bg[0], fg[0]), softLight(bg[1], fg[1]), softLight(bg[2], fg[2])}
}

// softLight follows the W3C compositing soft-light formula (the piecewise
// D(bg) term for bg <= 0.25).
func softLight(bg, fg float32) float32 {
	if fg <= 0.5 {
		return bg - (1-2*fg)*bg*(1-bg)
	}
	var d float32
	if bg <= 0.25 {
		d = ((16*bg-12)*bg + 4) * bg
	} else {
		d = sqrtf(bg)
	}
	return bg + (2*fg-1)*(d-bg)
}

func sqrtf(x float32) float32 {
	// Small fixed-point-free Newton iteration; avoids importing math for a
	// single call site used only by soft-light's bg>0.25 branch.
	if x <= 0 {
		return 0
	}
	z := x
	for i := 0; i < 6; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

func diff3(bg, fg [3]float32) [3]float32 {
	return [3]float32{absf(bg[0] - fg[0]), absf(bg[1] - fg[1]), absf(bg[2] - fg[2])}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
