package dsp

import "math"

// HannWindow returns a newly allocated Hann window of length n. The
// analyzer calls it once per resolution and keeps the result, rather than
// recomputing it once per frame.
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
