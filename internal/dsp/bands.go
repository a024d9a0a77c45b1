package dsp

// SevenBand is the 7-field band-energy breakdown of the full feature vector
// (§3: sub_bass, bass, low_mid, mid, upper_mid, presence, brilliance).
// §4.2 only specifies the 3 coarse calibration bands (bass/mid/treble); this
// splits those into the 7 output bands the feature vector needs, reusing the
// 250, 2000 and 4000 Hz edges of the onset detector's own 4-band split
// (§4.3: 20-80, 80-250, 500-2000, 2000-4000 Hz) but with sub-bass as 0-60 Hz,
// and covering the full spectrum contiguously. See DESIGN.md (internal/dsp)
// for how the 3 calibration gains map onto the 7 bands.
type SevenBand struct {
	SubBass    float32
	Bass       float32
	LowMid     float32
	Mid        float32
	UpperMid   float32
	Presence   float32
	Brilliance float32
	Kick       float32
}

// sevenBandEdges are the Hz boundaries of the 7 contiguous bands, low to
// high, covering [0, Nyquist).
var sevenBandEdges = [8]float64{0, 60, 250, 500, 2000, 4000, 6000, -1 /* nyquist */}

// ComputeSevenBand splits the magnitude spectrum into the 7 output bands.
// kick is estimated as the sub-bass band's energy scaled by an extra gain,
// intended to be fed through a fast-attack/fast-release smoother (package
// smooth) to produce a punchy transient estimator rather than a sustained
// level.
func ComputeSevenBand(mag []float64, binHz, nyquist float64) SevenBand {
	edges := sevenBandEdges
	edges[7] = nyquist

	gains := [7]float64{bassGain, bassGain, midGain, midGain, midGain, trebleGain, trebleGain}
	var b SevenBand
	vals := [7]*float32{&b.SubBass, &b.Bass, &b.LowMid, &b.Mid, &b.UpperMid, &b.Presence, &b.Brilliance}
	for i := 0; i < 7; i++ {
		*vals[i] = bandRMS(mag, binHz, edges[i], edges[i+1], gains[i])
	}
	// Kick: sub-bass energy with extra emphasis so transient attacks (the
	// smoother's fast attack_tau on this field) read as punchy hits rather
	// than a slowly rising sub-bass level.
	b.Kick = bandRMS(mag, binHz, edges[0], edges[1], bassGain*1.6)
	return b
}
