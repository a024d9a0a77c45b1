package engine

import "phosphor/internal/layer"

// AdvanceMedia steps every media layer's playback transport by dt seconds
// (§2 step 7 "animated media layers advance frame indices from delay
// tables"). Webcam frames arrive through an external producer calling
// Transport.SetLiveFrame directly and need no advance here.
func (e *Engine) AdvanceMedia(dt float64) {
	for _, l := range e.Stack.Layers() {
		if l.ContentKind != layer.ContentMedia || l.Media == nil {
			continue
		}
		l.Media.Transport.Advance(l.Media.Source, dt)
	}
}
