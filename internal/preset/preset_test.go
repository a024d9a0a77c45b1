package preset

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"phosphor/internal/layer"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.json")

	p := Preset{
		Layers: []LayerPreset{
			{EffectName: "plasma", Blend: layer.BlendAdd, Opacity: 0.8, Enabled: true},
			{MediaPath: "clip.gif", Blend: layer.BlendNormal, Opacity: 1.0, Enabled: true, MediaLooping: true},
		},
		ActiveLayer: 1,
	}
	if err := Save(path, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Layers) != 2 || got.ActiveLayer != 1 {
		t.Fatalf("round-tripped preset mismatch: %+v", got)
	}
	if got.Layers[0].EffectName != "plasma" || got.Layers[0].Blend != layer.BlendAdd {
		t.Errorf("layer 0 mismatch: %+v", got.Layers[0])
	}
	if got.Layers[1].MediaPath != "clip.gif" || !got.Layers[1].MediaLooping {
		t.Errorf("layer 1 mismatch: %+v", got.Layers[1])
	}
}

func TestUsesMediaDistinguishesWebcamFromFile(t *testing.T) {
	if (LayerPreset{MediaPath: "a.gif"}).usesMedia() != true {
		t.Error("a media path without a webcam tag should need decode")
	}
	if (LayerPreset{MediaPath: "a.gif", WebcamDevice: "cam0"}).usesMedia() != false {
		t.Error("a webcam-tagged layer should not need a decode job")
	}
	if (LayerPreset{}).usesMedia() != false {
		t.Error("an effect-only layer should not need a decode job")
	}
}

func TestWorkerDecodesStaticImage(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "frame.png")
	writeTestPNG(t, imgPath)

	w := NewWorker(nil)
	w.Start()
	defer w.Stop()

	gen := w.NextGeneration()
	w.Submit(Request{Generation: gen, Preset: Preset{Layers: []LayerPreset{{MediaPath: imgPath}}}})

	result := waitForResult(t, w)
	if !IsCurrent(result, gen) {
		t.Fatalf("result generation %d != submitted %d", result.Generation, gen)
	}
	if len(result.Decoded) != 1 || result.Decoded[0].Err != nil {
		t.Fatalf("decode failed: %+v", result.Decoded)
	}
	if result.Decoded[0].Source.Width != 2 || result.Decoded[0].Source.Height != 2 {
		t.Errorf("decoded source dims = %dx%d, want 2x2", result.Decoded[0].Source.Width, result.Decoded[0].Source.Height)
	}
}

func TestWorkerSubmitReplacesPendingRequest(t *testing.T) {
	w := NewWorker(nil)
	// Don't Start(): queue two requests back to back and verify only the
	// newest is retrievable from the single-slot channel.
	w.Submit(Request{Generation: 1})
	w.Submit(Request{Generation: 2})
	select {
	case req := <-w.reqCh:
		if req.Generation != 2 {
			t.Errorf("queued request generation = %d, want 2 (latest wins)", req.Generation)
		}
	default:
		t.Fatal("expected a pending request in the single-slot channel")
	}
}

func TestIsCurrentRejectsStaleGeneration(t *testing.T) {
	if IsCurrent(Result{Generation: 3}, 4) {
		t.Error("stale generation 3 should not be current when tracker is at 4")
	}
	if !IsCurrent(Result{Generation: 4}, 4) {
		t.Error("matching generation should be current")
	}
}

func waitForResult(t *testing.T, w *Worker) Result {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r, ok := w.Poll(); ok {
			return r
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for worker result")
	return Result{}
}

// writeTestPNG writes a minimal 2x2 opaque red PNG via the standard
// encoder, so the test doesn't depend on hand-maintained binary fixtures.
func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
}
