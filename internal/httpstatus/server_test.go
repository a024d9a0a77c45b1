package httpstatus

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"phosphor/internal/control"
	"phosphor/internal/effect"
	"phosphor/internal/layer"
)

type fakeSource struct {
	status        string
	statusOK      bool
	frameIndex    uint32
	layers        []*layer.Layer
	activeLayer   int
	effects       []effect.Entry
	postProcess   bool
	lastTriggered control.TriggerKind
	triggered     bool
}

func (f *fakeSource) StatusMessage() (string, bool)      { return f.status, f.statusOK }
func (f *fakeSource) FrameIndex() uint32                 { return f.frameIndex }
func (f *fakeSource) Layers() []*layer.Layer             { return f.layers }
func (f *fakeSource) ActiveLayerIndex() int              { return f.activeLayer }
func (f *fakeSource) Effects() []effect.Entry            { return f.effects }
func (f *fakeSource) PostProcessOn() bool                { return f.postProcess }
func (f *fakeSource) ApplyTrigger(k control.TriggerKind) { f.lastTriggered = k; f.triggered = true }

func newFixture() *fakeSource {
	return &fakeSource{
		status:      "capture thread is not running",
		statusOK:    true,
		frameIndex:  42,
		activeLayer: 0,
		postProcess: true,
		layers: []*layer.Layer{
			{Name: "Layer 1", ContentKind: layer.ContentEffect, Blend: layer.BlendAdd, Opacity: 1, Enabled: true},
			{Name: "Layer 2", ContentKind: layer.ContentMedia, Blend: layer.BlendNormal, Opacity: 0.5, Locked: true},
		},
		effects: []effect.Entry{
			{Index: 0, Path: "assets/effects/plasma.pfx", Desc: effect.Descriptor{Name: "plasma"}},
			{Index: 1, Path: "assets/effects/broken.pfx", Err: errBroken},
		},
	}
}

var errBroken = jsonError("parse error")

type jsonError string

func (e jsonError) Error() string { return string(e) }

func TestHandleStatus(t *testing.T) {
	src := newFixture()
	srv := New(src)
	ts := httptest.NewServer(srv.Echo())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.FrameIndex != 42 {
		t.Errorf("expected frame_index 42, got %d", got.FrameIndex)
	}
	if !got.PostProcessEnabled {
		t.Error("expected post_process_enabled true")
	}
	if len(got.Layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(got.Layers))
	}
	if got.Layers[0].Kind != "effect" || got.Layers[1].Kind != "media" {
		t.Errorf("unexpected layer kinds: %+v", got.Layers)
	}
	if got.Layers[0].Blend != "Add" {
		t.Errorf("expected blend Add, got %q", got.Layers[0].Blend)
	}
	if got.StatusMessage != src.status {
		t.Errorf("expected status message %q, got %q", src.status, got.StatusMessage)
	}
}

func TestHandleEffects(t *testing.T) {
	src := newFixture()
	srv := New(src)
	ts := httptest.NewServer(srv.Echo())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/effects")
	if err != nil {
		t.Fatalf("GET /effects: %v", err)
	}
	defer resp.Body.Close()
	var got []effectEntry
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 effects, got %d", len(got))
	}
	if got[0].Name != "plasma" || got[0].Error != "" {
		t.Errorf("unexpected effect[0]: %+v", got[0])
	}
	if got[1].Error != "parse error" {
		t.Errorf("expected effect[1] to carry its load error, got %+v", got[1])
	}
}

func TestHandleTrigger(t *testing.T) {
	src := newFixture()
	srv := New(src)
	ts := httptest.NewServer(srv.Echo())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/trigger/next_effect", "", nil)
	if err != nil {
		t.Fatalf("POST /trigger/next_effect: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if !src.triggered || src.lastTriggered != control.TriggerNextEffect {
		t.Errorf("expected TriggerNextEffect to be applied, got triggered=%v kind=%v", src.triggered, src.lastTriggered)
	}

	resp2, err := http.Post(ts.URL+"/trigger/does_not_exist", "", nil)
	if err != nil {
		t.Fatalf("POST /trigger/does_not_exist: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown trigger, got %d", resp2.StatusCode)
	}
}
