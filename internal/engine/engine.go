// Package engine ties the audio, beat, control, layer, preset, and
// hot-reload packages together into the single per-frame pipeline
// described in §2: audio ingest, feature extraction, beat detection,
// smoothing, control ingest, media advance, and hot-reload dispatch.
// GPU-side render orchestration (pass execution, compositing,
// post-processing) lives in packages render/compositor/postprocess and is
// driven by the caller once a device is available — Engine owns the
// CPU-side state those packages read from.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"phosphor/internal/audio"
	"phosphor/internal/beat"
	"phosphor/internal/config"
	"phosphor/internal/control"
	"phosphor/internal/dsp"
	"phosphor/internal/effect"
	"phosphor/internal/hotreload"
	"phosphor/internal/layer"
	"phosphor/internal/preset"
	"phosphor/internal/smooth"
	"phosphor/internal/statuserr"
)

// mainFFTSize is the fixed 2048-point window the primary feature
// extractor analyzes (§4.2).
const mainFFTSize = 2048

// Engine owns every CPU-side subsystem and the per-frame pipeline driving
// them (§2 steps 1, 2, 3, 4, 5, 7, 8 — step 6's GPU work is driven by the
// caller through the layer stack's runtime handles, see renderlink.go).
type Engine struct {
	Config config.Config
	Status *statuserr.Channel

	Capture *audio.Capture

	mainExtractor *dsp.SpectralExtractor
	onset         *beat.OnsetDetector
	tempo         *beat.TempoEstimator
	scheduler     *beat.Scheduler
	smoother      *smooth.Smoother

	Stack *layer.Stack

	EffectLoader *effect.Loader
	shadersRoot  string
	libDir       string
	shaderLoader *shaderLoaderAdapter

	MidiCfg      control.MidiConfig
	OscCfg       control.OscConfig
	midiState    *control.MidiState
	MidiListener *control.MidiListener
	OscListener  *control.OscListener
	WsListener   *control.WsListener

	Watcher      *hotreload.Watcher
	PresetWorker *preset.Worker
	presetGen    atomic.Uint64

	runtimes map[*layer.Layer]*LayerRuntime

	sampleBuf     []float32
	frameIndex    uint32
	overlayVisible bool
	PostProcessEnabled bool

	statusCancel context.CancelFunc
}

// New creates an Engine wired around cfg. effectsDir/shadersRoot/libDir are
// the on-disk effect/shader roots (§6); a fresh single-layer stack is
// seeded with initial, which may be nil to start with a blank effect-free
// placeholder layer the caller replaces before Start.
func New(cfg config.Config, effectsDir, shadersRoot, libDir string, initial *layer.Layer, videoProbe func(string) (int, int, [][]byte, []int, error)) (*Engine, error) {
	loader, err := effect.NewLoader(effectsDir, libDir)
	if err != nil {
		return nil, fmt.Errorf("engine: create effect loader: %w", err)
	}

	if initial == nil {
		initial = &layer.Layer{Name: "Layer 1", ContentKind: layer.ContentEffect, Blend: layer.BlendNormal, Opacity: 1, Enabled: true}
	}

	e := &Engine{
		Config:             cfg,
		Status:             statuserr.New(),
		Capture:            audio.NewCapture(cfg.CaptureDeviceID, audio.FragmentSize*8),
		mainExtractor:      dsp.NewSpectralExtractor(mainFFTSize, audio.SampleRate),
		onset:              beat.NewOnsetDetector(cfg.TargetFPS),
		tempo:              beat.NewTempoEstimator(cfg.TargetFPS),
		scheduler:          beat.NewScheduler(cfg.TargetFPS),
		smoother:           smooth.NewSmoother(),
		Stack:              layer.NewStack(initial),
		EffectLoader:       loader,
		shadersRoot:        shadersRoot,
		libDir:             libDir,
		MidiCfg:            control.DefaultMidiConfig(),
		OscCfg:             control.DefaultOscConfig(),
		midiState:          control.NewMidiState(),
		MidiListener:       control.NewMidiListener(""),
		OscListener:        control.NewOscListener(cfg.OSCListenPort),
		WsListener:         control.NewWsListener(fmt.Sprintf(":%d", cfg.WebControlPort)),
		PresetWorker:       preset.NewWorker(videoProbe),
		runtimes:           make(map[*layer.Layer]*LayerRuntime),
		PostProcessEnabled: cfg.PostProcessEnabled,
	}
	e.MidiCfg.Enabled = cfg.MIDIEnabled
	e.OscCfg.Enabled = cfg.OSCEnabled
	e.shaderLoader = newShaderLoaderAdapter(loader, shadersRoot)

	watcher, err := hotreload.New(effectsDir, shadersRoot, libDir)
	if err != nil {
		return nil, fmt.Errorf("engine: create shader watcher: %w", err)
	}
	e.Watcher = watcher

	return e, nil
}

// Start begins every background goroutine: audio capture, the configured
// control listeners, the shader watcher, and the preset decode worker.
func (e *Engine) Start() error {
	if err := e.Capture.Start(); err != nil {
		return fmt.Errorf("engine: start capture: %w", err)
	}
	if e.MidiCfg.Enabled {
		if err := e.MidiListener.Start(); err != nil {
			e.Status.Publish(fmt.Sprintf("MIDI unavailable: %v", err))
		}
	}
	if e.OscCfg.Enabled {
		if err := e.OscListener.Start(); err != nil {
			e.Status.Publish(fmt.Sprintf("OSC listener failed: %v", err))
		}
	}
	if e.Config.WebControlPort != 0 {
		if err := e.WsListener.Start(); err != nil {
			e.Status.Publish(fmt.Sprintf("WebSocket control failed: %v", err))
		}
	}
	e.PresetWorker.Start()
	if e.Config.StatusPort != 0 {
		ctx, cancel := context.WithCancel(context.Background())
		e.statusCancel = cancel
		go e.StartStatusServer(ctx, fmt.Sprintf(":%d", e.Config.StatusPort))
	}
	return nil
}

// Stop halts every background goroutine Start began.
func (e *Engine) Stop() {
	e.Capture.Stop()
	e.MidiListener.Stop()
	e.OscListener.Stop()
	e.WsListener.Stop()
	e.Watcher.Close()
	e.PresetWorker.Stop()
	if e.statusCancel != nil {
		e.statusCancel()
	}
}

// StepAudio drains whatever PCM has accumulated since the last call, runs
// it through feature extraction and the beat pipeline, and returns the
// smoothed feature vector for this frame (§2 steps 1-4). dt is the elapsed
// wall-clock time in seconds since the previous frame.
func (e *Engine) StepAudio(dt float64) dsp.FeatureVector {
	e.sampleBuf = e.Capture.Ring.Drain(e.sampleBuf[:0])

	if !e.Capture.Alive() {
		e.Status.Publish("audio capture thread is not running")
	}

	onsetResult := e.onset.Process(e.sampleBuf)
	tempoEstimate := e.tempo.Push(onsetResult.Strength)
	beatOut := e.scheduler.Process(dt, onsetResult.SustainedSilence, onsetResult, tempoEstimate)

	var fv dsp.FeatureVector
	if !onsetResult.SustainedSilence {
		desc := e.mainExtractor.Analyze(e.sampleBuf)
		fv.SubBass = desc.SubBass
		fv.Bass = desc.Bass
		fv.LowMid = desc.LowMid
		fv.Mid = desc.Mid
		fv.UpperMid = desc.UpperMid
		fv.Presence = desc.Presence
		fv.Brilliance = desc.Brilliance
		fv.Kick = desc.Kick
		fv.RMS = desc.RMS
		fv.Centroid = desc.Centroid
		fv.Flux = desc.Flux
		fv.Flatness = desc.Flatness
		fv.Rolloff = desc.Rolloff
		fv.Bandwidth = desc.Bandwidth
		fv.ZCR = desc.ZCR
	}

	fv.Onset = onsetResult.Strength
	if beatOut.IsBeat {
		fv.Beat = 1
	}
	fv.BeatPhase = beatOut.BeatPhase
	fv.BPM = float32(beatOut.BPM) / 300
	fv.BeatStrength = beatOut.BeatStrength

	smoothed := e.smoother.Process(fv, dt)
	// Beat/BeatPhase alone bypass smoothing (§4.6): Beat is a gate pulse and
	// BeatPhase is scheduler-owned, neither is a level to smooth. Onset/BPM/
	// BeatStrength go through the smoother above like every other channel.
	smoothed.Beat = fv.Beat
	smoothed.BeatPhase = fv.BeatPhase

	e.frameIndex++
	return smoothed
}

// FrameIndex returns the number of StepAudio calls made so far, used as
// the GPU uniform's frame_index field (§6).
func (e *Engine) FrameIndex() uint32 { return e.frameIndex }
