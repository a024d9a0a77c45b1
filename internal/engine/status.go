package engine

import (
	"context"
	"fmt"
	"log"

	"phosphor/internal/control"
	"phosphor/internal/effect"
	"phosphor/internal/httpstatus"
	"phosphor/internal/layer"
)

// StatusMessage returns the current visible status error, if any (§7).
// Named to avoid colliding with the exported Status field.
func (e *Engine) StatusMessage() (string, bool) { return e.Status.Current() }

// Layers returns the current layer stack's ordered layers.
func (e *Engine) Layers() []*layer.Layer { return e.Stack.Layers() }

// ActiveLayerIndex returns the index of the currently active layer.
func (e *Engine) ActiveLayerIndex() int { return e.Stack.ActiveIndex() }

// Effects lists every effect the effect loader can see.
func (e *Engine) Effects() []effect.Entry { return e.EffectLoader.List() }

// PostProcessOn reports whether the global post-process toggle is
// enabled. Named to avoid colliding with the exported PostProcessEnabled
// field.
func (e *Engine) PostProcessOn() bool { return e.PostProcessEnabled }

// ApplyTrigger applies a single trigger action directly, bypassing the
// per-frame control-ingest drain — used by out-of-band control surfaces
// like the HTTP status server's POST /trigger endpoint (§11).
func (e *Engine) ApplyTrigger(kind control.TriggerKind) { e.applyTrigger(kind) }

// StartStatusServer starts the local HTTP status/control endpoint on
// addr (e.g. ":9002") if addr is non-empty. It runs until ctx is
// cancelled; callers typically run it in its own goroutine.
func (e *Engine) StartStatusServer(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	srv := httpstatus.New(e)
	if err := srv.Run(ctx, addr); err != nil {
		log.Printf("[httpstatus] server exited: %v", err)
		e.Status.Publish(fmt.Sprintf("status server failed: %v", err))
	}
}
