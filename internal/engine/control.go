package engine

import (
	"fmt"

	"github.com/google/uuid"

	"phosphor/internal/control"
	"phosphor/internal/layer"
	"phosphor/internal/params"
)

// DrainControl collects one frame's worth of actions from every configured
// control source and resolves them to the fixed MIDI -> OSC -> WebSocket,
// last-writer-wins order (§5, §6).
func (e *Engine) DrainControl() []control.Action {
	active := e.Stack.Active()
	locked := active != nil && active.Locked

	info := paramInfoForLayer(active)

	var midiActions, oscActions, wsActions []control.Action
	if e.MidiCfg.Enabled {
		midiActions = control.IngestMidi(e.MidiListener.Drain(), e.MidiCfg, info, e.midiState, locked)
	}
	if e.OscCfg.Enabled {
		oscActions = control.IngestOsc(e.OscListener.Drain(), e.OscCfg, info, locked)
	}
	wsActions = control.IngestWs(e.WsListener.Drain(), locked)

	return control.ResolveLastWriterWins(control.Merge(midiActions, oscActions, wsActions))
}

// paramInfoForLayer builds the control.ParamInfo lookup table a control
// ingest function needs from the active layer's effect parameter store —
// only Float and Bool params are mappable from a single scalar control
// value (§6).
func paramInfoForLayer(l *layer.Layer) map[string]control.ParamInfo {
	if l == nil || l.ContentKind != layer.ContentEffect || l.Effect == nil {
		return nil
	}
	info := make(map[string]control.ParamInfo)
	for _, d := range l.Effect.Params.Defs() {
		switch d.Type {
		case params.KindFloat:
			info[d.Name] = control.ParamInfo{Kind: control.ParamKindFloat, FloatMin: d.FloatMin, FloatMax: d.FloatMax}
		case params.KindBool:
			info[d.Name] = control.ParamInfo{Kind: control.ParamKindBool}
		}
	}
	return info
}

// ApplyAction applies one resolved control action to the layer stack
// (§5, §6). Trigger actions with no meaningful engine-level effect (e.g.
// toggle_overlay, which the UI layer owns) still flip Engine-visible state
// so the contract is honored even though the overlay itself is out of
// scope here.
func (e *Engine) ApplyAction(a control.Action) {
	switch a.Kind {
	case control.ActionParamActive:
		e.writeParam(e.Stack.Active(), a)
	case control.ActionParamLayer:
		e.writeParam(e.Stack.At(a.LayerIndex), a)
	case control.ActionLayerWrite:
		e.applyLayerWrite(a)
	case control.ActionPostProcessToggle:
		e.PostProcessEnabled = a.PostProcessEnabled
	case control.ActionTrigger:
		e.applyTrigger(a.Trigger)
	case control.ActionSelectLayer:
		if err := e.Stack.SetActive(a.LayerIndex); err != nil {
			e.Status.Publish(err.Error())
		}
	case control.ActionLoadEffect:
		e.loadEffectByIndex(a.EffectIndex)
	case control.ActionLoadPreset:
		// Resolving a preset index to a path is an editor/UI concern (§1
		// "out of scope: scene timeline"); callers that maintain a preset
		// list should translate this into RequestPreset themselves.
	}
}

func (e *Engine) writeParam(l *layer.Layer, a control.Action) {
	if l == nil || l.Locked || l.ContentKind != layer.ContentEffect || l.Effect == nil {
		return
	}
	cur, ok := l.Effect.Params.Get(a.ParamName)
	if !ok {
		return
	}
	switch cur.Kind {
	case params.KindFloat:
		cur.Float = a.ParamValue.Float
	case params.KindBool:
		cur.Bool = a.ParamValue.Bool
	default:
		return
	}
	l.Effect.Params.Set(a.ParamName, cur)
}

func (e *Engine) applyLayerWrite(a control.Action) {
	l := e.Stack.At(a.LayerIndex)
	if l == nil {
		return
	}
	if a.Opacity != nil {
		l.Opacity = *a.Opacity
	}
	if a.Blend != nil {
		if mode, err := layer.ParseBlendMode(*a.Blend); err == nil {
			l.Blend = mode
		}
	}
	if a.Enabled != nil {
		l.Enabled = *a.Enabled
	}
}

func (e *Engine) applyTrigger(kind control.TriggerKind) {
	switch kind {
	case control.TriggerNextLayer:
		e.cycleActiveLayer(1)
	case control.TriggerPrevLayer:
		e.cycleActiveLayer(-1)
	case control.TriggerNextEffect:
		e.cycleEffect(1)
	case control.TriggerPrevEffect:
		e.cycleEffect(-1)
	case control.TriggerTogglePostProcess:
		e.PostProcessEnabled = !e.PostProcessEnabled
	case control.TriggerToggleOverlay:
		e.overlayVisible = !e.overlayVisible
	case control.TriggerNextPreset, control.TriggerPrevPreset:
		// Preset cycling needs a preset list, which is an editor/UI
		// concern (§1 out of scope); left for the caller to wire.
	}
}

func (e *Engine) cycleActiveLayer(delta int) {
	n := e.Stack.Len()
	if n == 0 {
		return
	}
	next := ((e.Stack.ActiveIndex()+delta)%n + n) % n
	e.Stack.SetActive(next)
}

func (e *Engine) cycleEffect(delta int) {
	l := e.Stack.Active()
	if l == nil || l.ContentKind != layer.ContentEffect || l.Effect == nil {
		return
	}
	entries := e.EffectLoader.List()
	if len(entries) == 0 {
		return
	}
	next := ((l.Effect.EffectIndex+delta)%len(entries) + len(entries)) % len(entries)
	e.loadEffectByIndex(next)
}

func (e *Engine) loadEffectByIndex(index int) {
	l := e.Stack.Active()
	if l == nil {
		return
	}
	desc, err := e.EffectLoader.LoadByIndex(index)
	if err != nil {
		e.Status.Publish(fmt.Sprintf("effect load error: %v", err))
		if l.Effect == nil {
			l.Effect = &layer.EffectContent{InstanceID: uuid.NewString()}
		}
		l.Effect.EffectIndex = index
		l.Effect.LoadError = err.Error()
		l.ContentKind = layer.ContentEffect
		return
	}
	store := params.NewStore()
	store.LoadDefs(desc.Inputs)
	l.ContentKind = layer.ContentEffect
	l.Effect = &layer.EffectContent{InstanceID: uuid.NewString(), EffectName: desc.Name, EffectIndex: index, Desc: desc, Params: store}
	l.Media = nil
}

// OverlayVisible reports the current state of the toggle_overlay trigger
// contract, for a caller that owns the actual overlay UI.
func (e *Engine) OverlayVisible() bool { return e.overlayVisible }
