// Package control implements the external-control ingest pipeline: MIDI,
// OSC, and WebSocket sources each produce the same structured Action set
// per frame (§6 "External control"), drained in a fixed order so
// conflicting writes from different sources resolve deterministically
// (§5 "Control ingest order... MIDI -> OSC -> WebSocket, last-writer-wins").
package control

// TriggerKind enumerates the one-shot trigger actions (§6).
type TriggerKind int

const (
	TriggerNextEffect TriggerKind = iota
	TriggerPrevEffect
	TriggerNextPreset
	TriggerPrevPreset
	TriggerNextLayer
	TriggerPrevLayer
	TriggerTogglePostProcess
	TriggerToggleOverlay
)

// ActionKind tags Action's variant.
type ActionKind int

const (
	ActionParamActive ActionKind = iota // parameter write to the active layer
	ActionParamLayer                    // parameter write to a specific layer index
	ActionLayerWrite                    // opacity/blend/enabled write to a specific layer index
	ActionPostProcessToggle
	ActionTrigger
	ActionSelectLayer
	ActionLoadEffect
	ActionLoadPreset
)

// ParamValue is the minimal float-or-bool payload a control source can
// write to a parameter (§4.7's Float/Bool params are the only ones a
// single CC/OSC float or WS message maps onto; Color/Point2D are not
// mappable via one scalar control).
type ParamValue struct {
	IsBool bool
	Float  float32
	Bool   bool
}

// Action is the tagged-union control action every source (MIDI, OSC, WS)
// produces (§6). Only the fields relevant to Kind are populated.
type Action struct {
	Kind ActionKind

	ParamName  string
	ParamValue ParamValue
	LayerIndex int

	Opacity *float32
	Blend   *string // blend mode name; nil means "leave unchanged"
	Enabled *bool

	PostProcessEnabled bool
	Trigger            TriggerKind
	EffectIndex        int
	PresetIndex        int

	// Source identifies which ingest source produced this action, used only
	// for drain-order bookkeeping (§5 "last-writer-wins").
	Source Source
}

// Source identifies a control ingest source, used to fix drain order.
type Source int

const (
	SourceMIDI Source = iota
	SourceOSC
	SourceWebSocket
)
