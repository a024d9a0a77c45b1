package control

// MidiMsgType distinguishes the CC and Note message families a mapping
// can bind to (grounded in original_source's MidiMsgType).
type MidiMsgType int

const (
	MidiMsgCC MidiMsgType = iota
	MidiMsgNote
)

// MidiMessage is one decoded incoming MIDI event.
type MidiMessage struct {
	Type    MidiMsgType
	Number  uint8 // CC number or note number
	Channel uint8
	Value   uint8 // 0-127
}

// MidiMapping binds a CC/note number + channel to either a parameter name
// or a trigger action (original_source's MidiMapping).
type MidiMapping struct {
	Number  uint8       `json:"number"`
	Channel uint8       `json:"channel"`
	Type    MidiMsgType `json:"type"`
}

// Matches reports whether msg was produced by the control bound to m.
func (m MidiMapping) Matches(msg MidiMessage) bool {
	return m.Number == msg.Number && m.Channel == msg.Channel && m.Type == msg.Type
}

// Scale maps a raw 0-127 MIDI value to a normalized 0..1 float.
func (m MidiMapping) Scale(value uint8) float32 {
	return float32(value) / 127.0
}

// MidiConfig is the persisted `phosphor/midi.json` control mapping (§6
// "Control configs under phosphor/{midi,osc,web}.json").
type MidiConfig struct {
	PortName string                        `json:"port_name,omitempty"`
	Enabled  bool                          `json:"enabled"`
	Params   map[string]MidiMapping        `json:"params"`
	Triggers map[TriggerKind]MidiMapping   `json:"triggers"`
}

// DefaultMidiConfig returns an empty, disabled-by-default mapping set.
func DefaultMidiConfig() MidiConfig {
	return MidiConfig{
		Enabled:  false,
		Params:   make(map[string]MidiMapping),
		Triggers: make(map[TriggerKind]MidiMapping),
	}
}

// triggerThreshold is the §"~0.5 in MIDI range" rising-edge threshold a
// CC/note value must cross to fire a mapped trigger.
const triggerThreshold uint8 = 64

// MidiState carries the rising-edge memory Ingest needs across frames —
// kept outside MidiConfig so the config itself stays a plain serializable
// value.
type MidiState struct {
	prevTriggerValue map[TriggerKind]uint8
}

// NewMidiState creates empty rising-edge tracking state.
func NewMidiState() *MidiState {
	return &MidiState{prevTriggerValue: make(map[TriggerKind]uint8)}
}

// paramKind is the minimal parameter-type knowledge Ingest needs to decide
// how to scale a CC value onto a parameter (mirrors params.Kind without an
// import cycle back onto the params package's ParamDef specifics).
type paramKind int

const (
	ParamKindFloat paramKind = iota
	ParamKindBool
)

// ParamInfo is the subset of a parameter's definition Ingest needs: its
// kind and, for floats, the min/max range a 0..1 scaled CC value maps onto.
type ParamInfo struct {
	Kind     paramKind
	FloatMin float32
	FloatMax float32
}

// IngestMidi converts a drained batch of MidiMessage into Actions per
// cfg's mappings (grounded in original_source's MidiSystem::update): param
// mappings produce immediate writes, trigger mappings fire only on a
// rising edge across the threshold. activeLayerLocked suppresses param
// writes but not triggers (§5 "A locked layer refuses parameter writes but
// still allows triggers").
func IngestMidi(messages []MidiMessage, cfg MidiConfig, paramInfo map[string]ParamInfo, state *MidiState, activeLayerLocked bool) []Action {
	if !cfg.Enabled {
		return nil
	}
	var actions []Action
	for _, msg := range messages {
		if !activeLayerLocked {
			if name, mapping, ok := findParamMapping(cfg, msg); ok {
				if info, ok := paramInfo[name]; ok {
					scaled := mapping.Scale(msg.Value)
					switch info.Kind {
					case ParamKindFloat:
						val := info.FloatMin + (info.FloatMax-info.FloatMin)*scaled
						actions = append(actions, Action{Kind: ActionParamActive, ParamName: name, ParamValue: ParamValue{Float: val}, Source: SourceMIDI})
					case ParamKindBool:
						actions = append(actions, Action{Kind: ActionParamActive, ParamName: name, ParamValue: ParamValue{IsBool: true, Bool: scaled > 0.5}, Source: SourceMIDI})
					}
				}
			}
		}

		if kind, mapping, ok := findTriggerMapping(cfg, msg); ok {
			prev := state.prevTriggerValue[kind]
			if msg.Value >= triggerThreshold && prev < triggerThreshold {
				actions = append(actions, Action{Kind: ActionTrigger, Trigger: kind, Source: SourceMIDI})
			}
			_ = mapping
			state.prevTriggerValue[kind] = msg.Value
		}
	}
	return actions
}

func findParamMapping(cfg MidiConfig, msg MidiMessage) (string, MidiMapping, bool) {
	for name, mapping := range cfg.Params {
		if mapping.Matches(msg) {
			return name, mapping, true
		}
	}
	return "", MidiMapping{}, false
}

func findTriggerMapping(cfg MidiConfig, msg MidiMessage) (TriggerKind, MidiMapping, bool) {
	for kind, mapping := range cfg.Triggers {
		if mapping.Matches(msg) {
			return kind, mapping, true
		}
	}
	return 0, MidiMapping{}, false
}

// MarshalText encodes TriggerKind as its stable name so midi.json stays
// readable and stable across enum reordering. Used (rather than
// MarshalJSON) because TriggerKind appears as a map key in MidiConfig.Triggers,
// and encoding/json only consults TextMarshaler for non-string map keys.
func (k TriggerKind) MarshalText() ([]byte, error) {
	return []byte(triggerKindNames[k]), nil
}

// UnmarshalText decodes a trigger kind name back to its enum value.
func (k *TriggerKind) UnmarshalText(data []byte) error {
	name := string(data)
	for kind, n := range triggerKindNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	return &unknownTriggerKindError{name}
}

var triggerKindNames = map[TriggerKind]string{
	TriggerNextEffect:        "next_effect",
	TriggerPrevEffect:        "prev_effect",
	TriggerNextPreset:        "next_preset",
	TriggerPrevPreset:        "prev_preset",
	TriggerNextLayer:         "next_layer",
	TriggerPrevLayer:         "prev_layer",
	TriggerTogglePostProcess: "toggle_postprocess",
	TriggerToggleOverlay:     "toggle_overlay",
}

type unknownTriggerKindError struct{ name string }

func (e *unknownTriggerKindError) Error() string {
	return "control: unknown trigger kind " + e.name
}
