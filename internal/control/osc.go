package control

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/hypebeast/go-osc/osc"
)

// OscMapping binds an OSC address to either a parameter name or a trigger
// (§6 "Control configs under phosphor/{midi,osc,web}.json").
type OscMapping struct {
	Address string `json:"address"`
}

// OscConfig is the persisted `phosphor/osc.json` control mapping.
type OscConfig struct {
	ListenPort int                        `json:"listen_port"`
	Enabled    bool                       `json:"enabled"`
	Params     map[string]OscMapping      `json:"params"`
	Triggers   map[TriggerKind]OscMapping `json:"triggers"`
}

// DefaultOscConfig returns a disabled-by-default mapping listening on the
// conventional OSC control port.
func DefaultOscConfig() OscConfig {
	return OscConfig{
		ListenPort: 9000,
		Enabled:    false,
		Params:     make(map[string]OscMapping),
		Triggers:   make(map[TriggerKind]OscMapping),
	}
}

// OscMessage is one decoded incoming OSC message: an address plus its
// first float argument (§6 scalar parameter writes — OSC messages with no
// float argument are treated as pure triggers).
type OscMessage struct {
	Address string
	Value   float32
	HasValue bool
}

// IngestOsc mirrors IngestMidi's shape for OSC messages: param mappings by
// address produce immediate writes (value assumed pre-normalized to 0..1
// by convention, same as most OSC control surfaces), trigger mappings by
// address fire every message (OSC has no intrinsic rising edge — a control
// surface sends one message per button press).
func IngestOsc(messages []OscMessage, cfg OscConfig, paramInfo map[string]ParamInfo, activeLayerLocked bool) []Action {
	if !cfg.Enabled {
		return nil
	}
	var actions []Action
	for _, msg := range messages {
		if !activeLayerLocked {
			if name, ok := findOscParam(cfg, msg.Address); ok && msg.HasValue {
				if info, ok := paramInfo[name]; ok {
					switch info.Kind {
					case ParamKindFloat:
						val := info.FloatMin + (info.FloatMax-info.FloatMin)*msg.Value
						actions = append(actions, Action{Kind: ActionParamActive, ParamName: name, ParamValue: ParamValue{Float: val}, Source: SourceOSC})
					case ParamKindBool:
						actions = append(actions, Action{Kind: ActionParamActive, ParamName: name, ParamValue: ParamValue{IsBool: true, Bool: msg.Value > 0.5}, Source: SourceOSC})
					}
				}
			}
		}
		if kind, ok := findOscTrigger(cfg, msg.Address); ok {
			actions = append(actions, Action{Kind: ActionTrigger, Trigger: kind, Source: SourceOSC})
		}
	}
	return actions
}

func findOscParam(cfg OscConfig, address string) (string, bool) {
	for name, mapping := range cfg.Params {
		if mapping.Address == address {
			return name, true
		}
	}
	return "", false
}

func findOscTrigger(cfg OscConfig, address string) (TriggerKind, bool) {
	for kind, mapping := range cfg.Triggers {
		if mapping.Address == address {
			return kind, true
		}
	}
	return 0, false
}

const oscChanCapacity = 256

// OscListener owns a go-osc server for its full lifetime, decoding
// incoming messages into OscMessage and forwarding them to a bounded
// channel (same shape as MidiListener / package audio's Capture).
type OscListener struct {
	port     int
	server   *osc.Server
	messages chan OscMessage
	running  atomic.Bool
}

// NewOscListener creates a listener bound to the given UDP port.
func NewOscListener(port int) *OscListener {
	return &OscListener{port: port, messages: make(chan OscMessage, oscChanCapacity)}
}

// Start begins listening for OSC messages in a dedicated goroutine.
func (l *OscListener) Start() error {
	if l.running.Load() {
		return nil
	}
	d := osc.NewStandardDispatcher()
	if err := d.AddMsgHandler("*", func(msg *osc.Message) {
		l.handle(msg)
	}); err != nil {
		return fmt.Errorf("control: register osc handler: %w", err)
	}
	l.server = &osc.Server{Addr: fmt.Sprintf(":%d", l.port), Dispatcher: d}
	l.running.Store(true)
	go func() {
		if err := l.server.ListenAndServe(); err != nil {
			log.Printf("[control] osc server exited: %v", err)
		}
		l.running.Store(false)
	}()
	return nil
}

func (l *OscListener) handle(msg *osc.Message) {
	decoded := OscMessage{Address: msg.Address}
	if len(msg.Arguments) > 0 {
		if f, ok := msg.Arguments[0].(float32); ok {
			decoded.Value = f
			decoded.HasValue = true
		}
	}
	select {
	case l.messages <- decoded:
	default:
		log.Printf("[control] osc queue full, dropping message for %s", msg.Address)
	}
}

// Drain non-blockingly collects every message received since the last call.
func (l *OscListener) Drain() []OscMessage {
	var out []OscMessage
	for {
		select {
		case m := <-l.messages:
			out = append(out, m)
		default:
			return out
		}
	}
}
