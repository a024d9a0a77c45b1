package control

import (
	"encoding/json"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// WsMessage is the JSON shape a WebSocket control client sends: one
// structured action per message, the same action vocabulary as MIDI/OSC
// (§6 "External control (structured, not wire protocol)").
type WsMessage struct {
	Kind        string   `json:"kind"`
	ParamName   string   `json:"param_name,omitempty"`
	LayerIndex  int      `json:"layer_index,omitempty"`
	FloatValue  *float32 `json:"float_value,omitempty"`
	BoolValue   *bool    `json:"bool_value,omitempty"`
	Opacity     *float32 `json:"opacity,omitempty"`
	Blend       *string  `json:"blend,omitempty"`
	Enabled     *bool    `json:"enabled,omitempty"`
	Trigger     string   `json:"trigger,omitempty"`
	EffectIndex int      `json:"effect_index,omitempty"`
	PresetIndex int      `json:"preset_index,omitempty"`
}

// IngestWs converts one frame's drained WsMessage batch into Actions.
// activeLayerLocked suppresses param_active/param_layer writes only, same
// rule as MIDI and OSC.
func IngestWs(messages []WsMessage, activeLayerLocked bool) []Action {
	var actions []Action
	for _, m := range messages {
		switch m.Kind {
		case "param_active":
			if activeLayerLocked {
				continue
			}
			if pv, ok := wsParamValue(m); ok {
				actions = append(actions, Action{Kind: ActionParamActive, ParamName: m.ParamName, ParamValue: pv, Source: SourceWebSocket})
			}
		case "param_layer":
			if activeLayerLocked {
				continue
			}
			if pv, ok := wsParamValue(m); ok {
				actions = append(actions, Action{Kind: ActionParamLayer, ParamName: m.ParamName, LayerIndex: m.LayerIndex, ParamValue: pv, Source: SourceWebSocket})
			}
		case "layer_write":
			actions = append(actions, Action{Kind: ActionLayerWrite, LayerIndex: m.LayerIndex, Opacity: m.Opacity, Blend: m.Blend, Enabled: m.Enabled, Source: SourceWebSocket})
		case "postprocess_toggle":
			actions = append(actions, Action{Kind: ActionPostProcessToggle, PostProcessEnabled: m.Enabled != nil && *m.Enabled, Source: SourceWebSocket})
		case "trigger":
			if kind, ok := wsTriggerKind(m.Trigger); ok {
				actions = append(actions, Action{Kind: ActionTrigger, Trigger: kind, Source: SourceWebSocket})
			}
		case "select_layer":
			actions = append(actions, Action{Kind: ActionSelectLayer, LayerIndex: m.LayerIndex, Source: SourceWebSocket})
		case "load_effect":
			actions = append(actions, Action{Kind: ActionLoadEffect, EffectIndex: m.EffectIndex, Source: SourceWebSocket})
		case "load_preset":
			actions = append(actions, Action{Kind: ActionLoadPreset, PresetIndex: m.PresetIndex, Source: SourceWebSocket})
		}
	}
	return actions
}

func wsParamValue(m WsMessage) (ParamValue, bool) {
	if m.FloatValue != nil {
		return ParamValue{Float: *m.FloatValue}, true
	}
	if m.BoolValue != nil {
		return ParamValue{IsBool: true, Bool: *m.BoolValue}, true
	}
	return ParamValue{}, false
}

func wsTriggerKind(name string) (TriggerKind, bool) {
	for kind, n := range triggerKindNames {
		if n == name {
			return kind, true
		}
	}
	return 0, false
}

const wsChanCapacity = 256

// WsListener runs a small WebSocket control endpoint: each connection is
// served on its own goroutine (concurrent connections are not limited), each
// text frame a WsMessage (§6). Grounded in the
// teacher's `client`/`server` pair using gorilla/websocket for its realtime
// transport.
type WsListener struct {
	addr     string
	upgrader websocket.Upgrader
	messages chan WsMessage
	server   *http.Server
	running  atomic.Bool
}

// NewWsListener creates a listener that will serve ws:// connections at
// addr (e.g. ":7890").
func NewWsListener(addr string) *WsListener {
	return &WsListener{
		addr:     addr,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		messages: make(chan WsMessage, wsChanCapacity),
	}
}

// Start begins serving the WebSocket endpoint in a dedicated goroutine.
func (l *WsListener) Start() error {
	if l.running.Load() {
		return nil
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/control", l.handleConn)
	l.server = &http.Server{Addr: l.addr, Handler: mux}
	l.running.Store(true)
	go func() {
		if err := l.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[control] websocket server exited: %v", err)
		}
		l.running.Store(false)
	}()
	return nil
}

func (l *WsListener) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[control] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg WsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[control] websocket decode error: %v", err)
			continue
		}
		select {
		case l.messages <- msg:
		default:
			log.Printf("[control] websocket queue full, dropping message")
		}
	}
}

// Stop shuts down the HTTP server.
func (l *WsListener) Stop() {
	if !l.running.CompareAndSwap(true, false) {
		return
	}
	if l.server != nil {
		l.server.Close()
	}
}

// Drain non-blockingly collects every message received since the last call.
func (l *WsListener) Drain() []WsMessage {
	var out []WsMessage
	for {
		select {
		case m := <-l.messages:
			out = append(out, m)
		default:
			return out
		}
	}
}
