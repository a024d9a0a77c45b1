package control

import (
	"log"
	"sync"
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// MidiListener owns a MIDI input port for its full lifetime and forwards
// decoded messages to a bounded channel, the same producer/consumer split
// as package audio's Capture: a goroutine owns the native handle and never
// touches control state directly.
type MidiListener struct {
	portName string
	messages chan MidiMessage
	stop     func()
	running  atomic.Bool
	mu       sync.Mutex
}

const midiChanCapacity = 256

// NewMidiListener creates a listener bound to portName (empty = first
// available port).
func NewMidiListener(portName string) *MidiListener {
	return &MidiListener{portName: portName, messages: make(chan MidiMessage, midiChanCapacity)}
}

// openMidiIn is overridden in tests to avoid touching real hardware.
var openMidiIn = func(portName string) (drivers.In, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, err
	}
	ins, err := drv.Ins()
	if err != nil {
		return nil, err
	}
	if len(ins) == 0 {
		return nil, errNoMidiPorts
	}
	if portName == "" {
		return ins[0], nil
	}
	for _, in := range ins {
		if in.String() == portName {
			return in, nil
		}
	}
	return nil, errNoMidiPorts
}

var errNoMidiPorts = errStr("control: no MIDI input ports available")

type errStr string

func (e errStr) Error() string { return string(e) }

// Start opens the configured MIDI port and begins listening. Safe to call
// once; a second call is a no-op while running.
func (l *MidiListener) Start() error {
	if l.running.Load() {
		return nil
	}
	in, err := openMidiIn(l.portName)
	if err != nil {
		return err
	}
	if err := in.Open(); err != nil {
		return err
	}

	stopFn, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		l.handle(msg)
	})
	if err != nil {
		in.Close()
		return err
	}
	l.mu.Lock()
	l.stop = stopFn
	l.mu.Unlock()
	l.running.Store(true)
	return nil
}

func (l *MidiListener) handle(msg midi.Message) {
	var channel, key, velocity, controller, value uint8
	var decoded MidiMessage
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		decoded = MidiMessage{Type: MidiMsgNote, Number: key, Channel: channel, Value: velocity}
	case msg.GetNoteOff(&channel, &key, &velocity):
		decoded = MidiMessage{Type: MidiMsgNote, Number: key, Channel: channel, Value: 0}
	case msg.GetControlChange(&channel, &controller, &value):
		decoded = MidiMessage{Type: MidiMsgCC, Number: controller, Channel: channel, Value: value}
	default:
		return
	}
	select {
	case l.messages <- decoded:
	default:
		log.Printf("[control] midi queue full, dropping message")
	}
}

// Stop closes the MIDI port and stops listening.
func (l *MidiListener) Stop() {
	if !l.running.CompareAndSwap(true, false) {
		return
	}
	l.mu.Lock()
	stop := l.stop
	l.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Drain non-blockingly collects every message received since the last
// call (§4.14-style per-frame drain, mirrored from the hotreload watcher).
func (l *MidiListener) Drain() []MidiMessage {
	var out []MidiMessage
	for {
		select {
		case m := <-l.messages:
			out = append(out, m)
		default:
			return out
		}
	}
}
