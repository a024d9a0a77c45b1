package audio

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
)

// FragmentSize is the capture fragment length in samples (~23 ms @ 44.1 kHz
// per §4.1).
const FragmentSize = 1024

// SampleRate is the fixed mono capture rate (§2, §4.1).
const SampleRate = 44100

// retryDelay is how long the capture goroutine sleeps after a transient
// backend error before retrying (§4.1).
const retryDelay = 100 * time.Millisecond

// healthLogInterval is how often the capture goroutine logs its health
// metrics (§4.1: "logged every 5 s").
const healthLogInterval = 5 * time.Second

// paStream abstracts a PortAudio input stream so capture logic can be
// exercised without real hardware.
type paStream interface {
	Start() error
	Stop() error
	Close() error
	Read() error
}

// Capture owns the native capture handle for its full lifetime (§3
// "Lifecycles") and drives a dedicated goroutine that appends fragments to
// a RingBuffer without ever blocking the frame thread (§4.1).
type Capture struct {
	Ring *RingBuffer

	deviceID int
	stream   paStream
	buf      []float32

	running  atomic.Bool
	alive    atomic.Bool // liveness flag the frame thread polls
	shutdown chan struct{}
	wg       sync.WaitGroup

	// Health metrics, read by Health() and logged every 5 s.
	reads       atomic.Uint64
	minLatency  atomic.Int64 // nanoseconds
	maxLatency  atomic.Int64
	sumLatency  atomic.Int64
	statusMu    sync.Mutex
	lastStatus  string
}

// NewCapture creates a Capture with the given device index (-1 = default)
// and ring capacity in samples. A fraction of a second of capacity (e.g. 8x
// FragmentSize, about 186 ms at 44.1 kHz) is typical; the frame thread
// drains every frame.
func NewCapture(deviceID, ringCapacity int) *Capture {
	return &Capture{
		Ring:     NewRingBuffer(ringCapacity),
		deviceID: deviceID,
		buf:      make([]float32, FragmentSize),
		shutdown: make(chan struct{}),
	}
}

// openStream is overridden in tests to avoid touching real hardware.
var openStream = func(deviceID int, buf []float32) (paStream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	dev, err := resolveDevice(devices, deviceID)
	if err != nil {
		return nil, err
	}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      SampleRate,
		FramesPerBuffer: FragmentSize,
	}
	return portaudio.OpenStream(params, buf)
}

func resolveDevice(devices []*portaudio.DeviceInfo, idx int) (*portaudio.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	return portaudio.DefaultInputDevice()
}

// Start opens the capture backend and begins the dedicated capture
// goroutine. Safe to call once; a second call is a no-op while running.
func (c *Capture) Start() error {
	if c.running.Load() {
		return nil
	}

	stream, err := openStream(c.deviceID, c.buf)
	if err != nil {
		return fmt.Errorf("open capture stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start capture stream: %w", err)
	}

	c.stream = stream
	c.shutdown = make(chan struct{})
	c.minLatency.Store(int64(time.Hour))
	c.running.Store(true)
	c.alive.Store(true)

	c.wg.Add(1)
	go c.captureLoop()
	return nil
}

// Stop halts the capture goroutine and releases the native device handle.
// Mirrors the teacher's shutdown discipline: flip the relaxed atomic and
// close the shutdown channel first, then stop the stream so a blocked Read()
// returns and the goroutine can exit before Close().
func (c *Capture) Stop() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}
	close(c.shutdown)
	if c.stream != nil {
		c.stream.Stop()
	}
	c.wg.Wait()
	if c.stream != nil {
		c.stream.Close()
	}
	c.alive.Store(false)
}

// Alive reports whether the capture goroutine is currently running. The
// frame thread polls this to surface a status message on unexpected exit
// (§4.1, §7).
func (c *Capture) Alive() bool {
	return c.alive.Load()
}

func (c *Capture) captureLoop() {
	defer c.wg.Done()
	defer c.alive.Store(false)

	ticker := time.NewTicker(healthLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.shutdown:
			return
		default:
		}

		start := time.Now()
		if err := c.stream.Read(); err != nil {
			c.setStatus(fmt.Sprintf("capture read error: %v", err))
			log.Printf("[capture] read error: %v (retrying)", err)
			select {
			case <-c.shutdown:
				return
			case <-time.After(retryDelay):
			}
			continue
		}
		latency := time.Since(start)

		c.Ring.Push(c.buf)
		c.reads.Add(1)
		c.recordLatency(latency)

		select {
		case <-ticker.C:
			c.logHealth()
		default:
		}
	}
}

func (c *Capture) recordLatency(d time.Duration) {
	ns := d.Nanoseconds()
	c.sumLatency.Add(ns)
	for {
		cur := c.minLatency.Load()
		if ns >= cur || c.minLatency.CompareAndSwap(cur, ns) {
			break
		}
	}
	for {
		cur := c.maxLatency.Load()
		if ns <= cur || c.maxLatency.CompareAndSwap(cur, ns) {
			break
		}
	}
}

// Health reports read throughput and latency stats since Start, reset on
// each logHealth call.
type Health struct {
	ReadsPerSec float64
	MinLatency  time.Duration
	AvgLatency  time.Duration
	MaxLatency  time.Duration
}

func (c *Capture) logHealth() {
	reads := c.reads.Swap(0)
	minNs := c.minLatency.Swap(int64(time.Hour))
	maxNs := c.maxLatency.Swap(0)
	sumNs := c.sumLatency.Swap(0)

	h := Health{ReadsPerSec: float64(reads) / healthLogInterval.Seconds()}
	if reads > 0 {
		h.MinLatency = time.Duration(minNs)
		h.MaxLatency = time.Duration(maxNs)
		h.AvgLatency = time.Duration(sumNs / int64(reads))
	}
	log.Printf("[capture] health reads/s=%.1f min=%v avg=%v max=%v",
		h.ReadsPerSec, h.MinLatency, h.AvgLatency, h.MaxLatency)
}

func (c *Capture) setStatus(msg string) {
	c.statusMu.Lock()
	c.lastStatus = msg
	c.statusMu.Unlock()
}

// LastStatus returns the most recent capture error message, or "" if none.
func (c *Capture) LastStatus() string {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.lastStatus
}
