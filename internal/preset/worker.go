package preset

import (
	"sync"
	"sync/atomic"

	"phosphor/internal/media"
)

// Request carries a preset to decode, tagged with the generation it was
// submitted at (§4.15 "each request carries a monotonically-increasing
// generation number").
type Request struct {
	Generation uint64
	Preset     Preset
}

// DecodedLayer is one layer preset's pre-decoded media source, if it has
// one (§4.15 "pre-decoded source").
type DecodedLayer struct {
	Index  int
	Source media.Source
	Err    error
}

// Result is a completed decode job, tagged with the generation it answers
// (§4.15 "sends result with its generation").
type Result struct {
	Generation uint64
	Preset     Preset
	Decoded    []DecodedLayer
}

// Worker decodes presets' media layers off the frame thread (§4.15). It
// owns a single-slot request channel: Submit always replaces any
// not-yet-picked-up request rather than blocking, so the frame thread
// never waits on the worker.
type Worker struct {
	reqCh    chan Request
	resultCh chan Result
	done     chan struct{}
	wg       sync.WaitGroup
	running  atomic.Bool
	probe    media.VideoProbe
	nextGen  atomic.Uint64
}

// NewWorker creates a Worker; probe may be nil if no video decode backend
// is configured (video-layer presets will then fail with a descriptive
// error rather than hang).
func NewWorker(probe media.VideoProbe) *Worker {
	return &Worker{
		reqCh:    make(chan Request, 1),
		resultCh: make(chan Result, 1),
		done:     make(chan struct{}),
		probe:    probe,
	}
}

// Start begins the worker goroutine. Safe to call once.
func (w *Worker) Start() {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	w.wg.Add(1)
	go w.loop()
}

// Stop halts the worker goroutine and waits for it to exit.
func (w *Worker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.done)
	w.wg.Wait()
}

// NextGeneration returns a fresh, monotonically-increasing generation
// number for a new Submit call.
func (w *Worker) NextGeneration() uint64 {
	return w.nextGen.Add(1)
}

// Submit replaces the worker's pending request with req, mirroring the
// teacher's non-blocking channel-send-with-drop idiom but inverted to
// "send-with-replace": a preset apply is never dropped outright, only
// superseded by a fresher one (§4.15 "single-slot request channel").
func (w *Worker) Submit(req Request) {
	for {
		select {
		case w.reqCh <- req:
			return
		default:
		}
		select {
		case <-w.reqCh:
		default:
		}
	}
}

// Poll non-blockingly returns a completed result, if one is ready.
func (w *Worker) Poll() (Result, bool) {
	select {
	case r := <-w.resultCh:
		return r, true
	default:
		return Result{}, false
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case req := <-w.reqCh:
			result := w.process(req)
			select {
			case w.resultCh <- result:
			default:
				// Drop an unread previous result; a fresher Submit has
				// already superseded it by the time we'd overwrite.
				select {
				case <-w.resultCh:
				default:
				}
				w.resultCh <- result
			}
		}
	}
}

// process decodes every media layer in req.Preset, restarting from
// scratch whenever a newer request supersedes it mid-job (§4.15 steps
// 1-2).
func (w *Worker) process(req Request) Result {
	for {
		decoded := make([]DecodedLayer, len(req.Preset.Layers))
		restarted := false
		for i, lp := range req.Preset.Layers {
			if newer, ok := w.pollNewer(); ok {
				req = newer
				restarted = true
				break
			}
			if lp.usesMedia() {
				src, err := media.DecodeFile(lp.MediaPath, w.probe)
				decoded[i] = DecodedLayer{Index: i, Source: src, Err: err}
			} else {
				decoded[i] = DecodedLayer{Index: i}
			}
		}
		if restarted {
			continue
		}
		return Result{Generation: req.Generation, Preset: req.Preset, Decoded: decoded}
	}
}

func (w *Worker) pollNewer() (Request, bool) {
	select {
	case r := <-w.reqCh:
		return r, true
	default:
		return Request{}, false
	}
}

// IsCurrent reports whether result still matches the caller's tracked
// current generation (§4.15 "sender on main thread discards results whose
// generation != current").
func IsCurrent(result Result, currentGeneration uint64) bool {
	return result.Generation == currentGeneration
}
