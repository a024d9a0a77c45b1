// Package hotreload watches shader and library directories on disk and
// hands the frame thread a drained, de-duplicated batch of changed paths
// once per frame (§4.14). The filesystem watch itself runs on its own
// goroutine, mirroring package audio's producer/consumer split: a
// goroutine owns the native watch handle and only ever pushes into a
// channel, never touching render state directly.
package hotreload

import (
	"log"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Watcher owns an fsnotify.Watcher for its full lifetime and forwards
// changed file paths to a bounded channel the frame thread drains once per
// frame.
type Watcher struct {
	fsw     *fsnotify.Watcher
	changed chan string
	done    chan struct{}
	running atomic.Bool
}

// changedChanCapacity bounds how many change events can queue between
// frames before the watcher starts dropping them. A dropped event is only
// logged; that file is picked up again on its next save, which queues a
// fresh event.
const changedChanCapacity = 256

// New creates a Watcher rooted at the given directories (typically the
// effects dir and the shader lib dir).
func New(dirs ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	w := &Watcher{
		fsw:     fsw,
		changed: make(chan string, changedChanCapacity),
		done:    make(chan struct{}),
	}
	w.running.Store(true)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.running.Store(false)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			select {
			case w.changed <- ev.Name:
			default:
				log.Printf("[hotreload] change queue full, dropping event for %s", ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("[hotreload] watch error: %v", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watch goroutine and releases the native handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

// Alive reports whether the watch goroutine is still running.
func (w *Watcher) Alive() bool { return w.running.Load() }

// Drain non-blockingly collects every path queued since the last call,
// de-duplicated and cleaned with filepath.Clean; each path keeps the
// watched directory it was reported under as its prefix (§4.14 "enqueue changed
// paths... each frame the engine drains the queue").
func (w *Watcher) Drain() []string {
	seen := make(map[string]struct{})
	var paths []string
	for {
		select {
		case p := <-w.changed:
			clean := filepath.Clean(p)
			if _, ok := seen[clean]; ok {
				continue
			}
			seen[clean] = struct{}{}
			paths = append(paths, clean)
		default:
			return paths
		}
	}
}
