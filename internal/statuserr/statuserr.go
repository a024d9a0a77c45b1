// Package statuserr implements the single-slot status error channel (§7
// "Status error channel: a single (message, timestamp) slot visible for
// 6s, overwritten by newer errors, shown by the UI"). It is the one piece
// of user-facing error reporting the engine owns directly; everything else
// is logged via the standard logger and surfaces here only if it should be
// shown to the user.
package statuserr

import (
	"sync"
	"time"
)

// Visibility is how long a published error remains current.
const Visibility = 6 * time.Second

// entry is the slot's contents: empty Message means nothing is published.
type entry struct {
	Message string
	At      time.Time
}

// Channel is a single-slot, overwrite-on-publish status error surface.
// Safe for concurrent use: the capture thread, control listeners, and the
// frame thread all publish to the same Channel.
type Channel struct {
	mu      sync.Mutex
	current entry
	now     func() time.Time // overridable in tests
}

// New creates an empty status error channel.
func New() *Channel {
	return &Channel{now: time.Now}
}

// Publish replaces the current status error, regardless of whether one is
// already visible (§7 "overwritten by newer errors").
func (c *Channel) Publish(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = entry{Message: message, At: c.now()}
}

// Current returns the visible status message and true, or ("", false) if
// no error was published or the last one has aged past Visibility.
func (c *Channel) Current() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current.Message == "" {
		return "", false
	}
	if c.now().Sub(c.current.At) >= Visibility {
		return "", false
	}
	return c.current.Message, true
}

// Clear immediately hides any current status error.
func (c *Channel) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = entry{}
}
