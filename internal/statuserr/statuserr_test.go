package statuserr

import (
	"testing"
	"time"
)

func TestCurrentReportsNothingBeforeFirstPublish(t *testing.T) {
	c := New()
	if msg, ok := c.Current(); ok {
		t.Fatalf("expected no status before any publish, got %q", msg)
	}
}

func TestPublishIsVisibleImmediately(t *testing.T) {
	c := New()
	c.Publish("capture thread died")
	msg, ok := c.Current()
	if !ok || msg != "capture thread died" {
		t.Fatalf("expected published message to be visible, got %q, %v", msg, ok)
	}
}

func TestNewerPublishOverwritesOlder(t *testing.T) {
	c := New()
	c.Publish("first")
	c.Publish("second")
	msg, _ := c.Current()
	if msg != "second" {
		t.Errorf("expected second publish to overwrite first, got %q", msg)
	}
}

func TestCurrentExpiresAfterVisibilityWindow(t *testing.T) {
	c := New()
	fake := time.Now()
	c.now = func() time.Time { return fake }
	c.Publish("expiring")

	fake = fake.Add(Visibility - time.Millisecond)
	if _, ok := c.Current(); !ok {
		t.Errorf("status should still be visible just under the window")
	}

	fake = fake.Add(2 * time.Millisecond)
	if _, ok := c.Current(); ok {
		t.Errorf("status should have expired past the visibility window")
	}
}

func TestClearHidesImmediately(t *testing.T) {
	c := New()
	c.Publish("oops")
	c.Clear()
	if _, ok := c.Current(); ok {
		t.Error("expected Clear to hide the status immediately")
	}
}
