// Package streams tracks in-flight stream cancellation handles, keyed by
// stream id.
package streams

import (
	"context"

	"github.com/alphadose/haxmap"
)

// Tracker holds the cancel functions of live streams so callers can stop one
// by id, or all of them at shutdown. Safe for concurrent use.
type Tracker struct {
	active *haxmap.Map[string, context.CancelFunc]
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{active: haxmap.New[string, context.CancelFunc]()}
}

// Add registers a live stream's cancel function under its id.
func (t *Tracker) Add(id string, cancel context.CancelFunc) {
	t.active.Set(id, cancel)
}

// Remove forgets a stream without cancelling it. Streams remove themselves
// once their event channel closes.
func (t *Tracker) Remove(id string) {
	t.active.Del(id)
}

// Cancel stops the stream with the given id and reports whether one was
// live.
func (t *Tracker) Cancel(id string) bool {
	cancel, ok := t.active.Get(id)
	if !ok {
		return false
	}
	t.active.Del(id)
	cancel()
	return true
}

// CancelAll stops every live stream.
func (t *Tracker) CancelAll() {
	t.active.ForEach(func(id string, cancel context.CancelFunc) bool {
		t.active.Del(id)
		cancel()
		return true
	})
}

// IDs returns the ids of streams still live.
func (t *Tracker) IDs() []string {
	var ids []string
	t.active.ForEach(func(id string, _ context.CancelFunc) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Len reports how many streams are live.
func (t *Tracker) Len() int {
	return int(t.active.Len())
}
