package gui

import (
	"image"
	"sync"
	"sync/atomic"
)

// SharedFrame is a single-slot cell holding the most recent composited frame.
// Publishing replaces whatever was there; readers never see a queue.
// Published images must not be modified afterwards.
type SharedFrame struct {
	mu      sync.Mutex
	frame   *image.RGBA
	version uint64
}

// Publish stores frame as the latest one
func (f *SharedFrame) Publish(frame *image.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.frame = frame
	f.version++
}

// Latest returns the current frame and its version. Version 0 means nothing
// has been published yet.
func (f *SharedFrame) Latest() (*image.RGBA, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame, f.version
}

// QuitSignal is raised once to stop the display loop
type QuitSignal struct {
	requested atomic.Bool
}

// Request raises the signal
func (q *QuitSignal) Request() {
	q.requested.Store(true)
}

// Requested reports whether the signal was raised
func (q *QuitSignal) Requested() bool {
	return q.requested.Load()
}
