// Background loop pushing the shared frame to the window
package gui

import (
	"context"
	"image"
	"time"

	"github.com/sirupsen/logrus"
)

// Presenter puts a frame on screen
type Presenter interface {
	Present(frame *image.RGBA)
}

// PresenterFunc adapts a function to Presenter
type PresenterFunc func(frame *image.RGBA)

func (f PresenterFunc) Present(frame *image.RGBA) { f(frame) }

// DisplayLoop polls the SharedFrame on a fixed cadence and presents each new
// frame of the expected size. It stops at the first tick after the quit
// signal is raised, or when its context ends.
type DisplayLoop struct {
	frame     *SharedFrame
	quit      *QuitSignal
	presenter Presenter
	size      image.Point
	interval  time.Duration
	logger    *logrus.Logger

	onStop    func()
	presented uint64
	done      chan struct{}
}

func NewDisplayLoop(frame *SharedFrame, quit *QuitSignal, presenter Presenter, size image.Point, interval time.Duration, logger *logrus.Logger) *DisplayLoop {
	return &DisplayLoop{
		frame:     frame,
		quit:      quit,
		presenter: presenter,
		size:      size,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// SetStopCallback sets a function run when the quit signal ends the loop
func (l *DisplayLoop) SetStopCallback(onStop func()) {
	l.onStop = onStop
}

// Start runs the loop on its own goroutine
func (l *DisplayLoop) Start(ctx context.Context) {
	go l.Run(ctx)
}

// Run blocks until the quit signal or ctx ends the loop
func (l *DisplayLoop) Run(ctx context.Context) {
	defer close(l.done)

	l.logger.WithField("interval", l.interval).Debug("Display loop started")

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if l.quit.Requested() {
			l.logger.Info("Display loop stopping on quit signal")
			if l.onStop != nil {
				l.onStop()
			}
			return
		}

		l.tick()

		select {
		case <-ctx.Done():
			l.logger.Debug("Display loop cancelled")
			return
		case <-ticker.C:
		}
	}
}

// Wait blocks until Run has returned
func (l *DisplayLoop) Wait() {
	<-l.done
}

func (l *DisplayLoop) tick() {
	frame, version := l.frame.Latest()
	if frame == nil || version == l.presented {
		return
	}
	if frame.Bounds().Size() != l.size {
		l.logger.WithFields(logrus.Fields{
			"expected": l.size,
			"got":      frame.Bounds().Size(),
		}).Warn("Skipping frame of unexpected size")
		l.presented = version
		return
	}

	l.presenter.Present(frame)
	l.presented = version
}
