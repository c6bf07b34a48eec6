package io

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch keeps the set in sync with its directory until ctx is done.
// Created files with the set's extension are added, removed ones dropped.
// onChange, when set, runs after every change that altered the set.
func (s *ImageSet) Watch(ctx context.Context, logger *logrus.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if s.apply(event) {
					logger.WithFields(logrus.Fields{
						"file":  filepath.Base(event.Name),
						"op":    event.Op.String(),
						"total": s.Len(),
					}).Info("Image set changed")
					if onChange != nil {
						onChange()
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithError(err).Warn("Directory watcher error")
			}
		}
	}()

	return nil
}

func (s *ImageSet) apply(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err != nil || !info.Mode().IsRegular() {
			return false
		}
		return s.Add(name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return s.Remove(name)
	}
	return false
}
