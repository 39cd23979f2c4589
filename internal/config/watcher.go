// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CONFIG FILE WATCHER
// =============================================================================

// defaultDebounce coalesces the event bursts editors produce on save.
const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the global config when its file changes on disk.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onReload func(*Config, error)
	done     chan struct{}
}

// Watch starts watching the config file at path. onReload is called after
// every reload attempt with the new config or the load error; it runs on
// the watcher goroutine. Callers must Close the watcher when done.
func Watch(path string, onReload func(*Config, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files by rename,
	// which drops a direct file watch.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &Watcher{
		watcher:  fsw,
		path:     path,
		debounce: defaultDebounce,
		onReload: onReload,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce: restart the timer on every event in the burst.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case <-pending:
			err := ReloadGlobal()
			if w.onReload != nil {
				w.onReload(Global(), err)
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next event still reloads.
		}
	}
}
