// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package discovery

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/praxislabs/praxis/services/forge/datatypes"
)

// Watcher ingests candidate files dropped into a directory.
//
// File naming convention: everything before the first dot is the domain tag
// list, with "+" separating multiple tags. "code-quality+testing.notes.txt"
// submits a candidate tagged code-quality and testing. Files starting with
// "." and files in subdirectories are ignored. A successfully ingested file
// is deleted so the drop directory never re-submits on restart.
//
// Writes are debounced per file so a slow copy into the directory submits
// once, with the final content.
type Watcher struct {
	dir      string
	pipeline *Pipeline
	logger   *slog.Logger
	debounce time.Duration

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a drop-directory watcher. The directory is created if
// it does not exist.
func NewWatcher(dir string, pipeline *Pipeline, logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		dir:      dir,
		pipeline: pipeline,
		logger:   logger,
		debounce: debounce,
		watcher:  fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start ingests any files already present, then watches for new ones until
// the context is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		w.ingest(ctx, filepath.Join(w.dir, entry.Name()))
	}

	go w.loop(ctx)
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *Watcher) loop(ctx context.Context) {
	// Per-path debounce timers; the timer that fires last wins.
	timers := make(map[string]*time.Timer)
	var mu sync.Mutex

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Reset(w.debounce)
			return
		}
		timers[path] = time.AfterFunc(w.debounce, func() {
			mu.Lock()
			delete(timers, path)
			mu.Unlock()
			w.ingest(ctx, path)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			schedule(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("drop watcher error", "error", err)
		}
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("read dropped candidate failed", "path", path, "error", err)
		return
	}

	tags := tagsFromFilename(filepath.Base(path))
	if len(tags) == 0 {
		w.logger.Warn("dropped candidate has no domain tags in filename", "path", path)
		return
	}

	cand, err := w.pipeline.Submit(ctx, string(data), tags)
	if err != nil {
		w.logger.Warn("submit dropped candidate failed", "path", path, "error", err)
		return
	}
	watcherIngestsTotal.Inc()
	w.logger.Info("candidate ingested from drop directory",
		"path", path, "id", cand.ID, "tags", tags)

	if err := os.Remove(path); err != nil {
		w.logger.Warn("remove ingested candidate file failed", "path", path, "error", err)
	}
}

// tagsFromFilename parses "tag1+tag2.rest-of-name" into the tag list.
func tagsFromFilename(name string) []datatypes.DomainTag {
	base := name
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	var tags []datatypes.DomainTag
	for _, part := range strings.Split(base, "+") {
		part = strings.TrimSpace(part)
		if part != "" {
			tags = append(tags, datatypes.DomainTag(part))
		}
	}
	return tags
}
