// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"sync"
)

// nameLocks serializes writers per methodology name.
//
// Each name maps to a one-slot channel used as a mutex, which lets
// acquisition race against context cancellation. A caller whose context is
// cancelled while waiting never holds the lock, so cancellation can leave
// no half-written chain behind.
type nameLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newNameLocks() *nameLocks {
	return &nameLocks{slots: make(map[string]chan struct{})}
}

func (l *nameLocks) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[name]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[name] = s
	}
	return s
}

// acquire blocks until the per-name lock is held or ctx is done.
func (l *nameLocks) acquire(ctx context.Context, name string) error {
	select {
	case l.slot(name) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release frees the per-name lock. Must only be called by the holder.
func (l *nameLocks) release(name string) {
	<-l.slot(name)
}
