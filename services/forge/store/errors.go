// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store implements the versioned methodology repository.
//
// Records are kept in append-only version chains, one chain per methodology
// name. An Approved record's procedure is immutable: edits enter the chain
// as a new version carrying a parent-version link. Status only ever moves
// forward (Draft -> Approved -> Deprecated).
//
// # Concurrency
//
// Concurrent Put calls for the same name are serialized by a per-name lock
// so duplicate-version races cannot occur. Lock acquisition is
// context-aware: a cancelled request releases the lock and leaves no
// partial record (all writes run inside one badger transaction). Reads are
// snapshot-consistent against the state at the time the read transaction
// began.
package store

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when no methodology matches the given id.
	ErrNotFound = errors.New("methodology not found")

	// ErrDuplicateVersion is returned by Put when an identical Approved
	// version of the same methodology name already exists.
	ErrDuplicateVersion = errors.New("identical approved version already exists")

	// ErrInvalidTransition is returned when a status change violates the
	// Draft -> Approved -> Deprecated lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidMethodology is returned when a record fails structural
	// validation (empty name, empty procedure, no domain tags).
	ErrInvalidMethodology = errors.New("invalid methodology")
)
