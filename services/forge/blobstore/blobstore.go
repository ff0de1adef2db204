// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package blobstore is the generic-storage collaborator boundary: opaque
// bytes in, opaque refs out. The forge never assumes a physical backend;
// it ships a content-addressed filesystem store, an in-memory store for
// tests, and a GCS store.
package blobstore

import (
	"context"
	"errors"
)

// ErrRefNotFound is returned when a ref resolves to nothing.
var ErrRefNotFound = errors.New("blob ref not found")

// Store reads and writes opaque content blobs.
type Store interface {
	// Read returns the bytes behind ref, or ErrRefNotFound.
	Read(ctx context.Context, ref string) ([]byte, error)

	// Write stores data and returns its ref. Writing identical bytes
	// twice may return the same ref (content addressing is allowed).
	Write(ctx context.Context, data []byte) (string, error)
}
