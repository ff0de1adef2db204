// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	data := []byte("some generic content")
	ref, err := s.Write(ctx, data)
	require.NoError(t, err)
	require.Len(t, ref, 64)

	got, err := s.Read(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFSStoreContentAddressing(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref1, err := s.Write(ctx, []byte("same bytes"))
	require.NoError(t, err)
	ref2, err := s.Write(ctx, []byte("same bytes"))
	require.NoError(t, err)
	assert.Equal(t, ref1, ref2)

	ref3, err := s.Write(ctx, []byte("other bytes"))
	require.NoError(t, err)
	assert.NotEqual(t, ref1, ref3)
}

func TestFSStoreMissingRef(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Read(context.Background(),
		"0000000000000000000000000000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrRefNotFound)
}

func TestFSStoreRejectsMalformedRef(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	for _, ref := range []string{"", "short", "../../etc/passwd"} {
		_, err := s.Read(context.Background(), ref)
		assert.ErrorIs(t, err, ErrRefNotFound, "ref %q", ref)
	}
}

func TestMemoryStoreMatchesFS(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	mem := NewMemoryStore()
	ctx := context.Background()

	data := []byte("backend parity")
	fsRef, err := fs.Write(ctx, data)
	require.NoError(t, err)
	memRef, err := mem.Write(ctx, data)
	require.NoError(t, err)

	// Content addressing must agree across backends.
	assert.Equal(t, fsRef, memRef)
}
