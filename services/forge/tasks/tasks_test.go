// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/praxis/services/forge/checkpoint"
	"github.com/praxislabs/praxis/services/forge/storage/badger"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRegistry(checkpoint.NewManager(db, nil))
}

func TestAdvanceAndGet(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Advance(ctx, "task-1", "extract", "unit-a"))
	require.NoError(t, r.Advance(ctx, "task-1", "analyze"))

	st, err := r.Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "analyze", st.Stage)
	assert.False(t, st.Done)
}

func TestGetFallsBackToCheckpoint(t *testing.T) {
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mgr := checkpoint.NewManager(db, nil)
	ctx := context.Background()
	require.NoError(t, NewRegistry(mgr).Advance(ctx, "task-1", "extract", "unit-a"))

	// A fresh registry simulates a restarted process.
	st, err := NewRegistry(mgr).Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "extract", st.Stage)
	assert.Equal(t, []string{"unit-a"}, st.ArtifactIDs)
}

func TestGetUnknown(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSubscribeStreamsUpdates(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Advance(ctx, "task-1", "extract"))

	ch, stop := r.Subscribe("task-1")
	defer stop()

	// Current status arrives first.
	st := <-ch
	assert.Equal(t, "extract", st.Stage)

	require.NoError(t, r.Advance(ctx, "task-1", "analyze"))
	select {
	case st = <-ch:
		assert.Equal(t, "analyze", st.Stage)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}

	require.NoError(t, r.Finish(ctx, "task-1", "done", "artifact-x"))
	select {
	case st = <-ch:
		assert.True(t, st.Done)
		assert.Equal(t, []string{"artifact-x"}, st.ArtifactIDs)
	case <-time.After(time.Second):
		t.Fatal("no final update received")
	}
}

func TestFinishClearsCheckpoints(t *testing.T) {
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mgr := checkpoint.NewManager(db, nil)
	r := NewRegistry(mgr)
	ctx := context.Background()

	require.NoError(t, r.Advance(ctx, "task-1", "extract"))
	require.NoError(t, r.Finish(ctx, "task-1", "done"))

	_, err = mgr.Resume(ctx, "task-1")
	require.ErrorIs(t, err, checkpoint.ErrNoCheckpoint)
}

func TestFailKeepsProgress(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Advance(ctx, "task-1", "extract"))
	r.Fail("task-1", "analyze", "oracle unavailable")

	st, err := r.Get(ctx, "task-1")
	require.NoError(t, err)
	assert.True(t, st.Done)
	assert.Equal(t, "oracle unavailable", st.FailureReason)
}
