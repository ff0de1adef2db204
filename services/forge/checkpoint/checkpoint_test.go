// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/praxis/services/forge/storage/badger"
)

func newTestManager(t *testing.T) (*Manager, *badger.DB) {
	t.Helper()
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewManager(db, nil), db
}

func TestCompleteAndResume(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Complete(ctx, "task-1", "extract", "unit-a")
	require.NoError(t, err)
	_, err = m.Complete(ctx, "task-1", "analyze", "unit-a", "summary-b")
	require.NoError(t, err)

	rec, err := m.Resume(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "analyze", rec.Stage)
	assert.Equal(t, 2, rec.Seq)
	assert.Equal(t, []string{"unit-a", "summary-b"}, rec.ArtifactIDs)
}

func TestResumeSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := badger.Open(badger.DefaultConfig(dir))
	require.NoError(t, err)

	m := NewManager(db, nil)
	ctx := context.Background()
	_, err = m.Complete(ctx, "task-1", "extract", "unit-a")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = badger.Open(badger.DefaultConfig(dir))
	require.NoError(t, err)
	defer db.Close()

	rec, err := NewManager(db, nil).Resume(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "extract", rec.Stage)
	assert.Equal(t, []string{"unit-a"}, rec.ArtifactIDs)
}

func TestResumeUnknownTask(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Resume(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNoCheckpoint)
}

func TestTaskIDValidation(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Complete(ctx, "bad id with spaces", "extract")
	require.ErrorIs(t, err, ErrBadTaskID)
	_, err = m.Complete(ctx, "bad:colon", "extract")
	require.ErrorIs(t, err, ErrBadTaskID)
}

func TestHistoryAndClear(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	stages := []string{"extract", "analyze", "persist"}
	for _, st := range stages {
		_, err := m.Complete(ctx, "task-1", st)
		require.NoError(t, err)
	}

	hist, err := m.History(ctx, "task-1")
	require.NoError(t, err)
	require.Len(t, hist, 3)
	for i, rec := range hist {
		assert.Equal(t, i+1, rec.Seq)
		assert.Equal(t, stages[i], rec.Stage)
	}

	require.NoError(t, m.Clear(ctx, "task-1"))
	_, err = m.Resume(ctx, "task-1")
	require.ErrorIs(t, err, ErrNoCheckpoint)
}

func TestTasksAreIndependent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Complete(ctx, "task-1", "extract")
	require.NoError(t, err)
	_, err = m.Complete(ctx, "task-2", "analyze")
	require.NoError(t, err)

	r1, err := m.Resume(ctx, "task-1")
	require.NoError(t, err)
	r2, err := m.Resume(ctx, "task-2")
	require.NoError(t, err)
	assert.Equal(t, "extract", r1.Stage)
	assert.Equal(t, "analyze", r2.Stage)
	assert.Equal(t, 1, r1.Seq)
	assert.Equal(t, 1, r2.Seq)
}
