// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/praxis/services/forge/datatypes"
)

func newTestWatcher(t *testing.T, p *Pipeline) (*Watcher, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "drop")
	w, err := NewWatcher(dir, p, nil, 20*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(w.Stop)
	return w, dir
}

func TestWatcherIngestsExistingFiles(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	dir := filepath.Join(t.TempDir(), "drop")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "code-quality+testing.notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(rawRefactoringNotes), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".partial"), []byte("ignore me"), 0o644))

	w, err := NewWatcher(dir, p, nil, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()
	require.NoError(t, w.Start(ctx))

	cands, err := p.List(ctx, datatypes.CandidateDiscovered)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, []datatypes.DomainTag{"code-quality", "testing"}, cands[0].DomainTags)

	// Ingested files are removed so a restart cannot re-submit them.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, ".partial"))
	assert.NoError(t, err, "dotfiles stay untouched")
}

func TestWatcherIngestsDroppedFile(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, dir := newTestWatcher(t, p)
	require.NoError(t, w.Start(ctx))

	path := filepath.Join(dir, "economics.draft.md")
	require.NoError(t, os.WriteFile(path, []byte(rawRefactoringNotes), 0o644))

	require.Eventually(t, func() bool {
		cands, err := p.List(ctx, datatypes.CandidateDiscovered)
		return err == nil && len(cands) == 1
	}, 5*time.Second, 20*time.Millisecond)

	cands, err := p.List(ctx, datatypes.CandidateDiscovered)
	require.NoError(t, err)
	assert.Equal(t, []datatypes.DomainTag{"economics"}, cands[0].DomainTags)

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, time.Second, 10*time.Millisecond)
}

func TestWatcherSkipsUntaggedFiles(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	w, dir := newTestWatcher(t, p)
	require.NoError(t, w.Start(ctx))

	// A name with only empty tag segments carries no tags at all.
	path := filepath.Join(dir, "+.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	time.Sleep(200 * time.Millisecond)
	cands, err := p.List(ctx, datatypes.CandidateDiscovered)
	require.NoError(t, err)
	assert.Empty(t, cands)

	// Untagged files are left in place for the operator to rename.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestTagsFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want []datatypes.DomainTag
	}{
		{"code-quality.txt", []datatypes.DomainTag{"code-quality"}},
		{"code-quality+testing.notes.txt", []datatypes.DomainTag{"code-quality", "testing"}},
		{"biology", []datatypes.DomainTag{"biology"}},
		{"a+b+c.md", []datatypes.DomainTag{"a", "b", "c"}},
		{".hidden", nil},
		{"+.txt", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tagsFromFilename(tt.name))
		})
	}
}
