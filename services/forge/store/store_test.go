// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/storage/badger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, nil)
}

func sampleMethodology(name string, status datatypes.MethodologyStatus, tags ...datatypes.DomainTag) *datatypes.Methodology {
	if len(tags) == 0 {
		tags = []datatypes.DomainTag{"code-quality"}
	}
	return &datatypes.Methodology{
		Name:       name,
		DomainTags: tags,
		Procedure: []datatypes.Step{
			{Ordinal: 1, Instruction: "measure the baseline"},
			{Ordinal: 2, Instruction: "apply the change"},
			{Ordinal: 3, Instruction: "verify against the baseline"},
		},
		Status: status,
	}
}

func TestStorePutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := sampleMethodology("baseline-verification", datatypes.StatusApproved)
	id, err := s.Put(ctx, m)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, 1, m.Version)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "baseline-verification", got.Name)
	assert.Equal(t, datatypes.StatusApproved, got.Status)
	assert.Len(t, got.Procedure, 3)
}

func TestStoreGetUnknown(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreVersionChain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := sampleMethodology("iterative-refinement", datatypes.StatusApproved)
	_, err := s.Put(ctx, first)
	require.NoError(t, err)

	edited := sampleMethodology("iterative-refinement", datatypes.StatusApproved)
	edited.Procedure = append(edited.Procedure,
		datatypes.Step{Ordinal: 4, Instruction: "record the outcome"})
	editedID, err := s.Put(ctx, edited)
	require.NoError(t, err)

	got, err := s.Get(ctx, editedID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, 1, got.ParentVersion, "edit must link back to its parent version")
	assert.NotEqual(t, first.ID, got.ID, "edit must mint a new id")
}

func TestStoreDuplicateApprovedVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, sampleMethodology("dedup-check", datatypes.StatusApproved))
	require.NoError(t, err)

	_, err = s.Put(ctx, sampleMethodology("dedup-check", datatypes.StatusApproved))
	assert.ErrorIs(t, err, ErrDuplicateVersion)

	// Identical content as Draft is fine; only Approved dedupes.
	_, err = s.Put(ctx, sampleMethodology("other-name", datatypes.StatusDraft))
	assert.NoError(t, err)
}

func TestStoreValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("empty procedure", func(t *testing.T) {
		m := sampleMethodology("bad", datatypes.StatusDraft)
		m.Procedure = nil
		_, err := s.Put(ctx, m)
		assert.ErrorIs(t, err, ErrInvalidMethodology)
	})

	t.Run("no domain tags", func(t *testing.T) {
		m := sampleMethodology("bad", datatypes.StatusDraft)
		m.DomainTags = nil
		_, err := s.Put(ctx, m)
		assert.ErrorIs(t, err, ErrInvalidMethodology)
	})

	t.Run("born deprecated", func(t *testing.T) {
		m := sampleMethodology("bad", datatypes.StatusDeprecated)
		_, err := s.Put(ctx, m)
		assert.ErrorIs(t, err, ErrInvalidMethodology)
	})
}

func TestStoreLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	draftID, err := s.Put(ctx, sampleMethodology("lifecycle", datatypes.StatusDraft))
	require.NoError(t, err)

	// Draft cannot be deprecated directly.
	err = s.Deprecate(ctx, draftID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, s.Approve(ctx, draftID))
	got, err := s.Get(ctx, draftID)
	require.NoError(t, err)
	assert.Equal(t, datatypes.StatusApproved, got.Status)
	assert.False(t, got.Provenance.ApprovedAt.IsZero())

	// Approved cannot go back to approved.
	err = s.Approve(ctx, draftID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, s.Deprecate(ctx, draftID))

	// Deprecated is terminal.
	err = s.Deprecate(ctx, draftID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStoreStatusListener(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var gotID string
	var gotTo datatypes.MethodologyStatus
	s.OnStatusChange(func(id, name string, from, to datatypes.MethodologyStatus) {
		gotID, gotTo = id, to
	})

	id, err := s.Put(ctx, sampleMethodology("watched", datatypes.StatusApproved))
	require.NoError(t, err)
	require.NoError(t, s.Deprecate(ctx, id))

	assert.Equal(t, id, gotID)
	assert.Equal(t, datatypes.StatusDeprecated, gotTo)
}

func TestStoreListByDomain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, sampleMethodology("alpha", datatypes.StatusApproved, "biology"))
	require.NoError(t, err)
	_, err = s.Put(ctx, sampleMethodology("beta", datatypes.StatusApproved, "biology", "code-quality"))
	require.NoError(t, err)
	_, err = s.Put(ctx, sampleMethodology("gamma", datatypes.StatusDraft, "code-quality"))
	require.NoError(t, err)

	var names []string
	it := s.ListByDomain("biology")
	for {
		m, err := it.Next(ctx)
		require.NoError(t, err)
		if m == nil {
			break
		}
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"alpha", "beta"}, names)

	approved, err := s.ListApprovedByDomain(ctx, "code-quality")
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "beta", approved[0].Name)
}

func TestStoreIteratorResume(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"one", "two", "three"} {
		_, err := s.Put(ctx, sampleMethodology(name, datatypes.StatusApproved, "genomics"))
		require.NoError(t, err)
	}

	it := s.ListByDomain("genomics")
	first, err := it.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Rebuild from the token and confirm the walk continues, not restarts.
	resumed := s.ResumeListByDomain("genomics", it.ResumeToken())
	var rest []string
	for {
		m, err := resumed.Next(ctx)
		require.NoError(t, err)
		if m == nil {
			break
		}
		rest = append(rest, m.Name)
	}
	assert.Len(t, rest, 2)
	assert.NotContains(t, rest, first.Name)
}

func TestStorePutCancelled(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, sampleMethodology("cancelled", datatypes.StatusDraft))
	assert.ErrorIs(t, err, context.Canceled)
}
