// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package checkpoint persists per-task stage progress so long-running
// workflows resume after a crash instead of starting over.
//
// A task writes one record per completed stage, before the next stage
// begins. On restart, Resume returns the last completed stage and its
// produced artifact ids; the workflow skips everything up to and including
// that stage. Records carry a checksum and a format version so a corrupt
// or incompatible record is detected rather than silently trusted.
package checkpoint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/praxislabs/praxis/services/forge/storage/badger"
)

// FormatVersion is the checkpoint record format version.
const FormatVersion = "1.0.0"

// Key layout (see the storage/badger package doc):
//
//	ckpt:<task_id>:<seq %04d> -> Record JSON
const prefixCkpt = "ckpt:"

var (
	// ErrNoCheckpoint means the task has no completed stages.
	ErrNoCheckpoint = errors.New("checkpoint: no record for task")

	// ErrCorrupt means a stored record failed its integrity check.
	ErrCorrupt = errors.New("checkpoint: record failed integrity check")

	// ErrBadTaskID means the task id contains characters that cannot
	// form a storage key.
	ErrBadTaskID = errors.New("checkpoint: invalid task id")
)

var taskIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Record is one completed stage of a task.
type Record struct {
	TaskID      string    `json:"task_id"`
	Seq         int       `json:"seq"`
	Stage       string    `json:"stage"`
	ArtifactIDs []string  `json:"artifact_ids,omitempty"`
	Version     string    `json:"version"`
	Checksum    string    `json:"checksum"`
	CompletedAt time.Time `json:"completed_at"`
}

func (r *Record) computeChecksum() string {
	h := sha256.New()
	h.Write([]byte(r.TaskID))
	h.Write([]byte{0})
	h.Write([]byte(r.Stage))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(r.ArtifactIDs, "\x1f")))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", r.Seq)
	return hex.EncodeToString(h.Sum(nil))
}

// Manager writes and reads checkpoint records.
//
// Thread Safety: safe for concurrent use across distinct task ids. Stages
// of one task are expected to run sequentially; two writers checkpointing
// the same task concurrently is a caller bug.
type Manager struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewManager creates a checkpoint manager on an open forge database.
func NewManager(db *badger.DB, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{db: db, logger: logger}
}

func recordKey(taskID string, seq int) []byte {
	return fmt.Appendf(nil, "%s%s:%04d", prefixCkpt, taskID, seq)
}

// Complete records that the task finished stage, producing the given
// artifacts. The record is durable before Complete returns.
func (m *Manager) Complete(ctx context.Context, taskID, stage string, artifactIDs ...string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !taskIDPattern.MatchString(taskID) {
		return nil, fmt.Errorf("%w: %q", ErrBadTaskID, taskID)
	}
	if stage == "" {
		return nil, fmt.Errorf("checkpoint: empty stage for task %s", taskID)
	}

	rec := &Record{
		TaskID:      taskID,
		Stage:       stage,
		ArtifactIDs: artifactIDs,
		Version:     FormatVersion,
		CompletedAt: time.Now().UTC(),
	}

	err := m.db.Update(func(txn *badgerdb.Txn) error {
		last, err := lastRecord(txn, taskID)
		if err != nil && !errors.Is(err, ErrNoCheckpoint) {
			return err
		}
		if last != nil {
			rec.Seq = last.Seq + 1
		} else {
			rec.Seq = 1
		}
		rec.Checksum = rec.computeChecksum()
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode checkpoint: %w", err)
		}
		return txn.Set(recordKey(taskID, rec.Seq), data)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("stage checkpointed",
		"task", taskID, "stage", stage, "seq", rec.Seq, "artifacts", len(artifactIDs))
	return rec, nil
}

// Resume returns the last completed stage for the task, or ErrNoCheckpoint
// when the task never checkpointed. A record that fails its integrity
// check surfaces as ErrCorrupt; the caller decides whether to restart the
// workflow from scratch.
func (m *Manager) Resume(ctx context.Context, taskID string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !taskIDPattern.MatchString(taskID) {
		return nil, fmt.Errorf("%w: %q", ErrBadTaskID, taskID)
	}
	var rec *Record
	err := m.db.View(func(txn *badgerdb.Txn) error {
		var err error
		rec, err = lastRecord(txn, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rec.Checksum != rec.computeChecksum() {
		return nil, fmt.Errorf("%w: task %s seq %d", ErrCorrupt, taskID, rec.Seq)
	}
	return rec, nil
}

// History returns every completed stage of the task in order.
func (m *Manager) History(ctx context.Context, taskID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !taskIDPattern.MatchString(taskID) {
		return nil, fmt.Errorf("%w: %q", ErrBadTaskID, taskID)
	}
	var out []Record
	err := m.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.IteratorOptions{
			Prefix:         []byte(prefixCkpt + taskID + ":"),
			PrefetchValues: true,
			PrefetchSize:   32,
		})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec Record
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &rec)
			}); err != nil {
				return fmt.Errorf("decode checkpoint: %w", err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Clear removes every record of the task, typically after it completed.
func (m *Manager) Clear(ctx context.Context, taskID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !taskIDPattern.MatchString(taskID) {
		return fmt.Errorf("%w: %q", ErrBadTaskID, taskID)
	}
	return m.db.Update(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.IteratorOptions{
			Prefix: []byte(prefixCkpt + taskID + ":"),
		})
		defer it.Close()
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func lastRecord(txn *badgerdb.Txn, taskID string) (*Record, error) {
	it := txn.NewIterator(badgerdb.IteratorOptions{
		Prefix:         []byte(prefixCkpt + taskID + ":"),
		PrefetchValues: true,
		PrefetchSize:   32,
	})
	defer it.Close()
	var last *Record
	for it.Rewind(); it.Valid(); it.Next() {
		var rec Record
		if err := it.Item().Value(func(v []byte) error {
			return json.Unmarshal(v, &rec)
		}); err != nil {
			return nil, fmt.Errorf("decode checkpoint: %w", err)
		}
		last = &rec
	}
	if last == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCheckpoint, taskID)
	}
	return last, nil
}
