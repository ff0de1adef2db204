// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tasks tracks long-running workflow status for the coordination
// interface. Stage durability lives in the checkpoint package; this
// registry is the live view the status endpoint and the websocket stream
// read from.
package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/praxislabs/praxis/services/forge/checkpoint"
)

// ErrTaskNotFound means no live task carries the given id and no
// checkpoint exists for it either.
var ErrTaskNotFound = errors.New("tasks: task not found")

// Status is one task's current position.
type Status struct {
	TaskID        string    `json:"task_id"`
	Stage         string    `json:"stage"`
	Done          bool      `json:"done"`
	ArtifactIDs   []string  `json:"artifact_ids,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Registry is the in-memory task table. Every mutation is mirrored to the
// checkpoint manager before subscribers see it, so a crash between stages
// resumes from the last stage subscribers were told about.
//
// Thread Safety: all methods are safe for concurrent use.
type Registry struct {
	ckpts *checkpoint.Manager
	mu    sync.RWMutex
	live  map[string]*Status
	subs  map[string]map[chan Status]struct{}
}

// NewRegistry creates a Registry over a checkpoint manager. A nil manager
// gives a volatile registry (tests).
func NewRegistry(ckpts *checkpoint.Manager) *Registry {
	return &Registry{
		ckpts: ckpts,
		live:  make(map[string]*Status),
		subs:  make(map[string]map[chan Status]struct{}),
	}
}

// Advance records that the task completed a stage. The checkpoint write
// happens first; subscribers only ever see durable progress.
func (r *Registry) Advance(ctx context.Context, taskID, stage string, artifactIDs ...string) error {
	if r.ckpts != nil {
		if _, err := r.ckpts.Complete(ctx, taskID, stage, artifactIDs...); err != nil {
			return err
		}
	}
	r.publish(Status{
		TaskID:      taskID,
		Stage:       stage,
		ArtifactIDs: artifactIDs,
		UpdatedAt:   time.Now().UTC(),
	})
	return nil
}

// Finish marks the task done and clears its checkpoints.
func (r *Registry) Finish(ctx context.Context, taskID, finalStage string, artifactIDs ...string) error {
	if r.ckpts != nil {
		if err := r.ckpts.Clear(ctx, taskID); err != nil {
			return err
		}
	}
	r.publish(Status{
		TaskID:      taskID,
		Stage:       finalStage,
		Done:        true,
		ArtifactIDs: artifactIDs,
		UpdatedAt:   time.Now().UTC(),
	})
	return nil
}

// Fail marks the task failed at its current stage. Checkpoints are kept so
// the task can resume past its completed stages.
func (r *Registry) Fail(taskID, stage, reason string) {
	r.publish(Status{
		TaskID:        taskID,
		Stage:         stage,
		Done:          true,
		FailureReason: reason,
		UpdatedAt:     time.Now().UTC(),
	})
}

func (r *Registry) publish(st Status) {
	r.mu.Lock()
	cp := st
	r.live[st.TaskID] = &cp
	var targets []chan Status
	for ch := range r.subs[st.TaskID] {
		targets = append(targets, ch)
	}
	r.mu.Unlock()

	for _, ch := range targets {
		// Slow subscribers drop updates rather than stall the workflow.
		select {
		case ch <- st:
		default:
		}
	}
}

// Get returns the task's live status, falling back to the last checkpoint
// when the process restarted since the task ran.
func (r *Registry) Get(ctx context.Context, taskID string) (*Status, error) {
	r.mu.RLock()
	st, ok := r.live[taskID]
	r.mu.RUnlock()
	if ok {
		cp := *st
		return &cp, nil
	}

	if r.ckpts != nil {
		rec, err := r.ckpts.Resume(ctx, taskID)
		if err == nil {
			return &Status{
				TaskID:      rec.TaskID,
				Stage:       rec.Stage,
				ArtifactIDs: rec.ArtifactIDs,
				UpdatedAt:   rec.CompletedAt,
			}, nil
		}
		if !errors.Is(err, checkpoint.ErrNoCheckpoint) {
			return nil, err
		}
	}
	return nil, ErrTaskNotFound
}

// Subscribe returns a channel of status updates for the task, starting
// with its current status when one exists. Cancel by calling the returned
// stop function.
func (r *Registry) Subscribe(taskID string) (<-chan Status, func()) {
	ch := make(chan Status, 16)

	r.mu.Lock()
	if r.subs[taskID] == nil {
		r.subs[taskID] = make(map[chan Status]struct{})
	}
	r.subs[taskID][ch] = struct{}{}
	if st, ok := r.live[taskID]; ok {
		ch <- *st
	}
	r.mu.Unlock()

	stop := func() {
		r.mu.Lock()
		if set, ok := r.subs[taskID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(r.subs, taskID)
			}
		}
		r.mu.Unlock()
	}
	return ch, stop
}
