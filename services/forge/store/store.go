// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/praxislabs/praxis/services/forge/datatypes"
	"github.com/praxislabs/praxis/services/forge/storage/badger"
)

// Key layout (see the storage/badger package doc):
//
//	meth:<name>:<version %08d>  -> Methodology JSON (the version chain)
//	methid:<id>                 -> chain key of that record
//	dom:<tag>:<name>:<version>  -> record id (domain index)
const (
	prefixMeth   = "meth:"
	prefixMethID = "methid:"
	prefixDomain = "dom:"
)

// StatusListener is notified after a status change commits. Used by the
// optimizer generator to invalidate cached optimizers that embed the
// changed methodology.
type StatusListener func(id, name string, from, to datatypes.MethodologyStatus)

// Store is the versioned methodology repository backed by BadgerDB.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	locks  *nameLocks

	mu        sync.RWMutex
	listeners []StatusListener
}

// New creates a Store on top of an open forge database.
func New(db *badger.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger, locks: newNameLocks()}
}

// OnStatusChange registers a listener invoked after every committed status
// transition.
func (s *Store) OnStatusChange(l StatusListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(id, name string, from, to datatypes.MethodologyStatus) {
	s.mu.RLock()
	ls := make([]StatusListener, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.RUnlock()
	for _, l := range ls {
		l(id, name, from, to)
	}
}

func chainKey(name string, version int) []byte {
	return fmt.Appendf(nil, "%s%s:%08d", prefixMeth, name, version)
}

func idKey(id string) []byte {
	return append([]byte(prefixMethID), id...)
}

func domainKey(tag datatypes.DomainTag, name string, version int) []byte {
	return fmt.Appendf(nil, "%s%s:%s:%08d", prefixDomain, tag, name, version)
}

func validate(m *datatypes.Methodology) error {
	if m == nil || m.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidMethodology)
	}
	if len(m.Procedure) == 0 {
		return fmt.Errorf("%w: empty procedure", ErrInvalidMethodology)
	}
	if len(m.DomainTags) == 0 {
		return fmt.Errorf("%w: no domain tags", ErrInvalidMethodology)
	}
	switch m.Status {
	case datatypes.StatusDraft, datatypes.StatusApproved:
	default:
		return fmt.Errorf("%w: new records must be draft or approved, got %q",
			ErrInvalidMethodology, m.Status)
	}
	return nil
}

// Put appends a new version to the methodology's chain and returns its id.
//
// The incoming record's Name, DomainTags, Procedure, Provenance and Status
// are taken from the caller; ID, Version and ParentVersion are assigned by
// the store. Returns ErrDuplicateVersion when an Approved version of the
// same name already carries identical content, ErrInvalidMethodology on
// structural problems, and the context error if ctx is cancelled while
// waiting on the per-name lock.
func (s *Store) Put(ctx context.Context, m *datatypes.Methodology) (string, error) {
	if err := validate(m); err != nil {
		return "", err
	}
	if err := s.locks.acquire(ctx, m.Name); err != nil {
		return "", err
	}
	defer s.locks.release(m.Name)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	rec := *m
	rec.ID = uuid.NewString()

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		latest := 0
		newHash := rec.ContentHash()

		it := txn.NewIterator(badgerdb.IteratorOptions{
			Prefix:         []byte(prefixMeth + rec.Name + ":"),
			PrefetchValues: true,
			PrefetchSize:   16,
		})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var existing datatypes.Methodology
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &existing)
			}); err != nil {
				return fmt.Errorf("decode chain record: %w", err)
			}
			if existing.Version > latest {
				latest = existing.Version
			}
			if existing.Status == datatypes.StatusApproved && existing.ContentHash() == newHash {
				return ErrDuplicateVersion
			}
		}

		rec.Version = latest + 1
		rec.ParentVersion = latest

		data, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("encode methodology: %w", err)
		}
		if err := txn.Set(chainKey(rec.Name, rec.Version), data); err != nil {
			return err
		}
		if err := txn.Set(idKey(rec.ID), chainKey(rec.Name, rec.Version)); err != nil {
			return err
		}
		for _, tag := range rec.DomainTags {
			if err := txn.Set(domainKey(tag, rec.Name, rec.Version), []byte(rec.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("methodology stored",
		"name", rec.Name, "version", rec.Version, "status", rec.Status, "id", rec.ID)
	*m = rec
	return rec.ID, nil
}

// Get returns the methodology with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*datatypes.Methodology, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var m datatypes.Methodology
	err := s.db.View(func(txn *badgerdb.Txn) error {
		rec, err := s.loadByID(txn, id)
		if err != nil {
			return err
		}
		m = *rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) loadByID(txn *badgerdb.Txn, id string) (*datatypes.Methodology, error) {
	item, err := txn.Get(idKey(id))
	if err != nil {
		if err == badgerdb.ErrKeyNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	var key []byte
	if err := item.Value(func(v []byte) error {
		key = append([]byte(nil), v...)
		return nil
	}); err != nil {
		return nil, err
	}
	item, err = txn.Get(key)
	if err != nil {
		if err == badgerdb.ErrKeyNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	var m datatypes.Methodology
	if err := item.Value(func(v []byte) error {
		return json.Unmarshal(v, &m)
	}); err != nil {
		return nil, fmt.Errorf("decode methodology: %w", err)
	}
	return &m, nil
}

// Approve moves a Draft record to Approved and stamps its provenance.
// Returns ErrInvalidTransition for any other starting status.
func (s *Store) Approve(ctx context.Context, id string) error {
	return s.transition(ctx, id, datatypes.StatusApproved)
}

// Deprecate moves an Approved record to Deprecated. Returns
// ErrInvalidTransition unless the record is currently Approved.
func (s *Store) Deprecate(ctx context.Context, id string) error {
	return s.transition(ctx, id, datatypes.StatusDeprecated)
}

func (s *Store) transition(ctx context.Context, id string, to datatypes.MethodologyStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var name string
	var from datatypes.MethodologyStatus

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		m, err := s.loadByID(txn, id)
		if err != nil {
			return err
		}
		if !m.Status.CanTransition(to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, to)
		}
		name, from = m.Name, m.Status
		m.Status = to
		if to == datatypes.StatusApproved {
			m.Provenance.ApprovedAt = time.Now().UTC()
		}
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode methodology: %w", err)
		}
		return txn.Set(chainKey(m.Name, m.Version), data)
	})
	if err != nil {
		return err
	}

	s.logger.Info("methodology status changed", "id", id, "from", from, "to", to)
	s.notify(id, name, from, to)
	return nil
}

// ListByDomain returns a lazy, restartable iterator over every record
// carrying the given domain tag, ordered by (name, version).
func (s *Store) ListByDomain(tag datatypes.DomainTag) *Iterator {
	return &Iterator{
		store:  s,
		prefix: []byte(prefixDomain + string(tag) + ":"),
	}
}

// ListApprovedByDomain collects all Approved records for a domain.
// Convenience for the discovery pipeline's similarity scoring; generation
// uses the iterator directly.
func (s *Store) ListApprovedByDomain(ctx context.Context, tag datatypes.DomainTag) ([]*datatypes.Methodology, error) {
	var out []*datatypes.Methodology
	it := s.ListByDomain(tag)
	for {
		m, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return out, nil
		}
		if m.Status == datatypes.StatusApproved {
			out = append(out, m)
		}
	}
}
