// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"bytes"
	"context"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/praxislabs/praxis/services/forge/datatypes"
)

// Iterator walks a domain index lazily. Each Next opens a fresh read
// snapshot and resumes after the last key it returned, so an iterator
// survives process restarts when reconstructed from its ResumeToken.
//
// Not safe for concurrent use; create one iterator per consumer.
type Iterator struct {
	store  *Store
	prefix []byte
	last   []byte
	done   bool
}

// ResumeToken returns an opaque token that reconstructs the iterator's
// position via ResumeListByDomain.
func (it *Iterator) ResumeToken() []byte {
	return append([]byte(nil), it.last...)
}

// ResumeListByDomain rebuilds an iterator from a resume token previously
// obtained with ResumeToken.
func (s *Store) ResumeListByDomain(tag datatypes.DomainTag, token []byte) *Iterator {
	return &Iterator{
		store:  s,
		prefix: []byte(prefixDomain + string(tag) + ":"),
		last:   append([]byte(nil), token...),
	}
}

// Next returns the next methodology under the iterator's domain tag, or
// (nil, nil) when the sequence is exhausted.
func (it *Iterator) Next(ctx context.Context) (*datatypes.Methodology, error) {
	if it.done {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var m *datatypes.Methodology
	err := it.store.db.View(func(txn *badgerdb.Txn) error {
		iter := txn.NewIterator(badgerdb.IteratorOptions{
			Prefix:         it.prefix,
			PrefetchValues: true,
			PrefetchSize:   2,
		})
		defer iter.Close()

		if len(it.last) == 0 {
			iter.Rewind()
		} else {
			iter.Seek(it.last)
			if iter.Valid() && bytes.Equal(iter.Item().Key(), it.last) {
				iter.Next()
			}
		}
		if !iter.Valid() {
			it.done = true
			return nil
		}

		item := iter.Item()
		it.last = item.KeyCopy(nil)

		var id string
		if err := item.Value(func(v []byte) error {
			id = string(v)
			return nil
		}); err != nil {
			return err
		}
		rec, err := it.store.loadByID(txn, id)
		if err != nil {
			return err
		}
		m = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
