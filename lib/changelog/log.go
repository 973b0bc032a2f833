// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

package changelog

import "fmt"

// Log is the ordered sequence of entries observed by the recorder.
// Insertion order is issue order and is semantically significant:
// replay applies writes left to right.
type Log struct {
	entries []Entry
}

// New returns an empty Log.
func New() *Log {
	return &Log{}
}

// FromEntries builds a Log from an existing slice, taking ownership of
// it. Used by the mutator, which produces a new entry slice rather than
// editing one in place.
func FromEntries(entries []Entry) *Log {
	return &Log{entries: entries}
}

// AppendWrite appends a Write entry. It returns an error if data is
// empty: a zero-length write carries no information the replayer
// needs, so the on-disk format never represents one.
func (l *Log) AppendWrite(offset uint64, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("changelog: write at offset %d has empty data", offset)
	}
	l.entries = append(l.entries, Write(offset, data))
	return nil
}

// AppendSync appends a Sync barrier entry.
func (l *Log) AppendSync() {
	l.entries = append(l.entries, Sync())
}

// Len returns the number of entries in the log.
func (l *Log) Len() int {
	return len(l.entries)
}

// At returns the entry at index i.
func (l *Log) At(i int) Entry {
	return l.entries[i]
}

// Entries returns the underlying entry slice. Callers must not mutate
// it: the log is meant to be append-only in the hands of the
// recorder; only the mutator constructs a replacement slice.
func (l *Log) Entries() []Entry {
	return l.entries
}
