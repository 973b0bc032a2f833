// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

// Package changelog implements the append-only log of Write and Sync
// entries recorded while a base image is mounted, and its serialization
// to and from the on-disk "changes" file.
package changelog

import "fmt"

// Kind discriminates the two entry shapes an Entry can take.
type Kind uint8

const (
	// KindWrite marks an entry that carries an offset and payload:
	// "at this point in the issue stream, Data was written starting
	// at Offset".
	KindWrite Kind = 0

	// KindSync marks a barrier entry: the issuer requested durability
	// of all preceding writes.
	KindSync Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindWrite:
		return "Write"
	case KindSync:
		return "Sync"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Entry is one change-log record. For KindSync, Offset and Data are
// unused and always zero/nil.
type Entry struct {
	Kind   Kind
	Offset uint64
	Data   []byte
}

// Write constructs a Write entry. It does not validate the offset
// against any base image length; that check happens where an Entry is
// combined with a base image (see the replay package), since the log
// format itself carries no image-size header.
func Write(offset uint64, data []byte) Entry {
	return Entry{Kind: KindWrite, Offset: offset, Data: data}
}

// Sync constructs a Sync entry.
func Sync() Entry {
	return Entry{Kind: KindSync}
}

// IsSync reports whether the entry is a Sync barrier.
func (e Entry) IsSync() bool {
	return e.Kind == KindSync
}

// End returns Offset+len(Data) for a Write entry, the first byte past
// the range this entry touches. Zero for a Sync entry.
func (e Entry) End() uint64 {
	if e.Kind != KindWrite {
		return 0
	}
	return e.Offset + uint64(len(e.Data))
}
