// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

// Package surface implements the FUSE filesystem presented to the
// guest: a root directory with exactly one regular file backed by an
// in-memory image. What happens to writes and syncs against that file
// is delegated to a Policy, so the same FS type serves both recording
// and replay.
package surface

import "github.com/outagefs/outagefs/lib/changelog"

// Policy observes the writes and syncs FS applies to its image. A
// mount that is recording appends to a change log; a mount that is
// replaying a materialized image does nothing.
type Policy interface {
	// OnWrite is called after a Write upcall has been applied to the
	// in-memory image, with the same offset and data the guest wrote.
	OnWrite(offset uint64, data []byte)

	// OnSync is called after an Fsync upcall.
	OnSync()
}

// NoopPolicy observes nothing. Mounts that replay a materialized image
// use it: there is nothing left to record.
type NoopPolicy struct{}

func (NoopPolicy) OnWrite(offset uint64, data []byte) {}
func (NoopPolicy) OnSync()                            {}

// RecordingPolicy appends every observed write and sync to a change
// log. The caller owns Log and is responsible for storing it, typically
// on clean unmount.
type RecordingPolicy struct {
	Log *changelog.Log
}

func (p *RecordingPolicy) OnWrite(offset uint64, data []byte) {
	// AppendWrite rejects empty data; the kernel never issues a
	// zero-length write through FS.Write, so this error is never hit
	// in practice and there is nothing useful to do with it here.
	_ = p.Log.AppendWrite(offset, append([]byte(nil), data...))
}

func (p *RecordingPolicy) OnSync() {
	p.Log.AppendSync()
}
