// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

package surface

import (
	"sync"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"
)

const (
	rootInode = 1
	fileInode = 2

	// fileHandle is the only handle FS ever hands out: there is one
	// file, and concurrent opens share the same in-memory image, so a
	// real per-open handle table would track nothing useful.
	fileHandle = 1
)

// FS presents a root directory containing exactly one regular file,
// name, backed by image. Reads and writes address image directly;
// Policy is notified of writes and syncs so a recording mount can turn
// them into a change log while a replaying mount can ignore them.
//
// FS embeds fuse.NewDefaultRawFileSystem(), so every upcall this type
// does not override replies ENOSYS, matching the narrow surface the
// guest actually needs.
type FS struct {
	fuse.RawFileSystem

	name   string
	uid    uint32
	gid    uint32
	policy Policy

	mu    sync.Mutex
	image []byte
}

// New returns an FS serving name over image, notifying policy of
// writes and syncs. uid/gid are reported as the owner of name; callers
// typically pass the mounting user's own ids so loop-mount tooling run
// as that user can access the file without allow_other.
func New(name string, image []byte, policy Policy, uid, gid uint32) *FS {
	return &FS{
		RawFileSystem: fuse.NewDefaultRawFileSystem(),
		name:          name,
		uid:           uid,
		gid:           gid,
		policy:        policy,
		image:         image,
	}
}

// Image returns a copy of the current in-memory image, safe to read
// after the mount has been unmounted (e.g. to store it as the
// materialized result of a replay run).
func (fs *FS) Image() []byte {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]byte, len(fs.image))
	copy(out, fs.image)
	return out
}

func setNow(out *fuse.Attr) {
	sec := uint64(time.Now().Unix())
	out.Atime, out.Mtime, out.Ctime = sec, sec, sec
}

func (fs *FS) attr(out *fuse.Attr) {
	out.Ino = fileInode
	out.Mode = fuse.S_IFREG | 0644
	out.Size = uint64(len(fs.image))
	out.Nlink = 1
	out.Uid = fs.uid
	out.Gid = fs.gid
	setNow(out)
}

func (fs *FS) Lookup(cancel <-chan struct{}, header *fuse.InHeader, name string, out *fuse.EntryOut) fuse.Status {
	if header.NodeId != rootInode || name != fs.name {
		return fuse.ENOENT
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	out.NodeId = fileInode
	out.Generation = 1
	fs.attr(&out.Attr)
	return fuse.OK
}

func (fs *FS) GetAttr(cancel <-chan struct{}, input *fuse.GetAttrIn, out *fuse.AttrOut) fuse.Status {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	switch input.NodeId {
	case rootInode:
		out.Ino = rootInode
		out.Mode = fuse.S_IFDIR | 0755
		out.Nlink = 2
		out.Uid = fs.uid
		out.Gid = fs.gid
		setNow(&out.Attr)
		return fuse.OK
	case fileInode:
		fs.attr(&out.Attr)
		return fuse.OK
	default:
		return fuse.ENOENT
	}
}

func (fs *FS) Open(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	if input.NodeId != fileInode {
		return fuse.ENOENT
	}
	out.Fh = fileHandle
	return fuse.OK
}

func (fs *FS) Read(cancel <-chan struct{}, input *fuse.ReadIn, buf []byte) (fuse.ReadResult, fuse.Status) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if input.Offset >= uint64(len(fs.image)) {
		return fuse.ReadResultData(nil), fuse.OK
	}
	end := input.Offset + uint64(input.Size)
	if end > uint64(len(fs.image)) {
		end = uint64(len(fs.image))
	}
	return fuse.ReadResultData(fs.image[input.Offset:end]), fuse.OK
}

func (fs *FS) Write(cancel <-chan struct{}, input *fuse.WriteIn, data []byte) (uint32, fuse.Status) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	end := input.Offset + uint64(len(data))
	if end > uint64(len(fs.image)) {
		return 0, fuse.EINVAL
	}
	copy(fs.image[input.Offset:end], data)
	fs.policy.OnWrite(input.Offset, data)
	return uint32(len(data)), fuse.OK
}

func (fs *FS) Flush(cancel <-chan struct{}, input *fuse.FlushIn) fuse.Status {
	return fuse.OK
}

func (fs *FS) Release(cancel <-chan struct{}, input *fuse.ReleaseIn) {}

func (fs *FS) Fsync(cancel <-chan struct{}, input *fuse.FsyncIn) fuse.Status {
	fs.policy.OnSync()
	return fuse.OK
}

func (fs *FS) StatFs(cancel <-chan struct{}, input *fuse.InHeader, out *fuse.StatfsOut) fuse.Status {
	fs.mu.Lock()
	size := uint64(len(fs.image))
	fs.mu.Unlock()

	blockSize := uint32(unix.Getpagesize())
	blocks := (size + uint64(blockSize) - 1) / uint64(blockSize)
	if blocks == 0 {
		blocks = 1
	}

	out.Bsize = blockSize
	out.Frsize = blockSize
	out.Blocks = blocks
	out.Bfree = 0
	out.Bavail = 0
	out.Files = 2
	out.Ffree = 0
	out.NameLen = 255
	return fuse.OK
}

func (fs *FS) Init(server *fuse.Server) {}
