// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

package upcall

import (
	"testing"

	"github.com/hanwen/go-fuse/v2/fuse"
)

// Mount's success path requires a real kernel FUSE device, so only its
// argument validation is exercised here.

func TestMountRejectsEmptyMountpoint(t *testing.T) {
	_, err := Mount(fuse.NewDefaultRawFileSystem(), Options{})
	if err == nil {
		t.Fatal("Mount with no mountpoint returned nil error")
	}
}

func TestMountRejectsMissingMountpoint(t *testing.T) {
	_, err := Mount(fuse.NewDefaultRawFileSystem(), Options{Mountpoint: "/nonexistent/outagefs-test-mountpoint"})
	if err == nil {
		t.Fatal("Mount with a nonexistent mountpoint returned nil error")
	}
}
