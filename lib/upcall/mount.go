// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

// Package upcall is the thin layer between a surface.FS and the
// kernel's FUSE device: it is the only package that talks to
// fuse.NewServer directly, framing/opcode dispatch being go-fuse's job
// rather than ours.
package upcall

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hanwen/go-fuse/v2/fuse"
)

// Options configures a mount.
type Options struct {
	// Mountpoint is the directory the filesystem is mounted at. It
	// must already exist.
	Mountpoint string

	// FsName and Name are reported in "df -T" and friends; Name also
	// becomes the "fuse.<name>" filesystem type shown there.
	FsName string
	Name   string

	// AllowOther permits users other than the one that issued the
	// mount to access it; requires user_allow_other in
	// /etc/fuse.conf or CAP_SYS_ADMIN.
	AllowOther bool

	// Logger receives diagnostic messages. If nil, a text handler to
	// stderr at Info level is used.
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	return orDefaultLogger(o.Logger)
}

func orDefaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Mount starts serving fs at options.Mountpoint and returns the
// running *fuse.Server. The caller must call Serve (or run it in a
// goroutine) and eventually Unmount.
func Mount(fs fuse.RawFileSystem, options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("upcall: mountpoint is required")
	}
	if _, err := os.Stat(options.Mountpoint); err != nil {
		return nil, fmt.Errorf("upcall: mountpoint %s: %w", options.Mountpoint, err)
	}

	server, err := fuse.NewServer(fs, options.Mountpoint, &fuse.MountOptions{
		FsName:     options.FsName,
		Name:       options.Name,
		AllowOther: options.AllowOther,
	})
	if err != nil {
		return nil, fmt.Errorf("upcall: mounting at %s: %w", options.Mountpoint, err)
	}

	options.logger().Info("outagefs filesystem mounted", "mountpoint", options.Mountpoint, "fsname", options.FsName)
	return server, nil
}

// Serve runs server's upcall loop until the filesystem is unmounted,
// either by the kernel (lazy unmount, guest "umount") or by a call to
// Unmount. It blocks; run it in its own goroutine and use WaitMount to
// know when the mount is ready for the guest command.
func Serve(server *fuse.Server) {
	server.Serve()
}

// WaitMount blocks until the mount started by Mount is visible to the
// kernel, or returns the mount error if it failed.
func WaitMount(server *fuse.Server) error {
	if err := server.WaitMount(); err != nil {
		return fmt.Errorf("upcall: waiting for mount: %w", err)
	}
	return nil
}

// Unmount tears the mount down. Safe to call even if the filesystem
// was already unmounted by the kernel. logger may be nil, in which
// case a text handler to stderr at Info level is used, matching Mount.
func Unmount(server *fuse.Server, logger *slog.Logger) error {
	if err := server.Unmount(); err != nil {
		return fmt.Errorf("upcall: unmounting: %w", err)
	}
	orDefaultLogger(logger).Info("outagefs filesystem unmounted")
	return nil
}
