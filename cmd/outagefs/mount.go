// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"

	"github.com/outagefs/outagefs/lib/changelog"
	"github.com/outagefs/outagefs/lib/filter"
	"github.com/outagefs/outagefs/lib/guestexec"
	"github.com/outagefs/outagefs/lib/replay"
	"github.com/outagefs/outagefs/lib/surface"
	"github.com/outagefs/outagefs/lib/upcall"
)

const (
	baseFile    = "base"
	changesFile = "changes"
	mountedName = "disk.img"
)

// logger is the driver's shared diagnostic logger: a text handler to
// stderr, Debug level under OUTAGEFS_DEBUG and Info level otherwise.
var logger = newLogger()

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("OUTAGEFS_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// mountOpts is doMount's parameter set, shared by the standalone
// "mount" verb and run-suite's in-process record/verify steps.
type mountOpts struct {
	Record     bool
	Filter     string
	Sudo       bool
	AllowOther bool
	Mountpoint string
	Exec       string
}

func runMount(args []string) error {
	flagSet := pflag.NewFlagSet("outagefs mount", pflag.ContinueOnError)
	opts := mountOpts{}
	flagSet.BoolVar(&opts.Record, "record", false, "record writes and syncs instead of replaying a filter")
	flagSet.StringVar(&opts.Filter, "filter", "0", "filter to replay under (ignored with --record)")
	flagSet.BoolVar(&opts.Sudo, "sudo", false, "run the guest command under sudo")
	flagSet.BoolVar(&opts.AllowOther, "allow-other", false, "allow other users to access the mount")
	flagSet.StringVar(&opts.Mountpoint, "mountpoint", "", "mount directory (default: a temporary directory)")
	flagSet.StringVar(&opts.Exec, "exec", "", "guest shell command; $1 expands to the mounted file's path")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if opts.Exec == "" {
		return fmt.Errorf("outagefs mount: --exec is required")
	}

	code, err := doMount(opts)
	if err != nil {
		return fmt.Errorf("outagefs mount: %w", err)
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}

// doMount mounts base under opts, runs the guest command, unmounts,
// and (in record mode) stores the resulting log. It returns the guest
// command's exit code, propagated without wrapping so run-suite can
// interpret its "successful variant" range (10..20) per the verify
// script contract.
func doMount(opts mountOpts) (int, error) {
	base, err := os.ReadFile(baseFile)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", baseFile, err)
	}

	dir := opts.Mountpoint
	if dir == "" {
		tmp, err := os.MkdirTemp("", "outagefs-mount-")
		if err != nil {
			return 0, fmt.Errorf("creating mountpoint: %w", err)
		}
		defer os.Remove(tmp)
		dir = tmp
	}

	var image []byte
	var policy surface.Policy
	var log *changelog.Log

	if opts.Record {
		image = append([]byte(nil), base...)
		log = changelog.New()
		policy = &surface.RecordingPolicy{Log: log}
	} else {
		f, err := filter.Parse(opts.Filter)
		if err != nil {
			if errors.Is(err, filter.ErrMalformed) {
				return 0, fmt.Errorf("parsing --filter %q: %w", opts.Filter, err)
			}
			return 0, err
		}
		log, err = changelog.LoadOrEmpty(changesFile)
		if err != nil {
			if errors.Is(err, changelog.ErrMalformed) {
				return 0, fmt.Errorf("%s is corrupt; re-record with --record: %w", changesFile, err)
			}
			return 0, fmt.Errorf("loading %s: %w", changesFile, err)
		}
		image, err = replay.Materialize(base, log, f)
		if err != nil {
			if errors.Is(err, replay.ErrOversizedWrite) {
				return 0, fmt.Errorf("%s does not match the base image %q recorded against it: %w", changesFile, baseFile, err)
			}
			return 0, err
		}
		policy = surface.NoopPolicy{}
	}

	fs := surface.New(mountedName, image, policy, uint32(unix.Getuid()), uint32(unix.Getgid()))

	server, err := upcall.Mount(fs, upcall.Options{
		Mountpoint: dir,
		FsName:     "outagefs",
		Name:       "outagefs",
		AllowOther: opts.AllowOther,
		Logger:     logger,
	})
	if err != nil {
		return 0, err
	}

	go upcall.Serve(server)
	if err := upcall.WaitMount(server); err != nil {
		return 0, err
	}

	logger.Info("running guest command", "exec", opts.Exec, "mountpoint", dir)
	guestErr := guestexec.Run(context.Background(), opts.Exec, dir+"/"+mountedName, opts.Sudo)
	if guestErr != nil {
		logger.Info("guest command failed", "error", guestErr)
	} else {
		logger.Info("guest command exited 0")
	}

	if err := upcall.Unmount(server, logger); err != nil {
		return 0, err
	}

	if opts.Record {
		if err := changelog.Store(changesFile, log, changelog.StoreOptions{}); err != nil {
			return 0, fmt.Errorf("storing %s: %w", changesFile, err)
		}
		logger.Info("stored change log", "path", changesFile, "entries", log.Len())
	}

	if guestErr == nil {
		return 0, nil
	}
	if exitErr, ok := guestErr.(*guestexec.ExitError); ok {
		return exitErr.Code, nil
	}
	return 0, guestErr
}
