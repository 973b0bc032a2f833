// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/outagefs/outagefs/lib/changelog"
	"github.com/outagefs/outagefs/lib/mutate"
)

func runMutate(args []string) error {
	flagSet := pflag.NewFlagSet("outagefs mutate", pflag.ContinueOnError)
	splitWrite := flagSet.Bool("split-write", false, "split each write at its midpoint")
	zeroFill := flagSet.Bool("zero-fill", false, "replace write data with zeros")
	dropSync := flagSet.Bool("drop-sync", false, "remove every sync entry")
	granularity := flagSet.Int("granularity", 0, "split-write recurses until writes are at most this many bytes (0: one pass)")
	compress := flagSet.Bool("compress", false, "zstd-compress the rewritten changes file")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	log, err := changelog.LoadOrEmpty(changesFile)
	if err != nil {
		if errors.Is(err, changelog.ErrMalformed) {
			return fmt.Errorf("outagefs mutate: %s is corrupt: %w", changesFile, err)
		}
		return fmt.Errorf("outagefs mutate: loading %s: %w", changesFile, err)
	}

	mutated := mutate.Apply(log, mutate.Options{
		SplitWrite:  *splitWrite,
		Granularity: *granularity,
		ZeroFill:    *zeroFill,
		DropSync:    *dropSync,
	})

	if err := changelog.Store(changesFile, mutated, changelog.StoreOptions{Compress: *compress}); err != nil {
		return fmt.Errorf("outagefs mutate: storing %s: %w", changesFile, err)
	}
	return nil
}
