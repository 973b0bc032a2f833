// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"

	"github.com/outagefs/outagefs/lib/changelog"
)

func runShow(args []string) error {
	flagSet := pflag.NewFlagSet("outagefs show", pflag.ContinueOnError)
	verbose := flagSet.Bool("verbose", false, "print a BLAKE3 digest of each write's data")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	log, err := changelog.LoadOrEmpty(changesFile)
	if err != nil {
		if errors.Is(err, changelog.ErrMalformed) {
			return fmt.Errorf("outagefs show: %s is corrupt: %w", changesFile, err)
		}
		return fmt.Errorf("outagefs show: %w", err)
	}

	for i := 0; i < log.Len(); i++ {
		entry := log.At(i)
		switch entry.Kind {
		case changelog.KindSync:
			fmt.Printf("%d\tSync\n", i)
		case changelog.KindWrite:
			if *verbose {
				digest := blake3.Sum256(entry.Data)
				fmt.Printf("%d\tWrite\toffset=%d\tlength=%d\tblake3=%x\n",
					i, entry.Offset, len(entry.Data), digest)
			} else {
				fmt.Printf("%d\tWrite\toffset=%d\tlength=%d\n", i, entry.Offset, len(entry.Data))
			}
		}
	}
	return nil
}
