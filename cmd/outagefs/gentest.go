// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/outagefs/outagefs/lib/changelog"
	"github.com/outagefs/outagefs/lib/gentest"
)

func runGenTests(args []string) error {
	flagSet := pflag.NewFlagSet("outagefs gen-tests", pflag.ContinueOnError)
	cap := flagSet.Int("cap", gentest.DefaultCap, "maximum write-subset variants sampled per crashing segment")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	log, err := changelog.LoadOrEmpty(changesFile)
	if err != nil {
		if errors.Is(err, changelog.ErrMalformed) {
			return fmt.Errorf("outagefs gen-tests: %s is corrupt: %w", changesFile, err)
		}
		return fmt.Errorf("outagefs gen-tests: loading %s: %w", changesFile, err)
	}

	for _, f := range gentest.Generate(log, gentest.Options{Cap: *cap}) {
		fmt.Println(f)
	}
	return nil
}
