// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/pflag"

	"github.com/outagefs/outagefs/lib/changelog"
	"github.com/outagefs/outagefs/lib/gentest"
)

const suiteMountpoint = "mountpoint"

func runSuite(args []string) error {
	flagSet := pflag.NewFlagSet("outagefs run-suite", pflag.ContinueOnError)
	sudo := flagSet.Bool("sudo", false, "run prepare/record/verify under sudo")
	cap := flagSet.Int("cap", gentest.DefaultCap, "maximum write-subset variants sampled per crashing segment")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	positional := flagSet.Args()
	if len(positional) != 1 {
		return fmt.Errorf("outagefs run-suite: expected exactly one SCRIPT argument")
	}
	script := positional[0]

	if err := runScriptStep(*sudo, script, "prepare", baseFile); err != nil {
		return fmt.Errorf("outagefs run-suite: prepare: %w", err)
	}

	if err := os.MkdirAll(suiteMountpoint, 0o755); err != nil {
		return fmt.Errorf("outagefs run-suite: creating %s: %w", suiteMountpoint, err)
	}

	recordCode, err := doMount(mountOpts{
		Record:     true,
		Sudo:       *sudo,
		Mountpoint: suiteMountpoint,
		Exec:       shellJoin(script, "changes", suiteMountpoint),
	})
	if err != nil {
		return fmt.Errorf("outagefs run-suite: recording: %w", err)
	}
	if recordCode != 0 {
		return fmt.Errorf("outagefs run-suite: record step exited with status %d", recordCode)
	}

	log, err := changelog.LoadOrEmpty(changesFile)
	if err != nil {
		if errors.Is(err, changelog.ErrMalformed) {
			return fmt.Errorf("outagefs run-suite: %s is corrupt: %w", changesFile, err)
		}
		return fmt.Errorf("outagefs run-suite: loading %s: %w", changesFile, err)
	}
	tests := gentest.Generate(log, gentest.Options{Cap: *cap})
	logger.Info("generated crash test cases", "count", len(tests))

	verified, err := bisectVerify(tests, func(f string) (int, error) {
		return doMount(mountOpts{
			Filter:     f,
			Sudo:       *sudo,
			Mountpoint: suiteMountpoint,
			Exec:       shellJoin(script, "verify", suiteMountpoint),
		})
	})
	if err != nil {
		return fmt.Errorf("outagefs run-suite: %w", err)
	}

	fmt.Printf("%d test cases verified\n", verified)
	return nil
}

// runScriptStep invokes script with args, prefixed with sudo if set,
// connecting stdio to this process's own.
func runScriptStep(sudo bool, script string, args ...string) error {
	name := script
	fullArgs := args
	if sudo {
		name = "sudo"
		fullArgs = append([]string{script}, args...)
	}
	cmd := exec.CommandContext(context.Background(), name, fullArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

// shellJoin builds the shell command string a verify/changes step
// expects: the script path followed by its own arguments, space
// separated. Arguments here are always plain paths with no shell
// metacharacters, so naive joining is safe.
func shellJoin(parts ...string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += " " + p
	}
	return out
}

// verifyOutcome classifies a verify script's exit code per the
// run-suite contract: 0 is the single canonical pass, codes in
// [10, 20) report which of several acceptable crash outcomes a filter
// produced (used to bisect towards the boundary between two of them),
// and anything else is a failure.
type verifyOutcome struct {
	variant int
	known   bool
}

// bisectVerify tests every filter in tests, but instead of testing
// them in generation order it walks toward the boundary between
// differing "good" outcomes, on the theory that filters bracketing
// such a boundary are the most likely to reveal a bug. verify runs one
// filter and returns its exit code. Returns the number of filters
// verified before either exhausting the list or hitting a failing
// exit code (in which case a non-nil error is also returned).
func bisectVerify(tests []string, verify func(filter string) (int, error)) (int, error) {
	if len(tests) == 0 {
		return 0, nil
	}

	outcomes := make([]verifyOutcome, len(tests))
	verifiedCount := 0
	next := 0

	for verifiedCount < len(tests) {
		i := next
		verifiedCount++

		code, err := verify(tests[i])
		if err != nil {
			return verifiedCount - 1, err
		}
		switch {
		case code == 0:
			outcomes[i] = verifyOutcome{variant: 0, known: true}
		case code >= 10 && code < 20:
			outcomes[i] = verifyOutcome{variant: code - 10, known: true}
		default:
			return verifiedCount - 1, fmt.Errorf("verify script returned %d for filter %s", code, tests[i])
		}

		if verifiedCount >= len(tests) {
			break
		}
		next = nextBisectIndex(outcomes, i)
	}
	return verifiedCount, nil
}

// nextBisectIndex picks the next test index to run after i: the last
// index when i is 0 and the last is still untested; otherwise the
// midpoint of the widest untested gap between two consecutive verified
// filters whose outcomes differ, or (when no such gap is wider than
// one) the next untested index after i, wrapping around.
func nextBisectIndex(outcomes []verifyOutcome, i int) int {
	if i == 0 && !outcomes[len(outcomes)-1].known {
		return len(outcomes) - 1
	}

	bestStart, bestDistance := 0, 0
	lastStart, lastVariant := 0, 0
	for j, o := range outcomes {
		if !o.known {
			continue
		}
		if o.variant != lastVariant && j-lastStart > bestDistance {
			bestDistance = j - lastStart
			bestStart = lastStart
		}
		lastStart, lastVariant = j, o.variant
	}

	if bestDistance > 1 {
		return (bestStart + bestStart + bestDistance) / 2
	}

	j := (i + 1) % len(outcomes)
	for count := 0; outcomes[j].known; count++ {
		if count > len(outcomes) {
			// Every index is known; the caller's verifiedCount
			// guard should already have ended the loop.
			return j
		}
		j = (j + 1) % len(outcomes)
	}
	return j
}
