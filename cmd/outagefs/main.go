// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

// outagefs emulates sudden power loss against a loop-mountable disk
// image: it records every write and fsync a filesystem issues against
// the image through a FUSE-backed file, then replays arbitrary subsets
// of that recording to produce crash-consistent disk images for
// testing.
//
// Usage:
//
//	outagefs mount [--record] [--filter F] [--sudo] [--allow-other] [--mountpoint DIR] --exec CMD
//	outagefs show
//	outagefs mutate [--split-write] [--zero-fill] [--drop-sync]
//	outagefs gen-tests
//	outagefs run-suite [--sudo] SCRIPT
//
// Every verb operates on two files in the current working directory:
// "base" (the input image, read-only) and "changes" (the serialized
// change log).
package main

import (
	"fmt"
	"os"

	"github.com/outagefs/outagefs/lib/process"
	"github.com/outagefs/outagefs/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("outagefs: missing command")
	}

	verb, rest := args[0], args[1:]
	switch verb {
	case "--version":
		version.Print("outagefs")
		return nil
	case "-h", "--help", "help":
		printUsage()
		return nil
	case "mount":
		return runMount(rest)
	case "show":
		return runShow(rest)
	case "mutate":
		return runMutate(rest)
	case "gen-tests":
		return runGenTests(rest)
	case "run-suite":
		return runSuite(rest)
	default:
		printUsage()
		return fmt.Errorf("outagefs: unknown command %q", verb)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `outagefs: power-loss emulation for filesystem testing

Usage:
  outagefs mount [--record] [--filter F] [--sudo] [--allow-other] [--mountpoint DIR] --exec CMD
  outagefs show
  outagefs mutate [--split-write] [--zero-fill] [--drop-sync] [--granularity N]
  outagefs gen-tests [--cap N]
  outagefs run-suite [--sudo] SCRIPT

Run "outagefs <command> --help" for flags specific to each command.
`)
}
