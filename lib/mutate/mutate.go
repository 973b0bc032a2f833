// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

// Package mutate implements the pure change-log transformations
// (split-write, zero-fill, drop-sync) that produce derived logs for
// fault-injection testing.
package mutate

import "github.com/outagefs/outagefs/lib/changelog"

// Options selects which mutations Apply performs, and their
// parameters. Options compose in a fixed order regardless of how they
// are set here: split-write, then zero-fill, then drop-sync.
type Options struct {
	// SplitWrite replaces each Write with two Writes covering the
	// same range, split at the midpoint.
	SplitWrite bool

	// Granularity bounds how small split-write's output writes get.
	// Zero (the default) means a single pass: every write is split
	// in half exactly once, regardless of its resulting size. A
	// positive value causes split-write to recurse, halving
	// repeatedly until every resulting write is at most Granularity
	// bytes (or cannot be split further).
	Granularity int

	// ZeroFill replaces every Write's data with zeros of the same
	// length.
	ZeroFill bool

	// DropSync removes every Sync entry.
	DropSync bool
}

// Apply returns a new Log with opts' transformations composed over
// log, in the fixed order split-write, zero-fill, drop-sync. log
// itself is left untouched.
func Apply(log *changelog.Log, opts Options) *changelog.Log {
	working := append([]changelog.Entry(nil), log.Entries()...)

	if opts.SplitWrite {
		var split []changelog.Entry
		for _, e := range working {
			if e.Kind == changelog.KindWrite {
				split = append(split, splitWrite(e, opts.Granularity)...)
			} else {
				split = append(split, e)
			}
		}
		working = split
	}

	if opts.ZeroFill {
		for i, e := range working {
			if e.Kind == changelog.KindWrite {
				working[i] = changelog.Write(e.Offset, make([]byte, len(e.Data)))
			}
		}
	}

	if opts.DropSync {
		var dropped []changelog.Entry
		for _, e := range working {
			if e.Kind != changelog.KindSync {
				dropped = append(dropped, e)
			}
		}
		working = dropped
	}

	return changelog.FromEntries(working)
}

// splitWrite splits a single Write entry at its midpoint. With
// granularity <= 0, it performs exactly one split, regardless of the
// resulting halves' size. With granularity > 0, it recurses into each
// half until every resulting write is at most granularity bytes or
// cannot be split further (length 1).
func splitWrite(e changelog.Entry, granularity int) []changelog.Entry {
	if len(e.Data) <= 1 {
		return []changelog.Entry{e}
	}

	mid := len(e.Data) / 2
	left := changelog.Write(e.Offset, e.Data[:mid])
	right := changelog.Write(e.Offset+uint64(mid), e.Data[mid:])

	if granularity <= 0 {
		return []changelog.Entry{left, right}
	}
	if len(e.Data) <= granularity {
		return []changelog.Entry{e}
	}
	return append(splitWrite(left, granularity), splitWrite(right, granularity)...)
}
