// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

// Package gentest enumerates a bounded, crash-consistent subset of the
// power set of a change log's writes under the sync-barrier model: a
// Sync is only "honored" if every write it would flush is present.
package gentest

import (
	"github.com/outagefs/outagefs/lib/changelog"
	"github.com/outagefs/outagefs/lib/filter"
)

// DefaultCap bounds how many write-subset variants are enumerated
// within a single crashing segment when the segment is too large to
// enumerate exhaustively.
const DefaultCap = 16

// Options configures enumeration.
type Options struct {
	// Cap bounds the number of subsets sampled per crashing segment.
	// Zero uses DefaultCap.
	Cap int
}

// segment is a maximal run of entries bounded by Sync entries. syncAt
// is the index of the Sync entry that ends this segment, or -1 for a
// trailing segment with no terminating Sync.
type segment struct {
	start, end int // entry index range [start, end) of non-sync entries (writes) in this segment
	syncAt     int
}

// Generate returns the filter strings produced by walking this log's
// segments under the sync-barrier crash model: for each choice of
// "last honored sync" j, segments up to and including j are fully
// selected, the segment right after j (the crashing segment) has its
// writes freely subsetted and its own sync, if any, deselected, and
// everything after the crashing segment contributes nothing. The two
// degenerate filters "0" and all-ones are always present, and
// duplicates are removed.
func Generate(log *changelog.Log, opts Options) []string {
	cap := opts.Cap
	if cap <= 0 {
		cap = DefaultCap
	}

	entries := log.Entries()
	n := len(entries)

	segments := buildSegments(entries)
	numSync := 0
	for _, seg := range segments {
		if seg.syncAt >= 0 {
			numSync++
		}
	}

	seen := make(map[string]bool)
	var out []string
	emit := func(selected []bool) {
		s := filter.FormatSelection(selected)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	// j ranges over -1 (no sync honored) through numSync-1 (the last
	// real sync honored).
	for j := -1; j < numSync; j++ {
		crashIdx := j + 1
		if crashIdx >= len(segments) {
			// Every segment is honored: the fully synced end state.
			emit(allTrue(n))
			continue
		}

		base := make([]bool, n)
		for s := 0; s <= j; s++ {
			selectSegment(segments[s], base, true)
		}

		crash := segments[crashIdx]
		writeIdxs := writeIndices(entries, crash)
		for _, subset := range boundedSubsets(len(writeIdxs), cap) {
			sel := append([]bool(nil), base...)
			for k, take := range subset {
				if take {
					sel[writeIdxs[k]] = true
				}
			}
			emit(sel)
		}
	}

	// Guarantee the two degenerate filters regardless of how the
	// segment walk above landed.
	emit(make([]bool, n))
	emit(allTrue(n))

	return out
}

func buildSegments(entries []changelog.Entry) []segment {
	var segments []segment
	start := 0
	for i, e := range entries {
		if e.Kind == changelog.KindSync {
			segments = append(segments, segment{start: start, end: i, syncAt: i})
			start = i + 1
		}
	}
	if start < len(entries) {
		segments = append(segments, segment{start: start, end: len(entries), syncAt: -1})
	}
	return segments
}

// selectSegment marks every entry within seg as selected (or
// deselected), including its terminating Sync when present.
func selectSegment(seg segment, selected []bool, value bool) {
	for i := seg.start; i < seg.end; i++ {
		selected[i] = value
	}
	if seg.syncAt >= 0 {
		selected[seg.syncAt] = value
	}
}

// writeIndices returns the entry indices of Write entries within seg
// (Sync entries, if any, are handled separately by the caller).
func writeIndices(entries []changelog.Entry, seg segment) []int {
	var idxs []int
	for i := seg.start; i < seg.end; i++ {
		if entries[i].Kind == changelog.KindWrite {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func allTrue(n int) []bool {
	sel := make([]bool, n)
	for i := range sel {
		sel[i] = true
	}
	return sel
}

// boundedSubsets returns up to cap boolean subsets of n positions,
// always including the empty and full subsets. When 2^n fits within
// cap, every subset is enumerated exhaustively; otherwise a bounded
// sample (prefixes and single-bit flips from both ends) is used.
func boundedSubsets(n int, cap int) [][]bool {
	if n == 0 {
		return [][]bool{{}}
	}

	if n <= 30 && (uint64(1)<<uint(n)) <= uint64(cap) {
		total := 1 << uint(n)
		result := make([][]bool, 0, total)
		for bits := 0; bits < total; bits++ {
			sel := make([]bool, n)
			for i := 0; i < n; i++ {
				if bits&(1<<uint(i)) != 0 {
					sel[i] = true
				}
			}
			result = append(result, sel)
		}
		return result
	}

	seen := make(map[string]bool)
	var result [][]bool
	add := func(sel []bool) {
		if len(result) >= cap {
			return
		}
		key := string(boolsToBytes(sel))
		if seen[key] {
			return
		}
		seen[key] = true
		result = append(result, sel)
	}

	add(make([]bool, n)) // empty subset
	add(allTrue(n))      // full subset

	for prefixLen := 1; prefixLen < n && len(result) < cap; prefixLen++ {
		sel := make([]bool, n)
		for i := 0; i < prefixLen; i++ {
			sel[i] = true
		}
		add(sel)
	}
	for i := 0; i < n && len(result) < cap; i++ {
		sel := make([]bool, n)
		sel[i] = true
		add(sel)
	}
	for i := 0; i < n && len(result) < cap; i++ {
		sel := allTrue(n)
		sel[i] = false
		add(sel)
	}

	return result
}

func boolsToBytes(bits []bool) []byte {
	out := make([]byte, len(bits))
	for i, b := range bits {
		if b {
			out[i] = 1
		}
	}
	return out
}
