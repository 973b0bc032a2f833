// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

// Package replay materializes a disk image from a base image, a
// change log, and a filter selecting which entries survive.
package replay

import (
	"errors"
	"fmt"

	"github.com/outagefs/outagefs/lib/changelog"
	"github.com/outagefs/outagefs/lib/filter"
)

// ErrOversizedWrite is the sentinel wrapped by the error Materialize
// returns when a selected Write's byte range falls outside the base
// image, so callers (the driver) can tell that condition apart from
// other failures without matching on error text.
var ErrOversizedWrite = errors.New("replay: write exceeds image length")

// Materialize copies base and then, for each Write entry selected by f
// (in log order), overwrites the target byte range. Sync entries never
// affect the output; they only matter to the test generator. Returns
// an error if any selected Write's byte range falls outside
// [0, len(base)). This is the only validation a log recorded against a
// differently sized base image, or a mutated log with an illegal
// offset, gets: rejection happens the first time the log is combined
// with a base image, not when the log is decoded.
func Materialize(base []byte, log *changelog.Log, f filter.Filter) ([]byte, error) {
	out := make([]byte, len(base))
	copy(out, base)

	entries := log.Entries()
	for i, e := range entries {
		if !f.Selected(i) {
			continue
		}
		if e.Kind != changelog.KindWrite {
			continue
		}
		end := e.Offset + uint64(len(e.Data))
		if end > uint64(len(out)) {
			return nil, fmt.Errorf("%w: entry %d: write at [%d, %d) exceeds image length %d",
				ErrOversizedWrite, i, e.Offset, end, len(out))
		}
		copy(out[e.Offset:end], e.Data)
	}
	return out, nil
}
