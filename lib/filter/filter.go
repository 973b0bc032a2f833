// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

// Package filter implements the compact "offset:bits" encoding of a
// subset of change-log indices used to select which recorded writes
// and syncs survive replay.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is the sentinel wrapped by every error Parse returns, so
// callers (the driver) can tell "this filter string doesn't parse"
// apart from other failures without matching on error text.
var ErrMalformed = errors.New("filter: malformed filter string")

// Filter selects a subset of change-log indices. The zero value
// (as returned by None) selects nothing.
type Filter struct {
	offset int
	bits   []bool
}

// None returns the filter that selects nothing, the shorthand "0".
func None() Filter {
	return Filter{}
}

// All returns a filter selecting every index in [0, n).
func All(n int) Filter {
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = true
	}
	return Filter{offset: 0, bits: bits}
}

// Parse decodes a filter string in the grammar
// FILTER := "0" | OFFSET ":" BITS, BITS in {0,1}+.
func Parse(s string) (Filter, error) {
	if s == "0" {
		return None(), nil
	}

	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return Filter{}, fmt.Errorf("%w: %q: expected \"0\" or OFFSET:BITS", ErrMalformed, s)
	}

	offsetPart, bitsPart := s[:colon], s[colon+1:]
	offset, err := strconv.Atoi(offsetPart)
	if err != nil || offset < 0 {
		return Filter{}, fmt.Errorf("%w: %q: invalid non-negative offset %q", ErrMalformed, s, offsetPart)
	}
	if bitsPart == "" {
		return Filter{}, fmt.Errorf("%w: %q: bits must be non-empty", ErrMalformed, s)
	}

	bits := make([]bool, len(bitsPart))
	for i, ch := range bitsPart {
		switch ch {
		case '1':
			bits[i] = true
		case '0':
			bits[i] = false
		default:
			return Filter{}, fmt.Errorf("%w: %q: unexpected character %q in bit string", ErrMalformed, s, ch)
		}
	}
	return Filter{offset: offset, bits: bits}, nil
}

// Selected reports whether index i is selected: i is in range
// [offset, offset+len(bits)) and the corresponding bit is '1'.
// Indices outside that range are always deselected.
func (f Filter) Selected(i int) bool {
	if i < f.offset {
		return false
	}
	j := i - f.offset
	if j >= len(f.bits) {
		return false
	}
	return f.bits[j]
}

// String renders the filter back to "offset:bits" form with the bit
// string exactly as parsed, or "0" if it has no bits (None). A filter
// with bits that are all '0' renders as "offset:0...", not "0".
func (f Filter) String() string {
	if len(f.bits) == 0 {
		return "0"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d:", f.offset)
	for _, bit := range f.bits {
		if bit {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// FormatSelection builds the canonical filter string for a boolean
// selection over indices [0, len(selected)): offset is the index of
// the first selected bit, and the bit string is truncated to its last
// '1'. A selection with no true bits formats as "0".
func FormatSelection(selected []bool) string {
	first := -1
	last := -1
	for i, v := range selected {
		if v {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return "0"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d:", first)
	for i := first; i <= last; i++ {
		if selected[i] {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
