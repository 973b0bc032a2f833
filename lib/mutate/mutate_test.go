// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

package mutate

import (
	"bytes"
	"testing"

	"github.com/outagefs/outagefs/lib/changelog"
)

func TestApplySplitWrite(t *testing.T) {
	log := changelog.New()
	log.AppendWrite(0, []byte("XY"))

	out := Apply(log, Options{SplitWrite: true})
	if out.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", out.Len())
	}
	if got := out.At(0); got.Offset != 0 || !bytes.Equal(got.Data, []byte("X")) {
		t.Errorf("entry 0 = %+v, want offset 0 data \"X\"", got)
	}
	if got := out.At(1); got.Offset != 1 || !bytes.Equal(got.Data, []byte("Y")) {
		t.Errorf("entry 1 = %+v, want offset 1 data \"Y\"", got)
	}
}

func TestApplyZeroFillAndDropSync(t *testing.T) {
	log := changelog.New()
	log.AppendWrite(0, []byte("ABCD"))
	log.AppendSync()

	out := Apply(log, Options{ZeroFill: true, DropSync: true})
	if out.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", out.Len())
	}
	got := out.At(0)
	if got.Offset != 0 || !bytes.Equal(got.Data, []byte{0, 0, 0, 0}) {
		t.Errorf("entry 0 = %+v, want offset 0 data four zero bytes", got)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	log := changelog.New()
	log.AppendWrite(0, []byte("AB"))
	log.AppendSync()

	Apply(log, Options{SplitWrite: true, ZeroFill: true, DropSync: true})

	if log.Len() != 2 {
		t.Fatalf("original log mutated: Len() = %d, want 2", log.Len())
	}
	if !bytes.Equal(log.At(0).Data, []byte("AB")) {
		t.Errorf("original log entry 0 mutated: %+v", log.At(0))
	}
}

func TestApplyComposesInFixedOrder(t *testing.T) {
	// zero-fill must see the already-split writes, and drop-sync must
	// run last regardless of struct field order.
	log := changelog.New()
	log.AppendWrite(0, []byte("AB"))
	log.AppendSync()

	out := Apply(log, Options{DropSync: true, ZeroFill: true, SplitWrite: true})
	if out.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (split writes, sync dropped)", out.Len())
	}
	for i := 0; i < out.Len(); i++ {
		if out.At(i).IsSync() {
			t.Errorf("entry %d is a Sync, want drop-sync to have removed it", i)
		}
		if !bytes.Equal(out.At(i).Data, []byte{0}) {
			t.Errorf("entry %d data = %v, want a single zero byte", i, out.At(i).Data)
		}
	}
}

func TestApplyNoOptionsIsIdentity(t *testing.T) {
	log := changelog.New()
	log.AppendWrite(0, []byte("AB"))
	log.AppendSync()

	out := Apply(log, Options{})
	if out.Len() != log.Len() {
		t.Fatalf("Len() = %d, want %d", out.Len(), log.Len())
	}
	for i := 0; i < log.Len(); i++ {
		want, got := log.At(i), out.At(i)
		if want.Kind != got.Kind || want.Offset != got.Offset || !bytes.Equal(want.Data, got.Data) {
			t.Errorf("entry %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestSplitWriteGranularity(t *testing.T) {
	log := changelog.New()
	log.AppendWrite(0, bytes.Repeat([]byte{1}, 8))

	out := Apply(log, Options{SplitWrite: true, Granularity: 2})
	for i := 0; i < out.Len(); i++ {
		if got := len(out.At(i).Data); got > 2 {
			t.Errorf("entry %d has length %d, want at most 2", i, got)
		}
	}

	var total int
	for i := 0; i < out.Len(); i++ {
		total += len(out.At(i).Data)
	}
	if total != 8 {
		t.Errorf("total split bytes = %d, want 8", total)
	}
}
