// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"bytes"
	"errors"
	"testing"

	"github.com/outagefs/outagefs/lib/changelog"
	"github.com/outagefs/outagefs/lib/filter"
)

func testScenarioLog() *changelog.Log {
	log := changelog.New()
	log.AppendWrite(0, []byte("AB"))
	log.AppendSync()
	log.AppendWrite(4, []byte("CD"))
	return log
}

func TestMaterializeAllOnes(t *testing.T) {
	base := bytes.Repeat([]byte{0}, 16)
	log := testScenarioLog()

	got, err := Materialize(base, log, filter.All(log.Len()))
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	want := []byte("AB\x00\x00CD\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")
	if !bytes.Equal(got, want) {
		t.Errorf("Materialize = %q, want %q", got, want)
	}
}

func TestMaterializeNone(t *testing.T) {
	base := bytes.Repeat([]byte{0}, 16)
	log := testScenarioLog()

	got, err := Materialize(base, log, filter.None())
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if !bytes.Equal(got, base) {
		t.Errorf("Materialize under the empty filter = %q, want the untouched base", got)
	}
}

func TestMaterializeFirstWriteOnly(t *testing.T) {
	base := bytes.Repeat([]byte{0}, 16)
	log := testScenarioLog()

	f, err := filter.Parse("0:1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := Materialize(base, log, f)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	want := append([]byte("AB"), bytes.Repeat([]byte{0}, 14)...)
	if !bytes.Equal(got, want) {
		t.Errorf("Materialize = %q, want %q", got, want)
	}
}

func TestMaterializeSecondWriteOnly(t *testing.T) {
	base := bytes.Repeat([]byte{0}, 16)
	log := testScenarioLog()

	f, err := filter.Parse("2:1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := Materialize(base, log, f)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	want := bytes.Repeat([]byte{0}, 16)
	copy(want[4:6], "CD")
	if !bytes.Equal(got, want) {
		t.Errorf("Materialize = %q, want %q", got, want)
	}
}

func TestMaterializeDoesNotMutateBase(t *testing.T) {
	base := bytes.Repeat([]byte{0}, 16)
	original := append([]byte(nil), base...)
	log := testScenarioLog()

	if _, err := Materialize(base, log, filter.All(log.Len())); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if !bytes.Equal(base, original) {
		t.Error("Materialize mutated its base argument")
	}
}

func TestMaterializeRejectsOutOfRangeWrite(t *testing.T) {
	base := make([]byte, 4)
	log := changelog.New()
	log.AppendWrite(2, []byte("ABCD"))

	_, err := Materialize(base, log, filter.All(log.Len()))
	if err == nil {
		t.Fatal("Materialize with an out-of-range write returned nil error")
	}
	if !errors.Is(err, ErrOversizedWrite) {
		t.Errorf("Materialize error = %v, want it to wrap ErrOversizedWrite", err)
	}
}
