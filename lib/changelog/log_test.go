// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

package changelog

import "testing"

func TestLogAppendWrite(t *testing.T) {
	log := New()
	if err := log.AppendWrite(0, []byte("AB")); err != nil {
		t.Fatalf("AppendWrite: %v", err)
	}
	log.AppendSync()
	if err := log.AppendWrite(4, []byte("CD")); err != nil {
		t.Fatalf("AppendWrite: %v", err)
	}

	if got, want := log.Len(), 3; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	if !log.At(1).IsSync() {
		t.Errorf("entry 1 is not a Sync")
	}
	if got := log.At(2).Offset; got != 4 {
		t.Errorf("entry 2 offset = %d, want 4", got)
	}
}

func TestLogAppendWriteRejectsEmpty(t *testing.T) {
	log := New()
	if err := log.AppendWrite(0, nil); err == nil {
		t.Error("AppendWrite with empty data returned nil error, want an error")
	}
	if log.Len() != 0 {
		t.Errorf("Len() = %d after rejected append, want 0", log.Len())
	}
}

func TestFromEntries(t *testing.T) {
	entries := []Entry{Write(0, []byte("A")), Sync()}
	log := FromEntries(entries)
	if log.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", log.Len())
	}
	got := log.Entries()
	if len(got) != 2 || got[0].Offset != 0 {
		t.Errorf("Entries() = %+v, want the entries passed to FromEntries", got)
	}
}
