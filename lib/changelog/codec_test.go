// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

package changelog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func buildTestLog() *Log {
	log := New()
	log.AppendWrite(0, []byte("AB"))
	log.AppendSync()
	log.AppendWrite(4, []byte("CD"))
	return log
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	log := buildTestLog()

	var buf bytes.Buffer
	if err := Encode(&buf, log); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.Len() != log.Len() {
		t.Fatalf("decoded.Len() = %d, want %d", decoded.Len(), log.Len())
	}
	for i := 0; i < log.Len(); i++ {
		want, got := log.At(i), decoded.At(i)
		if want.Kind != got.Kind || want.Offset != got.Offset || !bytes.Equal(want.Data, got.Data) {
			t.Errorf("entry %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0x07}))
	if err == nil {
		t.Fatal("Decode with unknown tag byte returned nil error")
	}
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Decode error = %v, want it to wrap ErrMalformed", err)
	}
}

func TestDecodeRejectsTruncatedWrite(t *testing.T) {
	// A Write tag followed by a varint offset but nothing else: the
	// length varint is missing entirely.
	_, err := Decode(bytes.NewReader([]byte{byte(KindWrite), 0x05}))
	if err == nil {
		t.Fatal("Decode with a truncated Write entry returned nil error")
	}
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Decode error = %v, want it to wrap ErrMalformed", err)
	}
}

func TestDecodeEmptyStreamIsEmptyLog(t *testing.T) {
	log, err := Decode(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if log.Len() != 0 {
		t.Errorf("Len() = %d, want 0", log.Len())
	}
}

func TestStoreLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changes")
	log := buildTestLog()

	if err := Store(path, log, StoreOptions{}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != log.Len() {
		t.Fatalf("loaded.Len() = %d, want %d", loaded.Len(), log.Len())
	}
}

func TestStoreLoadRoundtripCompressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changes")
	log := buildTestLog()

	if err := Store(path, log, StoreOptions{Compress: true}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != log.Len() {
		t.Fatalf("loaded.Len() = %d, want %d", loaded.Len(), log.Len())
	}
	for i := 0; i < log.Len(); i++ {
		want, got := log.At(i), loaded.At(i)
		if want.Kind != got.Kind || want.Offset != got.Offset || !bytes.Equal(want.Data, got.Data) {
			t.Errorf("entry %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestStoreNeverLeavesTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changes")
	if err := Store(path, buildTestLog(), StoreOptions{}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "changes" {
		t.Errorf("directory contents = %v, want exactly [changes]", entries)
	}
}

func TestLoadOrEmptyMissingFile(t *testing.T) {
	dir := t.TempDir()
	log, err := LoadOrEmpty(filepath.Join(dir, "does-not-exist"))
	if err != nil {
		t.Fatalf("LoadOrEmpty: %v", err)
	}
	if log.Len() != 0 {
		t.Errorf("Len() = %d, want 0", log.Len())
	}
}
