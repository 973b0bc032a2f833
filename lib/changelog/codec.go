// Copyright 2026 The Outagefs Authors
// SPDX-License-Identifier: Apache-2.0

package changelog

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// ErrMalformed is the sentinel wrapped by every error Decode/Load
// return for a changes file that doesn't match the on-disk format, so
// callers (the driver) can tell "this changes file is corrupt" apart
// from an ordinary I/O failure without matching on error text.
var ErrMalformed = errors.New("changelog: malformed changes file")

// zstdMagic is the four-byte frame magic number at the start of every
// zstd frame. Store/Load sniff it to decide whether a "changes" file
// on disk is compressed, so Load needs no separate flag from the
// caller.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Encode writes log to w using the on-disk format: a stream of
// records, each a one-byte tag (0 = Write, 1 = Sync) followed for
// Write entries by a varint offset, a varint data length, and the
// data bytes. There is no length prefix or trailer; end-of-stream
// terminates the log.
func Encode(w io.Writer, log *Log) error {
	buffered := bufio.NewWriter(w)
	var scratch [binary.MaxVarintLen64]byte

	for _, e := range log.entries {
		if err := buffered.WriteByte(byte(e.Kind)); err != nil {
			return err
		}
		if e.Kind != KindWrite {
			continue
		}
		n := binary.PutUvarint(scratch[:], e.Offset)
		if _, err := buffered.Write(scratch[:n]); err != nil {
			return err
		}
		n = binary.PutUvarint(scratch[:], uint64(len(e.Data)))
		if _, err := buffered.Write(scratch[:n]); err != nil {
			return err
		}
		if _, err := buffered.Write(e.Data); err != nil {
			return err
		}
	}
	return buffered.Flush()
}

// Decode reads a change log from r in the format Encode writes.
func Decode(r io.Reader) (*Log, error) {
	buffered := bufio.NewReader(r)
	log := New()

	for {
		tagByte, err := buffered.ReadByte()
		if err == io.EOF {
			return log, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: reading tag: %v", ErrMalformed, log.Len(), err)
		}

		kind := Kind(tagByte)
		switch kind {
		case KindSync:
			log.entries = append(log.entries, Sync())
		case KindWrite:
			offset, err := binary.ReadUvarint(buffered)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d: reading offset: %v", ErrMalformed, log.Len(), err)
			}
			length, err := binary.ReadUvarint(buffered)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d: reading length: %v", ErrMalformed, log.Len(), err)
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(buffered, data); err != nil {
				return nil, fmt.Errorf("%w: entry %d at offset %d: reading %d data bytes: %v",
					ErrMalformed, log.Len(), offset, length, err)
			}
			log.entries = append(log.entries, Write(offset, data))
		default:
			return nil, fmt.Errorf("%w: entry %d: unknown tag byte %d", ErrMalformed, log.Len(), tagByte)
		}
	}
}

// StoreOptions configures how a Log is serialized to disk.
type StoreOptions struct {
	// Compress wraps the serialized stream in a zstd frame. Off by
	// default so the on-disk format matches the exact tag/varint
	// layout byte for byte; large recordings can opt in to shrink the
	// "changes" file.
	Compress bool
}

// Store serializes log to path, writing to a temporary file in the
// same directory and renaming it over path so a crash of this tool
// never leaves a torn "changes" file behind.
func Store(path string, log *Log, opts StoreOptions) error {
	var buf bytes.Buffer
	var writer io.Writer = &buf

	var zstdEncoder *zstd.Encoder
	if opts.Compress {
		var err error
		zstdEncoder, err = zstd.NewWriter(&buf)
		if err != nil {
			return fmt.Errorf("changelog: creating zstd encoder: %w", err)
		}
		writer = zstdEncoder
	}

	if err := Encode(writer, log); err != nil {
		return fmt.Errorf("changelog: encoding: %w", err)
	}
	if zstdEncoder != nil {
		if err := zstdEncoder.Close(); err != nil {
			return fmt.Errorf("changelog: closing zstd encoder: %w", err)
		}
	}

	dir := filepath.Dir(path)
	temp, err := os.CreateTemp(dir, ".changes-*.tmp")
	if err != nil {
		return fmt.Errorf("changelog: creating temp file in %s: %w", dir, err)
	}
	tempPath := temp.Name()
	defer os.Remove(tempPath) // no-op once the rename below succeeds

	if _, err := temp.Write(buf.Bytes()); err != nil {
		temp.Close()
		return fmt.Errorf("changelog: writing %s: %w", tempPath, err)
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		return fmt.Errorf("changelog: syncing %s: %w", tempPath, err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("changelog: closing %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("changelog: renaming %s to %s: %w", tempPath, path, err)
	}
	return nil
}

// Load reads a Log from path, produced by Store. It transparently
// decompresses a zstd-framed file (detected by magic number) so
// callers never need to know whether --compress was used to write it.
func Load(path string) (*Log, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("changelog: reading %s: %w", path, err)
	}

	var reader io.Reader = bytes.NewReader(raw)
	if bytes.HasPrefix(raw, zstdMagic) {
		decoder, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("changelog: creating zstd decoder for %s: %w", path, err)
		}
		defer decoder.Close()
		reader = decoder
	}

	log, err := Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("changelog: decoding %s: %w", path, err)
	}
	return log, nil
}

// LoadOrEmpty is like Load, but returns an empty Log instead of an
// error when path does not exist. Used by every driver verb that reads
// an existing recording (replay mounts, "show", "mutate", "gen-tests",
// "run-suite"), so a fresh working directory reads as an empty log.
func LoadOrEmpty(path string) (*Log, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return Load(path)
}
