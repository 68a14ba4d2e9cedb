// Copyright 2025 The colafs Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store memory-maps the single backing file that holds an entire
// colafs filesystem and hands out byte-range views of its three regions:
// the COLA entry table, the FAT, and the data blocks.
//
// The layout mirrors the original C implementation this package was ported
// from, which mmap'd one file and addressed it with raw pointer arithmetic.
package store

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const (
	// K controls the number of COLA runs (run i has capacity 2^i for
	// i in [0, K)) and therefore the total slot count N = 2^K - 1.
	K = 15
	N = (1 << K) - 1

	// FileNameLen is the maximum length, in bytes, of an entry name.
	FileNameLen = 30

	// Sentinel values shared by COLA entry heads and FAT slots.
	EMPTY int32 = -1
	DIR   int32 = -2
	END   int32 = -3

	sizeFieldLen = 4
	nameFieldLen = FileNameLen + 1
	headFieldLen = 4

	// EntryHeadOff is the byte offset of the head field within an entry.
	// The name buffer ends at byte 35; one padding byte keeps head
	// naturally aligned, matching the C struct this layout is ported from.
	EntryHeadOff = 36

	// EntrySize is the on-disk width of one COLA entry: a 32-bit size, a
	// null-terminated name buffer one byte longer than FileNameLen, one
	// alignment padding byte, and a 32-bit head/chain indicator.
	EntrySize = EntryHeadOff + headFieldLen
)

// Store owns the memory-mapped backing file and the three region offsets
// computed from it. It knows nothing about COLA runs or FAT chains; it is
// a dumb, scoped byte-range provider, per the lock-ordering discipline
// documented in fsys.
type Store struct {
	f    *os.File
	data []byte

	pageSize int
	offCola  int
	offFat   int
	offData  int
	size     int
}

func alignUp(n, align int) int {
	if n%align == 0 {
		return n
	}
	return n + (align - n%align)
}

// Open opens (creating and zero-initializing if necessary) the backing
// file at path and memory-maps it.
func Open(path string) (s *Store, err error) {
	pageSize := os.Getpagesize()

	colaBytes := N * EntrySize
	fatBytes := N * 4

	offCola := 0
	offFat := alignUp(colaBytes, pageSize)
	offData := offFat + alignUp(fatBytes, pageSize)
	total := offData + N*pageSize + 2*pageSize

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("store: stat %q: %w", path, err)
	}

	fresh := fi.Size() == 0
	if fi.Size() < int64(total) {
		if err = f.Truncate(int64(total)); err != nil {
			f.Close()
			return nil, fmt.Errorf("store: truncate %q: %w", path, err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("store: mmap %q: %w", path, err)
	}

	s = &Store{
		f:        f,
		data:     data,
		pageSize: pageSize,
		offCola:  offCola,
		offFat:   offFat,
		offData:  offData,
		size:     total,
	}

	if fresh {
		s.initialize()
	}

	return s, nil
}

// initialize formats a freshly created backing file: every COLA head
// becomes EMPTY and every FAT slot becomes EMPTY. Data blocks are left
// untouched (already zero from Truncate).
func (s *Store) initialize() {
	for i := 0; i < N; i++ {
		e := s.ColaEntryBytes(i)
		putInt32(e[EntryHeadOff:], EMPTY)
	}
	for i := 0; i < N; i++ {
		putInt32(s.FatEntryBytes(i), EMPTY)
	}
}

// BlockSize returns the host page size, B in the specification.
func (s *Store) BlockSize() int { return s.pageSize }

// ColaEntryBytes returns a mutable view of the on-disk bytes for COLA slot
// i. Valid for the lifetime of the Store; callers must hold whatever lock
// protects concurrent access (see fsys's lock-ordering notes).
func (s *Store) ColaEntryBytes(i int) []byte {
	off := s.offCola + i*EntrySize
	return s.data[off : off+EntrySize]
}

// FatEntryBytes returns a mutable 4-byte view of FAT slot i.
func (s *Store) FatEntryBytes(i int) []byte {
	off := s.offFat + i*4
	return s.data[off : off+4]
}

// DataBlock returns a mutable view of data block i, B bytes long.
func (s *Store) DataBlock(i int) []byte {
	off := s.offData + i*s.pageSize
	return s.data[off : off+s.pageSize]
}

// Sync flushes mapped memory to the backing file.
func (s *Store) Sync() error {
	return unix.Msync(s.data, unix.MS_SYNC)
}

// Close flushes and unmaps the backing file.
func (s *Store) Close() error {
	if err := s.Sync(); err != nil {
		return err
	}
	if err := unix.Munmap(s.data); err != nil {
		return err
	}
	return s.f.Close()
}

func putInt32(b []byte, v int32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getInt32(b []byte) int32 {
	return int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24
}

// GetInt32 and PutInt32 expose the little-endian codec used for FAT slots
// and the size/head fields of COLA entries, so cola and fat don't each
// reimplement it.
func GetInt32(b []byte) int32    { return getInt32(b) }
func PutInt32(b []byte, v int32) { putInt32(b, v) }
