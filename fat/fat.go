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

// Package fat implements the File Allocation Table: a flat array, one
// entry per data block, chaining a file's blocks together.
package fat

import (
	"errors"

	"github.com/adurajfs/colafs/store"
)

// ErrOutOfSpace is returned when no free block remains in the table.
var ErrOutOfSpace = errors.New("fat: out of space")

const (
	Empty = store.EMPTY
	End   = store.END
)

// Table is a thin view over the store's FAT region.
type Table struct {
	s *store.Store
}

func New(s *store.Store) *Table {
	return &Table{s: s}
}

func (t *Table) get(b int) int32 {
	return store.GetInt32(t.s.FatEntryBytes(b))
}

func (t *Table) set(b int, v int32) {
	store.PutInt32(t.s.FatEntryBytes(b), v)
}

// Allocate scans the table left to right for the first free block, marks
// it as the (one-block) end of a new chain, and returns its index.
func (t *Table) Allocate() (int, error) {
	for i := 0; i < store.N; i++ {
		if t.get(i) == Empty {
			t.set(i, End)
			return i, nil
		}
	}
	return 0, ErrOutOfSpace
}

// Extend allocates a new block and appends it after tail, which must
// currently be the end of its chain.
func (t *Table) Extend(tail int) (int, error) {
	next, err := t.Allocate()
	if err != nil {
		return 0, err
	}
	t.set(tail, int32(next))
	return next, nil
}

// AtEnd reports whether b is the last block of its chain.
func (t *Table) AtEnd(b int) bool {
	return t.get(b) == End
}

// Walk advances head by k blocks along its chain and returns the block
// reached. The caller must ensure the chain is at least k+1 blocks long.
func (t *Table) Walk(head int, k int) int {
	cur := head
	for i := 0; i < k; i++ {
		cur = int(t.get(cur))
	}
	return cur
}

// TruncateAfter releases every block strictly after b in its chain,
// leaving b as the new end of chain. b's own data is left untouched.
func (t *Table) TruncateAfter(b int) {
	cur := t.get(b)
	for cur != Empty && cur != End {
		next := t.get(int(cur))
		t.set(int(cur), Empty)
		cur = next
	}
	t.set(b, End)
}

// FreeCount returns the number of unallocated blocks remaining.
func (t *Table) FreeCount() int {
	n := 0
	for i := 0; i < store.N; i++ {
		if t.get(i) == Empty {
			n++
		}
	}
	return n
}

// Free releases every block in the chain rooted at head, including head
// itself.
func (t *Table) Free(head int) {
	cur := head
	for {
		next := t.get(cur)
		t.set(cur, Empty)
		if next == End || next == Empty {
			return
		}
		cur = int(next)
	}
}
