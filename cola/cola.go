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

// Package cola implements the Cache-Oblivious Lookup Array used as the
// name index for the whole filesystem: a sequence of geometrically
// growing sorted runs, searched independently on lookup and merged
// together (amortised) on insert.
package cola

import (
	"errors"

	"github.com/adurajfs/colafs/store"
)

// K is the number of runs; N = 2^K - 1 is the total slot count.
const (
	K = store.K
	N = store.N
)

var (
	// ErrAlreadyExists is returned by Insert when the name is already
	// present.
	ErrAlreadyExists = errors.New("cola: already exists")
	// ErrOutOfSpace is returned by Insert when every run is populated.
	ErrOutOfSpace = errors.New("cola: out of space")
	// ErrNotFound is the sentinel for a name absent from the index. Find
	// reports absence through its ok result rather than this error.
	ErrNotFound = errors.New("cola: not found")
)

// runStart returns the slot index of the first slot in run i.
func runStart(i int) int { return (1 << uint(i)) - 1 }

// runCap returns the number of slots run i holds when populated.
func runCap(i int) int { return 1 << uint(i) }

// Index is the name index over the backing store's COLA region.
type Index struct {
	s *store.Store
}

func New(s *store.Store) *Index {
	return &Index{s: s}
}

func (ix *Index) readSlot(slot int) Entry {
	return decodeEntry(ix.s.ColaEntryBytes(slot))
}

func (ix *Index) writeSlot(slot int, e Entry) {
	// encodeEntry only fails for names that are too long; callers are
	// responsible for validating name length before it reaches here.
	_ = encodeEntry(e, ix.s.ColaEntryBytes(slot))
}

// runPopulated reports whether run i currently holds entries. Per the
// invariant, a run is either entirely empty or entirely populated, so
// checking its first slot is sufficient.
func (ix *Index) runPopulated(i int) bool {
	return !ix.readSlot(runStart(i)).IsEmpty()
}

// Find performs independent binary searches of every populated run and
// returns the slot and Entry for name, if any.
func (ix *Index) Find(name string) (slot int, entry Entry, ok bool) {
	for i := 0; i < K; i++ {
		if !ix.runPopulated(i) {
			continue
		}
		start := runStart(i)
		lo, hi := 0, runCap(i)
		for lo < hi {
			mid := (lo + hi) / 2
			e := ix.readSlot(start + mid)
			if e.Name == name {
				return start + mid, e, true
			} else if e.Name < name {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
	}
	return 0, Entry{}, false
}

// Insert adds e to the index, cascading a merge of the lower runs into
// the first empty run found. It fails with ErrAlreadyExists if the name
// is already present, and ErrOutOfSpace if every run is populated.
func (ix *Index) Insert(e Entry) error {
	if _, _, found := ix.Find(e.Name); found {
		return ErrAlreadyExists
	}

	target := -1
	for i := 0; i < K; i++ {
		if !ix.runPopulated(i) {
			target = i
			break
		}
	}
	if target == -1 {
		return ErrOutOfSpace
	}

	// Gather one sorted source per populated lower run, plus a singleton
	// source holding e, and merge them the way the original
	// implementation's findMin-based merge did: repeatedly pick the
	// smallest head among all remaining sources.
	sources := make([][]Entry, 0, target+1)
	for i := 0; i < target; i++ {
		start := runStart(i)
		run := make([]Entry, runCap(i))
		for j := range run {
			run[j] = ix.readSlot(start + j)
		}
		sources = append(sources, run)
	}
	sources = append(sources, []Entry{e})

	dst := runStart(target)
	for {
		minSrc := -1
		for i, src := range sources {
			if len(src) == 0 {
				continue
			}
			if minSrc == -1 || src[0].Name < sources[minSrc][0].Name {
				minSrc = i
			}
		}
		if minSrc == -1 {
			break
		}
		ix.writeSlot(dst, sources[minSrc][0])
		dst++
		sources[minSrc] = sources[minSrc][1:]
	}

	for i := 0; i < target; i++ {
		start := runStart(i)
		for j := 0; j < runCap(i); j++ {
			ix.writeSlot(start+j, Entry{Head: Empty})
		}
	}

	return nil
}

// UpdateSize rewrites the size field of the entry at slot, leaving name
// and head untouched. Entries are otherwise immutable once inserted.
func (ix *Index) UpdateSize(slot int, size int32) {
	e := ix.readSlot(slot)
	e.Size = size
	ix.writeSlot(slot, e)
}

// Entry returns the entry stored at slot.
func (ix *Index) Entry(slot int) Entry {
	return ix.readSlot(slot)
}

// Record pairs an entry with the slot it currently occupies. Slots are
// only stable until the next Insert, which may merge the entry into a
// higher run.
type Record struct {
	Slot  int
	Entry Entry
}

// All returns every populated entry together with its slot index, in no
// particular order across runs (ascending within each run).
func (ix *Index) All() []Record {
	var out []Record
	for i := 0; i < K; i++ {
		if !ix.runPopulated(i) {
			continue
		}
		start := runStart(i)
		for j := 0; j < runCap(i); j++ {
			out = append(out, Record{start + j, ix.readSlot(start + j)})
		}
	}
	return out
}
