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

package cola

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adurajfs/colafs/store"
)

func newIndex(t *testing.T) *Index {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "backing"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s)
}

func TestInsertThenFindRoundTrips(t *testing.T) {
	ix := newIndex(t)

	require.NoError(t, ix.Insert(Entry{Name: "foo", Size: 0, Head: 3}))
	_, e, ok := ix.Find("foo")
	require.True(t, ok)
	assert.Equal(t, int32(3), e.Head)
}

func TestFindMissingNameFails(t *testing.T) {
	ix := newIndex(t)
	require.NoError(t, ix.Insert(Entry{Name: "foo", Head: 1}))

	_, _, ok := ix.Find("bar")
	assert.False(t, ok)
}

func TestInsertDuplicateNameFails(t *testing.T) {
	ix := newIndex(t)
	require.NoError(t, ix.Insert(Entry{Name: "foo", Head: 1}))

	err := ix.Insert(Entry{Name: "foo", Head: 2})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

// TestRunsStaySortedAndUnique exercises the cascading merge across several
// levels of doubling (P1/P2 from the spec's testable properties): after
// inserting names in a scrambled order, every populated run must still be
// sorted and no name may repeat across runs.
func TestRunsStaySortedAndUnique(t *testing.T) {
	ix := newIndex(t)

	const count = 64
	for i := 0; i < count; i++ {
		// Insert in an order that is neither ascending nor descending.
		j := (i * 37) % count
		name := fmt.Sprintf("file-%03d", j)
		require.NoError(t, ix.Insert(Entry{Name: name, Head: int32(j)}))
	}

	seen := map[string]bool{}
	for i := 0; i < K; i++ {
		if !ix.runPopulated(i) {
			continue
		}
		start := runStart(i)
		cap := runCap(i)
		for j := 0; j < cap; j++ {
			e := ix.readSlot(start + j)
			require.False(t, e.IsEmpty())
			if j > 0 {
				prev := ix.readSlot(start + j - 1)
				assert.Less(t, prev.Name, e.Name)
			}
			assert.False(t, seen[e.Name], "name %q seen twice", e.Name)
			seen[e.Name] = true
		}
	}
	assert.Len(t, seen, count)

	for i := 0; i < count; i++ {
		name := fmt.Sprintf("file-%03d", i)
		_, e, ok := ix.Find(name)
		require.True(t, ok)
		assert.Equal(t, int32(i), e.Head)
	}
}

func TestInsertOutOfSpaceWhenFull(t *testing.T) {
	ix := newIndex(t)

	for i := 0; i < N; i++ {
		err := ix.Insert(Entry{Name: fmt.Sprintf("n%05d", i), Head: 0})
		require.NoError(t, err)
	}

	err := ix.Insert(Entry{Name: "one-too-many", Head: 0})
	assert.ErrorIs(t, err, ErrOutOfSpace)
}

func TestUpdateSizePreservesNameAndHead(t *testing.T) {
	ix := newIndex(t)
	require.NoError(t, ix.Insert(Entry{Name: "foo", Head: 7, Size: 0}))
	slot, _, _ := ix.Find("foo")

	ix.UpdateSize(slot, 42)

	_, e, ok := ix.Find("foo")
	require.True(t, ok)
	assert.Equal(t, int32(42), e.Size)
	assert.Equal(t, int32(7), e.Head)
}

func TestEncodeRejectsOverlongName(t *testing.T) {
	long := ""
	for i := 0; i < MaxNameLen+1; i++ {
		long += "a"
	}
	buf := make([]byte, store.EntrySize)
	err := encodeEntry(Entry{Name: long}, buf)
	assert.Error(t, err)
}
