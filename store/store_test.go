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

package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backing")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenInitializesFreshFile(t *testing.T) {
	s := openTemp(t)

	for _, i := range []int{0, 1, 2, N / 2, N - 1} {
		head := GetInt32(s.ColaEntryBytes(i)[EntryHeadOff:])
		assert.Equal(t, EMPTY, head, "slot %d should start empty", i)
	}
	for _, i := range []int{0, 1, 2, N / 2, N - 1} {
		assert.Equal(t, EMPTY, GetInt32(s.FatEntryBytes(i)), "fat slot %d should start empty", i)
	}
}

func TestReopenPreservesContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backing")

	s, err := Open(path)
	require.NoError(t, err)
	block := s.DataBlock(5)
	copy(block, []byte("hello"))
	PutInt32(s.FatEntryBytes(5), END)
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	assert.Equal(t, []byte("hello"), s2.DataBlock(5)[:5])
	assert.Equal(t, END, GetInt32(s2.FatEntryBytes(5)))
}

func TestBlockSizeIsPageSize(t *testing.T) {
	s := openTemp(t)
	assert.Greater(t, s.BlockSize(), 0)
	assert.Len(t, s.DataBlock(0), s.BlockSize())
}

func TestInt32Codec(t *testing.T) {
	buf := make([]byte, 4)
	PutInt32(buf, -12345)
	assert.Equal(t, int32(-12345), GetInt32(buf))
}
