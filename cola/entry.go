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
	"bytes"
	"fmt"

	"github.com/adurajfs/colafs/store"
)

// Sentinel head values, re-exported from store so callers of this
// package never need to import store directly for them.
const (
	Empty = store.EMPTY
	Dir   = store.DIR
	End   = store.END
)

// MaxNameLen is the longest name (path relative to the mount root,
// without a leading separator) a colafs entry may hold.
const MaxNameLen = store.FileNameLen

// Entry is one directory-tree node: a file or a directory, distinguished
// by whether Head == Dir.
type Entry struct {
	Size int32
	Name string
	Head int32
}

// IsDir reports whether e names a directory.
func (e Entry) IsDir() bool { return e.Head == Dir }

// IsEmpty reports whether e is an unused slot.
func (e Entry) IsEmpty() bool { return e.Head == Empty }

func encodeEntry(e Entry, dst []byte) error {
	if len(e.Name) > MaxNameLen {
		return fmt.Errorf("cola: name %q exceeds %d bytes", e.Name, MaxNameLen)
	}
	store.PutInt32(dst[0:4], e.Size)
	nameField := dst[4 : 4+MaxNameLen+1]
	for i := range nameField {
		nameField[i] = 0
	}
	copy(nameField, e.Name)
	store.PutInt32(dst[store.EntryHeadOff:], e.Head)
	return nil
}

func decodeEntry(src []byte) Entry {
	size := store.GetInt32(src[0:4])
	nameField := src[4 : 4+MaxNameLen+1]
	nul := bytes.IndexByte(nameField, 0)
	if nul < 0 {
		nul = len(nameField)
	}
	name := string(nameField[:nul])
	head := store.GetInt32(src[store.EntryHeadOff:])
	return Entry{Size: size, Name: name, Head: head}
}
