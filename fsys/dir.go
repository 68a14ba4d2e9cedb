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

package fsys

import (
	"sort"
	"strings"

	"github.com/jacobsa/fuse/fuseutil"
)

// children returns the immediate children of the directory named by
// dirName ("" for the root), derived from a full scan of the COLA index,
// sorted by leaf name. Dirent offsets are left for the caller to assign.
//
// An entry "a/b/c" is a child of "a/b" (leaf "c"), a descendant but not a
// child of "a". A name qualifies only when trimming the dirName prefix
// leaves exactly one remaining path component, so "ab" is never mistaken
// for a child of "a".
//
// LOCKS_REQUIRED(fs.mu)
func (fs *FileSystem) children(dirName string) []fuseutil.Dirent {
	prefix := ""
	if dirName != "" {
		prefix = dirName + "/"
	}

	var entries []fuseutil.Dirent
	for _, rec := range fs.cola.All() {
		e := rec.Entry
		if e.IsEmpty() || !strings.HasPrefix(e.Name, prefix) {
			continue
		}
		rest := e.Name[len(prefix):]
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}
		typ := fuseutil.DT_File
		if e.IsDir() {
			typ = fuseutil.DT_Directory
		}
		entries = append(entries, fuseutil.Dirent{
			Inode: fs.mintInode(e.Name),
			Name:  rest,
			Type:  typ,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
