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
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
)

// dirHandle holds the pre-built, fully materialized listing for one open
// directory. Unlike the teacher's GCS-backed handle, which pages through a
// remote ListObjects call and must cope with continuation tokens, a colafs
// listing is a single in-memory scan of the COLA index, so the whole thing
// is built once at OpenDir and served out of a fixed slice from then on;
// there is no notion of the listing changing underneath a caller mid-read,
// matching this filesystem's no-delete lifecycle.
type dirHandle struct {
	entries []fuseutil.Dirent
}

func newDirHandle(fs *FileSystem, dirName string) *dirHandle {
	kids := fs.children(dirName)
	entries := make([]fuseutil.Dirent, 0, len(kids)+2)
	entries = append(entries,
		fuseutil.Dirent{Inode: fuseops.RootInodeID, Name: ".", Type: fuseutil.DT_Directory},
		fuseutil.Dirent{Inode: fuseops.RootInodeID, Name: "..", Type: fuseutil.DT_Directory},
	)
	entries = append(entries, kids...)
	for i := range entries {
		entries[i].Offset = fuseops.DirOffset(i + 1)
	}
	return &dirHandle{entries: entries}
}

// ReadDir copies entries into op.Dst starting at op.Offset, advancing
// op.BytesRead past each dirent that fits. op.Offset is the Dirent.Offset
// of the last entry already returned (0 on the first call), which is also
// the 0-based index of the next entry to return; writing no bytes signals
// end of directory to the kernel.
func (dh *dirHandle) ReadDir(op *fuseops.ReadDirOp) error {
	index := int(op.Offset)
	if index > len(dh.entries) {
		return fuse.EINVAL
	}

	for i := index; i < len(dh.entries); i++ {
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], dh.entries[i])
		if n == 0 {
			break
		}
		op.BytesRead += n
	}
	return nil
}
