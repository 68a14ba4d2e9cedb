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
	"os"
	"time"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/adurajfs/colafs/cola"
)

// Every file reports mode 0777 and every directory 0777 with nlink 2; the
// on-disk format has no permission or link-count fields.
const (
	filePerms = os.FileMode(0777)
	dirPerms  = os.FileMode(0777)
)

func attrsForEntry(e cola.Entry, uid, gid uint32, mtime time.Time) fuseops.InodeAttributes {
	if e.IsDir() {
		return fuseops.InodeAttributes{
			Size:  0,
			Nlink: 2,
			Mode:  os.ModeDir | dirPerms,
			Uid:   uid,
			Gid:   gid,
			Mtime: mtime,
			Ctime: mtime,
			Atime: mtime,
		}
	}
	return fuseops.InodeAttributes{
		Size:  uint64(e.Size),
		Nlink: 1,
		Mode:  filePerms,
		Uid:   uid,
		Gid:   gid,
		Mtime: mtime,
		Ctime: mtime,
		Atime: mtime,
	}
}

func rootAttrs(uid, gid uint32, mtime time.Time) fuseops.InodeAttributes {
	return fuseops.InodeAttributes{
		Size:  0,
		Nlink: 2,
		Mode:  os.ModeDir | dirPerms,
		Uid:   uid,
		Gid:   gid,
		Mtime: mtime,
		Ctime: mtime,
		Atime: mtime,
	}
}
