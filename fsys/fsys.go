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

// Package fsys is the FUSE facade: it implements
// github.com/jacobsa/fuse/fuseutil.FileSystem on top of the cola/fat/store
// packages, translating fuseops.*Op requests into lookups, insertions and
// byte-range I/O against the backing file.
package fsys

import (
	"fmt"
	"syscall"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"
	"golang.org/x/net/context"

	"github.com/adurajfs/colafs/cola"
	"github.com/adurajfs/colafs/fat"
	"github.com/adurajfs/colafs/internal/metricshub"
	"github.com/adurajfs/colafs/store"
)

// maxNameLen bounds the COLA-relative path stored for any entry; re-exported
// here so checkName (checkpath.go) doesn't need to import cola directly.
const maxNameLen = cola.MaxNameLen

// New builds a fuseutil.FileSystem backed by the given store. uid/gid are
// reported as the owner of every inode; a single-user mount like this one
// has no per-file ownership to track. The concrete *FileSystem return type
// (rather than the bare interface) lets callers reach Stats for metrics
// reporting without a type assertion.
func New(s *store.Store, uid, gid uint32) *FileSystem {
	clock := timeutil.RealClock()
	fs := &FileSystem{
		clock:       clock,
		store:       s,
		cola:        cola.New(s),
		fat:         fat.New(s),
		uid:         uid,
		gid:         gid,
		mountTime:   clock.Now(),
		nextInodeID: fuseops.RootInodeID + 1,
		inodes:      make(map[fuseops.InodeID]string),
		inodeIDs:    make(map[string]fuseops.InodeID),
		handles:     make(map[fuseops.HandleID]interface{}),
	}
	fs.mu = syncutil.NewInvariantMutex(fs.checkInvariants)
	return fs
}

// FileSystem implements fuseutil.FileSystem. Embedding
// NotImplementedFileSystem means any method we don't override (rename,
// links, xattrs, fallocate) returns ENOSYS rather than failing to compile.
//
// Lock ordering: fs.mu guards the entire COLA/FAT/inode/handle view of the
// filesystem. There is no finer-grained per-inode lock, because unlike the
// teacher's GCS-backed inode objects, a colafs Entry is never deleted out
// from under a concurrent reader; one RWMutex over the whole mapped file is
// sufficient and matches the original single-process, single-lock design.
type FileSystem struct {
	fuseutil.NotImplementedFileSystem

	clock timeutil.Clock

	store *store.Store
	cola  *cola.Index
	fat   *fat.Table

	uid, gid  uint32
	mountTime time.Time

	mu syncutil.InvariantMutex

	// The next inode ID to hand out. Never reused; entry names are never
	// deleted, so the table below only grows, bounded by the COLA's
	// capacity.
	//
	// GUARDED_BY(mu)
	nextInodeID fuseops.InodeID

	// The live inode table, mapping each minted inode ID to the entry name
	// it was minted for, plus the reverse index. COLA entries migrate
	// between slots as inserts cascade, so inode IDs are keyed by name, the
	// one identity an entry keeps for its whole life.
	//
	// INVARIANT: For all k, fuseops.RootInodeID < k < nextInodeID
	// INVARIANT: inodeIDs[inodes[k]] == k for every key k of inodes
	//
	// GUARDED_BY(mu)
	inodes   map[fuseops.InodeID]string
	inodeIDs map[string]fuseops.InodeID

	// The collection of live handles: entry names for file handles,
	// *dirHandle for directory handles.
	//
	// GUARDED_BY(mu)
	handles      map[fuseops.HandleID]interface{}
	nextHandleID fuseops.HandleID

	metrics *metricshub.Hub
}

func (fs *FileSystem) checkInvariants() {
	for id, name := range fs.inodes {
		if id <= fuseops.RootInodeID || id >= fs.nextInodeID {
			panic(fmt.Sprintf("inode ID %d out of range [%d, %d)", id, fuseops.RootInodeID+1, fs.nextInodeID))
		}
		if back, ok := fs.inodeIDs[name]; !ok || back != id {
			panic(fmt.Sprintf("inode table mismatch for %q: %d vs %d", name, id, back))
		}
	}
	if len(fs.inodes) != len(fs.inodeIDs) {
		panic(fmt.Sprintf("inode maps out of sync: %d vs %d", len(fs.inodes), len(fs.inodeIDs)))
	}
}

// SetMetrics wires fs's per-operation latency reporting into hub. Left
// unset (nil), operations simply skip the observation; cmd/colafs only
// calls this when --metrics-addr is set.
func (fs *FileSystem) SetMetrics(hub *metricshub.Hub) {
	fs.metrics = hub
}

// track starts a latency measurement for op, to be stopped by calling the
// returned func once the operation completes. With no Hub set it returns a
// no-op func without reading the clock.
func (fs *FileSystem) track(op string) func() {
	if fs.metrics == nil {
		return func() {}
	}
	start := fs.clock.Now()
	return func() {
		fs.metrics.ObserveOpLatency(op, fs.clock.Now().Sub(start).Seconds())
	}
}

// mintInode returns the inode ID for name, assigning a fresh one on first
// sight of the name.
//
// LOCKS_REQUIRED(fs.mu)
func (fs *FileSystem) mintInode(name string) fuseops.InodeID {
	if id, ok := fs.inodeIDs[name]; ok {
		return id
	}
	id := fs.nextInodeID
	fs.nextInodeID++
	fs.inodes[id] = name
	fs.inodeIDs[name] = id
	return id
}

// pathForInode returns the COLA-relative path named by id, or "" for the
// root. ok is false if id was never minted by this mount.
//
// LOCKS_REQUIRED(fs.mu)
func (fs *FileSystem) pathForInode(id fuseops.InodeID) (name string, ok bool) {
	if id == fuseops.RootInodeID {
		return "", true
	}
	name, ok = fs.inodes[id]
	return name, ok
}

func joinName(parent string, child string) string {
	if parent == "" {
		return child
	}
	return parent + "/" + child
}

// toErrno maps a *Error (or a cola/fat sentinel error) onto the errno the
// kernel expects, the way the teacher maps *gcs.PreconditionError to
// fuse.EEXIST at its fs.go call boundary.
func toErrno(err error) error {
	if err == nil {
		return nil
	}
	switch err {
	case cola.ErrNotFound:
		return fuse.ENOENT
	case cola.ErrAlreadyExists:
		return fuse.EEXIST
	case cola.ErrOutOfSpace, fat.ErrOutOfSpace:
		return syscall.ENOSPC
	}
	if e, ok := err.(*Error); ok {
		switch e.Kind {
		case KindNotFound:
			return fuse.ENOENT
		case KindAlreadyExists:
			return fuse.EEXIST
		case KindOutOfSpace, KindNoMemory:
			return syscall.ENOSPC
		case KindAccessDenied:
			return syscall.EACCES
		case KindNotSupported:
			return fuse.ENOSYS
		}
	}
	return fuse.EIO
}

// LOCKS_REQUIRED(fs.mu)
func (fs *FileSystem) allocHandle(v interface{}) fuseops.HandleID {
	id := fs.nextHandleID
	fs.nextHandleID++
	fs.handles[id] = v
	return id
}

////////////////////////////////////////////////////////////////////////
// fuseutil.FileSystem
////////////////////////////////////////////////////////////////////////

func (fs *FileSystem) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	defer fs.track("lookup")()
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parentPath, ok := fs.pathForInode(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	name := joinName(parentPath, op.Name)
	if err := checkName(name); err != nil {
		return toErrno(err)
	}

	_, e, ok := fs.cola.Find(name)
	if !ok {
		return fuse.ENOENT
	}

	op.Entry.Child = fs.mintInode(name)
	op.Entry.Attributes = attrsForEntry(e, fs.uid, fs.gid, fs.mountTime)
	return nil
}

func (fs *FileSystem) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	name, ok := fs.pathForInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	if name == "" {
		op.Attributes = rootAttrs(fs.uid, fs.gid, fs.mountTime)
		return nil
	}
	_, e, ok := fs.cola.Find(name)
	if !ok {
		return fuse.ENOENT
	}
	op.Attributes = attrsForEntry(e, fs.uid, fs.gid, fs.mountTime)
	return nil
}

// SetInodeAttributes supports only the truncate path (ftruncate/truncate).
// Mode and timestamp changes are accepted without effect: this single-user
// mount has no permission bits worth enforcing and the on-disk format
// carries no per-entry mtime field.
func (fs *FileSystem) SetInodeAttributes(ctx context.Context, op *fuseops.SetInodeAttributesOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	name, ok := fs.pathForInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	if name == "" {
		if op.Size != nil {
			return fuse.EINVAL
		}
		op.Attributes = rootAttrs(fs.uid, fs.gid, fs.mountTime)
		return nil
	}
	slot, e, ok := fs.cola.Find(name)
	if !ok {
		return fuse.ENOENT
	}

	if op.Size != nil {
		if e.IsDir() {
			return fuse.EINVAL
		}
		if err := fs.truncateEntry(slot, e, int32(*op.Size)); err != nil {
			return toErrno(err)
		}
		e = fs.cola.Entry(slot)
	}

	op.Attributes = attrsForEntry(e, fs.uid, fs.gid, fs.mountTime)
	return nil
}

// ForgetInode is a no-op: entry names are never deleted, so a forgotten
// inode ID must keep resolving to the same name if the kernel looks the
// name up again while an old ID is still in flight. The table's growth is
// bounded by the COLA's entry capacity.
func (fs *FileSystem) ForgetInode(ctx context.Context, op *fuseops.ForgetInodeOp) error {
	return nil
}

func (fs *FileSystem) MkDir(ctx context.Context, op *fuseops.MkDirOp) error {
	defer fs.track("mkdir")()
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parentPath, ok := fs.pathForInode(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	name := joinName(parentPath, op.Name)
	if err := checkName(name); err != nil {
		return toErrno(err)
	}

	if err := fs.cola.Insert(cola.Entry{Name: name, Head: cola.Dir}); err != nil {
		return toErrno(err)
	}
	_, e, _ := fs.cola.Find(name)

	op.Entry.Child = fs.mintInode(name)
	op.Entry.Attributes = attrsForEntry(e, fs.uid, fs.gid, fs.mountTime)
	return nil
}

func (fs *FileSystem) CreateFile(ctx context.Context, op *fuseops.CreateFileOp) error {
	defer fs.track("create")()
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parentPath, ok := fs.pathForInode(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	name := joinName(parentPath, op.Name)
	if err := checkName(name); err != nil {
		return toErrno(err)
	}

	block, err := fs.fat.Allocate()
	if err != nil {
		return toErrno(err)
	}
	if err := fs.cola.Insert(cola.Entry{Name: name, Size: 0, Head: int32(block)}); err != nil {
		fs.fat.Free(block)
		return toErrno(err)
	}
	_, e, _ := fs.cola.Find(name)

	op.Entry.Child = fs.mintInode(name)
	op.Entry.Attributes = attrsForEntry(e, fs.uid, fs.gid, fs.mountTime)
	op.Handle = fs.allocHandle(name)
	return nil
}

// RmDir and Unlink are not supported: the on-disk format this filesystem
// reproduces has no delete path, and COLA's merge scheme assumes entries
// are only ever added. The method bodies exist because fuseutil.FileSystem
// requires them; returning ENOSYS here is the explicit "not supported"
// decision, not an oversight.
func (fs *FileSystem) RmDir(ctx context.Context, op *fuseops.RmDirOp) error {
	return fuse.ENOSYS
}

func (fs *FileSystem) Unlink(ctx context.Context, op *fuseops.UnlinkOp) error {
	return fuse.ENOSYS
}

func (fs *FileSystem) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	name, ok := fs.pathForInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	if name != "" {
		_, e, ok := fs.cola.Find(name)
		if !ok || !e.IsDir() {
			return fuse.ENOENT
		}
	}

	dh := newDirHandle(fs, name)
	op.Handle = fs.allocHandle(dh)
	return nil
}

func (fs *FileSystem) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	fs.mu.RLock()
	dh, ok := fs.handles[op.Handle].(*dirHandle)
	fs.mu.RUnlock()
	if !ok {
		return fuse.EINVAL
	}
	return dh.ReadDir(op)
}

func (fs *FileSystem) ReleaseDirHandle(ctx context.Context, op *fuseops.ReleaseDirHandleOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.handles, op.Handle)
	return nil
}

func (fs *FileSystem) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	name, ok := fs.pathForInode(op.Inode)
	if !ok || name == "" {
		return fuse.ENOENT
	}
	_, e, ok := fs.cola.Find(name)
	if !ok || e.IsDir() {
		return fuse.ENOENT
	}
	op.Handle = fs.allocHandle(name)
	return nil
}

func (fs *FileSystem) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	defer fs.track("read")()
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	name, ok := fs.handles[op.Handle].(string)
	if !ok {
		return fuse.EINVAL
	}
	_, e, ok := fs.cola.Find(name)
	if !ok {
		return fuse.ENOENT
	}

	op.BytesRead = fs.readAt(e, op.Dst, op.Offset)
	return nil
}

func (fs *FileSystem) WriteFile(ctx context.Context, op *fuseops.WriteFileOp) error {
	defer fs.track("write")()
	fs.mu.Lock()
	defer fs.mu.Unlock()

	name, ok := fs.handles[op.Handle].(string)
	if !ok {
		return fuse.EINVAL
	}
	slot, e, ok := fs.cola.Find(name)
	if !ok {
		return fuse.ENOENT
	}

	if err := fs.writeAt(slot, e, op.Data, op.Offset); err != nil {
		return toErrno(err)
	}
	return nil
}

// SyncFile and FlushFile both mean "make writes durable"; there is no
// separate write-back cache above the mmap, so both just msync the store.
func (fs *FileSystem) SyncFile(ctx context.Context, op *fuseops.SyncFileOp) error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.store.Sync()
}

func (fs *FileSystem) FlushFile(ctx context.Context, op *fuseops.FlushFileOp) error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.store.Sync()
}

func (fs *FileSystem) ReleaseFileHandle(ctx context.Context, op *fuseops.ReleaseFileHandleOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.handles, op.Handle)
	return nil
}

func (fs *FileSystem) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	free := fs.fat.FreeCount()
	op.Blocks = uint64(store.N)
	op.BlocksFree = uint64(free)
	op.BlocksAvailable = uint64(free)
	op.IoSize = uint32(fs.store.BlockSize())
	op.BlockSize = uint32(fs.store.BlockSize())
	return nil
}

// Stats reports current COLA and FAT occupancy for metrics reporting.
// colaUsed/colaTotal count index slots across all runs; fatFree/fatTotal
// count data blocks.
func (fs *FileSystem) Stats() (colaUsed, colaTotal, fatFree, fatTotal int) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	colaUsed = len(fs.cola.All())
	colaTotal = store.N
	fatFree = fs.fat.FreeCount()
	fatTotal = store.N
	return
}
