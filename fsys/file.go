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
	"github.com/adurajfs/colafs/cola"
)

// readAt copies min(len(dst), e.Size-offset) bytes from e's block chain
// into dst, starting at offset, and returns the number copied. A short
// read means EOF and is not an error, matching fuseops.ReadFileOp's
// contract.
func (fs *FileSystem) readAt(e cola.Entry, dst []byte, offset int64) int {
	total := int64(e.Size)
	if offset >= total {
		return 0
	}
	if remain := total - offset; int64(len(dst)) > remain {
		dst = dst[:remain]
	}

	blockSize := int64(fs.store.BlockSize())
	block := fs.fat.Walk(int(e.Head), int(offset/blockSize))
	inBlock := int(offset % blockSize)

	copied := 0
	for copied < len(dst) {
		data := fs.store.DataBlock(block)
		copied += copy(dst[copied:], data[inBlock:])
		inBlock = 0
		if copied == len(dst) || fs.fat.AtEnd(block) {
			break
		}
		block = fs.fat.Walk(block, 1)
	}
	return copied
}

// writeAt writes data into slot's block chain at offset, extending the
// chain with newly allocated blocks as needed. The write boundary defines
// the new end of file: any chain tail past the last block written is
// released, and the recorded size becomes offset plus the bytes written,
// even when that shrinks the file. A write into the middle of a longer
// file therefore truncates it at the write boundary; this reproduces the
// behavior of the system this on-disk format was ported from.
func (fs *FileSystem) writeAt(slot int, e cola.Entry, data []byte, offset int64) error {
	if len(data) == 0 {
		return nil
	}

	blockSize := int64(fs.store.BlockSize())

	block := int(e.Head)
	for skip := int(offset / blockSize); skip > 0; skip-- {
		next, err := fs.nextBlock(block)
		if err != nil {
			return err
		}
		block = next
	}

	inBlock := int(offset % blockSize)
	written := 0
	for {
		dst := fs.store.DataBlock(block)
		written += copy(dst[inBlock:], data[written:])
		inBlock = 0
		if written == len(data) {
			break
		}
		next, err := fs.nextBlock(block)
		if err != nil {
			// Partial write: the bytes already placed stay on disk and the
			// size reflects them.
			fs.fat.TruncateAfter(block)
			fs.cola.UpdateSize(slot, int32(offset)+int32(written))
			return err
		}
		block = next
	}

	fs.fat.TruncateAfter(block)
	fs.cola.UpdateSize(slot, int32(offset)+int32(written))
	return nil
}

// nextBlock advances one hop along block's chain, extending it with a
// fresh allocation when block is the current end.
func (fs *FileSystem) nextBlock(block int) (int, error) {
	if fs.fat.AtEnd(block) {
		return fs.fat.Extend(block)
	}
	return fs.fat.Walk(block, 1), nil
}

// truncateEntry resizes the entry at slot to newSize, releasing
// now-unreachable blocks when shrinking. Growing a file extends the chain
// out to the new last block and only records the new size; the newly
// in-range bytes are not cleared. They read as zero only where the block
// has never held data: a block freed earlier (by a shrinking write or
// truncate) and handed out again by fat.Allocate keeps its old contents,
// as do the bytes past the old size in the previous last block.
func (fs *FileSystem) truncateEntry(slot int, e cola.Entry, newSize int32) error {
	blockSize := int64(fs.store.BlockSize())

	if newSize <= e.Size {
		lastBlock := 0
		if newSize > 0 {
			lastBlock = int((int64(newSize) - 1) / blockSize)
		}
		cur := fs.fat.Walk(int(e.Head), lastBlock)
		fs.fat.TruncateAfter(cur)
		fs.cola.UpdateSize(slot, newSize)
		return nil
	}

	block := int(e.Head)
	lastBlock := int((int64(newSize) - 1) / blockSize)
	for i := 0; i < lastBlock; i++ {
		next, err := fs.nextBlock(block)
		if err != nil {
			return err
		}
		block = next
	}
	fs.cola.UpdateSize(slot, newSize)
	return nil
}
