// Package file models the opened-file collaborator the FILE page backend
// and mmap consume: reopen/close/length/seek/read/write-at. The teacher's
// own fs package builds a block-cache-backed file on top of something this
// shape; this package stops at the interface the VM side actually calls,
// the same way the disk package stops at sector read/write instead of
// building a cache on top.
package file

import "io"

// File is the file-system collaborator spec.md names: file_reopen,
// file_close, file_length, file_seek, file_read, file_write_at.
type File interface {
	// Reopen duplicates the file with an independent offset cursor, the way
	// mmap needs one cursor per mapping even when every mapping names the
	// same underlying file.
	Reopen() (File, error)
	Close() error
	Length() int64
	Seek(offset int64) error
	// Read reads up to len(buf) bytes starting at the current cursor,
	// advancing it, and returns the number of bytes actually read (short on
	// EOF, never an error for a clean EOF).
	Read(buf []byte) (int, error)
	// WriteAt writes buf at the given absolute offset without disturbing
	// the read cursor, matching mmap writeback semantics.
	WriteAt(buf []byte, offset int64) error
}

// MemFile is an in-memory File, backed by a shared byte slice so writes
// through one handle are visible to every Reopen of the same file -- a
// fake standing in for a real on-disk file and its block cache.
type MemFile struct {
	data   *[]byte
	cursor int64
}

// NewMemFile creates a fresh in-memory file with the given initial content.
func NewMemFile(content []byte) *MemFile {
	buf := make([]byte, len(content))
	copy(buf, content)
	return &MemFile{data: &buf}
}

func (f *MemFile) Reopen() (File, error) {
	return &MemFile{data: f.data}, nil
}

func (f *MemFile) Close() error {
	return nil
}

func (f *MemFile) Length() int64 {
	return int64(len(*f.data))
}

func (f *MemFile) Seek(offset int64) error {
	if offset < 0 {
		return io.ErrUnexpectedEOF
	}
	f.cursor = offset
	return nil
}

func (f *MemFile) Read(buf []byte) (int, error) {
	data := *f.data
	if f.cursor >= int64(len(data)) {
		return 0, nil
	}
	n := copy(buf, data[f.cursor:])
	f.cursor += int64(n)
	return n, nil
}

func (f *MemFile) WriteAt(buf []byte, offset int64) error {
	data := *f.data
	end := offset + int64(len(buf))
	if end > int64(len(data)) {
		grown := make([]byte, end)
		copy(grown, data)
		data = grown
		*f.data = data
	}
	copy(data[offset:end], buf)
	return nil
}
