// Package vfs provides the file abstractions that filter files are written
// to and read from.
//
// The interfaces are deliberately small: a filter file is written once,
// front to back, and then read back with positioned reads.
package vfs

import (
	"io"
	"os"
)

// FS is the filesystem interface used by the table writer and reader.
type FS interface {
	// Create creates a new writable file, truncating any existing file.
	Create(name string) (WritableFile, error)

	// OpenRandomAccess opens an existing file for positioned reads.
	OpenRandomAccess(name string) (RandomAccessFile, error)

	// Remove deletes a file.
	Remove(name string) error

	// Exists reports whether a file exists.
	Exists(name string) bool
}

// WritableFile is a file opened for sequential writing.
type WritableFile interface {
	io.Writer
	io.Closer

	// Sync flushes written data to stable storage.
	Sync() error
}

// RandomAccessFile is a file opened for positioned reads.
type RandomAccessFile interface {
	io.ReaderAt
	io.Closer

	// Size returns the file size in bytes.
	Size() int64
}

type osFS struct{}

// Default returns the FS backed by the operating system.
func Default() FS {
	return &osFS{}
}

func (fs *osFS) Create(name string) (WritableFile, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	return &osWritableFile{f: f}, nil
}

func (fs *osFS) OpenRandomAccess(name string) (RandomAccessFile, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &osRandomAccessFile{f: f, size: info.Size()}, nil
}

func (fs *osFS) Remove(name string) error {
	return os.Remove(name)
}

func (fs *osFS) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

type osWritableFile struct {
	f *os.File
}

func (wf *osWritableFile) Write(p []byte) (int, error) {
	return wf.f.Write(p)
}

func (wf *osWritableFile) Close() error {
	return wf.f.Close()
}

func (wf *osWritableFile) Sync() error {
	return wf.f.Sync()
}

type osRandomAccessFile struct {
	f    *os.File
	size int64
}

func (rf *osRandomAccessFile) ReadAt(p []byte, off int64) (int, error) {
	return rf.f.ReadAt(p, off)
}

func (rf *osRandomAccessFile) Close() error {
	return rf.f.Close()
}

func (rf *osRandomAccessFile) Size() int64 {
	return rf.size
}
