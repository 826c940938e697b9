package vfs

import (
	"errors"
	"sync"
)

var (
	// ErrInjectedReadError is returned when a read error is injected.
	ErrInjectedReadError = errors.New("vfs: injected read error")

	// ErrInjectedWriteError is returned when a write error is injected.
	ErrInjectedWriteError = errors.New("vfs: injected write error")

	// ErrInjectedSyncError is returned when a sync error is injected.
	ErrInjectedSyncError = errors.New("vfs: injected sync error")
)

// FaultInjectionFS wraps an FS and fails selected operations on demand.
// An empty path in an injection matches every file.
type FaultInjectionFS struct {
	base FS

	mu               sync.RWMutex
	injectReadError  bool
	injectWriteError bool
	injectSyncError  bool
	readErrorPath    string
	writeErrorPath   string
}

// NewFaultInjectionFS creates a new fault-injecting filesystem wrapper.
func NewFaultInjectionFS(base FS) *FaultInjectionFS {
	return &FaultInjectionFS{base: base}
}

// InjectReadError makes opens and reads of path fail.
func (fs *FaultInjectionFS) InjectReadError(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.injectReadError = true
	fs.readErrorPath = path
}

// InjectWriteError makes creates and writes of path fail.
func (fs *FaultInjectionFS) InjectWriteError(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.injectWriteError = true
	fs.writeErrorPath = path
}

// InjectSyncError makes every Sync fail.
func (fs *FaultInjectionFS) InjectSyncError() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.injectSyncError = true
}

// ClearErrors clears all error injection.
func (fs *FaultInjectionFS) ClearErrors() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.injectReadError = false
	fs.injectWriteError = false
	fs.injectSyncError = false
	fs.readErrorPath = ""
	fs.writeErrorPath = ""
}

func (fs *FaultInjectionFS) readFails(name string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.injectReadError && (fs.readErrorPath == "" || fs.readErrorPath == name)
}

func (fs *FaultInjectionFS) writeFails(name string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.injectWriteError && (fs.writeErrorPath == "" || fs.writeErrorPath == name)
}

func (fs *FaultInjectionFS) syncFails() bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.injectSyncError
}

// Create creates a new writable file with fault injection.
func (fs *FaultInjectionFS) Create(name string) (WritableFile, error) {
	if fs.writeFails(name) {
		return nil, ErrInjectedWriteError
	}
	f, err := fs.base.Create(name)
	if err != nil {
		return nil, err
	}
	return &faultWritableFile{base: f, fs: fs, path: name}, nil
}

// OpenRandomAccess opens an existing file for positioned reads with fault injection.
func (fs *FaultInjectionFS) OpenRandomAccess(name string) (RandomAccessFile, error) {
	if fs.readFails(name) {
		return nil, ErrInjectedReadError
	}
	f, err := fs.base.OpenRandomAccess(name)
	if err != nil {
		return nil, err
	}
	return &faultRandomAccessFile{base: f, fs: fs, path: name}, nil
}

// Remove deletes a file.
func (fs *FaultInjectionFS) Remove(name string) error {
	return fs.base.Remove(name)
}

// Exists reports whether a file exists.
func (fs *FaultInjectionFS) Exists(name string) bool {
	return fs.base.Exists(name)
}

type faultWritableFile struct {
	base WritableFile
	fs   *FaultInjectionFS
	path string
}

func (f *faultWritableFile) Write(p []byte) (int, error) {
	if f.fs.writeFails(f.path) {
		return 0, ErrInjectedWriteError
	}
	return f.base.Write(p)
}

func (f *faultWritableFile) Close() error {
	return f.base.Close()
}

func (f *faultWritableFile) Sync() error {
	if f.fs.syncFails() {
		return ErrInjectedSyncError
	}
	return f.base.Sync()
}

type faultRandomAccessFile struct {
	base RandomAccessFile
	fs   *FaultInjectionFS
	path string
}

func (f *faultRandomAccessFile) ReadAt(p []byte, off int64) (int, error) {
	if f.fs.readFails(f.path) {
		return 0, ErrInjectedReadError
	}
	return f.base.ReadAt(p, off)
}

func (f *faultRandomAccessFile) Close() error {
	return f.base.Close()
}

func (f *faultRandomAccessFile) Size() int64 {
	return f.base.Size()
}
