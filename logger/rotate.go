package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	maxLogSize  = 10 * 1024 * 1024 // 10MB
	maxLogFiles = 3                // Keep 3 backup files

	// DebugLogFileName is the file written inside the debug directory.
	DebugLogFileName = "pagepdf-debug.log"
)

// RotatingFile is an append-only log file that rotates itself once it
// grows past maxLogSize, keeping maxLogFiles numbered backups.
type RotatingFile struct {
	mu      sync.Mutex
	dir     string
	name    string
	file    *os.File
	size    int64
	maxSize int64
}

// OpenRotatingFile opens (or creates) dir/name, rotating first if the
// existing file is already over the size limit.
func OpenRotatingFile(dir, name string) (*RotatingFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	r := &RotatingFile{dir: dir, name: name, maxSize: maxLogSize}

	if info, err := os.Stat(r.Path()); err == nil {
		r.size = info.Size()
		if r.size >= r.maxSize {
			if err := r.rotate(); err != nil {
				return nil, fmt.Errorf("failed to rotate logs: %w", err)
			}
		}
	}

	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the active log file path.
func (r *RotatingFile) Path() string {
	return filepath.Join(r.dir, r.name)
}

// Write appends p and rotates when the size limit is crossed.
func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return 0, os.ErrClosed
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	if err != nil {
		return n, err
	}

	if r.size >= r.maxSize {
		if err := r.rotate(); err != nil {
			return n, err
		}
		if err := r.open(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Close closes the underlying file.
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *RotatingFile) open() error {
	file, err := os.OpenFile(r.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	r.file = file
	return nil
}

// rotate shifts name.1..name.N-1 up by one and moves the live file to name.1.
func (r *RotatingFile) rotate() error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}

	basePath := r.Path()

	os.Remove(fmt.Sprintf("%s.%d", basePath, maxLogFiles))

	for i := maxLogFiles - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", basePath, i), fmt.Sprintf("%s.%d", basePath, i+1))
	}

	if err := os.Rename(basePath, basePath+".1"); err != nil && !os.IsNotExist(err) {
		return err
	}
	r.size = 0
	return nil
}
