// Package pkg provides utilities shared by mreval commands.
package pkg

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// ErrSpillClosed is returned when appending to a closed spill.
var ErrSpillClosed = errors.New("spill is closed")

// FileSpill buffers records of type T on disk so large result sets can be
// collected in one pass and replayed in insertion order.
type FileSpill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	Range(f func(index uint64, item T) error) error
	Close() error
}

type fileSpill[T any] struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	encoder *gob.Encoder
	length  uint64
	closed  bool
}

// NewFileSpill creates a spill file inside dir. An empty dir uses the system
// temp directory. Close removes the file.
func NewFileSpill[T any](dir string) (FileSpill[T], error) {
	if dir == "" {
		dir = os.TempDir()
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		slog.Error("Failed to create spill directory", "path", dir, "error", err)
		return nil, fmt.Errorf("failed to create spill directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "mreval-spill-*.gob")
	if err != nil {
		slog.Error("Failed to create spill file", "path", dir, "error", err)
		return nil, fmt.Errorf("failed to create spill file: %w", err)
	}

	slog.Debug("Created spill", "path", file.Name())

	return &fileSpill[T]{
		path:    file.Name(),
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

func (f *fileSpill[T]) Path() string {
	return f.path
}

func (f *fileSpill[T]) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.length
}

func (f *fileSpill[T]) Append(item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrSpillClosed
	}

	if err := f.encoder.Encode(item); err != nil {
		slog.Error("Failed to encode spill item", "path", f.path, "index", f.length, "error", err)
		return fmt.Errorf("failed to encode item: %w", err)
	}

	f.length++

	return nil
}

// Range decodes items in insertion order. A callback error stops iteration
// and is returned unchanged.
func (f *fileSpill[T]) Range(fn func(index uint64, item T) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrSpillClosed
	}

	reader, err := os.Open(f.path)
	if err != nil {
		slog.Error("Failed to open spill", "path", f.path, "error", err)
		return fmt.Errorf("failed to open spill: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	decoder := gob.NewDecoder(reader)

	for i := range f.length {
		var item T
		if err := decoder.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("spill truncated at index %d: %w", i, err)
			}

			slog.Error("Failed to decode spill item", "path", f.path, "index", i, "error", err)

			return fmt.Errorf("failed to decode item at index %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

func (f *fileSpill[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}

	f.closed = true

	if err := f.file.Close(); err != nil {
		slog.Error("Failed to close spill", "path", f.path, "error", err)
		return fmt.Errorf("failed to close spill: %w", err)
	}

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove spill: %w", err)
	}

	slog.Debug("Closed spill", "path", f.path, "length", f.length)

	return nil
}
