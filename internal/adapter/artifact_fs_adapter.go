// Package adapter contains filesystem, process and external tool adapters
// used by the mreval pipeline.
package adapter

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	m "mreval.dev/pkg/mreval/internal/model"
)

// CompleteMarker is the sentinel written last into a published directory
// artifact.
const CompleteMarker = ".complete"

// ArtifactFSAdapter abstracts the filesystem operations the stages rely on.
// Directory artifacts are produced in a staging directory and published in
// one step so a crash never leaves a half-written artifact that looks done.
//
//nolint:interfacebloat // Stages share one filesystem surface.
type ArtifactFSAdapter interface {
	// IsComplete reports whether the artifact at path is fully present.
	IsComplete(path m.Path) bool

	// StagingDir creates an empty sibling directory to build target in.
	StagingDir(target m.Path) (m.Path, error)

	// Publish replaces target with staging and marks it complete.
	Publish(staging, target m.Path) error

	// MarkComplete writes the completion sentinel into dir.
	MarkComplete(dir m.Path) error

	// Discard removes an artifact so its stage runs again.
	Discard(target m.Path) error

	// WriteFileAtomic writes content through a temp file and a rename.
	WriteFileAtomic(path m.Path, content []byte) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// ListFiles returns the sorted names of regular files directly in dir,
	// excluding the completion sentinel.
	ListFiles(dir m.Path) ([]string, error)

	// ListDirs returns the sorted names of subdirectories of dir.
	ListDirs(dir m.Path) ([]string, error)

	// HashFile returns the SHA-256 hex digest of the file at path.
	HashFile(path m.Path) (string, error)

	// Exists reports whether path exists.
	Exists(path m.Path) bool

	// MkdirAll creates dir and its parents.
	MkdirAll(dir m.Path) error

	// Rename moves a file or directory.
	Rename(src, dst m.Path) error

	// Remove deletes a single file.
	Remove(path m.Path) error

	// RemoveAll removes a directory and all its contents.
	RemoveAll(path m.Path) error

	// CopyDir recursively copies a directory tree.
	CopyDir(src, dst m.Path) error

	// CreateTempDir creates a temporary directory.
	CreateTempDir(pattern string) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// LocalArtifactFSAdapter implements ArtifactFSAdapter on the local disk.
type LocalArtifactFSAdapter struct{}

// NewLocalArtifactFSAdapter constructs a LocalArtifactFSAdapter.
func NewLocalArtifactFSAdapter() *LocalArtifactFSAdapter {
	return &LocalArtifactFSAdapter{}
}

// IsComplete returns true for an existing file, or for a directory holding
// the completion sentinel and at least one other file at any depth.
func (a *LocalArtifactFSAdapter) IsComplete(path m.Path) bool {
	info, err := os.Stat(string(path))
	if err != nil {
		return false
	}

	if !info.IsDir() {
		return true
	}

	if _, err := os.Stat(filepath.Join(string(path), CompleteMarker)); err != nil {
		return false
	}

	return hasContent(string(path))
}

func hasContent(root string) bool {
	found := false

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if filepath.Dir(path) == root && d.Name() == CompleteMarker {
			return nil
		}

		found = true

		return filepath.SkipAll
	})

	return found
}

// StagingDir creates .<name>.staging-* next to target.
func (a *LocalArtifactFSAdapter) StagingDir(target m.Path) (m.Path, error) {
	parent := filepath.Dir(string(target))
	if err := os.MkdirAll(parent, 0o750); err != nil {
		slog.Error("Failed to create artifact parent", "path", parent, "error", err)
		return "", fmt.Errorf("failed to create artifact parent: %w", err)
	}

	dir, err := os.MkdirTemp(parent, "."+filepath.Base(string(target))+".staging-*")
	if err != nil {
		slog.Error("Failed to create staging dir", "target", target, "error", err)
		return "", fmt.Errorf("failed to create staging dir: %w", err)
	}

	return m.Path(dir), nil
}

// Publish removes any stale target, renames staging into place and writes
// the sentinel last.
func (a *LocalArtifactFSAdapter) Publish(staging, target m.Path) error {
	if err := os.RemoveAll(string(target)); err != nil {
		slog.Error("Failed to remove stale artifact", "target", target, "error", err)
		return fmt.Errorf("failed to remove stale artifact: %w", err)
	}

	if err := os.Rename(string(staging), string(target)); err != nil {
		slog.Error("Failed to publish artifact", "staging", staging, "target", target, "error", err)
		return fmt.Errorf("failed to publish artifact: %w", err)
	}

	return a.MarkComplete(target)
}

// MarkComplete writes the zero-byte sentinel.
func (a *LocalArtifactFSAdapter) MarkComplete(dir m.Path) error {
	marker := filepath.Join(string(dir), CompleteMarker)
	if err := os.WriteFile(marker, nil, 0o600); err != nil {
		slog.Error("Failed to write completion marker", "dir", dir, "error", err)
		return fmt.Errorf("failed to write completion marker: %w", err)
	}

	return nil
}

// Discard removes target entirely.
func (a *LocalArtifactFSAdapter) Discard(target m.Path) error {
	if err := os.RemoveAll(string(target)); err != nil {
		slog.Error("Failed to discard artifact", "target", target, "error", err)
		return fmt.Errorf("failed to discard artifact: %w", err)
	}

	return nil
}

// WriteFileAtomic writes a temp file next to path and renames it over path.
func (a *LocalArtifactFSAdapter) WriteFileAtomic(path m.Path, content []byte) error {
	dir := filepath.Dir(string(path))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(string(path))+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, string(path)); err != nil {
		_ = os.Remove(tmpName)

		slog.Error("Failed to rename temp file", "path", path, "error", err)

		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// ReadFile loads file contents from disk.
func (a *LocalArtifactFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// ListFiles lists regular files directly in dir. A missing dir is empty.
func (a *LocalArtifactFSAdapter) ListFiles(dir m.Path) ([]string, error) {
	return listEntries(dir, func(e fs.DirEntry) bool {
		return !e.IsDir() && e.Name() != CompleteMarker
	})
}

// ListDirs lists non-hidden subdirectories of dir. A missing dir is empty.
func (a *LocalArtifactFSAdapter) ListDirs(dir m.Path) ([]string, error) {
	return listEntries(dir, func(e fs.DirEntry) bool {
		return e.IsDir() && !strings.HasPrefix(e.Name(), ".")
	})
}

func listEntries(dir m.Path, keep func(fs.DirEntry) bool) ([]string, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if keep(entry) {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalArtifactFSAdapter) HashFile(path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Exists reports whether path exists.
func (a *LocalArtifactFSAdapter) Exists(path m.Path) bool {
	_, err := os.Stat(string(path))
	return err == nil
}

// MkdirAll creates dir and its parents.
func (a *LocalArtifactFSAdapter) MkdirAll(dir m.Path) error {
	return os.MkdirAll(string(dir), 0o750)
}

// Rename moves src to dst.
func (a *LocalArtifactFSAdapter) Rename(src, dst m.Path) error {
	return os.Rename(string(src), string(dst))
}

// Remove deletes a single file.
func (a *LocalArtifactFSAdapter) Remove(path m.Path) error {
	return os.Remove(string(path))
}

// RemoveAll removes a directory and all its contents.
func (a *LocalArtifactFSAdapter) RemoveAll(path m.Path) error {
	return os.RemoveAll(string(path))
}

// CopyDir recursively copies a directory tree.
func (a *LocalArtifactFSAdapter) CopyDir(src, dst m.Path) error {
	return filepath.Walk(string(src), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(string(src), path)
		if err != nil {
			return err
		}

		targetPath := filepath.Join(string(dst), relPath)

		if info.IsDir() {
			return os.MkdirAll(targetPath, 0o750)
		}

		return copyFile(path, targetPath, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	// #nosec G304 - src comes from an artifact tree owned by the pipeline
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	// #nosec G304 - dst is inside the pipeline output directory
	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	defer func() { _ = destFile.Close() }()

	_, err = io.Copy(destFile, sourceFile)

	return err
}

// CreateTempDir creates a temporary directory.
func (a *LocalArtifactFSAdapter) CreateTempDir(pattern string) (m.Path, error) {
	tmpDir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalArtifactFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
