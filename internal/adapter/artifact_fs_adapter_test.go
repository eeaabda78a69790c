package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "mreval.dev/pkg/mreval/internal/model"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLocalArtifactFSAdapter_IsComplete(t *testing.T) {
	fsAdapter := NewLocalArtifactFSAdapter()

	t.Run("missing path", func(t *testing.T) {
		assert.False(t, fsAdapter.IsComplete(m.Path(filepath.Join(t.TempDir(), "missing"))))
	})

	t.Run("file artifact is complete when present", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mrs_status.csv")
		writeTestFile(t, path, "EXPERIMENT,MR,FP,MS\n")
		assert.True(t, fsAdapter.IsComplete(m.Path(path)))
	})

	t.Run("directory without sentinel is a stale partial write", func(t *testing.T) {
		dir := t.TempDir()
		writeTestFile(t, filepath.Join(dir, "a.state.json"), "{}")
		assert.False(t, fsAdapter.IsComplete(m.Path(dir)))
	})

	t.Run("sentinel alone is not complete", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, fsAdapter.MarkComplete(m.Path(dir)))
		assert.False(t, fsAdapter.IsComplete(m.Path(dir)))
	})

	t.Run("sentinel with nested content", func(t *testing.T) {
		dir := t.TempDir()
		writeTestFile(t, filepath.Join(dir, "exp", "MR0", "TIMEOUT"), "")
		require.NoError(t, fsAdapter.MarkComplete(m.Path(dir)))
		assert.True(t, fsAdapter.IsComplete(m.Path(dir)))
	})

	t.Run("sentinel with only empty subdirectories", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "exp", "MR0"), 0o750))
		require.NoError(t, fsAdapter.MarkComplete(m.Path(dir)))
		assert.False(t, fsAdapter.IsComplete(m.Path(dir)))
	})
}

func TestLocalArtifactFSAdapter_Publish(t *testing.T) {
	fsAdapter := NewLocalArtifactFSAdapter()
	root := t.TempDir()
	target := m.Path(filepath.Join(root, "states", "C§m§0"))

	writeTestFile(t, filepath.Join(string(target), "stale.state.json"), "{}")

	staging, err := fsAdapter.StagingDir(target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(string(target)), filepath.Dir(string(staging)))
	assert.False(t, fsAdapter.IsComplete(target))

	writeTestFile(t, filepath.Join(string(staging), "fresh.state.json"), "{}")
	require.NoError(t, fsAdapter.Publish(staging, target))

	assert.True(t, fsAdapter.IsComplete(target))
	assert.False(t, fsAdapter.Exists(staging))

	files, err := fsAdapter.ListFiles(target)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh.state.json"}, files)

	dirs, err := fsAdapter.ListDirs(m.Path(filepath.Dir(string(target))))
	require.NoError(t, err)
	assert.Equal(t, []string{"C§m§0"}, dirs)

	require.NoError(t, fsAdapter.Discard(target))
	assert.False(t, fsAdapter.Exists(target))
}

func TestLocalArtifactFSAdapter_WriteFileAtomic(t *testing.T) {
	fsAdapter := NewLocalArtifactFSAdapter()
	path := m.Path(filepath.Join(t.TempDir(), "nested", "MRInfo.csv"))

	require.NoError(t, fsAdapter.WriteFileAtomic(path, []byte("first")))
	require.NoError(t, fsAdapter.WriteFileAtomic(path, []byte("second")))

	content, err := fsAdapter.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	files, err := fsAdapter.ListFiles(m.Path(filepath.Dir(string(path))))
	require.NoError(t, err)
	assert.Equal(t, []string{"MRInfo.csv"}, files)
}

func TestLocalArtifactFSAdapter_HashFileAndCopy(t *testing.T) {
	fsAdapter := NewLocalArtifactFSAdapter()
	src := t.TempDir()
	writeTestFile(t, filepath.Join(src, "a.txt"), "same")
	writeTestFile(t, filepath.Join(src, "sub", "b.txt"), "same")

	hashA, err := fsAdapter.HashFile(m.Path(filepath.Join(src, "a.txt")))
	require.NoError(t, err)
	hashB, err := fsAdapter.HashFile(m.Path(filepath.Join(src, "sub", "b.txt")))
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB)
	assert.Len(t, hashA, 64)

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, fsAdapter.CopyDir(m.Path(src), m.Path(dst)))
	assert.FileExists(t, filepath.Join(dst, "sub", "b.txt"))

	missing, err := fsAdapter.ListFiles(m.Path(filepath.Join(dst, "nope")))
	require.NoError(t, err)
	assert.Empty(t, missing)
}
