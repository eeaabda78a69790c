//go:build unix

package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLocalProcessAdapter_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	processes := NewLocalProcessAdapter()
	ctx := context.Background()

	t.Run("success captures output", func(t *testing.T) {
		result := processes.Run(ctx, Command{Name: "sh", Args: []string{"-c", "echo hello"}})
		require.True(t, result.Success(), result.Output)
		assert.Contains(t, result.Output, "hello")
	})

	t.Run("non-zero exit", func(t *testing.T) {
		result := processes.Run(ctx, Command{Name: "sh", Args: []string{"-c", "exit 3"}})
		assert.False(t, result.Success())
		assert.Equal(t, 3, result.ExitCode)
		assert.False(t, result.TimedOut)
		assert.NoError(t, result.Err)
	})

	t.Run("missing binary", func(t *testing.T) {
		result := processes.Run(ctx, Command{Name: "mreval-does-not-exist"})
		assert.False(t, result.Success())
		assert.Error(t, result.Err)
	})

	t.Run("timeout kills the process tree", func(t *testing.T) {
		dir := t.TempDir()
		marker := filepath.Join(dir, "child-survived")

		start := time.Now()
		result := processes.Run(ctx, Command{
			Name:    "sh",
			Args:    []string{"-c", "(sleep 2; touch " + marker + ") & sleep 10"},
			Timeout: 200 * time.Millisecond,
		})

		assert.True(t, result.TimedOut)
		assert.False(t, result.Success())
		assert.Less(t, time.Since(start), 5*time.Second)

		time.Sleep(2500 * time.Millisecond)
		_, err := os.Stat(marker)
		assert.True(t, os.IsNotExist(err), "background child should have been killed with its group")
	})
}

func TestProcessPool(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()

	t.Run("results follow submission order", func(t *testing.T) {
		pool := NewProcessPool(NewLocalProcessAdapter(), 2)

		require.NoError(t, pool.Submit(ctx, Command{Name: "sh", Args: []string{"-c", "sleep 0.2; exit 1"}}))
		require.NoError(t, pool.Submit(ctx, Command{Name: "sh", Args: []string{"-c", "exit 0"}}))
		require.NoError(t, pool.Submit(ctx, Command{Name: "sh", Args: []string{"-c", "exit 2"}}))

		results := pool.Wait()
		require.Len(t, results, 3)
		assert.Equal(t, 1, results[0].ExitCode)
		assert.True(t, results[1].Success())
		assert.Equal(t, 2, results[2].ExitCode)

		assert.Empty(t, pool.Wait())
	})

	t.Run("never exceeds the worker count", func(t *testing.T) {
		dir := t.TempDir()
		pool := NewProcessPool(NewLocalProcessAdapter(), 1)

		// Each process fails if another one left its lock behind.
		script := "if [ -e lock ]; then exit 9; fi; touch lock; sleep 0.1; rm lock"
		for range 4 {
			require.NoError(t, pool.Submit(ctx, Command{Name: "sh", Args: []string{"-c", script}, Dir: dir}))
		}

		for _, result := range pool.Wait() {
			assert.True(t, result.Success(), result.Output)
		}
	})

	t.Run("start failure is recorded", func(t *testing.T) {
		pool := NewProcessPool(NewLocalProcessAdapter(), 1)
		require.NoError(t, pool.Submit(ctx, Command{Name: "mreval-does-not-exist"}))

		results := pool.Wait()
		require.Len(t, results, 1)
		assert.Error(t, results[0].Err)
	})

	t.Run("cancelled context stops admission", func(t *testing.T) {
		pool := NewProcessPool(NewLocalProcessAdapter(), 1)
		cctx, cancel := context.WithCancel(ctx)

		require.NoError(t, pool.Submit(cctx, Command{Name: "sh", Args: []string{"-c", "sleep 5"}}))
		cancel()

		err := pool.Submit(cctx, Command{Name: "sh", Args: []string{"-c", "exit 0"}})
		assert.ErrorIs(t, err, context.Canceled)

		results := pool.Wait()
		require.Len(t, results, 1)
		assert.False(t, results[0].Success())
	})
}

func TestDefaultWorkers(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultWorkers(), 1)
}
