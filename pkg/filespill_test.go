package pkg

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spillRecord struct {
	Experiment string
	MR         string
	Kills      []bool
}

func TestFileSpill(t *testing.T) {
	t.Run("creates file in the requested directory", func(t *testing.T) {
		dir := t.TempDir()

		spill, err := NewFileSpill[int](dir)
		require.NoError(t, err)
		defer spill.Close()

		assert.FileExists(t, spill.Path())
		assert.Contains(t, spill.Path(), dir)
	})

	t.Run("range replays records in order", func(t *testing.T) {
		spill, err := NewFileSpill[spillRecord](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		records := []spillRecord{
			{Experiment: "assertions_a_seed1", MR: "MR0", Kills: []bool{true, false}},
			{Experiment: "assertions_a_seed1", MR: "MR1", Kills: []bool{false, false}},
			{Experiment: "assertions_b_seed1", MR: "MR0", Kills: nil},
		}
		for _, r := range records {
			require.NoError(t, spill.Append(r))
		}

		require.Equal(t, uint64(3), spill.Len())

		var got []spillRecord
		require.NoError(t, spill.Range(func(_ uint64, item spillRecord) error {
			got = append(got, item)
			return nil
		}))

		assert.Equal(t, records, got)
	})

	t.Run("range callback error stops iteration", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		for i := range 3 {
			require.NoError(t, spill.Append(i))
		}

		stop := errors.New("stop")
		count := 0
		err = spill.Range(func(index uint64, _ int) error {
			count++
			if index == 1 {
				return stop
			}

			return nil
		})

		require.ErrorIs(t, err, stop)
		assert.Equal(t, 2, count)
	})

	t.Run("empty spill ranges over nothing", func(t *testing.T) {
		spill, err := NewFileSpill[string](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		called := false
		require.NoError(t, spill.Range(func(uint64, string) error {
			called = true
			return nil
		}))
		assert.False(t, called)
	})

	t.Run("close removes the file and rejects appends", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		require.NoError(t, spill.Append(1))

		require.NoError(t, spill.Close())
		require.NoError(t, spill.Close())

		_, statErr := os.Stat(spill.Path())
		assert.True(t, os.IsNotExist(statErr))
		assert.ErrorIs(t, spill.Append(2), ErrSpillClosed)
	})
}

func BenchmarkFileSpillAppend(b *testing.B) {
	spill, err := NewFileSpill[spillRecord](b.TempDir())
	if err != nil {
		b.Fatalf("failed to create spill: %v", err)
	}
	defer spill.Close()

	record := spillRecord{Experiment: "assertions_a_seed1", MR: "MR0", Kills: make([]bool, 64)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = spill.Append(record)
	}
}
