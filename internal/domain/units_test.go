package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mreval.dev/pkg/mreval/internal/adapter"
	m "mreval.dev/pkg/mreval/internal/model"
)

func unitIDs(units []m.Unit) []string {
	ids := make([]string, 0, len(units))
	for _, unit := range units {
		ids = append(ids, string(unit.ID))
	}

	return ids
}

func TestEnumerateUnits(t *testing.T) {
	locator := fakeLocator{decls: map[m.Path][]adapter.MethodDecl{
		"calc.go": {
			{Name: "Add", Index: 0, StartLine: 5, EndLine: 7},
			{Name: "Add", Index: 1, StartLine: 9, EndLine: 11},
			{Name: "Abs", Index: 0, StartLine: 13, EndLine: 19},
		},
		"stack.go": {
			{Name: "Push", Index: 0, StartLine: 3, EndLine: 5},
			{Name: "Pop", Index: 0, StartLine: 7, EndLine: 12},
		},
	}}

	subjects := []m.Subject{
		{Class: "Calc", Source: "calc.go"},
		{Class: "Stack", Source: "stack.go", Methods: []string{"Pop"}},
	}

	units, err := EnumerateUnits(context.Background(), locator, subjects)
	require.NoError(t, err)

	assert.Equal(t, []string{"Calc§Add§0", "Calc§Add§1", "Calc§Abs§0", "Stack§Pop§0"}, unitIDs(units))
	assert.Equal(t, m.Path("stack.go"), units[3].Source)
	assert.Equal(t, 1, units[1].Index)
}

func TestEnumerateUnits_LocatorError(t *testing.T) {
	locator := fakeLocator{err: errors.New("parse error")}

	_, err := EnumerateUnits(context.Background(), locator, []m.Subject{{Class: "Calc", Source: "calc.go"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Calc")
}

func testUnits(t *testing.T, ids ...[3]string) []m.Unit {
	t.Helper()

	units := make([]m.Unit, 0, len(ids))

	for i, id := range ids {
		unit, err := m.NewUnit(m.Subject{Class: id[0], Source: "src.go"}, id[1], int(id[2][0]-'0'))
		require.NoError(t, err, "unit %d", i)

		units = append(units, unit)
	}

	return units
}

func TestSelectUnits(t *testing.T) {
	units := testUnits(t,
		[3]string{"Calc", "add", "0"},
		[3]string{"Calc", "add", "1"},
		[3]string{"Calc", "abs", "0"},
		[3]string{"Stack", "pop", "0"},
	)

	tests := []struct {
		name     string
		patterns []string
		expected []string
	}{
		{"no patterns", nil, []string{"Calc§add§0", "Calc§add§1", "Calc§abs§0", "Stack§pop§0"}},
		{"exact", []string{"Calc§abs§0"}, []string{"Calc§abs§0"}},
		{"star stops at separator", []string{"Calc*"}, nil},
		{"star per component", []string{"Calc§*§*"}, []string{"Calc§add§0", "Calc§add§1", "Calc§abs§0"}},
		{"super star", []string{"Calc**"}, []string{"Calc§add§0", "Calc§add§1", "Calc§abs§0"}},
		{"any pattern", []string{"*§pop§*", "Calc§add§1"}, []string{"Calc§add§1", "Stack§pop§0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected, err := SelectUnits(units, tt.patterns)
			require.NoError(t, err)

			if tt.expected == nil {
				assert.Empty(t, selected)
				return
			}

			assert.Equal(t, tt.expected, unitIDs(selected))
		})
	}
}

func TestSelectUnits_InvalidPattern(t *testing.T) {
	_, err := SelectUnits(testUnits(t, [3]string{"Calc", "add", "0"}), []string{"Calc[§"})
	require.ErrorIs(t, err, m.ErrInvalidConfig)
}

func TestShardUnits(t *testing.T) {
	units := testUnits(t,
		[3]string{"C", "a", "0"},
		[3]string{"C", "b", "0"},
		[3]string{"C", "c", "0"},
		[3]string{"C", "d", "0"},
		[3]string{"C", "e", "0"},
	)

	assert.Equal(t, []string{"C§a§0", "C§c§0", "C§e§0"}, unitIDs(ShardUnits(units, 0, 2)))
	assert.Equal(t, []string{"C§b§0", "C§d§0"}, unitIDs(ShardUnits(units, 1, 2)))
	assert.Len(t, ShardUnits(units, 0, 0), 5)
	assert.Empty(t, ShardUnits(units, 3, 2))
}
