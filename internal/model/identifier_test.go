package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeUnitID_RoundTrip(t *testing.T) {
	tests := []struct {
		class  string
		method string
		index  int
	}{
		{"org.apache.commons.lang3.StringUtils", "abbreviate", 0},
		{"TestClass", "factorial", 3},
		{"pkg/util.Sorter", "(*Sorter).Less", 12},
		{"a", "b", 0},
	}

	for _, tt := range tests {
		t.Run(tt.class+"."+tt.method, func(t *testing.T) {
			id, err := MakeUnitID(tt.class, tt.method, tt.index)
			require.NoError(t, err)

			class, method, index, err := ParseUnitID(id.String())
			require.NoError(t, err)
			assert.Equal(t, tt.class, class)
			assert.Equal(t, tt.method, method)
			assert.Equal(t, tt.index, index)
		})
	}
}

func TestMakeUnitID_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		class  string
		method string
		index  int
	}{
		{"separator in class", "A§B", "m", 0},
		{"variant separator in method", "A", "m@1", 0},
		{"empty method", "A", "", 0},
		{"negative index", "A", "m", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MakeUnitID(tt.class, tt.method, tt.index)
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
		})
	}
}

func TestParseUnitID_Malformed(t *testing.T) {
	for _, s := range []string{"", "A§m", "A§m§x", "A§m§01", "A§m§-1", "A§m§0§1", "§m§0", "A@M1§m§0"} {
		t.Run(s, func(t *testing.T) {
			_, _, _, err := ParseUnitID(s)
			assert.ErrorIs(t, err, ErrMalformedIdentifier)
		})
	}
}

func TestCompositeIDs(t *testing.T) {
	unit, err := MakeUnitID("TestClass", "factorial", 0)
	require.NoError(t, err)

	assert.Equal(t, UnitID("TestClass§factorial§0@M12"), MutantUnitID(unit, MutantVariant("12")))
	assert.Equal(t, UnitID("TestClass§factorial§0@original@test3"), TestUnitID(unit, OriginalVariant, "test3"))

	parsed, rest, err := SplitVariantID("TestClass§factorial§0@M12@test3")
	require.NoError(t, err)
	assert.Equal(t, unit, parsed)
	assert.Equal(t, []string{"M12", "test3"}, rest)

	_, _, err = SplitVariantID("TestClass§factorial§0@@test3")
	assert.ErrorIs(t, err, ErrMalformedIdentifier)
}

func TestFileNames(t *testing.T) {
	unit := UnitID("C§m§1")

	name := StateFileName(unit, "M4", "test0")
	assert.Equal(t, "C§m§1@M4@test0.state.json", name)

	u, variant, test, ok := ParseStateFileName(name)
	require.True(t, ok)
	assert.Equal(t, unit, u)
	assert.Equal(t, "M4", variant)
	assert.Equal(t, "test0", test)

	inputs := TestInputFileName(unit, "test7")
	u, test, ok = ParseTestInputFileName(inputs)
	require.True(t, ok)
	assert.Equal(t, unit, u)
	assert.Equal(t, "test7", test)

	_, _, ok = ParseTestInputFileName("C§m§1@test7.txt")
	assert.False(t, ok)
	_, _, _, ok = ParseStateFileName("C§m§1@test7.state.json")
	assert.False(t, ok)

	assert.Equal(t, "C§m§1@original.classifications.csv", ClassificationFileName(unit, OriginalVariant))
}
