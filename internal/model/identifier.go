package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// UnitSeparator joins class, method and overload index.
	UnitSeparator = "§"
	// VariantSeparator appends a variant (mutant, original) and a test id.
	VariantSeparator = "@"

	// OriginalVariant names the unmutated program.
	OriginalVariant = "original"
)

var (
	// ErrInvalidIdentifier is returned when a component cannot be encoded.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrMalformedIdentifier is returned when a string is not a unit id.
	ErrMalformedIdentifier = errors.New("malformed identifier")
)

// UnitID identifies one (class, method, overload index) triple.
type UnitID string

func (id UnitID) String() string {
	return string(id)
}

// MakeUnitID serializes class, method and index as class§method§index.
func MakeUnitID(class, method string, index int) (UnitID, error) {
	if err := checkComponent("class", class); err != nil {
		return "", err
	}

	if err := checkComponent("method", method); err != nil {
		return "", err
	}

	if index < 0 {
		return "", fmt.Errorf("%w: negative index %d", ErrInvalidIdentifier, index)
	}

	return UnitID(class + UnitSeparator + method + UnitSeparator + strconv.Itoa(index)), nil
}

func checkComponent(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: empty %s", ErrInvalidIdentifier, name)
	}

	if strings.Contains(value, UnitSeparator) || strings.Contains(value, VariantSeparator) {
		return fmt.Errorf("%w: %s %q contains a reserved separator", ErrInvalidIdentifier, name, value)
	}

	return nil
}

// MutantUnitID appends a variant to a unit id.
func MutantUnitID(unit UnitID, variant string) UnitID {
	return UnitID(string(unit) + VariantSeparator + variant)
}

// TestUnitID appends a variant and a test id to a unit id.
func TestUnitID(unit UnitID, variant, test string) UnitID {
	return UnitID(string(MutantUnitID(unit, variant)) + VariantSeparator + test)
}

// ParseUnitID is the left inverse of MakeUnitID.
func ParseUnitID(s string) (string, string, int, error) {
	parts := strings.Split(s, UnitSeparator)
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("%w: %q", ErrMalformedIdentifier, s)
	}

	class, method, rawIndex := parts[0], parts[1], parts[2]
	if checkComponent("class", class) != nil || checkComponent("method", method) != nil {
		return "", "", 0, fmt.Errorf("%w: %q", ErrMalformedIdentifier, s)
	}

	index, err := strconv.Atoi(rawIndex)
	if err != nil || index < 0 || strconv.Itoa(index) != rawIndex {
		return "", "", 0, fmt.Errorf("%w: bad index in %q", ErrMalformedIdentifier, s)
	}

	return class, method, index, nil
}

// SplitVariantID separates a composite id into its unit and the variant/test
// suffixes that follow it.
func SplitVariantID(s string) (UnitID, []string, error) {
	parts := strings.Split(s, VariantSeparator)

	if _, _, _, err := ParseUnitID(parts[0]); err != nil {
		return "", nil, err
	}

	for _, part := range parts[1:] {
		if part == "" {
			return "", nil, fmt.Errorf("%w: empty suffix in %q", ErrMalformedIdentifier, s)
		}
	}

	return UnitID(parts[0]), parts[1:], nil
}

// MutantVariant names the variant for mutant id.
func MutantVariant(id string) string {
	return "M" + id
}

const (
	testInputsExt     = ".methodinputs"
	stateExt          = ".state.json"
	classificationExt = ".classifications.csv"
)

// TestInputFileName is <unit>@<test>.methodinputs.
func TestInputFileName(unit UnitID, test string) string {
	return string(unit) + VariantSeparator + test + testInputsExt
}

// StateFileName is <unit>@<variant>@<test>.state.json.
func StateFileName(unit UnitID, variant, test string) string {
	return string(TestUnitID(unit, variant, test)) + stateExt
}

// ClassificationFileName is <unit>@<variant>.classifications.csv.
func ClassificationFileName(unit UnitID, variant string) string {
	return string(MutantUnitID(unit, variant)) + classificationExt
}

// ParseTestInputFileName returns the unit and test id of a test input file.
func ParseTestInputFileName(name string) (UnitID, string, bool) {
	base, ok := strings.CutSuffix(name, testInputsExt)
	if !ok {
		return "", "", false
	}

	unit, rest, err := SplitVariantID(base)
	if err != nil || len(rest) != 1 {
		return "", "", false
	}

	return unit, rest[0], true
}

// ParseStateFileName returns the unit, variant and test id of a state file.
func ParseStateFileName(name string) (UnitID, string, string, bool) {
	base, ok := strings.CutSuffix(name, stateExt)
	if !ok {
		return "", "", "", false
	}

	unit, rest, err := SplitVariantID(base)
	if err != nil || len(rest) != 2 {
		return "", "", "", false
	}

	return unit, rest[0], rest[1], true
}
