// Package ratio provides an explicit numerator/divisor value type whose sums
// pool the underlying populations instead of averaging percentages.
package ratio

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var numberRegex = regexp.MustCompile(`^(.+)%\((\d+)/(\d+)\)$`)

// Number represents Value/Divisor.
type Number struct {
	Value   int
	Divisor int
}

// New returns value/divisor.
func New(value, divisor int) Number {
	return Number{Value: value, Divisor: divisor}
}

// Zero is the additive identity (0/0).
var Zero = Number{}

// Add sums both components.
func (n Number) Add(other Number) Number {
	return Number{Value: n.Value + other.Value, Divisor: n.Divisor + other.Divisor}
}

// Sum folds Add over nums starting at (0,0).
func Sum(nums ...Number) Number {
	acc := Zero
	for _, num := range nums {
		acc = acc.Add(num)
	}

	return acc
}

// Percentage returns Value/Divisor. A zero divisor yields +Inf, -Inf or NaN
// depending on the sign of Value.
func (n Number) Percentage() float64 {
	if n.Divisor == 0 {
		switch {
		case n.Value > 0:
			return math.Inf(1)
		case n.Value < 0:
			return math.Inf(-1)
		default:
			return math.NaN()
		}
	}

	return float64(n.Value) / float64(n.Divisor)
}

// IsZeroDivisor reports whether the ratio carries no population.
func (n Number) IsZeroDivisor() bool {
	return n.Divisor == 0
}

// String renders the ratio as "pp.pp%(value/divisor)".
func (n Number) String() string {
	return formatPercent(n.Percentage()) + fmt.Sprintf("(%d/%d)", n.Value, n.Divisor)
}

func formatPercent(p float64) string {
	switch {
	case math.IsNaN(p):
		return "nan%"
	case math.IsInf(p, 1):
		return "inf%"
	case math.IsInf(p, -1):
		return "-inf%"
	}

	return strconv.FormatFloat(p*100, 'f', 2, 64) + "%"
}

// Parse recovers a Number from its rendered form. The boolean is false when s
// does not match, which callers treat as absent data.
func Parse(s string) (Number, bool) {
	match := numberRegex.FindStringSubmatch(s)
	if match == nil {
		return Zero, false
	}

	value, err := strconv.Atoi(match[2])
	if err != nil {
		return Zero, false
	}

	divisor, err := strconv.Atoi(match[3])
	if err != nil {
		return Zero, false
	}

	return Number{Value: value, Divisor: divisor}, true
}

// MarshalText implements encoding.TextMarshaler.
func (n Number) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Number) UnmarshalText(text []byte) error {
	parsed, ok := Parse(string(text))
	if !ok {
		return fmt.Errorf("invalid ratio %q", string(text))
	}

	*n = parsed

	return nil
}
