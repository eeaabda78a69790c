package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
	m "mreval.dev/pkg/mreval/internal/model"
)

var (
	// ErrNoPairs is returned when two strategies share no comparable run.
	ErrNoPairs = errors.New("no paired observations")
	// ErrUnknownMetric is returned for metrics other than ms and fp.
	ErrUnknownMetric = errors.New("unknown metric")
)

// Effect size magnitudes of the Vargha-Delaney statistic.
const (
	EffectNegligible = "N"
	EffectSmall      = "S"
	EffectMedium     = "M"
	EffectLarge      = "L"
)

// A12 is the paired Vargha-Delaney statistic P(a > b), counting ties as
// one half.
func A12(a, b []float64) float64 {
	if len(a) == 0 {
		return math.NaN()
	}

	var greater, equal float64

	for i := range a {
		switch {
		case a[i] == b[i]:
			equal++
		case a[i] > b[i]:
			greater++
		}
	}

	return (greater + 0.5*equal) / float64(len(a))
}

// EffectSize maps an A12 value to its magnitude.
func EffectSize(a12 float64) string {
	e := 2 * math.Abs(a12-0.5)

	switch {
	case e < 0.147:
		return EffectNegligible
	case e < 0.33:
		return EffectSmall
	case e < 0.474:
		return EffectMedium
	default:
		return EffectLarge
	}
}

// Wilcoxon runs a two-sided Wilcoxon signed-rank test on paired samples
// using the normal approximation with tie correction. Zero differences are
// dropped. It returns the smaller rank sum and the p-value.
func Wilcoxon(a, b []float64) (float64, float64, error) {
	type diff struct {
		abs  float64
		sign float64
	}

	var diffs []diff

	for i := range a {
		d := a[i] - b[i]
		if d == 0 {
			continue
		}

		diffs = append(diffs, diff{abs: math.Abs(d), sign: math.Copysign(1, d)})
	}

	n := float64(len(diffs))
	if n == 0 {
		return math.NaN(), math.NaN(), ErrNoPairs
	}

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].abs < diffs[j].abs })

	var plus, minus, ties float64

	for i := 0; i < len(diffs); {
		j := i
		for j < len(diffs) && diffs[j].abs == diffs[i].abs {
			j++
		}

		rank := float64(i+j+1) / 2
		t := float64(j - i)
		ties += t*t*t - t

		for k := i; k < j; k++ {
			if diffs[k].sign > 0 {
				plus += rank
			} else {
				minus += rank
			}
		}

		i = j
	}

	w := math.Min(plus, minus)
	mean := n * (n + 1) / 4
	sd := math.Sqrt(n*(n+1)*(2*n+1)/24 - ties/48)

	if sd == 0 {
		return w, 1, nil
	}

	z := (w - mean) / sd
	p := 2 * distuv.UnitNormal.CDF(-math.Abs(z))

	return w, math.Min(1, p), nil
}

// Compare pairs the runs of two strategies by unit, seed and test seed and
// compares metric ("ms" or "fp"). Pairs with a NaN value are dropped.
func Compare(rows []m.RunRow, metric, strategyA, strategyB string) (m.Comparison, error) {
	value, err := metricOf(metric)
	if err != nil {
		return m.Comparison{}, err
	}

	type pairKey struct{ unit, seed, testSeed string }

	byStrategy := map[string]map[pairKey]float64{strategyA: {}, strategyB: {}}

	for _, row := range rows {
		if values, ok := byStrategy[row.Strategy]; ok {
			values[pairKey{row.Unit, row.Seed, row.TestSeed}] = value(row)
		}
	}

	keys := make([]pairKey, 0, len(byStrategy[strategyA]))

	for key, va := range byStrategy[strategyA] {
		vb, ok := byStrategy[strategyB][key]
		if !ok || math.IsNaN(va) || math.IsNaN(vb) {
			continue
		}

		keys = append(keys, key)
	}

	if len(keys) == 0 {
		return m.Comparison{}, fmt.Errorf("%w: %s and %s", ErrNoPairs, strategyA, strategyB)
	}

	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})

	a := make([]float64, len(keys))
	b := make([]float64, len(keys))

	for i, key := range keys {
		a[i] = byStrategy[strategyA][key]
		b[i] = byStrategy[strategyB][key]
	}

	comparison := m.Comparison{
		Metric:    metric,
		StrategyA: strategyA,
		StrategyB: strategyB,
		Pairs:     len(keys),
	}

	comparison.MeanA, _ = stats.Mean(a)
	comparison.MeanB, _ = stats.Mean(b)
	comparison.MedianA, _ = stats.Median(a)
	comparison.MedianB, _ = stats.Median(b)

	if comparison.MeanA > comparison.MeanB {
		comparison.A12 = A12(a, b)
	} else {
		comparison.A12 = A12(b, a)
	}

	comparison.Effect = EffectSize(comparison.A12)

	comparison.W, comparison.PValue, err = Wilcoxon(a, b)
	if err != nil {
		// Identical samples: nothing to reject unless the effect says otherwise.
		comparison.PValue = 1
		if comparison.Effect != EffectNegligible {
			comparison.PValue = 0
		}
	}

	return comparison, nil
}

func metricOf(metric string) (func(m.RunRow) float64, error) {
	switch strings.ToLower(metric) {
	case "ms":
		return func(row m.RunRow) float64 { return row.MS }, nil
	case "fp":
		return func(row m.RunRow) float64 { return row.FP }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
}
