package model

import "mreval.dev/pkg/mreval/pkg/ratio"

// Wildcard marks total rows in kill reports.
const Wildcard = "*"

// MRStatus is one row of mrs_status.csv.
type MRStatus struct {
	Experiment string
	MR         string
	FP         ratio.Number
	MS         ratio.Number
}

// KillRecord is one row of mutants_killed.csv.
type KillRecord struct {
	Experiment string
	MR         string
	Kills      []bool
}

// Count returns the number of killed mutants.
func (k KillRecord) Count() int {
	count := 0

	for _, killed := range k.Kills {
		if killed {
			count++
		}
	}

	return count
}

// SummaryRow aggregates one unit over every results root.
type SummaryRow struct {
	Unit string
	MS   ratio.Number
	PZ   ratio.Number
	PZO  ratio.Number
}

// RunRow is one (strategy, seed, test seed) result of a unit.
type RunRow struct {
	Unit     string
	Strategy string
	Seed     string
	TestSeed string
	FP       float64
	MS       float64
}

// Comparison is the statistical comparison of two strategies on one metric.
type Comparison struct {
	Metric    string
	StrategyA string
	StrategyB string
	Pairs     int
	MeanA     float64
	MeanB     float64
	MedianA   float64
	MedianB   float64
	A12       float64
	Effect    string
	W         float64
	PValue    float64
}
