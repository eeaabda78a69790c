package domain

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"regexp"
	"sort"

	"mreval.dev/pkg/mreval/internal/adapter"
	m "mreval.dev/pkg/mreval/internal/model"
	pkg "mreval.dev/pkg/mreval/pkg"
	"mreval.dev/pkg/mreval/pkg/ratio"
)

var (
	experimentRegex = regexp.MustCompile(`^assertions_(.+)_seed(\d+)$`)
	trailingDigits  = regexp.MustCompile(`(\d+)$`)
)

// mrRecord is one MR of one unit in one results root. A record with an
// empty MR only registers the unit.
type mrRecord struct {
	Root          string
	Unit          string
	Experiment    string
	MR            string
	FalsePositive bool
	Extra         bool
	Kills         []bool
	Mutants       int
}

// ParseExperiment splits an experiment name of the form
// assertions_<strategy>_seed<N>.
func ParseExperiment(experiment string) (string, string, bool) {
	match := experimentRegex.FindStringSubmatch(experiment)
	if match == nil {
		return "", "", false
	}

	return match[1], match[2], true
}

// Aggregator merges the mutation testing results of several pipeline runs.
type Aggregator interface {
	// Summarize returns one row per unit, sorted by unit.
	Summarize(roots []m.Path, extra []adapter.ExtraFalsePositive) ([]m.SummaryRow, error)
	// PerRun returns one row per unit, strategy, seed and test seed.
	PerRun(roots []m.Path, extra []adapter.ExtraFalsePositive) ([]m.RunRow, error)
}

type aggregator struct {
	fsAdapter adapter.ArtifactFSAdapter
	reports   adapter.ReportStore
	spillDir  string
}

// NewAggregator constructs an Aggregator. Intermediate records are spilled
// to spillDir, the system temp directory when empty.
func NewAggregator(fsAdapter adapter.ArtifactFSAdapter, reports adapter.ReportStore, spillDir string) Aggregator {
	return &aggregator{fsAdapter: fsAdapter, reports: reports, spillDir: spillDir}
}

type extraKey struct {
	experiment string
	unit       string
	mr         string
}

func (a *aggregator) collect(roots []m.Path, extra []adapter.ExtraFalsePositive) (pkg.FileSpill[mrRecord], error) {
	extraSet := make(map[extraKey]bool, len(extra))
	for _, fp := range extra {
		extraSet[extraKey{fp.Experiment, fp.Unit, fp.MR}] = true
	}

	spill, err := pkg.NewFileSpill[mrRecord](a.spillDir)
	if err != nil {
		return nil, err
	}

	for _, root := range roots {
		if err := a.collectRoot(spill, root, extraSet); err != nil {
			_ = spill.Close()
			return nil, err
		}
	}

	return spill, nil
}

func (a *aggregator) collectRoot(spill pkg.FileSpill[mrRecord], root m.Path, extra map[extraKey]bool) error {
	layout := NewLayout(root)
	base := filepath.Base(string(root))

	units, err := a.fsAdapter.ListDirs(a.fsAdapter.JoinPath(string(root), "mutation"))
	if err != nil {
		return fmt.Errorf("failed to list units of %s: %w", root, err)
	}

	slog.Info("Found results", "root", root, "units", len(units))

	for _, unit := range units {
		id := m.UnitID(unit)

		if err := spill.Append(mrRecord{Root: base, Unit: unit}); err != nil {
			return err
		}

		statusPath := layout.MRStatus(id)
		if !a.fsAdapter.Exists(statusPath) {
			slog.Warn("Missing MR status", "root", root, "unit", unit)
			continue
		}

		statuses, err := a.reports.LoadMRStatus(statusPath)
		if err != nil {
			return err
		}

		mutants := 0
		kills := make(map[string][]bool)

		if killsPath := layout.MutantsKilled(id); a.fsAdapter.Exists(killsPath) {
			var records []m.KillRecord

			mutants, records, err = a.reports.LoadKillRecords(killsPath)
			if err != nil {
				return err
			}

			for _, record := range records {
				kills[m.Relation{Experiment: record.Experiment, Name: record.MR}.Key()] = record.Kills
			}
		}

		for _, status := range statuses {
			record := mrRecord{
				Root:          base,
				Unit:          unit,
				Experiment:    status.Experiment,
				MR:            status.MR,
				FalsePositive: status.FP.Value != 0,
				Extra:         extra[extraKey{status.Experiment, unit, status.MR}],
				Kills:         kills[m.Relation{Experiment: status.Experiment, Name: status.MR}.Key()],
				Mutants:       mutants,
			}

			if err := spill.Append(record); err != nil {
				return err
			}
		}
	}

	return nil
}

type unitSummary struct {
	pz      ratio.Number
	pzo     ratio.Number
	groups  map[string][]KillVector
	mutants int
}

func (a *aggregator) Summarize(roots []m.Path, extra []adapter.ExtraFalsePositive) ([]m.SummaryRow, error) {
	spill, err := a.collect(roots, extra)
	if err != nil {
		return nil, err
	}
	defer spill.Close()

	summaries := make(map[string]*unitSummary)

	err = spill.Range(func(_ uint64, record mrRecord) error {
		summary, ok := summaries[record.Unit]
		if !ok {
			summary = &unitSummary{groups: make(map[string][]KillVector)}
			summaries[record.Unit] = summary
		}

		if record.MR == "" {
			return nil
		}

		// Listed false positives count against PZ; PZO only looks at MRs
		// that passed on the original.
		summary.pz = summary.pz.Add(ratio.New(boolToInt(!record.FalsePositive && !record.Extra), 1))
		if !record.FalsePositive {
			summary.pzo = summary.pzo.Add(ratio.New(boolToInt(!record.Extra), 1))
		}

		group := record.Root + "/" + record.Experiment
		if _, ok := summary.groups[group]; !ok {
			summary.groups[group] = nil
		}

		if !record.FalsePositive && !record.Extra && record.Kills != nil {
			summary.groups[group] = append(summary.groups[group], record.Kills)
			summary.mutants = max(summary.mutants, len(record.Kills))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read merged records: %w", err)
	}

	units := make([]string, 0, len(summaries))
	for unit := range summaries {
		units = append(units, unit)
	}

	sort.Strings(units)

	rows := make([]m.SummaryRow, 0, len(units))

	for _, unit := range units {
		summary := summaries[unit]

		ms, err := summary.score()
		if err != nil {
			slog.Error("Failed to merge kill vectors", "unit", unit, "error", err)

			ms = ratio.New(0, 0)
		}

		rows = append(rows, m.SummaryRow{Unit: unit, MS: ms, PZ: summary.pz, PZO: summary.pzo})
	}

	return rows, nil
}

// score sums the OR-merged score of every experiment group.
func (s *unitSummary) score() (ratio.Number, error) {
	if s.mutants < 1 {
		return ratio.New(0, 0), nil
	}

	groups := make([]string, 0, len(s.groups))
	for group := range s.groups {
		groups = append(groups, group)
	}

	sort.Strings(groups)

	scores := make([]ratio.Number, 0, len(groups))

	for _, group := range groups {
		merged, err := MergeOr(s.mutants, s.groups[group]...)
		if err != nil {
			return ratio.Zero, fmt.Errorf("group %s: %w", group, err)
		}

		scores = append(scores, MutationScore(merged))
	}

	return ratio.Sum(scores...), nil
}

type runKey struct {
	unit       string
	experiment string
	testSeed   string
}

type runAccumulator struct {
	mutants int
	runs    []Run
}

func (a *aggregator) PerRun(roots []m.Path, extra []adapter.ExtraFalsePositive) ([]m.RunRow, error) {
	spill, err := a.collect(roots, extra)
	if err != nil {
		return nil, err
	}
	defer spill.Close()

	runs := make(map[runKey]*runAccumulator)

	err = spill.Range(func(_ uint64, record mrRecord) error {
		if record.MR == "" {
			return nil
		}

		if _, _, ok := ParseExperiment(record.Experiment); !ok {
			slog.Debug("Ignoring experiment without strategy and seed", "experiment", record.Experiment)
			return nil
		}

		key := runKey{unit: record.Unit, experiment: record.Experiment, testSeed: testSeed(record.Root)}

		run, ok := runs[key]
		if !ok {
			run = &runAccumulator{mutants: record.Mutants}
			runs[key] = run
		}

		kills := KillVector(record.Kills)
		if kills == nil {
			kills = make(KillVector, run.mutants)
		}

		run.runs = append(run.runs, Run{Kills: kills, FalsePositive: record.FalsePositive || record.Extra})

		return nil
	})
	if err != nil {
		slog.Error("Failed to merge per-run results", "error", err)
		return nil, fmt.Errorf("failed to merge per-run results: %w", err)
	}

	rows := make([]m.RunRow, 0, len(runs))

	for key, run := range runs {
		strategy, seed, _ := ParseExperiment(key.experiment)
		row := m.RunRow{
			Unit:     key.unit,
			Strategy: strategy,
			Seed:     seed,
			TestSeed: key.testSeed,
			FP:       math.NaN(),
			MS:       math.NaN(),
		}

		merged, err := MergeRuns(run.mutants, run.runs)
		if err != nil {
			slog.Error("Failed to merge kill vectors", "unit", key.unit, "experiment", key.experiment, "testSeed", key.testSeed, "error", err)
		} else {
			row.FP = merged.FP.Percentage()
			row.MS = merged.MS.Percentage()
		}

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}

		if a.Strategy != b.Strategy {
			return a.Strategy < b.Strategy
		}

		if a.Seed != b.Seed {
			return a.Seed < b.Seed
		}

		return a.TestSeed < b.TestSeed
	})

	return rows, nil
}

// testSeed is the trailing number of a results root name, or the whole
// name when it has none.
func testSeed(root string) string {
	if match := trailingDigits.FindStringSubmatch(root); match != nil {
		return match[1]
	}

	return root
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
