package adapter

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	m "mreval.dev/pkg/mreval/internal/model"
	"mreval.dev/pkg/mreval/pkg/ratio"
)

var (
	mrStatusHeader    = []string{"EXPERIMENT", "MR", "FP", "MS"}
	mrInfoHeader      = []string{"MR", "SOURCE", "FOLLOWUP"}
	failuresHeader    = []string{"CLASS", "TEST", "TYPE"}
	suiteHeader       = []string{"EXPERIMENT", "MR", "CLASS", "TESTS"}
	summaryHeader     = []string{"SUT", "MS", "PZ", "PZO"}
	runRowsHeader     = []string{"SUT", "STRATEGY", "SEED", "TEST_SEED", "FP", "MS"}
	extraFPHeader     = []string{"EXPERIMENT", "UNIT", "MR"}
	mutationsColumns  = 7
	mutantsLogColumns = 7
)

// ErrUnexpectedFormat is returned for reports that do not match their format.
var ErrUnexpectedFormat = errors.New("unexpected report format")

// ExtraFalsePositive marks a relation as a false positive found outside the
// pipeline.
type ExtraFalsePositive struct {
	Experiment string
	Unit       string
	MR         string
}

// ReportStore reads and writes the CSV reports exchanged between stages and
// external tools. Writes are atomic.
//
//nolint:interfacebloat // One codec surface for every report kind.
type ReportStore interface {
	SaveClassification(path m.Path, classification m.Classification) error
	LoadClassification(path m.Path) (m.Classification, error)

	SaveMRStatus(path m.Path, rows []m.MRStatus) error
	LoadMRStatus(path m.Path) ([]m.MRStatus, error)

	// SaveKillRecords writes per-MR kill vectors plus per-experiment and
	// grand total rows.
	SaveKillRecords(path m.Path, mutants int, records []m.KillRecord) error
	// LoadKillRecords returns the mutant count and the per-MR rows only.
	LoadKillRecords(path m.Path) (int, []m.KillRecord, error)

	SaveMRInfo(path m.Path, rows []m.MRInfo) error

	LoadMutations(path m.Path) ([]m.MutationResult, error)
	LoadMutantsLog(path m.Path) ([]m.Mutant, error)
	LoadTestFailures(path m.Path) ([]m.TestFailure, error)
	LoadSuite(path m.Path) ([]m.SuiteEntry, error)
	LoadExtraFalsePositives(path m.Path) ([]ExtraFalsePositive, error)

	SaveSummary(path m.Path, rows []m.SummaryRow) error
	LoadSummary(path m.Path) ([]m.SummaryRow, error)
	SaveRunRows(path m.Path, rows []m.RunRow) error
	LoadRunRows(path m.Path) ([]m.RunRow, error)
}

type reportStore struct {
	ArtifactFSAdapter
}

// NewReportStore returns a ReportStore backed by fsAdapter.
func NewReportStore(fsAdapter ArtifactFSAdapter) ReportStore {
	return &reportStore{ArtifactFSAdapter: fsAdapter}
}

func (s *reportStore) writeCSV(path m.Path, header []string, rows [][]string) error {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	if header != nil {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to encode %s: %w", path, err)
		}
	}

	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := s.WriteFileAtomic(path, buf.Bytes()); err != nil {
		slog.Error("Failed to write report", "path", path, "error", err)
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func (s *reportStore) readCSV(path m.Path, header []string) ([][]string, error) {
	content, err := s.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnexpectedFormat, path, err)
	}

	if header == nil {
		return records, nil
	}

	if len(records) == 0 || !equalHeader(records[0], header) {
		return nil, fmt.Errorf("%w: %s: expected header %v", ErrUnexpectedFormat, path, header)
	}

	rows := records[1:]
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: %s: row %d has %d columns", ErrUnexpectedFormat, path, i+1, len(row))
		}
	}

	return rows, nil
}

func equalHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}

	for i := range got {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}

	return true
}

func (s *reportStore) SaveClassification(path m.Path, classification m.Classification) error {
	header := append([]string{classification.SystemID}, classification.Keys...)
	rows := make([][]string, 0, len(classification.Rows))

	for _, row := range classification.Rows {
		record := []string{row.TestID}
		for _, verdict := range row.Verdicts {
			record = append(record, string(verdict))
		}

		rows = append(rows, record)
	}

	return s.writeCSV(path, header, rows)
}

func (s *reportStore) LoadClassification(path m.Path) (m.Classification, error) {
	records, err := s.readCSV(path, nil)
	if err != nil {
		return m.Classification{}, err
	}

	if len(records) == 0 {
		return m.Classification{}, fmt.Errorf("%w: %s: empty classification", ErrUnexpectedFormat, path)
	}

	header := records[0]
	classification := m.Classification{SystemID: header[0], Keys: header[1:]}
	seen := make(map[string]bool)

	for _, record := range records[1:] {
		if len(record) != len(header) {
			return m.Classification{}, fmt.Errorf("%w: %s: cannot parse row %v", ErrUnexpectedFormat, path, record)
		}

		if seen[record[0]] {
			return m.Classification{}, fmt.Errorf("%w: %s: duplicate test id %s", ErrUnexpectedFormat, path, record[0])
		}

		seen[record[0]] = true

		row := m.ClassificationRow{TestID: record[0]}
		for _, v := range record[1:] {
			row.Verdicts = append(row.Verdicts, m.Verdict(v))
		}

		classification.Rows = append(classification.Rows, row)
	}

	return classification, nil
}

func (s *reportStore) SaveMRStatus(path m.Path, rows []m.MRStatus) error {
	sorted := append([]m.MRStatus(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Experiment != sorted[j].Experiment {
			return sorted[i].Experiment < sorted[j].Experiment
		}

		return sorted[i].MR < sorted[j].MR
	})

	records := make([][]string, 0, len(sorted))
	for _, row := range sorted {
		records = append(records, []string{row.Experiment, row.MR, row.FP.String(), row.MS.String()})
	}

	return s.writeCSV(path, mrStatusHeader, records)
}

func (s *reportStore) LoadMRStatus(path m.Path) ([]m.MRStatus, error) {
	records, err := s.readCSV(path, mrStatusHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]m.MRStatus, 0, len(records))

	for _, record := range records {
		fp, okFP := ratio.Parse(record[2])
		ms, okMS := ratio.Parse(record[3])

		if !okFP || !okMS {
			return nil, fmt.Errorf("%w: %s: bad ratio in %v", ErrUnexpectedFormat, path, record)
		}

		rows = append(rows, m.MRStatus{Experiment: record[0], MR: record[1], FP: fp, MS: ms})
	}

	return rows, nil
}

func (s *reportStore) SaveKillRecords(path m.Path, mutants int, records []m.KillRecord) error {
	header := []string{"EXPERIMENT", "MR"}
	for i := 1; i <= mutants; i++ {
		header = append(header, "M"+strconv.Itoa(i))
	}

	header = append(header, "COUNT")

	sorted := append([]m.KillRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Experiment != sorted[j].Experiment {
			return sorted[i].Experiment < sorted[j].Experiment
		}

		return sorted[i].MR < sorted[j].MR
	})

	rows := make([][]string, 0, len(sorted)+4)
	total := make([]bool, mutants)

	for i := 0; i < len(sorted); {
		experiment := sorted[i].Experiment
		perExperiment := make([]bool, mutants)

		for ; i < len(sorted) && sorted[i].Experiment == experiment; i++ {
			record := sorted[i]
			if len(record.Kills) != mutants {
				return fmt.Errorf("%w: kill vector of %s/%s has %d mutants, expected %d", ErrUnexpectedFormat, record.Experiment, record.MR, len(record.Kills), mutants)
			}

			rows = append(rows, killRow(record))

			for k, killed := range record.Kills {
				perExperiment[k] = perExperiment[k] || killed
				total[k] = total[k] || killed
			}
		}

		rows = append(rows, killRow(m.KillRecord{Experiment: experiment, MR: m.Wildcard, Kills: perExperiment}))
	}

	rows = append(rows, killRow(m.KillRecord{Experiment: m.Wildcard, MR: m.Wildcard, Kills: total}))

	return s.writeCSV(path, header, rows)
}

func killRow(record m.KillRecord) []string {
	row := []string{record.Experiment, record.MR}

	for _, killed := range record.Kills {
		if killed {
			row = append(row, "1")
		} else {
			row = append(row, "0")
		}
	}

	return append(row, strconv.Itoa(record.Count()))
}

func (s *reportStore) LoadKillRecords(path m.Path) (int, []m.KillRecord, error) {
	records, err := s.readCSV(path, nil)
	if err != nil {
		return 0, nil, err
	}

	if len(records) == 0 {
		return 0, nil, fmt.Errorf("%w: %s: missing header", ErrUnexpectedFormat, path)
	}

	header := records[0]
	if len(header) < 3 || header[0] != "EXPERIMENT" || header[1] != "MR" || header[len(header)-1] != "COUNT" {
		return 0, nil, fmt.Errorf("%w: %s: unexpected header %v", ErrUnexpectedFormat, path, header)
	}

	mutants := len(header) - 3

	var rows []m.KillRecord

	for _, record := range records[1:] {
		if len(record) != mutants+3 {
			return 0, nil, fmt.Errorf("%w: %s: row %v", ErrUnexpectedFormat, path, record)
		}

		if record[0] == m.Wildcard || record[1] == m.Wildcard {
			continue
		}

		kills := make([]bool, mutants)

		for i, raw := range record[2 : len(record)-1] {
			value, err := strconv.Atoi(raw)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: %s: %w", ErrUnexpectedFormat, path, err)
			}

			kills[i] = value != 0
		}

		rows = append(rows, m.KillRecord{Experiment: record[0], MR: record[1], Kills: kills})
	}

	return mutants, rows, nil
}

func (s *reportStore) SaveMRInfo(path m.Path, rows []m.MRInfo) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{row.MR, row.Source, row.Followup})
	}

	return s.writeCSV(path, mrInfoHeader, records)
}

// LoadMutations parses a runner mutations report: headerless rows of
// sourceFile,class,operator,method,line,verdict,failingTest.
func (s *reportStore) LoadMutations(path m.Path) ([]m.MutationResult, error) {
	records, err := s.readCSV(path, nil)
	if err != nil {
		return nil, err
	}

	results := make([]m.MutationResult, 0, len(records))

	for _, record := range records {
		if len(record) != mutationsColumns {
			return nil, fmt.Errorf("%w: %s: row %v", ErrUnexpectedFormat, path, record)
		}

		line, err := strconv.Atoi(record[4])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: line %q", ErrUnexpectedFormat, path, record[4])
		}

		verdict, err := m.ParseMutationVerdict(record[5])
		if err != nil {
			slog.Error("Failed to parse mutation verdict", "path", path, "verdict", record[5], "error", err)
			return nil, err
		}

		results = append(results, m.MutationResult{
			SourceFile:  record[0],
			Class:       record[1],
			Operator:    record[2],
			Method:      record[3],
			Line:        line,
			Verdict:     verdict,
			FailingTest: record[6],
		})
	}

	return results, nil
}

// LoadMutantsLog parses a mutation engine log: colon separated lines with
// the mutant id first and the source line in the sixth field.
func (s *reportStore) LoadMutantsLog(path m.Path) ([]m.Mutant, error) {
	content, err := s.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mutants log: %w", err)
	}

	var mutants []m.Mutant

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, ":")
		if len(fields) < mutantsLogColumns {
			return nil, fmt.Errorf("%w: %s: mutants log line %q", ErrUnexpectedFormat, path, line)
		}

		lineNo, err := strconv.Atoi(fields[5])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: mutant line %q", ErrUnexpectedFormat, path, fields[5])
		}

		mutants = append(mutants, m.Mutant{ID: fields[0], Line: lineNo})
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to scan mutants log: %w", err)
	}

	return mutants, nil
}

func (s *reportStore) LoadTestFailures(path m.Path) ([]m.TestFailure, error) {
	records, err := s.readCSV(path, failuresHeader)
	if err != nil {
		return nil, err
	}

	failures := make([]m.TestFailure, 0, len(records))

	for _, record := range records {
		failureType, err := m.ParseFailureType(record[2])
		if err != nil {
			return nil, err
		}

		failures = append(failures, m.TestFailure{TestClass: record[0], TestID: record[1], Type: failureType})
	}

	return failures, nil
}

func (s *reportStore) LoadSuite(path m.Path) ([]m.SuiteEntry, error) {
	records, err := s.readCSV(path, suiteHeader)
	if err != nil {
		return nil, err
	}

	entries := make([]m.SuiteEntry, 0, len(records))

	for _, record := range records {
		tests, err := strconv.Atoi(record[3])
		if err != nil || tests < 0 {
			return nil, fmt.Errorf("%w: %s: test count %q", ErrUnexpectedFormat, path, record[3])
		}

		entries = append(entries, m.SuiteEntry{Experiment: record[0], MR: record[1], TestClass: record[2], Tests: tests})
	}

	return entries, nil
}

func (s *reportStore) LoadExtraFalsePositives(path m.Path) ([]ExtraFalsePositive, error) {
	records, err := s.readCSV(path, extraFPHeader)
	if err != nil {
		return nil, err
	}

	fps := make([]ExtraFalsePositive, 0, len(records))
	for _, record := range records {
		fps = append(fps, ExtraFalsePositive{Experiment: record[0], Unit: record[1], MR: record[2]})
	}

	return fps, nil
}

func (s *reportStore) SaveSummary(path m.Path, rows []m.SummaryRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{row.Unit, row.MS.String(), row.PZ.String(), row.PZO.String()})
	}

	return s.writeCSV(path, summaryHeader, records)
}

func (s *reportStore) LoadSummary(path m.Path) ([]m.SummaryRow, error) {
	records, err := s.readCSV(path, summaryHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]m.SummaryRow, 0, len(records))

	for _, record := range records {
		row := m.SummaryRow{Unit: record[0]}
		row.MS, _ = ratio.Parse(record[1])
		row.PZ, _ = ratio.Parse(record[2])
		row.PZO, _ = ratio.Parse(record[3])
		rows = append(rows, row)
	}

	return rows, nil
}

func (s *reportStore) SaveRunRows(path m.Path, rows []m.RunRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Unit, row.Strategy, row.Seed, row.TestSeed,
			strconv.FormatFloat(row.FP, 'g', -1, 64),
			strconv.FormatFloat(row.MS, 'g', -1, 64),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return strings.Join(records[i], ",") < strings.Join(records[j], ",")
	})

	return s.writeCSV(path, runRowsHeader, records)
}

func (s *reportStore) LoadRunRows(path m.Path) ([]m.RunRow, error) {
	records, err := s.readCSV(path, runRowsHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]m.RunRow, 0, len(records))

	for _, record := range records {
		fp, errFP := strconv.ParseFloat(record[4], 64)
		ms, errMS := strconv.ParseFloat(record[5], 64)

		if errFP != nil || errMS != nil {
			return nil, fmt.Errorf("%w: %s: row %v", ErrUnexpectedFormat, path, record)
		}

		rows = append(rows, m.RunRow{
			Unit: record[0], Strategy: record[1], Seed: record[2], TestSeed: record[3], FP: fp, MS: ms,
		})
	}

	return rows, nil
}
