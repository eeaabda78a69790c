package controller

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	m "mreval.dev/pkg/mreval/internal/model"
)

var (
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	skippedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// SimpleUI implements UI using cobra Command's output writer.
type SimpleUI struct {
	cmd   *cobra.Command
	color bool
	mode  StartMode
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command, color bool) *SimpleUI {
	return &SimpleUI{cmd: cmd, color: color}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	config := StartConfig{mode: ModeReport}
	for _, option := range options {
		option(&config)
	}

	s.mode = config.mode

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// DisplayRunInfo shows what a pipeline run is about to do.
func (s *SimpleUI) DisplayRunInfo(ctx context.Context, info RunInfo) {
	if err := ctx.Err(); err != nil {
		return
	}

	stages := make([]string, 0, len(info.Stages))
	for _, stage := range info.Stages {
		stages = append(stages, string(stage))
	}

	s.printf("Run %s: %d unit(s) with %d worker(s) (Shard %d/%d) into %s\n",
		info.RunID, info.Units, info.Workers, info.ShardIndex, info.ShardCount, info.Output)
	s.printf("Stages: %s\n", strings.Join(stages, ", "))
}

// DisplayStageResult shows the outcome of one stage for one unit. Nothing
// is printed outside run mode.
func (s *SimpleUI) DisplayStageResult(ctx context.Context, unit m.Unit, result m.StageResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	if s.mode != ModeRun {
		return
	}

	line := fmt.Sprintf("%s %s -> %s", unit.ID, result.Stage, s.status(result.Status))

	switch {
	case result.Err != nil:
		line += fmt.Sprintf(" (%v)", result.Err)
	case result.Reason != "":
		line += fmt.Sprintf(" (%s)", result.Reason)
	}

	s.printf("%s\n", line)
}

// DisplayUnits prints one row per unit with its state and stage tallies.
func (s *SimpleUI) DisplayUnits(ctx context.Context, rows []UnitRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	failed := 0
	body := make([][]string, 0, len(rows))

	for _, row := range rows {
		errText := ""
		if row.Err != nil {
			errText = s.failure(row.Err.Error())
			failed++
		}

		body = append(body, []string{
			string(row.Unit),
			row.State.String(),
			strconv.Itoa(row.Completed),
			strconv.Itoa(row.Skipped),
			strconv.Itoa(row.Failed),
			errText,
		})
	}

	s.printf("\n%s", renderTable(
		[]string{"Unit", "State", "Completed", "Skipped", "Failed", "Error"},
		body,
		[]string{fmt.Sprintf("Total Units %d", len(rows)), "", "", "", strconv.Itoa(failed), ""},
	))

	return nil
}

// DisplaySummary prints merged unit scores.
func (s *SimpleUI) DisplaySummary(ctx context.Context, rows []m.SummaryRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		body = append(body, []string{row.Unit, row.MS.String(), row.PZ.String(), row.PZO.String()})
	}

	s.printf("\n%s", renderTable([]string{"SUT", "MS", "PZ", "PZO"}, body, nil))

	return nil
}

// DisplayRunRows prints per-run scores.
func (s *SimpleUI) DisplayRunRows(ctx context.Context, rows []m.RunRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		body = append(body, []string{
			row.Unit, row.Strategy, row.Seed, row.TestSeed,
			formatFloat(row.FP), formatFloat(row.MS),
		})
	}

	s.printf("\n%s", renderTable([]string{"SUT", "Strategy", "Seed", "Test Seed", "FP", "MS"}, body, nil))

	return nil
}

// DisplayComparison prints strategy comparisons, one row per metric.
func (s *SimpleUI) DisplayComparison(ctx context.Context, comparisons []m.Comparison) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := make([][]string, 0, len(comparisons))
	for _, c := range comparisons {
		body = append(body, []string{
			c.Metric,
			c.StrategyA,
			c.StrategyB,
			strconv.Itoa(c.Pairs),
			formatFloat(c.MeanA) + " / " + formatFloat(c.MeanB),
			formatFloat(c.MedianA) + " / " + formatFloat(c.MedianB),
			formatFloat(c.A12),
			c.Effect,
			formatFloat(c.W),
			strconv.FormatFloat(c.PValue, 'g', 4, 64),
		})
	}

	s.printf("\n%s", renderTable(
		[]string{"Metric", "A", "B", "Pairs", "Mean", "Median", "A12", "Effect", "W", "P"},
		body,
		nil,
	))

	return nil
}

func (s *SimpleUI) status(status m.StageStatus) string {
	if !s.color {
		return status.String()
	}

	return statusLabel(status)
}

func (s *SimpleUI) failure(text string) string {
	if !s.color {
		return text
	}

	return failedStyle.Render(text)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func renderTable(header []string, rows [][]string, footer []string) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)

	if footer != nil {
		table.SetFooter(footer)
	}

	table.Render()

	return tableBuffer.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
