package controller

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	m "mreval.dev/pkg/mreval/internal/model"
)

const (
	progressWidth = 48
	// visibleUnits bounds the per-unit lines kept on screen.
	visibleUnits = 10
)

// TUI implements UI using Bubble Tea for the live stage progress of a run.
// Tables are printed the same way SimpleUI prints them, once the progress
// view has been torn down.
type TUI struct {
	*SimpleUI

	output  io.Writer
	options []tea.ProgramOption

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI writing to cmd's output.
func NewTUI(cmd *cobra.Command) *TUI {
	return &TUI{
		SimpleUI: NewSimpleUI(cmd, true),
		output:   cmd.OutOrStdout(),
		options:  []tea.ProgramOption{tea.WithInput(nil), tea.WithoutSignalHandler()},
	}
}

// Start initializes the UI. Run mode starts the progress view.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := p.SimpleUI.Start(ctx, options...); err != nil {
		return err
	}

	if p.mode != ModeRun {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.program != nil {
		return nil
	}

	programOptions := append([]tea.ProgramOption{tea.WithOutput(p.output), tea.WithContext(ctx)}, p.options...)
	p.program = tea.NewProgram(newStageProgressModel(), programOptions...)
	p.done = make(chan struct{})

	go func(program *tea.Program, done chan struct{}) {
		defer close(done)

		if _, err := program.Run(); err != nil && ctx.Err() == nil {
			_, _ = fmt.Fprintf(p.output, "progress view stopped: %v\n", err)
		}
	}(p.program, p.done)

	return nil
}

// Close stops the progress view if it is still running.
func (p *TUI) Close(ctx context.Context) {
	p.stop()
	p.SimpleUI.Close(ctx)
}

// DisplayRunInfo sets the run totals shown by the progress view.
func (p *TUI) DisplayRunInfo(ctx context.Context, info RunInfo) {
	if err := ctx.Err(); err != nil {
		return
	}

	if !p.send(runInfoMsg(info)) {
		p.SimpleUI.DisplayRunInfo(ctx, info)
	}
}

// DisplayStageResult advances the progress of one unit.
func (p *TUI) DisplayStageResult(ctx context.Context, unit m.Unit, result m.StageResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	if !p.send(stageResultMsg{unit: unit.ID, result: result}) {
		p.SimpleUI.DisplayStageResult(ctx, unit, result)
	}
}

// DisplayUnits prints the unit table after the progress view ends.
func (p *TUI) DisplayUnits(ctx context.Context, rows []UnitRow) error {
	p.stop()

	return p.SimpleUI.DisplayUnits(ctx, rows)
}

// DisplaySummary prints merged unit scores.
func (p *TUI) DisplaySummary(ctx context.Context, rows []m.SummaryRow) error {
	p.stop()

	return p.SimpleUI.DisplaySummary(ctx, rows)
}

// DisplayRunRows prints per-run scores.
func (p *TUI) DisplayRunRows(ctx context.Context, rows []m.RunRow) error {
	p.stop()

	return p.SimpleUI.DisplayRunRows(ctx, rows)
}

// DisplayComparison prints strategy comparisons.
func (p *TUI) DisplayComparison(ctx context.Context, comparisons []m.Comparison) error {
	p.stop()

	return p.SimpleUI.DisplayComparison(ctx, comparisons)
}

func (p *TUI) send(msg tea.Msg) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.program == nil {
		return false
	}

	p.program.Send(msg)

	return true
}

func (p *TUI) stop() {
	p.mu.Lock()
	program, done := p.program, p.done
	p.program, p.done = nil, nil
	p.mu.Unlock()

	if program == nil {
		return
	}

	program.Send(closeMsg{})
	<-done
}

type (
	runInfoMsg     RunInfo
	stageResultMsg struct {
		unit   m.UnitID
		result m.StageResult
	}
	closeMsg struct{}
)

// unitProgress is the latest stage outcome of one unit.
type unitProgress struct {
	unit     m.UnitID
	stage    m.StageName
	status   m.StageStatus
	finished int
	err      error
}

// stageProgressModel represents the Bubble Tea model for a pipeline run.
type stageProgressModel struct {
	bar      progress.Model
	info     RunInfo
	total    int
	done     int
	counts   map[m.StageStatus]int
	units    map[m.UnitID]*unitProgress
	recent   []m.UnitID
	quitting bool
}

func newStageProgressModel() stageProgressModel {
	return stageProgressModel{
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth)),
		counts: make(map[m.StageStatus]int),
		units:  make(map[m.UnitID]*unitProgress),
	}
}

func (spm stageProgressModel) Init() tea.Cmd {
	return nil
}

func (spm stageProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		spm.bar.Width = min(progressWidth, max(msg.Width-20, 10))

		return spm, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			spm.quitting = true
			return spm, tea.Quit
		}

		return spm, nil

	case runInfoMsg:
		spm.info = RunInfo(msg)
		spm.total = spm.info.Units * len(spm.info.Stages)

		return spm, nil

	case stageResultMsg:
		return spm.record(msg), nil

	case closeMsg:
		spm.quitting = true
		return spm, tea.Quit
	}

	return spm, nil
}

func (spm stageProgressModel) record(msg stageResultMsg) stageProgressModel {
	spm.done++
	spm.counts[msg.result.Status]++

	unit, ok := spm.units[msg.unit]
	if !ok {
		unit = &unitProgress{unit: msg.unit}
		spm.units[msg.unit] = unit
	}

	unit.stage = msg.result.Stage
	unit.status = msg.result.Status
	unit.err = msg.result.Err
	unit.finished++

	recent := make([]m.UnitID, 0, visibleUnits)
	recent = append(recent, msg.unit)

	for _, id := range spm.recent {
		if id != msg.unit && len(recent) < visibleUnits {
			recent = append(recent, id)
		}
	}

	spm.recent = recent

	return spm
}

func (spm stageProgressModel) percent() float64 {
	if spm.total == 0 {
		return 0
	}

	return min(float64(spm.done)/float64(spm.total), 1)
}

func (spm stageProgressModel) View() string {
	var b strings.Builder

	b.WriteString("╔════════════════════════════════════════════════════════════════╗\n")
	b.WriteString("║                  MR Eval - Pipeline Progress                   ║\n")
	b.WriteString("╚════════════════════════════════════════════════════════════════╝\n\n")

	if spm.info.RunID != "" {
		fmt.Fprintf(&b, "  Run %s: %d unit(s), %d stage(s), %d worker(s)\n\n",
			spm.info.RunID, spm.info.Units, len(spm.info.Stages), spm.info.Workers)
	}

	fmt.Fprintf(&b, "  %s %d/%d\n\n", spm.bar.ViewAs(spm.percent()), spm.done, spm.total)

	stages := len(spm.info.Stages)
	for _, id := range spm.recent {
		unit := spm.units[id]

		line := fmt.Sprintf("  %s [%d/%d] %s -> %s", unit.unit, unit.finished, stages, unit.stage, statusLabel(unit.status))
		if unit.err != nil {
			line += " (" + unit.err.Error() + ")"
		}

		b.WriteString(line + "\n")
	}

	fmt.Fprintf(&b, "\n  Completed: %d | Skipped: %d | Failed: %d\n",
		spm.counts[m.Completed], spm.counts[m.Skipped], spm.counts[m.Failed])

	return b.String()
}

func statusLabel(status m.StageStatus) string {
	label := status.String()

	switch status {
	case m.Completed:
		return completedStyle.Render(label)
	case m.Skipped:
		return skippedStyle.Render(label)
	case m.Failed:
		return failedStyle.Render(label)
	default:
		return label
	}
}
