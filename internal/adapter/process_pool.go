package adapter

import (
	"context"
	"runtime"
	"time"
)

// PollInterval is how often the pool checks outstanding processes.
const PollInterval = 50 * time.Millisecond

// DefaultWorkers returns the number of available cores minus one, at least 1.
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()-1)
}

// ProcessPool is an admission gate for external processes: a new process is
// started only once fewer than the configured number are outstanding.
// Completion is detected by polling. A pool is used by one goroutine.
//
// Polling is fine for hundreds of processes; thousands of concurrent
// subprocesses would want completion notifications instead.
type ProcessPool interface {
	// Submit blocks until a slot is free, then starts cmd.
	Submit(ctx context.Context, cmd Command) error
	// Wait blocks until every submitted process has exited and returns
	// their results in submission order. The pool can be reused afterwards.
	Wait() []ProcessResult
}

type pollingProcessPool struct {
	processes ProcessAdapter
	workers   int
	interval  time.Duration
	running   []runningProcess
	results   []ProcessResult
}

type runningProcess struct {
	index int
	proc  Process
}

// NewProcessPool returns a polling pool with workers slots. A non-positive
// workers value uses DefaultWorkers.
func NewProcessPool(processes ProcessAdapter, workers int) ProcessPool {
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	return &pollingProcessPool{
		processes: processes,
		workers:   workers,
		interval:  PollInterval,
	}
}

func (p *pollingProcessPool) Submit(ctx context.Context, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for len(p.running) >= p.workers {
		if p.reap() > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}

	index := len(p.results)
	p.results = append(p.results, ProcessResult{Command: cmd})

	proc, err := p.processes.Start(ctx, cmd)
	if err != nil {
		p.results[index] = ProcessResult{Command: cmd, ExitCode: -1, Err: err}
		return nil
	}

	p.running = append(p.running, runningProcess{index: index, proc: proc})

	return nil
}

func (p *pollingProcessPool) Wait() []ProcessResult {
	for len(p.running) > 0 {
		if p.reap() == 0 {
			time.Sleep(p.interval)
		}
	}

	results := p.results
	p.results = nil

	return results
}

// reap collects finished processes and returns how many were removed.
func (p *pollingProcessPool) reap() int {
	still := p.running[:0]
	reaped := 0

	for _, r := range p.running {
		if r.proc.Done() {
			p.results[r.index] = r.proc.Result()
			reaped++

			continue
		}

		still = append(still, r)
	}

	p.running = still

	return reaped
}
