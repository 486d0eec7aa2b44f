package executor

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/aysa-runner/pkg/logger"
	"github.com/devicelab-dev/aysa-runner/pkg/matrix"
	"github.com/devicelab-dev/aysa-runner/pkg/report"
)

// Suite runs a list of scenarios and records exactly one entry per scenario.
type Suite struct {
	runner     *WorkflowRunner
	aggregator *report.Aggregator
}

// NewSuite creates a Suite that records into aggregator.
func NewSuite(runner *WorkflowRunner, aggregator *report.Aggregator) *Suite {
	return &Suite{runner: runner, aggregator: aggregator}
}

// Run executes scenarios sequentially, or on Workers concurrent workers each
// with its own sessions. A session failure aborts the suite and is returned;
// scenarios that never started are recorded as SKIP.
func (s *Suite) Run(ctx context.Context, scenarios []matrix.Scenario) error {
	s.aggregator.Start()
	defer s.aggregator.Finish()

	if s.runner.config.Workers > 1 {
		return s.runParallel(ctx, scenarios)
	}
	return s.runSequential(ctx, scenarios)
}

func (s *Suite) runSequential(ctx context.Context, scenarios []matrix.Scenario) error {
	total := len(scenarios)
	var fatal error
	for i, sc := range scenarios {
		if fatal != nil {
			s.record(i, total, skipEntry(sc, abortReason(fatal)))
			continue
		}
		if ctx.Err() != nil {
			s.record(i, total, skipEntry(sc, "run cancelled"))
			continue
		}
		fatal = s.runOne(ctx, i, total, sc)
	}
	return fatal
}

func (s *Suite) runParallel(ctx context.Context, scenarios []matrix.Scenario) error {
	total := len(scenarios)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.runner.config.Workers)

	var mu sync.Mutex
	started := make([]bool, total)

	for i, sc := range scenarios {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			mu.Lock()
			started[i] = true
			mu.Unlock()
			return s.runOne(gctx, i, total, sc)
		})
	}
	fatal := g.Wait()

	reason := "run cancelled"
	if fatal != nil {
		reason = abortReason(fatal)
	}
	for i, sc := range scenarios {
		if !started[i] {
			s.record(i, total, skipEntry(sc, reason))
		}
	}
	return fatal
}

// runOne runs a single scenario and returns the fatal error, if any.
func (s *Suite) runOne(ctx context.Context, idx, total int, sc matrix.Scenario) error {
	if cb := s.runner.config.OnScenarioStart; cb != nil {
		cb(idx, total, sc)
	}
	entry, fatal := s.runner.Run(ctx, sc)
	s.record(idx, total, entry)
	if fatal != nil {
		logger.Error("aborting suite at scenario %d: %v", sc.ID, fatal)
	}
	return fatal
}

func (s *Suite) record(idx, total int, entry report.Entry) {
	entry.Index = idx
	s.aggregator.Add(entry)
	if obs := s.runner.config.Observer; obs != nil {
		obs.ObserveScenario(entry)
	}
	if cb := s.runner.config.OnScenarioEnd; cb != nil {
		cb(idx, total, entry)
	}
}

func skipEntry(sc matrix.Scenario, reason string) report.Entry {
	return skipped(report.Entry{
		ScenarioID: sc.ID,
		Name:       sc.Name(),
		Category:   sc.Category.String(),
	}, reason)
}

func abortReason(err error) string {
	return fmt.Sprintf("suite aborted: %v", err)
}
