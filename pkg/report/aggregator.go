package report

import (
	"sort"
	"sync"
	"time"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
)

// Aggregator collects one Entry per scenario. It is safe for concurrent use.
type Aggregator struct {
	mu       sync.Mutex
	entries  []Entry
	started  time.Time
	finished time.Time
	now      func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithNow replaces the clock used for run timestamps.
func WithNow(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator creates an empty Aggregator.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start marks the beginning of the run.
func (a *Aggregator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = a.now()
}

// Finish marks the end of the run.
func (a *Aggregator) Finish() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finished = a.now()
}

// Add records a scenario result.
func (a *Aggregator) Add(e Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

// Entries returns the results ordered by scenario position.
func (a *Aggregator) Entries() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Summary computes the counts and pass rate. Skipped scenarios do not
// count towards the pass rate.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return summarize(a.entries)
}

func summarize(entries []Entry) Summary {
	var s Summary
	for _, e := range entries {
		switch e.Status {
		case core.StatusPass:
			s.Passed++
		case core.StatusFail:
			s.Failed++
		case core.StatusSkip:
			s.Skipped++
		}
	}
	s.Total = s.Passed + s.Failed + s.Skipped
	if decided := s.Passed + s.Failed; decided > 0 {
		s.PassRate = float64(s.Passed) * 100 / float64(decided)
	}
	return s
}

// HasFailures reports whether any scenario failed.
func (a *Aggregator) HasFailures() bool {
	return a.Summary().Failed > 0
}

// StartTime returns when the run started.
func (a *Aggregator) StartTime() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.started
}

// Duration returns the run's wall time. Before Finish it measures up to now.
func (a *Aggregator) Duration() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	end := a.finished
	if end.IsZero() {
		end = a.now()
	}
	if a.started.IsZero() {
		return 0
	}
	return end.Sub(a.started)
}
