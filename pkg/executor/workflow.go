// Package executor runs scenarios through the app and collects their results.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/logger"
	"github.com/devicelab-dev/aysa-runner/pkg/matrix"
	"github.com/devicelab-dev/aysa-runner/pkg/page"
	"github.com/devicelab-dev/aysa-runner/pkg/report"
	"github.com/devicelab-dev/aysa-runner/pkg/session"
	"github.com/devicelab-dev/aysa-runner/pkg/wait"
)

// Observer receives run events, typically a metrics recorder.
type Observer interface {
	ObserveScenario(e report.Entry)
	ObserveSession(attempts int, err error)
}

// RunnerConfig configures scenario execution.
type RunnerConfig struct {
	OutputDir    string        // Artifact directory; empty keeps attachments in memory only
	Workers      int           // Concurrent workers (<= 1 = sequential)
	ImplicitWait time.Duration // Driver implicit wait, set once per session
	Artifacts    core.ArtifactConfig

	PageOptions []page.Option
	WaitOptions []wait.Option
	Observer    Observer

	// Live progress callbacks. With Workers > 1 they are called concurrently.
	OnScenarioStart func(idx, total int, sc matrix.Scenario)
	OnScenarioEnd   func(idx, total int, e report.Entry)
}

// WorkflowRunner drives one scenario at a time through the app.
type WorkflowRunner struct {
	sessions *session.Manager
	config   RunnerConfig
}

// NewWorkflowRunner creates a WorkflowRunner.
func NewWorkflowRunner(sessions *session.Manager, cfg RunnerConfig) *WorkflowRunner {
	return &WorkflowRunner{sessions: sessions, config: cfg}
}

// Config returns the runner configuration.
func (r *WorkflowRunner) Config() RunnerConfig {
	return r.config
}

// Run executes sc in a fresh session and returns its result. Workflow and
// assertion errors become FAIL entries; the returned error is non-nil only
// when no session could be acquired, which is fatal for the suite.
func (r *WorkflowRunner) Run(ctx context.Context, sc matrix.Scenario) (report.Entry, error) {
	start := time.Now()
	entry := report.Entry{
		ScenarioID: sc.ID,
		Name:       sc.Name(),
		Category:   sc.Category.String(),
		StartTime:  start,
	}

	if ctx.Err() != nil {
		return skipped(entry, "run cancelled"), nil
	}

	h, err := r.sessions.Acquire(ctx)
	r.observeSession(h, err)
	if err != nil {
		if ctx.Err() != nil {
			return skipped(entry, "run cancelled"), nil
		}
		failed(&entry, err, start)
		return entry, err
	}
	defer r.sessions.Release(h)

	err = r.drive(ctx, h, sc, &entry)
	switch {
	case err == nil:
		entry.Status = core.StatusPass
		entry.DurationMs = time.Since(start).Milliseconds()
	case ctx.Err() != nil:
		return skipped(entry, "run cancelled"), nil
	default:
		failed(&entry, err, start)
	}
	return entry, nil
}

// drive walks the app from Home to Results and checks the outcome.
func (r *WorkflowRunner) drive(ctx context.Context, h *session.Handle, sc matrix.Scenario, entry *report.Entry) (err error) {
	// Panics raised while capturing artifacts or returning home.
	defer func() {
		if p := recover(); p != nil {
			logger.Error("scenario %d panicked during cleanup: %v\n%s", sc.ID, p, debug.Stack())
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	if err := r.sessions.ConfigureTimeouts(h, r.config.ImplicitWait); err != nil {
		return err
	}

	device := h.Device()
	nav := page.NewNavigator(device, wait.New(device, r.config.WaitOptions...), r.config.PageOptions...)

	var current page.Screen
	defer func() {
		if current == nil {
			return
		}
		if _, homeErr := nav.ReturnHome(current); homeErr != nil {
			logger.Warn("scenario %d: return home failed, resetting app: %v", sc.ID, homeErr)
			if resetErr := r.sessions.ResetApp(h); resetErr != nil {
				logger.Warn("scenario %d: reset app: %v", sc.ID, resetErr)
			}
		}
	}()
	defer func() {
		status := core.StatusPass
		if err != nil {
			status = core.StatusFail
		}
		if r.config.Artifacts.ShouldCapture(status) {
			entry.Attachments = r.capture(device, sc.ID)
		}
	}()

	logger.Info("scenario %d: %s", sc.ID, sc.Name())
	return r.walk(ctx, nav, sc, entry, &current)
}

// walk performs the workflow steps. A panic becomes the returned error so the
// deferred artifact capture in drive sees a failed scenario.
func (r *WorkflowRunner) walk(ctx context.Context, nav *page.Navigator, sc matrix.Scenario, entry *report.Entry, current *page.Screen) (err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("scenario %d panicked: %v\n%s", sc.ID, p, debug.Stack())
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	home, err := nav.Home()
	if err != nil {
		return err
	}
	*current = home

	picker, err := home.OpenImagePicker()
	if err != nil {
		return err
	}
	*current = picker

	if picker, err = picker.SelectFolder(sc.Category.Folder()); err != nil {
		return err
	}

	q, err := picker.SelectImage(sc.ImageRef)
	if err != nil {
		return err
	}
	*current = q

	if err := ctx.Err(); err != nil {
		return err
	}

	results, err := q.Complete(sc.Answers)
	if err != nil {
		return err
	}
	*current = results

	detected := results.AllOutcomes()
	entry.Detected = detected
	logger.Info("scenario %d: detected %v, expected %s", sc.ID, detected, sc.Expected)

	return verify(sc.Expected, results, detected)
}

// verify compares the results screen with the expected outcome.
func verify(expected matrix.Outcome, results page.Results, detected []string) error {
	if expected.Kind == matrix.OutcomeNone {
		if !expected.Matches(detected) {
			return &core.AssertionMismatchError{Detected: detected}
		}
		return nil
	}
	if expected.Matches(detected) || results.ContainsOutcome(expected.Label) {
		return nil
	}
	return &core.AssertionMismatchError{Expected: expected.Label, Detected: detected}
}

// capture collects the enabled artifacts and saves them when an output
// directory is configured.
func (r *WorkflowRunner) capture(device core.Device, scenarioID int) []core.Attachment {
	var attachments []core.Attachment

	if r.config.Artifacts.Screenshot {
		if s, ok := device.(core.Screenshotter); ok {
			if data, err := s.Screenshot(); err == nil && len(data) > 0 {
				attachments = append(attachments, core.NewScreenshotAttachment("", data))
			}
		}
	}
	if r.config.Artifacts.UIHierarchy {
		if source, err := device.PageSource(); err == nil && source != "" {
			attachments = append(attachments, core.NewHierarchyAttachment("", []byte(source)))
		}
	}

	if r.config.OutputDir == "" || len(attachments) == 0 {
		return attachments
	}
	saved, err := report.SaveAttachments(r.config.OutputDir, scenarioID, attachments)
	if err != nil {
		logger.Warn("scenario %d: save artifacts: %v", scenarioID, err)
	}
	return saved
}

func (r *WorkflowRunner) observeSession(h *session.Handle, err error) {
	if r.config.Observer == nil {
		return
	}
	if err != nil {
		attempts := 0
		var initErr *core.SessionInitError
		if errors.As(err, &initErr) {
			attempts = initErr.Attempts
		}
		r.config.Observer.ObserveSession(attempts, err)
		return
	}
	r.config.Observer.ObserveSession(h.Attempts(), nil)
}

func failed(entry *report.Entry, err error, start time.Time) {
	entry.Status = core.StatusFail
	entry.DurationMs = time.Since(start).Milliseconds()
	entry.ErrorDetail = err.Error()
	entry.ErrorCategory = core.CategoryOf(err).String()
}

func skipped(entry report.Entry, reason string) report.Entry {
	entry.Status = core.StatusSkip
	entry.ErrorDetail = reason
	return entry
}
