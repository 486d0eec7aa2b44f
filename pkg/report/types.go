// Package report aggregates scenario results and writes the run reports.
//
// Outputs:
//   - test-results.txt: fixed-layout text report
//   - report.json: machine-readable document with run ID, summary and entries
//   - assets/scenario-XXX/: screenshots and page sources captured on failure
package report

import (
	"time"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
)

// Version is the JSON report schema version.
const Version = "1.0.0"

// Default output file names.
const (
	TextFileName = "test-results.txt"
	JSONFileName = "report.json"
)

// Entry is the result of one scenario.
type Entry struct {
	Index         int               `json:"index"` // Position in the scenario list
	ScenarioID    int               `json:"scenarioId"`
	Name          string            `json:"name"`
	Category      string            `json:"category,omitempty"`
	Status        core.Status       `json:"status"`
	StartTime     time.Time         `json:"startTime"`
	DurationMs    int64             `json:"durationMs"`
	ErrorDetail   string            `json:"error,omitempty"`
	ErrorCategory string            `json:"errorCategory,omitempty"`
	Detected      []string          `json:"detected,omitempty"`
	Attachments   []core.Attachment `json:"attachments,omitempty"`
}

// Summary contains aggregated counts.
type Summary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Skipped  int     `json:"skipped"`
	PassRate float64 `json:"passRate"`
}

// Device describes the device the run targeted.
type Device struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
	Version  string `json:"version,omitempty"`
}

// App describes the app under test.
type App struct {
	ID string `json:"id"`
}

// RunnerInfo describes the runner build and driver.
type RunnerInfo struct {
	Version string `json:"version"`
	Driver  string `json:"driver"` // appium, mock
}

// Document is the JSON report.
type Document struct {
	Version   string     `json:"version"`
	RunID     string     `json:"runId"`
	Status    string     `json:"status"` // passed, failed
	StartTime time.Time  `json:"startTime"`
	EndTime   time.Time  `json:"endTime"`
	Duration  int64      `json:"duration"` // milliseconds
	Device    Device     `json:"device"`
	App       App        `json:"app"`
	Runner    RunnerInfo `json:"runner"`
	Summary   Summary    `json:"summary"`
	Entries   []Entry    `json:"entries"`
}
