package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DocumentInfo carries run metadata that the aggregator does not track.
type DocumentInfo struct {
	RunID  string // generated when empty
	Device Device
	App    App
	Runner RunnerInfo
}

// Document builds the JSON report from the collected entries.
func (a *Aggregator) Document(info DocumentInfo) Document {
	entries := a.Entries()
	runID := info.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	start := a.StartTime()
	duration := a.Duration()
	status := "passed"
	summary := summarize(entries)
	if summary.Failed > 0 {
		status = "failed"
	}

	return Document{
		Version:   Version,
		RunID:     runID,
		Status:    status,
		StartTime: start,
		EndTime:   start.Add(duration),
		Duration:  duration.Milliseconds(),
		Device:    info.Device,
		App:       info.App,
		Runner:    info.Runner,
		Summary:   summary,
		Entries:   entries,
	}
}

// WriteJSON writes the JSON report to path.
func (a *Aggregator) WriteJSON(path string, info DocumentInfo) (Document, error) {
	doc := a.Document(info)
	return doc, atomicWriteJSON(path, doc)
}

// ReadJSON loads a JSON report.
func ReadJSON(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &doc, nil
}

// atomicWriteJSON writes v to a temp file in the target directory and
// renames it into place so readers never see a partial file.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
