// Package core provides the error taxonomy, statuses and device contract for aysa-runner.
package core

// Attachment is a debug artifact captured when a scenario fails.
type Attachment struct {
	Name        string `json:"name"`        // screenshot, hierarchy
	ContentType string `json:"contentType"` // MIME type
	Path        string `json:"path"`        // File path relative to output directory
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentHierarchy  = "hierarchy"
)

// Common content types
const (
	ContentTypePNG = "image/png"
	ContentTypeXML = "application/xml"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Body:        data,
	}
}

// NewHierarchyAttachment creates a page source attachment
func NewHierarchyAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentHierarchy,
		ContentType: ContentTypeXML,
		Path:        path,
		Body:        data,
	}
}

// ArtifactConfig controls when and what artifacts are captured
type ArtifactConfig struct {
	CaptureOnFailure bool `yaml:"captureOnFailure" json:"captureOnFailure"` // Default: true
	CaptureOnSuccess bool `yaml:"captureOnSuccess" json:"captureOnSuccess"` // Default: false

	Screenshot  bool `yaml:"screenshot" json:"screenshot"`   // Default: true
	UIHierarchy bool `yaml:"uiHierarchy" json:"uiHierarchy"` // Default: true
}

// DefaultArtifactConfig returns the default capture policy: everything, on failure only.
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		CaptureOnFailure: true,
		CaptureOnSuccess: false,
		Screenshot:       true,
		UIHierarchy:      true,
	}
}

// ShouldCapture returns true if artifacts should be captured for the given status
func (c ArtifactConfig) ShouldCapture(status Status) bool {
	switch status {
	case StatusFail:
		return c.CaptureOnFailure
	case StatusPass:
		return c.CaptureOnSuccess
	default:
		return false
	}
}

// Screenshotter is implemented by devices that can capture the screen.
type Screenshotter interface {
	Screenshot() ([]byte, error)
}
