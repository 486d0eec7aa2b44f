package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
)

// AssetsDir returns the directory, relative to the output directory, that
// holds a scenario's artifacts.
func AssetsDir(scenarioID int) string {
	return filepath.Join("assets", fmt.Sprintf("scenario-%03d", scenarioID))
}

// SaveAttachments writes each attachment body under outputDir and returns the
// attachments with Path set relative to outputDir.
func SaveAttachments(outputDir string, scenarioID int, attachments []core.Attachment) ([]core.Attachment, error) {
	if len(attachments) == 0 {
		return nil, nil
	}
	rel := AssetsDir(scenarioID)
	if err := os.MkdirAll(filepath.Join(outputDir, rel), 0o755); err != nil {
		return nil, err
	}

	saved := make([]core.Attachment, 0, len(attachments))
	for _, att := range attachments {
		filename := att.Name + extensionFor(att.ContentType)
		if err := os.WriteFile(filepath.Join(outputDir, rel, filename), att.Body, 0o644); err != nil {
			return saved, err
		}
		att.Path = filepath.Join(rel, filename)
		saved = append(saved, att)
	}
	return saved, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case core.ContentTypePNG:
		return ".png"
	case core.ContentTypeXML:
		return ".xml"
	default:
		return ".bin"
	}
}
