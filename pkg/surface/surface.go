// Package surface defines output rendering for change reports.
// Implementations handle different output targets: terminal, markdown for
// PR comments, GitHub Check Run, JSON.
package surface

import (
	"io"

	"github.com/twells89/sigma-data-model-tool/pkg/report"
)

// Renderer produces formatted output from a Report.
type Renderer interface {
	// Render writes the formatted report to the writer.
	Render(w io.Writer, r *report.Report) error
}

// CheckRunData holds the data needed to create a GitHub Check Run.
type CheckRunData struct {
	Title      string `json:"title"`
	Summary    string `json:"summary"`    // Markdown body
	Conclusion string `json:"conclusion"` // success, neutral, failure
}
