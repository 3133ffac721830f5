package surface

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/twells89/sigma-data-model-tool/pkg/report"
)

// CheckRunRenderer produces GitHub Check Run data from a report.
type CheckRunRenderer struct{}

func (r *CheckRunRenderer) Render(w io.Writer, rep *report.Report) error {
	data := r.BuildCheckRunData(rep)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// BuildCheckRunData creates the CheckRunData struct from a report.
func (r *CheckRunRenderer) BuildCheckRunData(rep *report.Report) CheckRunData {
	return CheckRunData{
		Title:      checkRunTitle(rep),
		Summary:    BuildMarkdown(rep),
		Conclusion: checkRunConclusion(rep),
	}
}

func checkRunTitle(rep *report.Report) string {
	changed := 0
	for _, f := range rep.Files {
		if f.Status == report.StatusChanged {
			changed++
		}
	}
	if changed == 0 {
		return "Data models: no changes"
	}
	return fmt.Sprintf("Data models: %d changed", changed)
}

// checkRunConclusion maps report outcomes onto check-run conclusions:
// unparseable input fails the check, structural changes are surfaced as
// neutral for reviewers, and a clean run succeeds.
func checkRunConclusion(rep *report.Report) string {
	for _, f := range rep.Files {
		if f.Status == report.StatusUnparseable {
			return "failure"
		}
	}
	if rep.HasChanges() {
		return "neutral"
	}
	return "success"
}
