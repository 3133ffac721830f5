package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/twells89/sigma-data-model-tool/pkg/model"
	"github.com/twells89/sigma-data-model-tool/pkg/report"
)

// MarkdownRenderer renders a report as PR-comment markdown: one section
// per changed file with a bullet line per change.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(w io.Writer, rep *report.Report) error {
	_, err := io.WriteString(w, BuildMarkdown(rep))
	return err
}

// BuildMarkdown produces the markdown body for a report.
func BuildMarkdown(rep *report.Report) string {
	var sb strings.Builder

	if len(rep.Files) == 0 {
		sb.WriteString("No data model changes detected.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("**%d data model(s) changed:**\n\n", len(rep.Files)))

	for _, f := range rep.Files {
		sb.WriteString(fmt.Sprintf("### `%s`\n\n", f.File))

		switch f.Status {
		case report.StatusUnparseable:
			sb.WriteString(":warning: Could not parse JSON\n\n")
			continue
		case report.StatusUnchanged:
			sb.WriteString("_No structural changes detected_\n\n")
			continue
		}

		for _, e := range f.Entries {
			sb.WriteString(fmt.Sprintf("- %s %s\n", kindIcon(e.Kind), e.Summary))
		}
		if f.Fallback {
			sb.WriteString("\n_Field-level comparison (no structural match)_\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func kindIcon(kind model.ChangeKind) string {
	switch kind {
	case model.KindNewDocument:
		return ":new:"
	case model.KindAdded:
		return ":heavy_plus_sign:"
	case model.KindRemoved:
		return ":heavy_minus_sign:"
	case model.KindRenamed, model.KindModified:
		return ":pencil2:"
	default:
		return ":small_blue_diamond:"
	}
}
