package surface

import (
	"fmt"
	"io"
	"os"

	"github.com/twells89/sigma-data-model-tool/pkg/model"
	"github.com/twells89/sigma-data-model-tool/pkg/report"
)

// TerminalRenderer renders a report as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func kindColor(kind model.ChangeKind) string {
	switch kind {
	case model.KindAdded, model.KindNewDocument:
		return colorGreen
	case model.KindRemoved:
		return colorRed
	case model.KindRenamed, model.KindModified:
		return colorYellow
	default:
		return ""
	}
}

func kindMarker(kind model.ChangeKind) string {
	switch kind {
	case model.KindAdded, model.KindNewDocument:
		return "+"
	case model.KindRemoved:
		return "-"
	default:
		return "~"
	}
}

func (r *TerminalRenderer) Render(w io.Writer, rep *report.Report) error {
	if len(rep.Files) == 0 {
		fmt.Fprintln(w, "No data model changes detected.")
		return nil
	}

	fmt.Fprintf(w, "%s\n\n", bold(fmt.Sprintf("%d data model(s) changed", len(rep.Files))))

	for _, f := range rep.Files {
		fmt.Fprintf(w, "%s\n", bold(f.File))

		switch f.Status {
		case report.StatusUnparseable:
			fmt.Fprintf(w, "  %s\n\n", colored("could not parse JSON", colorRed))
			continue
		case report.StatusUnchanged:
			fmt.Fprintf(w, "  %s\n\n", dim("no structural changes"))
			continue
		}

		for _, e := range f.Entries {
			marker := colored(kindMarker(e.Kind), kindColor(e.Kind))
			fmt.Fprintf(w, "  %s %s\n", marker, e.Summary)
		}
		if f.Fallback {
			fmt.Fprintf(w, "  %s\n", dim("(field-level comparison)"))
		}
		fmt.Fprintln(w)
	}

	return nil
}
