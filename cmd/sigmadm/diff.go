package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/twells89/sigma-data-model-tool/internal/gitsrc"
	"github.com/twells89/sigma-data-model-tool/pkg/report"
	"github.com/twells89/sigma-data-model-tool/pkg/surface"
)

func newDiffCmd() *cobra.Command {
	var (
		baseRef   string
		repoPath  string
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Report data model changes against a base ref",
		Long: `Compares every changed data model file in the working tree against its
revision at the base ref and prints an ordered change report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), diffOpts{
				baseRef:   baseRef,
				repoPath:  repoPath,
				outputFmt: outputFmt,
			})
		},
	}

	cmd.Flags().StringVar(&baseRef, "base", "origin/main", "Base git ref to compare against")
	cmd.Flags().StringVar(&repoPath, "repo-path", ".", "Path to repository root")
	cmd.Flags().StringVar(&outputFmt, "output", "markdown", "Output format: markdown, text, or json")

	return cmd
}

type diffOpts struct {
	baseRef   string
	repoPath  string
	outputFmt string
}

func runDiff(ctx context.Context, opts diffOpts) error {
	files, err := gitsrc.ChangedModelFiles(ctx, opts.repoPath, opts.baseRef)
	if err != nil {
		return fmt.Errorf("detecting changed files: %w", err)
	}

	rep := report.New(opts.baseRef, "HEAD")
	for _, file := range files {
		oldData, err := gitsrc.ShowFile(ctx, opts.repoPath, opts.baseRef, file)
		if err != nil {
			// Best effort: an unreadable base revision is treated as
			// absent, matching the new-model path.
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			oldData = nil
		}

		newData, err := os.ReadFile(filepath.Join(opts.repoPath, file))
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			newData = nil // deleted in the working tree
		}

		rep.Files = append(rep.Files, report.BuildFromBytes(file, oldData, newData))
	}

	return renderReport(rep, opts.outputFmt)
}

func renderReport(rep *report.Report, format string) error {
	var renderer surface.Renderer
	switch format {
	case "json":
		renderer = &surface.JSONRenderer{}
	case "text":
		renderer = &surface.TerminalRenderer{}
	default:
		renderer = &surface.MarkdownRenderer{}
	}

	if err := renderer.Render(os.Stdout, rep); err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	return nil
}
