// Package gitsrc retrieves data model file revisions from git history.
// It shells out to git the same way the CLI's other plumbing does, and
// hands deserialized documents to the comparison engine.
package gitsrc

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ModelDir is the repository directory that holds data model specs.
const ModelDir = "data-models"

// ChangedModelFiles lists the data model files that differ from the base
// ref. Several diff strategies are tried in order, since CI checkouts are
// often shallow or detached: merge-base against the base ref, a plain
// two-ref diff, and finally the last commit.
func ChangedModelFiles(ctx context.Context, repoDir, baseRef string) ([]string, error) {
	pathSpec := ModelDir + "/*.json"
	strategies := [][]string{
		{"diff", "--name-only", baseRef + "...HEAD", "--", pathSpec},
		{"diff", "--name-only", baseRef, "HEAD", "--", pathSpec},
		{"diff", "--name-only", "HEAD~1", "HEAD", "--", pathSpec},
	}

	var lastErr error
	for _, args := range strategies {
		out, err := runGit(ctx, repoDir, args...)
		if err != nil {
			lastErr = err
			continue
		}
		files := splitFiles(out)
		if len(files) > 0 {
			return files, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("listing changed files: %w", lastErr)
	}
	return nil, nil
}

// ShowFile returns the contents of path at the given ref. A nil slice with
// a nil error means the file does not exist at that ref (a new file),
// which is distinct from git itself failing.
func ShowFile(ctx context.Context, repoDir, ref, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", "show", ref+":"+path)
	cmd.Dir = repoDir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// git show exits 128 when the path is absent at the ref.
			return nil, nil
		}
		return nil, fmt.Errorf("git show %s:%s: %w", ref, path, err)
	}
	return out, nil
}

// RevParse resolves a ref to a full SHA.
func RevParse(ctx context.Context, repoDir, ref string) (string, error) {
	out, err := runGit(ctx, repoDir, "rev-parse", ref)
	if err != nil {
		return "", fmt.Errorf("git rev-parse %s: %w", ref, err)
	}
	return strings.TrimSpace(out), nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func splitFiles(out string) []string {
	var files []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || filepath.Ext(line) != ".json" {
			continue
		}
		files = append(files, line)
	}
	return files
}
