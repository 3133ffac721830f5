// Package reporter orchestrates the platform pipeline: fetch the two
// revisions of each changed data model file, run the comparison, and
// publish the rendered report back to the pull request.
package reporter

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/twells89/sigma-data-model-tool/internal/history"
	"github.com/twells89/sigma-data-model-tool/pkg/report"
	"github.com/twells89/sigma-data-model-tool/pkg/surface"
)

// modelDir mirrors the repository layout convention for data model specs.
const modelDir = "data-models"

// GitHubClient abstracts the GitHub API surface the reporter needs.
type GitHubClient interface {
	ListChangedFiles(ctx context.Context, installationID int64, owner, repo, baseSHA, headSHA string) ([]string, error)
	FetchFileAt(ctx context.Context, installationID int64, owner, repo, path, ref string) ([]byte, error)
	PublishCheckRun(ctx context.Context, installationID int64, owner, repo, headSHA string, data surface.CheckRunData) error
	CreateComment(ctx context.Context, installationID int64, owner, repo string, prNumber int, markdown string) error
}

// Service runs the report pipeline for pull request events.
type Service struct {
	gh   GitHubClient
	runs *history.Service
}

// NewService creates a reporter Service.
func NewService(gh GitHubClient, runs *history.Service) *Service {
	return &Service{gh: gh, runs: runs}
}

// PullRequest identifies the PR to report on.
type PullRequest struct {
	InstallationID int64
	Owner          string
	Repo           string
	Number         int
	BaseSHA        string
	HeadSHA        string
}

// ProcessPullRequest compares every data model file the PR touches and
// publishes a check run plus, when there are changes, a PR comment.
func (s *Service) ProcessPullRequest(ctx context.Context, pr PullRequest) (err error) {
	fullName := pr.Owner + "/" + pr.Repo
	prNumber := pr.Number

	runID, err := s.runs.StartRun(ctx, fullName, pr.HeadSHA, &prNumber)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	// On failure, mark the run as failed.
	defer func() {
		if err != nil {
			if failErr := s.runs.Fail(ctx, runID, err.Error()); failErr != nil {
				log.Printf("failed to mark run %s failed: %v", runID, failErr)
			}
		}
	}()

	changed, err := s.gh.ListChangedFiles(ctx, pr.InstallationID, pr.Owner, pr.Repo, pr.BaseSHA, pr.HeadSHA)
	if err != nil {
		return fmt.Errorf("list changed files: %w", err)
	}

	rep := report.New(pr.BaseSHA, pr.HeadSHA)
	for _, file := range changed {
		if !isModelFile(file) {
			continue
		}

		oldData, err := s.gh.FetchFileAt(ctx, pr.InstallationID, pr.Owner, pr.Repo, file, pr.BaseSHA)
		if err != nil {
			return fmt.Errorf("fetch %s at base: %w", file, err)
		}
		newData, err := s.gh.FetchFileAt(ctx, pr.InstallationID, pr.Owner, pr.Repo, file, pr.HeadSHA)
		if err != nil {
			return fmt.Errorf("fetch %s at head: %w", file, err)
		}

		rep.Files = append(rep.Files, report.BuildFromBytes(file, oldData, newData))
	}

	checkRun := (&surface.CheckRunRenderer{}).BuildCheckRunData(rep)
	if err := s.gh.PublishCheckRun(ctx, pr.InstallationID, pr.Owner, pr.Repo, pr.HeadSHA, checkRun); err != nil {
		return fmt.Errorf("publish check run: %w", err)
	}

	if rep.HasChanges() {
		markdown := surface.BuildMarkdown(rep)
		if err := s.gh.CreateComment(ctx, pr.InstallationID, pr.Owner, pr.Repo, pr.Number, markdown); err != nil {
			return fmt.Errorf("post comment: %w", err)
		}
	}

	if err := s.runs.Complete(ctx, runID, checkRun.Summary); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}

	log.Printf("reported on %s PR #%d (%d files)", fullName, pr.Number, len(rep.Files))
	return nil
}

func isModelFile(file string) bool {
	return strings.HasPrefix(file, modelDir+"/") && path.Ext(file) == ".json"
}
