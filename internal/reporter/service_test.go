package reporter

import (
	"testing"
)

func TestIsModelFile(t *testing.T) {
	tests := []struct {
		file string
		want bool
	}{
		{"data-models/sales.json", true},
		{"data-models/nested/finance.json", true},
		{"data-models/readme.md", false},
		{"docs/sales.json", false},
		{"sales.json", false},
		{"data-models/", false},
	}

	for _, tt := range tests {
		if got := isModelFile(tt.file); got != tt.want {
			t.Errorf("isModelFile(%q) = %v, want %v", tt.file, got, tt.want)
		}
	}
}

func TestNewService(t *testing.T) {
	svc := NewService(nil, nil)
	if svc == nil {
		t.Fatal("NewService returned nil")
	}
}

func TestPullRequestStruct(t *testing.T) {
	pr := PullRequest{
		InstallationID: 555,
		Owner:          "org",
		Repo:           "models",
		Number:         42,
		BaseSHA:        "base-sha",
		HeadSHA:        "head-sha",
	}
	if pr.Owner != "org" || pr.Repo != "models" {
		t.Errorf("owner/repo = %q/%q", pr.Owner, pr.Repo)
	}
	if pr.InstallationID != 555 {
		t.Errorf("InstallationID = %d", pr.InstallationID)
	}
}
