// Package webhook handles incoming GitHub webhook events for the
// platform service.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// VerifySignature validates the X-Hub-Signature-256 header against the payload.
func VerifySignature(payload []byte, signature string, secret []byte) error {
	if !strings.HasPrefix(signature, "sha256=") {
		return fmt.Errorf("invalid signature format")
	}
	sig, err := hex.DecodeString(signature[7:])
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	expected := mac.Sum(nil)

	if !hmac.Equal(sig, expected) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// PullRequestEvent represents a pull request webhook event.
type PullRequestEvent struct {
	Action       string              `json:"action"`
	Number       int                 `json:"number"`
	PullRequest  PullRequestPayload  `json:"pull_request"`
	Repository   GitHubRepository    `json:"repository"`
	Installation InstallationPayload `json:"installation"`
}

// PullRequestPayload contains pull request details.
type PullRequestPayload struct {
	Number int    `json:"number"`
	Head   GitRef `json:"head"`
	Base   GitRef `json:"base"`
	State  string `json:"state"`
}

// GitRef represents a git reference (branch head).
type GitRef struct {
	SHA string `json:"sha"`
	Ref string `json:"ref"`
}

// InstallationPayload contains GitHub App installation details.
type InstallationPayload struct {
	ID int64 `json:"id"`
}

// GitHubRepository represents a GitHub repository.
type GitHubRepository struct {
	ID            int64  `json:"id"`
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
}

// ParsePullRequestEvent parses a pull_request webhook payload.
func ParsePullRequestEvent(payload []byte) (*PullRequestEvent, error) {
	var e PullRequestEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("parse pull_request event: %w", err)
	}
	return &e, nil
}
