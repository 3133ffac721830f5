package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/twells89/sigma-data-model-tool/internal/reporter"
)

// PRProcessor runs the report pipeline for one pull request.
type PRProcessor interface {
	ProcessPullRequest(ctx context.Context, pr reporter.PullRequest) error
}

// Handler processes incoming GitHub webhook events.
type Handler struct {
	webhookSecret []byte
	processor     PRProcessor
}

// NewHandler creates a new webhook Handler.
func NewHandler(webhookSecret []byte, processor PRProcessor) *Handler {
	return &Handler{
		webhookSecret: webhookSecret,
		processor:     processor,
	}
}

// ServeHTTP handles incoming webhook requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20)) // 10 MB limit
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Hub-Signature-256")
	if err := VerifySignature(body, signature, h.webhookSecret); err != nil {
		log.Printf("webhook signature verification failed: %v", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	switch eventType {
	case "":
		http.Error(w, "missing X-GitHub-Event header", http.StatusBadRequest)
		return
	case "ping":
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "pong"})
		return
	case "pull_request":
	default:
		// Events we don't act on are acknowledged so GitHub stops
		// retrying them.
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ignored"})
		return
	}

	event, err := ParsePullRequestEvent(body)
	if err != nil {
		log.Printf("webhook parse error: %v", err)
		http.Error(w, "malformed event", http.StatusBadRequest)
		return
	}

	if err := h.handlePullRequest(r.Context(), event); err != nil {
		log.Printf("handle pull_request event: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

func (h *Handler) handlePullRequest(ctx context.Context, e *PullRequestEvent) error {
	switch e.Action {
	case "opened", "synchronize", "reopened":
	default:
		return nil // ignore other PR actions
	}

	owner, repo, ok := splitFullName(e.Repository.FullName)
	if !ok {
		return nil
	}

	return h.processor.ProcessPullRequest(ctx, reporter.PullRequest{
		InstallationID: e.Installation.ID,
		Owner:          owner,
		Repo:           repo,
		Number:         e.Number,
		BaseSHA:        e.PullRequest.Base.SHA,
		HeadSHA:        e.PullRequest.Head.SHA,
	})
}

func splitFullName(fullName string) (owner, repo string, ok bool) {
	owner, repo, ok = strings.Cut(fullName, "/")
	return owner, repo, ok && owner != "" && repo != ""
}
