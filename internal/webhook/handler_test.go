package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/twells89/sigma-data-model-tool/internal/reporter"
)

func computeHMAC(payload, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := []byte("webhook-secret-123")
	payload := []byte(`{"action":"opened"}`)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		secret    []byte
		wantErr   bool
	}{
		{
			name:      "valid signature",
			payload:   payload,
			signature: computeHMAC(payload, secret),
			secret:    secret,
			wantErr:   false,
		},
		{
			name:      "wrong secret",
			payload:   payload,
			signature: computeHMAC(payload, []byte("wrong-secret")),
			secret:    secret,
			wantErr:   true,
		},
		{
			name:      "tampered payload",
			payload:   []byte(`{"action":"closed"}`),
			signature: computeHMAC(payload, secret),
			secret:    secret,
			wantErr:   true,
		},
		{
			name:      "missing sha256= prefix",
			payload:   payload,
			signature: "not-a-valid-sig",
			secret:    secret,
			wantErr:   true,
		},
		{
			name:      "invalid hex after prefix",
			payload:   payload,
			signature: "sha256=zzzz",
			secret:    secret,
			wantErr:   true,
		},
		{
			name:      "empty signature",
			payload:   payload,
			signature: "",
			secret:    secret,
			wantErr:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := VerifySignature(tc.payload, tc.signature, tc.secret)
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

type fakeProcessor struct {
	calls []reporter.PullRequest
	err   error
}

func (f *fakeProcessor) ProcessPullRequest(ctx context.Context, pr reporter.PullRequest) error {
	f.calls = append(f.calls, pr)
	return f.err
}

func prEventBody(t *testing.T, action string) []byte {
	t.Helper()
	event := PullRequestEvent{
		Action: action,
		Number: 42,
		PullRequest: PullRequestPayload{
			Number: 42,
			Head:   GitRef{SHA: "head-sha-abc", Ref: "feature/cols"},
			Base:   GitRef{SHA: "base-sha-xyz", Ref: "main"},
			State:  "open",
		},
		Repository:   GitHubRepository{ID: 100, FullName: "org/models", DefaultBranch: "main"},
		Installation: InstallationPayload{ID: 555},
	}
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func postEvent(h http.Handler, eventType string, body []byte, secret []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/github", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", eventType)
	req.Header.Set("X-Hub-Signature-256", computeHMAC(body, secret))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerProcessesPullRequest(t *testing.T) {
	secret := []byte("s3cret")
	proc := &fakeProcessor{}
	h := NewHandler(secret, proc)

	rec := postEvent(h, "pull_request", prEventBody(t, "opened"), secret)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body)
	}
	if len(proc.calls) != 1 {
		t.Fatalf("processor called %d times, want 1", len(proc.calls))
	}

	pr := proc.calls[0]
	if pr.Owner != "org" || pr.Repo != "models" {
		t.Errorf("owner/repo = %q/%q", pr.Owner, pr.Repo)
	}
	if pr.Number != 42 || pr.InstallationID != 555 {
		t.Errorf("number = %d, installation = %d", pr.Number, pr.InstallationID)
	}
	if pr.BaseSHA != "base-sha-xyz" || pr.HeadSHA != "head-sha-abc" {
		t.Errorf("base/head = %q/%q", pr.BaseSHA, pr.HeadSHA)
	}
}

func TestHandlerIgnoresIrrelevantActions(t *testing.T) {
	secret := []byte("s3cret")
	proc := &fakeProcessor{}
	h := NewHandler(secret, proc)

	rec := postEvent(h, "pull_request", prEventBody(t, "closed"), secret)
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if len(proc.calls) != 0 {
		t.Errorf("processor called for ignored action: %v", proc.calls)
	}
}

func TestHandlerRejectsBadSignature(t *testing.T) {
	proc := &fakeProcessor{}
	h := NewHandler([]byte("right"), proc)

	body := prEventBody(t, "opened")
	rec := postEvent(h, "pull_request", body, []byte("wrong"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if len(proc.calls) != 0 {
		t.Error("processor must not run on bad signature")
	}
}

func TestHandlerPing(t *testing.T) {
	secret := []byte("s3cret")
	h := NewHandler(secret, &fakeProcessor{})

	rec := postEvent(h, "ping", []byte(`{"zen":"ok"}`), secret)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHandlerAcknowledgesUnknownEvents(t *testing.T) {
	secret := []byte("s3cret")
	proc := &fakeProcessor{}
	h := NewHandler(secret, proc)

	rec := postEvent(h, "issues", []byte(`{}`), secret)
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if len(proc.calls) != 0 {
		t.Error("processor must not run for unhandled events")
	}
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	h := NewHandler([]byte("s"), &fakeProcessor{})
	req := httptest.NewRequest(http.MethodGet, "/v1/webhooks/github", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		in        string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{"org/repo", "org", "repo", true},
		{"norepo", "", "", false},
		{"/repo", "", "", false},
		{"org/", "", "", false},
	}

	for _, tt := range tests {
		owner, repo, ok := splitFullName(tt.in)
		if ok != tt.wantOK {
			t.Errorf("splitFullName(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && (owner != tt.wantOwner || repo != tt.wantRepo) {
			t.Errorf("splitFullName(%q) = %q, %q", tt.in, owner, repo)
		}
	}
}
