// Package github talks to the GitHub API on behalf of the data model App:
// publishing diff reports to pull requests and fetching file revisions.
// Authentication is GitHub App style (JWT -> installation token).
package github

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/twells89/sigma-data-model-tool/pkg/surface"
)

const apiBase = "https://api.github.com"

// AppClient is an authenticated GitHub App API client.
type AppClient struct {
	appID      int64
	privateKey *rsa.PrivateKey
	httpClient *http.Client
}

// NewAppClient creates a client from the App ID and PEM-encoded private key.
func NewAppClient(appID int64, privateKeyPEM []byte) (*AppClient, error) {
	block, _ := pem.Decode(privateKeyPEM)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &AppClient{
		appID:      appID,
		privateKey: key,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// PublishCheckRun creates a Check Run with the diff report on a commit.
func (c *AppClient) PublishCheckRun(ctx context.Context, installationID int64, owner, repo, headSHA string, data surface.CheckRunData) error {
	token, err := c.installationToken(ctx, installationID)
	if err != nil {
		return fmt.Errorf("get installation token: %w", err)
	}

	body := map[string]interface{}{
		"name":       "Data Model Diff",
		"head_sha":   headSHA,
		"status":     "completed",
		"conclusion": data.Conclusion,
		"output": map[string]string{
			"title":   data.Title,
			"summary": data.Summary,
		},
	}

	path := fmt.Sprintf("/repos/%s/%s/check-runs", owner, repo)
	if err := c.postJSON(ctx, token, path, body, nil); err != nil {
		return fmt.Errorf("post check run: %w", err)
	}
	return nil
}

// CreateComment posts the diff report as a pull request comment.
func (c *AppClient) CreateComment(ctx context.Context, installationID int64, owner, repo string, prNumber int, markdown string) error {
	token, err := c.installationToken(ctx, installationID)
	if err != nil {
		return fmt.Errorf("get installation token: %w", err)
	}

	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, prNumber)
	if err := c.postJSON(ctx, token, path, map[string]string{"body": markdown}, nil); err != nil {
		return fmt.Errorf("post comment: %w", err)
	}
	return nil
}

// FetchFileAt returns the raw contents of a file at a ref. A nil slice
// with a nil error means the file does not exist at that ref.
func (c *AppClient) FetchFileAt(ctx context.Context, installationID int64, owner, repo, path, ref string) ([]byte, error) {
	token, err := c.installationToken(ctx, installationID)
	if err != nil {
		return nil, fmt.Errorf("get installation token: %w", err)
	}

	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		apiBase, owner, repo, path, url.QueryEscape(ref))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", "application/vnd.github.raw+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s@%s: %w", path, ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github API error %d: %s", resp.StatusCode, string(respBody))
	}

	return io.ReadAll(resp.Body)
}

// ListChangedFiles returns the paths changed between two refs, via the
// compare API. Paginated at 300 files per compare; data model batches
// stay well under that.
func (c *AppClient) ListChangedFiles(ctx context.Context, installationID int64, owner, repo, baseSHA, headSHA string) ([]string, error) {
	token, err := c.installationToken(ctx, installationID)
	if err != nil {
		return nil, fmt.Errorf("get installation token: %w", err)
	}

	u := fmt.Sprintf("%s/repos/%s/%s/compare/%s...%s", apiBase, owner, repo, baseSHA, headSHA)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("compare %s...%s: %w", baseSHA, headSHA, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github API error %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Files []struct {
			Filename string `json:"filename"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode compare response: %w", err)
	}

	paths := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		paths = append(paths, f.Filename)
	}
	return paths, nil
}

func (c *AppClient) postJSON(ctx context.Context, token, path string, in, out any) error {
	jsonBody, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("github API error %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// installationToken generates a JWT and exchanges it for an installation access token.
func (c *AppClient) installationToken(ctx context.Context, installationID int64) (string, error) {
	jwt, err := c.generateJWT()
	if err != nil {
		return "", fmt.Errorf("generate JWT: %w", err)
	}

	u := fmt.Sprintf("%s/app/installations/%d/access_tokens", apiBase, installationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+jwt)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request installation token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	return result.Token, nil
}

// generateJWT creates a short-lived JWT for GitHub App authentication.
func (c *AppClient) generateJWT() (string, error) {
	now := time.Now()
	// GitHub App JWTs: iat is backdated 60s, exp is max 10 minutes
	iat := now.Add(-60 * time.Second)
	exp := now.Add(5 * time.Minute)

	return signJWT(c.appID, iat, exp, c.privateKey)
}

// signJWT creates a minimal RS256 JWT. This avoids importing a full JWT library
// for a single use case.
func signJWT(appID int64, iat, exp time.Time, key *rsa.PrivateKey) (string, error) {
	header := map[string]string{"alg": "RS256", "typ": "JWT"}
	payload := map[string]interface{}{
		"iss": appID,
		"iat": iat.Unix(),
		"exp": exp.Unix(),
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	headerB64 := base64URLEncode(headerJSON)
	payloadB64 := base64URLEncode(payloadJSON)
	signingInput := headerB64 + "." + payloadB64

	signature, err := rsaSign([]byte(signingInput), key)
	if err != nil {
		return "", fmt.Errorf("rsa sign: %w", err)
	}

	return signingInput + "." + base64URLEncode(signature), nil
}

// base64URLEncode encodes data using unpadded base64url encoding (RFC 7515).
func base64URLEncode(data []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(data), "=")
}

// rsaSign signs the data using RS256 (RSASSA-PKCS1-v1_5 with SHA-256).
func rsaSign(data []byte, key *rsa.PrivateKey) ([]byte, error) {
	h := crypto.SHA256.New()
	h.Write(data)
	return rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, h.Sum(nil))
}
