// Package sigma is a minimal client for the Sigma Computing REST API,
// covering the data model spec endpoints the tooling needs.
package sigma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/twells89/sigma-data-model-tool/pkg/model"
)

// API base URLs by cloud provider.
var cloudBaseURLs = map[string]string{
	"aws":   "https://aws-api.sigmacomputing.com",
	"azure": "https://api.us.azure.sigmacomputing.com",
	"gcp":   "https://api.sigmacomputing.com",
}

// Config holds everything needed to reach the Sigma API. It is passed in
// explicitly; the client never reads process environment itself.
type Config struct {
	ClientID string
	Secret   string
	Cloud    string // aws, azure, gcp; defaults to aws
	BaseURL  string // overrides the cloud-derived URL when set
}

// Client calls the Sigma API using client-credentials authentication.
// The access token is fetched lazily on first use.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client
	token      string
}

// NewClient validates the config and builds a client. No network calls
// happen until the first API method runs.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("sigma client ID and secret are required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		cloud := strings.ToLower(cfg.Cloud)
		if cloud == "" {
			cloud = "aws"
		}
		baseURL = cloudBaseURLs[cloud]
		if baseURL == "" {
			return nil, fmt.Errorf("invalid sigma cloud %q: use aws, azure, or gcp", cfg.Cloud)
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   cfg.ClientID,
		secret:     cfg.Secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// ModelSummary is one entry of the data model listing.
type ModelSummary struct {
	DataModelID string `json:"dataModelId"`
	Name        string `json:"name"`
}

// Authenticate exchanges the client credentials for an access token.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.secret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("authentication failed %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return fmt.Errorf("authentication response carried no access token")
	}

	c.token = result.AccessToken
	return nil
}

func (c *Client) ensureToken(ctx context.Context) error {
	if c.token != "" {
		return nil
	}
	return c.Authenticate(ctx)
}

// ListDataModels returns all data models visible to the API client.
func (c *Client) ListDataModels(ctx context.Context) ([]ModelSummary, error) {
	var result struct {
		Entries []ModelSummary `json:"entries"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v2/datamodels", nil, &result); err != nil {
		return nil, fmt.Errorf("list data models: %w", err)
	}
	return result.Entries, nil
}

// GetSpec fetches the JSON spec of a data model.
func (c *Client) GetSpec(ctx context.Context, dataModelID string) (*model.Document, error) {
	var doc model.Document
	path := "/v3alpha/datamodels/" + dataModelID + "/spec"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, fmt.Errorf("get data model spec %s: %w", dataModelID, err)
	}
	return &doc, nil
}

// CreateFromSpec creates a new data model and returns its assigned ID.
func (c *Client) CreateFromSpec(ctx context.Context, doc *model.Document) (string, error) {
	var result struct {
		DataModelID string `json:"dataModelId"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v3alpha/datamodels/spec", doc, &result); err != nil {
		return "", fmt.Errorf("create data model: %w", err)
	}
	return result.DataModelID, nil
}

// UpdateSpec replaces the spec of an existing data model.
func (c *Client) UpdateSpec(ctx context.Context, dataModelID string, doc *model.Document) error {
	path := "/v3alpha/datamodels/" + dataModelID + "/spec"
	if err := c.doJSON(ctx, http.MethodPut, path, doc, nil); err != nil {
		return fmt.Errorf("update data model %s: %w", dataModelID, err)
	}
	return nil
}

// doJSON performs one authenticated JSON round trip. A non-2xx response is
// returned as an error carrying the response body.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	if err := c.ensureToken(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sigma API error %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
