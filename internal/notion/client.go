package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"

	// apiVersion pins the Notion API revision this client is written
	// against.
	apiVersion = "2022-06-28"

	// maxChildrenPerRequest is the Notion API limit on block children per
	// create or append call.
	maxChildrenPerRequest = 100
)

// secureHTTPClient is a configured HTTP client with proper timeouts and
// security settings, shared across Notion clients.
var secureHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableKeepAlives:     false,
	},
}

// APIError is a non-2xx response from the Notion API.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: %s (code=%s, status=%d)", e.Message, e.Code, e.StatusCode)
}

// Client is a minimal Notion REST API client covering the endpoints the
// sync needs: database queries, page creation, and block appends.
type Client struct {
	token   string
	baseURL string
	httpc   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// NewClient creates a Notion API client for the given integration token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		httpc:   secureHTTPClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryResult is one page of database query results.
type QueryResult struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// QueryDatabase fetches one page of rows from a database. Pass the
// cursor from the previous result to continue, or "" to start.
func (c *Client) QueryDatabase(ctx context.Context, databaseID, startCursor string) (*QueryResult, error) {
	body := map[string]any{}
	if startCursor != "" {
		body["start_cursor"] = startCursor
	}

	var result QueryResult
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/databases/%s/query", databaseID), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// createPageRequest is the body of a page creation call.
type createPageRequest struct {
	Parent     parent     `json:"parent"`
	Properties Properties `json:"properties"`
	Children   []Block    `json:"children,omitempty"`
}

type parent struct {
	DatabaseID string `json:"database_id"`
}

// CreatePage creates a page in a database with at most 100 children.
func (c *Client) CreatePage(ctx context.Context, databaseID string, props Properties, children []Block) (*Page, error) {
	if len(children) > maxChildrenPerRequest {
		children = children[:maxChildrenPerRequest]
	}

	req := createPageRequest{
		Parent:     parent{DatabaseID: databaseID},
		Properties: props,
		Children:   children,
	}

	var page Page
	if err := c.do(ctx, http.MethodPost, "/pages", req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AppendBlockChildren appends up to 100 blocks to a page or block.
func (c *Client) AppendBlockChildren(ctx context.Context, blockID string, children []Block) error {
	if len(children) > maxChildrenPerRequest {
		children = children[:maxChildrenPerRequest]
	}
	body := map[string]any{"children": children}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/blocks/%s/children", blockID), body, nil)
}

// CreatePageWithBlocks creates a page and appends all remaining content
// blocks in batches of 100.
func (c *Client) CreatePageWithBlocks(ctx context.Context, databaseID string, props Properties, children []Block) (*Page, error) {
	first := children
	if len(first) > maxChildrenPerRequest {
		first = first[:maxChildrenPerRequest]
	}

	page, err := c.CreatePage(ctx, databaseID, props, first)
	if err != nil {
		return nil, err
	}

	remaining := children[len(first):]
	for len(remaining) > 0 {
		batch := remaining
		if len(batch) > maxChildrenPerRequest {
			batch = batch[:maxChildrenPerRequest]
		}
		remaining = remaining[len(batch):]

		if err := c.AppendBlockChildren(ctx, page.ID, batch); err != nil {
			return page, fmt.Errorf("failed to append content to page %s: %w", page.ID, err)
		}
	}

	return page, nil
}

// do executes an API call, encoding body and decoding the response into
// out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", apiVersion)

	res, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("notion request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read notion response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = string(data)
		}
		apiErr.StatusCode = res.StatusCode
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to unmarshal notion response: %w", err)
		}
	}
	return nil
}
