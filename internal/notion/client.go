// Package notion is a minimal client for the Notion database API: schema
// retrieval and cursor-paginated queries.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauern/notionsync/internal/logging"
	"github.com/klauern/notionsync/internal/model"
	"github.com/klauern/notionsync/internal/property"
)

// Defaults applied by NewClient for zero-valued options.
const (
	DefaultBaseURL    = "https://api.notion.com"
	DefaultAPIVersion = "2022-06-28"
	DefaultPageSize   = 100
	DefaultTimeout    = 30 * time.Second
)

var (
	// ErrUnauthorized is matched by an APIError for HTTP 401.
	ErrUnauthorized = errors.New("notion: unauthorized")
	// ErrNotFound is matched by an APIError for HTTP 404.
	ErrNotFound = errors.New("notion: not found")
	// ErrRateLimited is matched by an APIError for HTTP 429.
	ErrRateLimited = errors.New("notion: rate limited")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("notion %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("notion status %d", e.Status)
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIVersion string
	PageSize   int
}

// Client talks to the Notion REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	apiVersion string
	pageSize   int
}

// NewClient returns a client authenticating with token. A nil httpClient
// gets one with DefaultTimeout.
func NewClient(httpClient *http.Client, token string, opts Options) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}
	if opts.PageSize <= 0 || opts.PageSize > DefaultPageSize {
		opts.PageSize = DefaultPageSize
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		token:      strings.TrimSpace(token),
		apiVersion: opts.APIVersion,
		pageSize:   opts.PageSize,
	}
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type databaseResponse struct {
	ID         string                          `json:"id"`
	Title      []richText                      `json:"title"`
	Properties map[string]model.SchemaProperty `json:"properties"`
}

type queryRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

type queryResponse struct {
	Results    []model.Record `json:"results"`
	NextCursor *string        `json:"next_cursor"`
	HasMore    bool           `json:"has_more"`
}

type errorBody struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RetrieveSchema fetches the title and property definitions of a database.
func (c *Client) RetrieveSchema(ctx context.Context, databaseID string) (*model.Schema, error) {
	var out databaseResponse
	if err := c.do(ctx, http.MethodGet, "/v1/databases/"+url.PathEscape(databaseID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to retrieve database %s: %w", databaseID, err)
	}

	var title strings.Builder
	for _, t := range out.Title {
		title.WriteString(t.PlainText)
	}

	schema := &model.Schema{
		ID:         out.ID,
		Title:      title.String(),
		Properties: make(map[string]model.SchemaProperty, len(out.Properties)),
	}
	for name, prop := range out.Properties {
		if prop.Name == "" {
			prop.Name = name
		}
		schema.Properties[name] = prop
	}
	return schema, nil
}

// QueryPage fetches one page of records. An empty cursor starts at the first
// page; the returned page's NextCursor is empty on the last page.
func (c *Client) QueryPage(ctx context.Context, databaseID, cursor string) (model.RecordPage, error) {
	req := queryRequest{StartCursor: cursor, PageSize: c.pageSize}

	var out queryResponse
	if err := c.do(ctx, http.MethodPost, "/v1/databases/"+url.PathEscape(databaseID)+"/query", req, &out); err != nil {
		return model.RecordPage{}, fmt.Errorf("failed to query database %s: %w", databaseID, err)
	}

	page := model.RecordPage{Records: out.Results}
	for i := range page.Records {
		page.Records[i].Title = property.Title(page.Records[i].Properties)
	}
	if out.HasMore && out.NextCursor != nil {
		page.NextCursor = *out.NextCursor
	}

	logging.Debug("fetched page",
		logging.Database(databaseID),
		logging.Count(len(page.Records)),
		slog.Bool("has_more", page.HasMore()),
	)
	return page, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", c.apiVersion)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	var eb errorBody
	_ = json.NewDecoder(resp.Body).Decode(&eb)
	return &APIError{Status: resp.StatusCode, Code: eb.Code, Message: eb.Message}
}
