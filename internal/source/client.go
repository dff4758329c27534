// Package source implements the remote workspace API client. It exposes
// collection listings with optional server-side edit-time filtering,
// single page fetches, and block content retrieval, all with cursor
// pagination handled internally.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/klauern/pagesync/internal/logging"
	"github.com/klauern/pagesync/internal/model"
)

const (
	defaultPageSize = 100
	defaultTimeout  = 30 * time.Second
	defaultAgent    = "pagesync/1.0"

	// maxResponseSize caps a single API response body.
	maxResponseSize = 10 << 20
)

// Config configures the workspace client.
type Config struct {
	// BaseURL is the API root, e.g. https://api.example.com/v1
	BaseURL string
	// Token is the bearer token used on every request.
	Token string
	// Timeout bounds a single request. Defaults to 30s.
	Timeout time.Duration
	// PageSize is the listing page size. Defaults to 100.
	PageSize int
	// UserAgent overrides the default user agent.
	UserAgent string
}

// Client talks to the remote workspace API.
type Client struct {
	baseURL   string
	token     string
	pageSize  int
	userAgent string
	client    *http.Client
}

// New creates a workspace client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultAgent
	}

	transport := &http.Transport{
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		token:     cfg.Token,
		pageSize:  cfg.PageSize,
		userAgent: cfg.UserAgent,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// pageList is the wire envelope for collection listings.
type pageList struct {
	Pages      []model.Page `json:"pages"`
	NextCursor string       `json:"next_cursor"`
	HasMore    bool         `json:"has_more"`
}

// blockList is the wire envelope for block content.
type blockList struct {
	Blocks     []model.Block `json:"blocks"`
	NextCursor string        `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}

// ListPages returns every page of the collection, walking all cursors.
// A nil filter requests the full unfiltered listing; a filter with
// EditedAfter asks the server to pre-filter by edit time.
func (c *Client) ListPages(ctx context.Context, collectionID string, filter *model.Filter) ([]model.Page, error) {
	var pages []model.Page
	cursor := ""

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(c.pageSize))
		if cursor != "" {
			query.Set("cursor", cursor)
		}
		if filter != nil && filter.EditedAfter != nil {
			query.Set("edited_after", filter.EditedAfter.UTC().Format(time.RFC3339))
		}

		body, err := c.get(ctx, fmt.Sprintf("/collections/%s/pages", url.PathEscape(collectionID)), query)
		if err != nil {
			return nil, err
		}

		var batch pageList
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("decode page listing: %w", err)
		}

		for i := range batch.Pages {
			normalizePage(&batch.Pages[i])
		}
		pages = append(pages, batch.Pages...)

		if !batch.HasMore || batch.NextCursor == "" {
			return pages, nil
		}
		cursor = batch.NextCursor
	}
}

// GetPage fetches a single page by id.
func (c *Client) GetPage(ctx context.Context, id string) (model.Page, error) {
	body, err := c.get(ctx, "/pages/"+url.PathEscape(id), nil)
	if err != nil {
		return model.Page{}, err
	}

	var page model.Page
	if err := json.Unmarshal(body, &page); err != nil {
		return model.Page{}, fmt.Errorf("decode page %s: %w", id, err)
	}
	normalizePage(&page)
	return page, nil
}

// GetBlocks fetches the full block content of a page, walking all cursors.
func (c *Client) GetBlocks(ctx context.Context, id string) ([]model.Block, error) {
	var blocks []model.Block
	cursor := ""

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(c.pageSize))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		body, err := c.get(ctx, fmt.Sprintf("/pages/%s/blocks", url.PathEscape(id)), query)
		if err != nil {
			return nil, err
		}

		var batch blockList
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("decode blocks for %s: %w", id, err)
		}
		blocks = append(blocks, batch.Blocks...)

		if !batch.HasMore || batch.NextCursor == "" {
			return blocks, nil
		}
		cursor = batch.NextCursor
	}
}

// get performs one GET request and returns the response body, decoding
// non-2xx responses into *APIError.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("workspace request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, body)
	}
	return body, nil
}

// apiErrorBody is the wire shape of an API error payload.
type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeAPIError builds an *APIError from a failed response, falling back
// to the raw body when the payload isn't structured.
func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}

	var payload apiErrorBody
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
		return apiErr
	}

	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	apiErr.Message = msg
	return apiErr
}

// normalizePage settles a decoded page into the form the sync core
// expects: UTC edit time, content ref defaulted to the page id, and
// unrecognized property variants coerced to text.
func normalizePage(p *model.Page) {
	p.LastEdited = p.LastEdited.UTC()
	if p.ContentRef == "" {
		p.ContentRef = p.ID
	}

	for name, prop := range p.Properties {
		if prop.Type.IsValid() {
			continue
		}
		logging.Warn("coercing unknown property type to text",
			logging.Page(p.ID),
			"property", name,
			"type", string(prop.Type))
		p.Properties[name] = model.PropertyValue{Type: model.PropertyText, Text: prop.Text}
	}
}
