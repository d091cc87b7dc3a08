// Package provider implements the HTTP client for the remote tabular
// catalog provider. Read-only: records and schema metadata are fetched,
// never written back.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// maxResponseSize is the maximum allowed response size from the
// provider (10MB per page).
const maxResponseSize = 10 * 1024 * 1024

// ErrUnexpectedStatus indicates a non-2xx provider response.
var ErrUnexpectedStatus = errors.New("provider: unexpected response status")

// Client talks to the remote tabular catalog provider.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
	logger     *zap.Logger
}

// recordsPage is one page of the provider's record listing. A non-empty
// offset means more pages follow.
type recordsPage struct {
	Records []catalog.RawRecord `json:"records"`
	Offset  string              `json:"offset"`
}

type schemaResponse struct {
	Fields []catalog.FieldMeta `json:"fields"`
}

// NewClient creates a provider client from configuration.
func NewClient(cfg *config.ProviderConfig, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("provider base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid provider base URL: %w", err)
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log.Named("provider"),
	}, nil
}

// Ping is a lightweight connectivity probe: it requests a single
// record and only checks that the provider answers.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{"pageSize": {"1"}}
	var page recordsPage
	if err := c.get(ctx, "/records", q, &page); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedStatus, err)
	}
	return nil
}

// FetchAll retrieves the complete paged record set into memory.
func (c *Client) FetchAll(ctx context.Context) ([]catalog.RawRecord, error) {
	var all []catalog.RawRecord
	offset := ""
	for {
		q := url.Values{"pageSize": {strconv.Itoa(c.pageSize)}}
		if offset != "" {
			q.Set("offset", offset)
		}
		var page recordsPage
		if err := c.get(ctx, "/records", q, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if page.Offset == "" {
			break
		}
		offset = page.Offset
	}
	c.logger.Debug("fetched remote records", zap.Int("count", len(all)))
	return all, nil
}

// FetchSchema retrieves the provider's field name and type list.
func (c *Client) FetchSchema(ctx context.Context) ([]catalog.FieldMeta, error) {
	var resp schemaResponse
	if err := c.get(ctx, "/schema", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Fields, nil
}

// get performs one GET request and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

// Ensure Client implements catalog.Provider
var _ catalog.Provider = (*Client)(nil)
