package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	apiBase    = "https://api.notion.com/v1"
	apiVersion = "2022-06-28"

	// The public API allows an average of 3 requests per second.
	minRequestInterval = time.Second / 3

	downloadTimeout = 30 * time.Second
)

// Client talks to the Notion REST API on behalf of one integration token.
type Client struct {
	httpClient *http.Client
	downloader *http.Client
	baseURL    string
	token      string
	log        *slog.Logger

	mu       sync.Mutex
	nextCall time.Time
	requests int
}

// NewClient returns a Client authenticated with the given integration token.
func NewClient(token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		downloader: &http.Client{Timeout: downloadTimeout},
		baseURL:    apiBase,
		token:      token,
		log:        logger,
	}
}

// RequestCount reports how many API calls have been made.
func (c *Client) RequestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

// throttle spaces API calls out to the documented rate limit.
func (c *Client) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wait := time.Until(c.nextCall); wait > 0 {
		time.Sleep(wait)
	}
	c.nextCall = time.Now().Add(minRequestInterval)
	c.requests++
}

type listResponse struct {
	Results    []map[string]any `json:"results"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	c.throttle()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &apiErr)
		if apiErr.Message != "" {
			return fmt.Errorf("notion %s: %s (%s)", path, apiErr.Message, resp.Status)
		}
		return fmt.Errorf("notion %s: unexpected status %s", path, resp.Status)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}
	return nil
}

// ChildPages lists the pages directly under a parent page, in the order the
// API returns them. Each child_page block is expanded into full page
// metadata with a second retrieve call.
func (c *Client) ChildPages(ctx context.Context, parentID string) ([]Page, error) {
	var pages []Page
	cursor := ""
	for {
		query := url.Values{}
		if cursor != "" {
			query.Set("start_cursor", cursor)
		}
		var resp listResponse
		if err := c.get(ctx, "/blocks/"+FormatPageID(parentID)+"/children", query, &resp); err != nil {
			return nil, fmt.Errorf("list child pages: %w", err)
		}

		for _, raw := range resp.Results {
			if raw["type"] != TypeChildPage {
				continue
			}
			id, _ := raw["id"].(string)
			var details map[string]any
			if err := c.get(ctx, "/pages/"+id, nil, &details); err != nil {
				return nil, fmt.Errorf("retrieve page %s: %w", id, err)
			}
			// The retrieve response carries no child_page title; keep the
			// one from the listing as the fallback.
			details["child_page"] = raw["child_page"]
			pages = append(pages, pageFromAPI(details))
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return pages, nil
}

// PageBlocks fetches the full block tree of a page, expanding has_children
// blocks recursively before returning. The renderer never fetches.
func (c *Client) PageBlocks(ctx context.Context, pageID string) ([]Block, error) {
	return c.fetchBlocks(ctx, pageID)
}

func (c *Client) fetchBlocks(ctx context.Context, blockID string) ([]Block, error) {
	var blocks []Block
	cursor := ""
	for {
		query := url.Values{}
		if cursor != "" {
			query.Set("start_cursor", cursor)
		}
		var resp listResponse
		if err := c.get(ctx, "/blocks/"+FormatPageID(blockID)+"/children", query, &resp); err != nil {
			return nil, fmt.Errorf("list blocks: %w", err)
		}

		for _, raw := range resp.Results {
			block := blockFromAPI(raw)
			if block.HasChildren {
				children, err := c.fetchBlocks(ctx, block.ID)
				if err != nil {
					return nil, err
				}
				block.Children = children
			}
			blocks = append(blocks, block)
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return blocks, nil
}

// Download fetches a binary asset (image, attachment) from a pre-signed or
// external URL. The read is bounded by the client's download timeout.
func (c *Client) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.downloader.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: unexpected status %s", rawURL, resp.Status)
	}
	return resp.Body, nil
}
