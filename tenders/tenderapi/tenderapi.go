// Package tenderapi is the HTTP client for the external tender feed. The feed
// delivers complete pages of raw records; all normalization happens upstream
// in the tenders package.
package tenderapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// RawTender mirrors the feed's field names verbatim.
type RawTender struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	ReferenceNumber string `json:"referenceNumber"`
	Category        string `json:"category"`
	SourceAgency    string `json:"sourceAgency"`
	ClosingDate     string `json:"closingDate"`
	Link            string `json:"link"`
	SourcePage      string `json:"sourcePage"`
	Status          string `json:"status"`
}

type page struct {
	Items    []RawTender `json:"items"`
	NextPage *int        `json:"nextPage"`
}

type Client struct {
	Endpoint   string
	APIKey     string
	PageSize   int
	HTTPClient *http.Client
}

func NewClient(endpoint, apiKey string, pageSize int, timeout time.Duration) *Client {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		PageSize:   pageSize,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// FetchAll pages through the feed until the server reports no next page.
// Any page failing mid-scan fails the whole fetch; the caller keeps the
// previously committed generation.
func (c *Client) FetchAll(ctx context.Context) ([]RawTender, error) {
	var all []RawTender
	pageNum := 1
	for {
		batch, next, err := c.fetchPage(ctx, pageNum)
		if err != nil {
			return nil, fmt.Errorf("fetch tenders page %d: %w", pageNum, err)
		}
		all = append(all, batch...)
		if next == nil {
			break
		}
		pageNum = *next
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, pageNum int) ([]RawTender, *int, error) {
	params := url.Values{}
	params.Add("page", strconv.Itoa(pageNum))
	params.Add("pageSize", strconv.Itoa(c.PageSize))

	reqURL := fmt.Sprintf("%s?%s", c.Endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("X-Api-Key", c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("tender feed error: %s", resp.Status)
	}

	var result page
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Items, result.NextPage, nil
}
