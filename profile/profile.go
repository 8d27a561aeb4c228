// Package profile looks up users in the external profile source. Unknown
// users get a guest profile; only transport faults surface as errors.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bmaxza/tender-assistant/models"
)

type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type profileResponse struct {
	FirstName           string   `json:"firstName"`
	LastName            string   `json:"lastName"`
	CompanyName         string   `json:"companyName"`
	PreferredCategories []string `json:"preferredCategories"`
}

// Lookup fetches the profile for a user. A 404 yields the guest profile with
// no error so session creation never fails on an unknown user.
func (c *Client) Lookup(ctx context.Context, userID string) (models.Profile, error) {
	if c.Endpoint == "" {
		return models.GuestProfile(), nil
	}

	reqURL := fmt.Sprintf("%s/%s", c.Endpoint, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.GuestProfile(), fmt.Errorf("build request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return models.GuestProfile(), fmt.Errorf("profile lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.GuestProfile(), nil
	}
	if resp.StatusCode != http.StatusOK {
		return models.GuestProfile(), fmt.Errorf("profile source error: %s", resp.Status)
	}

	var pr profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return models.GuestProfile(), fmt.Errorf("decode profile: %w", err)
	}
	p := models.Profile{
		FirstName:           pr.FirstName,
		LastName:            pr.LastName,
		CompanyName:         pr.CompanyName,
		PreferredCategories: pr.PreferredCategories,
	}
	if p.FirstName == "" && p.LastName == "" {
		return models.GuestProfile(), nil
	}
	return p, nil
}
