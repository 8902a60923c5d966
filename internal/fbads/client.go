// Package fbads retrieves advertising data from the Facebook Graph API using
// a stored user access token.
package fbads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// GraphAPIBaseURL is a variable so tests can point it at a mock server.
var GraphAPIBaseURL = "https://graph.facebook.com/v19.0"

// ErrInsightsFetchFailed wraps any transport or Graph API error.
var ErrInsightsFetchFailed = errors.New("failed to fetch ads insights from facebook")

// CampaignInsight is one row of campaign-level insights. The Graph API
// returns numeric fields as strings; they are passed through untouched.
type CampaignInsight struct {
	CampaignID   string `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	Impressions  string `json:"impressions"`
	Clicks       string `json:"clicks"`
	Spend        string `json:"spend"`
}

// Client talks to the Facebook Marketing API.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a Client. A nil httpClient falls back to the default.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient}
}

// FetchCampaignInsights retrieves campaign-level insights for an ad account.
// No retry is attempted; a failure is surfaced to the caller.
func (c *Client) FetchCampaignInsights(ctx context.Context, accessToken, adAccountID string) ([]CampaignInsight, error) {
	query := url.Values{}
	query.Set("level", "campaign")
	query.Set("fields", "campaign_id,campaign_name,impressions,clicks,spend")
	query.Set("access_token", accessToken)

	endpoint := fmt.Sprintf("%s/act_%s/insights?%s", GraphAPIBaseURL, url.PathEscape(adAccountID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsightsFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrInsightsFetchFailed, resp.StatusCode, string(body))
	}

	var raw struct {
		Data []CampaignInsight `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsightsFetchFailed, err)
	}
	return raw.Data, nil
}
