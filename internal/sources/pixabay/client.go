package pixabay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"slidecraft/internal/imagery"
)

const (
	sourceName     = "pixabay"
	baseURL        = "https://pixabay.com/api/"
	defaultTimeout = 10 * time.Second
)

type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

type Config struct {
	APIKey  string
	Timeout time.Duration
}

type searchResponse struct {
	Hits []hit `json:"hits"`
}

type hit struct {
	LargeImageURL string `json:"largeImageURL"`
	User          string `json:"user"`
	PageURL       string `json:"pageURL"`
	ImageWidth    int    `json:"imageWidth"`
	ImageHeight   int    `json:"imageHeight"`
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return sourceName }

func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]imagery.Candidate, error) {
	// Pixabay rejects per_page below 3.
	perPage := maxResults
	if perPage < 3 {
		perPage = 3
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)
	params.Set("image_type", "photo")
	params.Set("orientation", "horizontal")
	params.Set("per_page", fmt.Sprintf("%d", perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, imagery.Soft(sourceName, "create request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, imagery.SoftCooldown(sourceName, "send request", imagery.CooldownShort, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusForbidden:
		return nil, imagery.SoftCooldown(sourceName, "rejected key or request", imagery.CooldownAuth, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, imagery.SoftCooldown(sourceName, "rate limited", imagery.CooldownShort, nil)
	case resp.StatusCode >= 500:
		return nil, imagery.SoftCooldown(sourceName, fmt.Sprintf("server error %d", resp.StatusCode), imagery.CooldownShort, nil)
	case resp.StatusCode != http.StatusOK:
		return nil, imagery.Soft(sourceName, "unexpected status "+resp.Status, nil)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, imagery.Soft(sourceName, "malformed response", err)
	}

	candidates := make([]imagery.Candidate, 0, len(parsed.Hits))
	for _, h := range parsed.Hits {
		if h.LargeImageURL == "" {
			continue
		}
		candidates = append(candidates, imagery.Candidate{
			URL:            h.LargeImageURL,
			Width:          h.ImageWidth,
			Height:         h.ImageHeight,
			Attribution:    fmt.Sprintf("Photo by %s on Pixabay", h.User),
			AttributionURL: h.PageURL,
		})
		if len(candidates) >= maxResults {
			break
		}
	}

	return candidates, nil
}
