package pexels

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
	sourceName     = "pexels"
	baseURL        = "https://api.pexels.com"
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
	Photos []photo `json:"photos"`
}

type photo struct {
	Src          photoSrc `json:"src"`
	Photographer string   `json:"photographer"`
	URL          string   `json:"url"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
}

type photoSrc struct {
	Large string `json:"large"`
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
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", fmt.Sprintf("%d", maxResults))
	params.Set("orientation", "landscape")

	reqURL := fmt.Sprintf("%s/v1/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, imagery.Soft(sourceName, "create request", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, imagery.SoftCooldown(sourceName, "send request", imagery.CooldownShort, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return nil, imagery.SoftCooldown(sourceName, "quota exceeded or invalid key", imagery.CooldownAuth, nil)
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

	candidates := make([]imagery.Candidate, 0, len(parsed.Photos))
	for _, p := range parsed.Photos {
		if p.Src.Large == "" {
			continue
		}
		candidates = append(candidates, imagery.Candidate{
			URL:            p.Src.Large,
			Width:          p.Width,
			Height:         p.Height,
			Attribution:    fmt.Sprintf("Photo by %s on Pexels", p.Photographer),
			AttributionURL: p.URL,
		})
	}

	return candidates, nil
}
