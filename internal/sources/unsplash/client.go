package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"slidecraft/internal/imagery"
)

const (
	sourceName     = "unsplash"
	baseURL        = "https://api.unsplash.com"
	defaultTimeout = 10 * time.Second
	referral       = "utm_source=slidecraft&utm_medium=referral"
)

type Client struct {
	accessKey  string
	httpClient *http.Client
	baseURL    string
}

type Config struct {
	AccessKey string
	Timeout   time.Duration
}

type searchResponse struct {
	Results []photo `json:"results"`
}

type photo struct {
	Urls   photoUrls  `json:"urls"`
	User   photoUser  `json:"user"`
	Links  photoLinks `json:"links"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
}

type photoUrls struct {
	Regular string `json:"regular"`
}

type photoUser struct {
	Name  string    `json:"name"`
	Links userLinks `json:"links"`
}

type userLinks struct {
	HTML string `json:"html"`
}

type photoLinks struct {
	DownloadLocation string `json:"download_location"`
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		accessKey:  cfg.AccessKey,
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

	reqURL := fmt.Sprintf("%s/search/photos?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, imagery.Soft(sourceName, "create request", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

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

	candidates := make([]imagery.Candidate, 0, len(parsed.Results))
	for _, p := range parsed.Results {
		if p.Urls.Regular == "" {
			continue
		}
		candidates = append(candidates, imagery.Candidate{
			URL:              p.Urls.Regular,
			Width:            p.Width,
			Height:           p.Height,
			Attribution:      fmt.Sprintf("Photo by %s on Unsplash", p.User.Name),
			AttributionURL:   fmt.Sprintf("%s?%s", p.User.Links.HTML, referral),
			DownloadLocation: p.Links.DownloadLocation,
		})
	}

	return candidates, nil
}

// TriggerDownload hits the download_location endpoint after an image is used,
// as the Unsplash API guidelines require.
func (c *Client) TriggerDownload(ctx context.Context, downloadLocation string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadLocation, nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("Unsplash download trigger failed", "error", err)
		return
	}
	_ = resp.Body.Close()
}
