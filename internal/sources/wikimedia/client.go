package wikimedia

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
	sourceName     = "wikimedia"
	baseURL        = "https://commons.wikimedia.org/w/api.php"
	defaultTimeout = 10 * time.Second

	// Commons rejects anonymous default user agents.
	userAgent = "slidecraft/1.0 (slide deck image resolution; contact via repository)"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	thumbWidth int
}

type Config struct {
	Timeout    time.Duration
	ThumbWidth int
}

type searchResult struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type imageInfoResult struct {
	Query struct {
		Pages map[string]struct {
			ImageInfo []imageInfo `json:"imageinfo"`
		} `json:"pages"`
	} `json:"query"`
}

type imageInfo struct {
	ThumbURL       string `json:"thumburl"`
	ThumbWidth     int    `json:"thumbwidth"`
	ThumbHeight    int    `json:"thumbheight"`
	User           string `json:"user"`
	DescriptionURL string `json:"descriptionurl"`
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	thumbWidth := cfg.ThumbWidth
	if thumbWidth == 0 {
		thumbWidth = 1200
	}

	return &Client{
		baseURL:    baseURL,
		thumbWidth: thumbWidth,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return sourceName }

// Search runs the two-step Commons lookup: a fulltext file search followed by
// an imageinfo query for direct thumbnail URLs.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]imagery.Candidate, error) {
	titles, err := c.searchTitles(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	candidates := make([]imagery.Candidate, 0, len(titles))
	for _, title := range titles {
		cand, err := c.imageInfo(ctx, title)
		if err != nil {
			continue
		}
		candidates = append(candidates, cand)
	}

	return candidates, nil
}

func (c *Client) searchTitles(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("list", "search")
	params.Set("srsearch", "filetype:bitmap "+query)
	params.Set("srnamespace", "6")
	params.Set("srlimit", fmt.Sprintf("%d", maxResults))

	var parsed searchResult
	if err := c.get(ctx, params, &parsed); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(parsed.Query.Search))
	for _, s := range parsed.Query.Search {
		titles = append(titles, s.Title)
	}
	return titles, nil
}

func (c *Client) imageInfo(ctx context.Context, title string) (imagery.Candidate, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("prop", "imageinfo")
	params.Set("titles", title)
	params.Set("iiprop", "url|user")
	params.Set("iiurlwidth", fmt.Sprintf("%d", c.thumbWidth))

	var parsed imageInfoResult
	if err := c.get(ctx, params, &parsed); err != nil {
		return imagery.Candidate{}, err
	}

	for _, page := range parsed.Query.Pages {
		for _, info := range page.ImageInfo {
			if info.ThumbURL == "" {
				continue
			}
			user := info.User
			if user == "" {
				user = "Wikimedia Contributor"
			}
			attributionURL := info.DescriptionURL
			if attributionURL == "" {
				attributionURL = "https://commons.wikimedia.org"
			}
			return imagery.Candidate{
				URL:            info.ThumbURL,
				Width:          info.ThumbWidth,
				Height:         info.ThumbHeight,
				Attribution:    fmt.Sprintf("Photo by %s (Wikimedia Commons)", user),
				AttributionURL: attributionURL,
			}, nil
		}
	}

	return imagery.Candidate{}, imagery.Soft(sourceName, "no image info for "+title, nil)
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return imagery.Soft(sourceName, "create request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return imagery.SoftCooldown(sourceName, "send request", imagery.CooldownShort, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return imagery.SoftCooldown(sourceName, "rate limited", imagery.CooldownShort, nil)
	case resp.StatusCode >= 500:
		return imagery.SoftCooldown(sourceName, fmt.Sprintf("server error %d", resp.StatusCode), imagery.CooldownShort, nil)
	case resp.StatusCode != http.StatusOK:
		return imagery.Soft(sourceName, "unexpected status "+resp.Status, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return imagery.Soft(sourceName, "malformed response", err)
	}
	return nil
}
