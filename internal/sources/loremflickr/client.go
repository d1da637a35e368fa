package loremflickr

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"

	"slidecraft/internal/imagery"
)

const sourceName = "loremflickr"

// Client builds LoremFlickr URLs, a keyless keyword-tagged stock pool. The
// lock parameter pins a specific image so repeated fetches stay stable.
type Client struct {
	width  int
	height int
	lock   func() int
}

type Config struct {
	Width  int
	Height int
}

func NewClient(cfg Config) *Client {
	width := cfg.Width
	if width == 0 {
		width = 1280
	}
	height := cfg.Height
	if height == 0 {
		height = 720
	}

	return &Client{
		width:  width,
		height: height,
		lock:   func() int { return rand.Intn(10_000) },
	}
}

func (c *Client) Name() string { return sourceName }

func (c *Client) Search(_ context.Context, query string, _ int) ([]imagery.Candidate, error) {
	keywords := keywordPath(query)
	if keywords == "" {
		return nil, imagery.Soft(sourceName, "empty query", nil)
	}

	u := fmt.Sprintf("https://loremflickr.com/%d/%d/%s?lock=%d",
		c.width, c.height, keywords, c.lock())

	return []imagery.Candidate{{
		URL:         u,
		Width:       c.width,
		Height:      c.height,
		Attribution: "Photo from LoremFlickr",
	}}, nil
}

// keywordPath keeps the first three terms, comma separated, since LoremFlickr
// treats additional tags as an AND filter that quickly matches nothing.
func keywordPath(query string) string {
	fields := strings.Fields(strings.ToLower(query))
	if len(fields) > 3 {
		fields = fields[:3]
	}
	for i, f := range fields {
		fields[i] = url.PathEscape(f)
	}
	return strings.Join(fields, ",")
}
