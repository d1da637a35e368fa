package pollinations

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"

	"slidecraft/internal/imagery"
)

const sourceName = "pollinations"

// Client builds generation URLs for the Pollinations image API. There is no
// search call; the image is rendered on first fetch, which is why resolvers
// should give this source a generative timeout.
type Client struct {
	width  int
	height int
	seed   func() int
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
		seed:   func() int { return rand.Intn(1_000_000) },
	}
}

func (c *Client) Name() string { return sourceName }

func (c *Client) Search(_ context.Context, query string, _ int) ([]imagery.Candidate, error) {
	if query == "" {
		return nil, imagery.Soft(sourceName, "empty query", nil)
	}

	prompt := fmt.Sprintf("%s, professional photography, high quality, detailed", query)
	u := fmt.Sprintf("https://image.pollinations.ai/prompt/%s?width=%d&height=%d&nologo=true&seed=%d",
		url.PathEscape(prompt), c.width, c.height, c.seed())

	return []imagery.Candidate{{
		URL:         u,
		Width:       c.width,
		Height:      c.height,
		Attribution: "Generated by AI (Pollinations)",
	}}, nil
}
