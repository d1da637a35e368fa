package picsum

import (
	"context"
	"fmt"
	"math/rand"

	"slidecraft/internal/imagery"
)

const sourceName = "picsum"

// Client builds Lorem Picsum URLs. Picsum ignores the query entirely and
// serves an arbitrary photo, so it sits at the bottom of the network tiers,
// just above the local placeholder catalog.
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
		seed:   func() int { return rand.Intn(1_000) },
	}
}

func (c *Client) Name() string { return sourceName }

func (c *Client) Search(_ context.Context, _ string, _ int) ([]imagery.Candidate, error) {
	u := fmt.Sprintf("https://picsum.photos/%d/%d?random=%d", c.width, c.height, c.seed())

	return []imagery.Candidate{{
		URL:         u,
		Width:       c.width,
		Height:      c.height,
		Attribution: "Photo from Lorem Picsum",
	}}, nil
}
