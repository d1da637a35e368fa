package llm

import "context"

// Slide is one content slide of a generated outline. ImageQuery is the short
// visual description fed to the image resolution pipeline; Keywords refine it.
type Slide struct {
	Title      string   `json:"title"`
	Bullets    []string `json:"bullets"`
	ImageQuery string   `json:"image_query"`
	Keywords   []string `json:"keywords"`
}

type Outline struct {
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle"`
	Slides   []Slide `json:"slides"`
}

type Client interface {
	GenerateOutline(ctx context.Context, topic string, slideCount int, language string) (*Outline, error)
	GenerateTitle(ctx context.Context, topic string) (string, error)
}
