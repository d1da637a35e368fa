package prompts

import (
	"strings"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	p, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if p.System.Outline == "" {
		t.Error("System.Outline is empty")
	}
	if p.Outline.Generate == "" {
		t.Error("Outline.Generate is empty")
	}
}

func TestRenderOutline(t *testing.T) {
	p, err := parse(defaultPrompts)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	rendered, err := p.RenderOutline(OutlineParams{
		Topic:      "ocean conservation",
		SlideCount: 7,
		Language:   "English",
	})
	if err != nil {
		t.Fatalf("RenderOutline() error = %v", err)
	}

	for _, want := range []string{"ocean conservation", "7 content slides", "English"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("rendered prompt missing %q", want)
		}
	}
}

func TestRenderBadTemplate(t *testing.T) {
	if _, err := render("{{.Missing", nil); err == nil {
		t.Error("render() should fail on malformed template")
	}
}
