package deck

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slidecraft/internal/imagery"
	"slidecraft/internal/llm"
)

func writeTestPNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 80, G: 120, B: 200, A: 255})
		}
	}

	path := filepath.Join(dir, "slide.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return path
}

func testOutline() *llm.Outline {
	return &llm.Outline{
		Title:    "Ocean Conservation",
		Subtitle: "Protecting marine ecosystems",
		Slides: []llm.Slide{
			{
				Title:      "Why Oceans Matter",
				Bullets:    []string{"Half the planet's oxygen", "Climate regulation"},
				ImageQuery: "coral reef",
			},
			{
				Title:   "What You Can Do",
				Bullets: []string{"Reduce plastic use", "Support marine reserves"},
			},
		},
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeTestPNG(t, dir)
	outPath := filepath.Join(dir, "deck", "ocean.pdf")

	images := map[int]imagery.Result{
		0: {Source: "unsplash", Path: imgPath, Attribution: "Photo by Alice on Unsplash"},
	}

	builder := NewBuilder(DefaultTheme())
	if err := builder.Build(testOutline(), images, outPath); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("output is not a PDF, starts with %q", data[:8])
	}
	if len(data) < 1000 {
		t.Errorf("suspiciously small PDF: %d bytes", len(data))
	}
}

func TestBuildNoImages(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "ocean.pdf")

	builder := NewBuilder(DefaultTheme())
	if err := builder.Build(testOutline(), nil, outPath); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestBuildEmptyOutline(t *testing.T) {
	builder := NewBuilder(DefaultTheme())
	if err := builder.Build(&llm.Outline{Title: "t"}, nil, filepath.Join(t.TempDir(), "x.pdf")); err == nil {
		t.Fatal("expected error for outline without slides")
	}
}

func TestImageTypeFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.jpg", "JPG"},
		{"a.JPEG", "JPG"},
		{"a.png", "PNG"},
		{"a.gif", ""},
		{"a", ""},
	}
	for _, tt := range tests {
		if got := imageTypeFor(tt.path); got != tt.want {
			t.Errorf("imageTypeFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
