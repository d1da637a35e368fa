// Package deck renders a generated outline and its resolved images into a
// landscape PDF, one page per slide.
package deck

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"slidecraft/internal/imagery"
	"slidecraft/internal/llm"
)

// Page geometry for landscape A4, in millimetres.
const (
	pageWidth  = 297.0
	pageHeight = 210.0
	margin     = 15.0

	imageWidth = 110.0
	footerY    = pageHeight - 12.0

	// maxBullets keeps a slide from overflowing into the footer.
	maxBullets = 5
)

type Builder struct {
	theme Theme
}

type Theme struct {
	TitleColor  [3]int
	AccentColor [3]int
	TextColor   [3]int
	FooterColor [3]int
}

func DefaultTheme() Theme {
	return Theme{
		TitleColor:  [3]int{30, 41, 59},
		AccentColor: [3]int{37, 99, 235},
		TextColor:   [3]int{51, 65, 85},
		FooterColor: [3]int{148, 163, 184},
	}
}

func NewBuilder(theme Theme) *Builder {
	return &Builder{theme: theme}
}

// Build writes the outline to a PDF at outputPath. images maps slide index to
// its resolved image; slides missing from the map render text-only.
func (b *Builder) Build(outline *llm.Outline, images map[int]imagery.Result, outputPath string) error {
	if outline == nil || len(outline.Slides) == 0 {
		return fmt.Errorf("empty outline")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	b.titlePage(pdf, outline)
	for i, slide := range outline.Slides {
		img, ok := images[i]
		b.contentPage(pdf, i, slide, img, ok)
	}

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	slog.Info("Deck rendered",
		"path", outputPath,
		"slides", len(outline.Slides))
	return nil
}

func (b *Builder) titlePage(pdf *gofpdf.Fpdf, outline *llm.Outline) {
	pdf.AddPage()

	pdf.SetTextColor(b.theme.TitleColor[0], b.theme.TitleColor[1], b.theme.TitleColor[2])
	pdf.SetFont("Helvetica", "B", 36)
	pdf.SetXY(margin, pageHeight/2-25)
	pdf.MultiCell(pageWidth-2*margin, 14, outline.Title, "", "C", false)

	if outline.Subtitle != "" {
		pdf.SetTextColor(b.theme.TextColor[0], b.theme.TextColor[1], b.theme.TextColor[2])
		pdf.SetFont("Helvetica", "", 16)
		pdf.SetXY(margin, pdf.GetY()+6)
		pdf.MultiCell(pageWidth-2*margin, 8, outline.Subtitle, "", "C", false)
	}
}

func (b *Builder) contentPage(pdf *gofpdf.Fpdf, index int, slide llm.Slide, img imagery.Result, hasImage bool) {
	pdf.AddPage()

	pdf.SetTextColor(b.theme.TitleColor[0], b.theme.TitleColor[1], b.theme.TitleColor[2])
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetXY(margin, margin)
	pdf.MultiCell(pageWidth-2*margin, 10, slide.Title, "", "L", false)

	// Accent rule under the title.
	pdf.SetDrawColor(b.theme.AccentColor[0], b.theme.AccentColor[1], b.theme.AccentColor[2])
	pdf.SetLineWidth(0.8)
	ruleY := pdf.GetY() + 2
	pdf.Line(margin, ruleY, margin+60, ruleY)

	textWidth := pageWidth - 2*margin
	if hasImage {
		textWidth = pageWidth - 3*margin - imageWidth
	}

	pdf.SetTextColor(b.theme.TextColor[0], b.theme.TextColor[1], b.theme.TextColor[2])
	pdf.SetFont("Helvetica", "", 14)
	y := ruleY + 10
	bullets := slide.Bullets
	if len(bullets) > maxBullets {
		bullets = bullets[:maxBullets]
	}
	for _, bullet := range bullets {
		pdf.SetXY(margin, y)
		pdf.MultiCell(textWidth, 8, "•  "+bullet, "", "L", false)
		y = pdf.GetY() + 3
	}

	if hasImage {
		b.placeImage(pdf, img)
	}

	pdf.SetTextColor(b.theme.FooterColor[0], b.theme.FooterColor[1], b.theme.FooterColor[2])
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(margin, footerY)
	pdf.CellFormat(pageWidth-2*margin, 5, fmt.Sprintf("%d", index+2), "", 0, "R", false, 0, "")
	if img.Attribution != "" {
		pdf.SetXY(margin, footerY)
		pdf.CellFormat(pageWidth-2*margin, 5, img.Attribution, "", 0, "L", false, 0, "")
	}
}

func (b *Builder) placeImage(pdf *gofpdf.Fpdf, img imagery.Result) {
	imageType := imageTypeFor(img.Path)
	if imageType == "" {
		slog.Warn("Skipping image with unsupported extension", "path", img.Path)
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	x := pageWidth - margin - imageWidth
	pdf.ImageOptions(img.Path, x, margin+25, imageWidth, 0, false, opts, 0, "")
}

func imageTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".png":
		return "PNG"
	default:
		return ""
	}
}
