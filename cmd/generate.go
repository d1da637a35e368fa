package cmd

import (
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"slidecraft/internal/app"
	"slidecraft/pkg/config"
)

var (
	generateTopic    string
	generateSlides   int
	generateLanguage string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a single presentation",
	Long:  `Generate one slide deck from a topic and write it to the output directory.`,
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateTopic, "topic", "t", "", "Topic for the presentation")
	generateCmd.Flags().IntVarP(&generateSlides, "slides", "n", 0, "Number of content slides")
	generateCmd.Flags().StringVarP(&generateLanguage, "language", "l", "", "Presentation language")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if generateTopic == "" {
		return errors.New("please provide --topic")
	}

	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	slides := generateSlides
	if slides == 0 {
		slides = cfg.Content.SlideCount
	}
	language := generateLanguage
	if language == "" {
		language = cfg.Content.Language
	}

	service, err := app.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = service.Store().Close() }()

	if catalog := service.Catalog(); catalog != nil {
		if _, err := catalog.Sync(ctx); err != nil {
			slog.Warn("Placeholder catalog sync failed", "error", err)
		}
	}

	pipeline := app.NewPipeline(service)

	slog.Info("Generating presentation...", "topic", generateTopic, "slides", slides)
	result, err := pipeline.Run(ctx, generateTopic, slides, language, nil)
	if err != nil {
		return err
	}

	slog.Info("Done",
		"title", result.Title,
		"deck", result.DeckPath,
		"sources", result.Sources,
		"duration", result.Duration.Round(time.Millisecond))
	return nil
}
