package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"slidecraft/internal/app"
	"slidecraft/internal/telegram"
	"slidecraft/pkg/config"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	Long: `Run the conversational Telegram bot. Users pick a topic and slide count
and receive the finished deck as a document.`,
	RunE: runBot,
}

func init() {
	rootCmd.AddCommand(botCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if cfg.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not configured, run `slidecraft setup`")
	}

	service, err := app.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = service.Store().Close() }()

	if catalog := service.Catalog(); catalog != nil {
		if n, err := catalog.Sync(ctx); err != nil {
			slog.Warn("Placeholder catalog sync failed", "error", err)
		} else if n > 0 {
			slog.Info("Placeholder catalog updated", "downloaded", n)
		}
	}

	bot := telegram.NewBot(service.Telegram(), app.NewPipeline(service), telegram.BotConfig{
		DefaultSlideCount: cfg.Content.SlideCount,
		MinSlideCount:     cfg.Content.MinSlideCount,
		MaxSlideCount:     cfg.Content.MaxSlideCount,
		Language:          cfg.Content.Language,
	})

	slog.Info("Bot running. Press Ctrl+C to stop.")
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	slog.Info("Shutting down...")
	return nil
}
