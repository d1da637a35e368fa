package app

import (
	"context"
	"net/http"
	"time"

	"slidecraft/internal/deck"
	"slidecraft/internal/imagery"
	"slidecraft/internal/llm/groq"
	"slidecraft/internal/sources/loremflickr"
	"slidecraft/internal/sources/pexels"
	"slidecraft/internal/sources/picsum"
	"slidecraft/internal/sources/pixabay"
	"slidecraft/internal/sources/pollinations"
	"slidecraft/internal/sources/unsplash"
	"slidecraft/internal/sources/wikimedia"
	"slidecraft/internal/storage"
	"slidecraft/internal/store"
	"slidecraft/internal/telegram"
	"slidecraft/pkg/config"
	"slidecraft/pkg/prompts"
)

// BuildService wires the full application from config: LLM client, image
// sources in priority order, resolver, deck builder and persistence. Keyed
// image sources without a credential are built disabled; the resolver drops
// them at startup.
func BuildService(ctx context.Context, cfg *config.Config) (*Service, error) {
	p, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	llmClient, err := groq.NewClient(cfg.GroqAPIKey, cfg.Groq.Model, cfg.Groq.FallbackModels, p)
	if err != nil {
		return nil, err
	}

	resolver := buildResolver(cfg)

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	var catalog storage.CatalogSyncer
	if cfg.GCSBucket != "" {
		local := storage.NewLocalCatalog(cfg.Placeholders.Dir)
		gcs, err := storage.NewGCSCatalog(ctx, cfg.GCSBucket, cfg.Placeholders.GCSCatalogDir, local)
		if err != nil {
			return nil, err
		}
		catalog = gcs
	}

	var tgClient *telegram.Client
	if cfg.TelegramBotToken != "" {
		tgClient = telegram.NewClient(cfg.TelegramBotToken, cfg.Telegram.PollTimeoutSec)
	}

	return NewService(ServiceOptions{
		Config:   cfg,
		LLM:      llmClient,
		Resolver: resolver,
		Deck:     deck.NewBuilder(deck.DefaultTheme()),
		Store:    db,
		Catalog:  catalog,
		Telegram: tgClient,
	}), nil
}

func buildResolver(cfg *config.Config) *imagery.Resolver {
	timeout := time.Duration(cfg.Sources.TimeoutMS) * time.Millisecond
	genTimeout := time.Duration(cfg.Sources.GenerativeTimeoutMS) * time.Millisecond
	width := cfg.Deck.ImageWidth
	height := cfg.Deck.ImageHeight

	sources := []imagery.Source{
		{
			Searcher: unsplash.NewClient(unsplash.Config{AccessKey: cfg.UnsplashAccessKey}),
			Config: imagery.SourceConfig{
				Name:     "unsplash",
				Enabled:  cfg.UnsplashAccessKey != "",
				Priority: 1,
				Timeout:  timeout,
			},
		},
		{
			Searcher: pexels.NewClient(pexels.Config{APIKey: cfg.PexelsAPIKey}),
			Config: imagery.SourceConfig{
				Name:     "pexels",
				Enabled:  cfg.PexelsAPIKey != "",
				Priority: 2,
				Timeout:  timeout,
			},
		},
		{
			Searcher: pixabay.NewClient(pixabay.Config{APIKey: cfg.PixabayAPIKey}),
			Config: imagery.SourceConfig{
				Name:     "pixabay",
				Enabled:  cfg.PixabayAPIKey != "",
				Priority: 3,
				Timeout:  timeout,
			},
		},
		{
			Searcher: wikimedia.NewClient(wikimedia.Config{ThumbWidth: width}),
			Config: imagery.SourceConfig{
				Name:     "wikimedia",
				Enabled:  true,
				Priority: 4,
				Timeout:  timeout,
			},
		},
		{
			Searcher: pollinations.NewClient(pollinations.Config{Width: width, Height: height}),
			Config: imagery.SourceConfig{
				Name:     "pollinations",
				Enabled:  true,
				Priority: 5,
				Timeout:  genTimeout,
			},
		},
		{
			Searcher: loremflickr.NewClient(loremflickr.Config{Width: width, Height: height}),
			Config: imagery.SourceConfig{
				Name:     "loremflickr",
				Enabled:  true,
				Priority: 6,
				Timeout:  timeout,
			},
		},
		{
			Searcher: picsum.NewClient(picsum.Config{Width: width, Height: height}),
			Config: imagery.SourceConfig{
				Name:     "picsum",
				Enabled:  true,
				Priority: 7,
				Timeout:  timeout,
			},
		},
	}

	downloader := imagery.NewDownloader(
		&http.Client{},
		cfg.Sources.CacheDir,
		cfg.Sources.MinImageBytes,
	)

	return imagery.NewResolver(imagery.ResolverOptions{
		Sources:      sources,
		Store:        imagery.NewStore(cfg.Placeholders.Dir),
		Downloader:   downloader,
		Budget:       time.Duration(cfg.Sources.BudgetMS) * time.Millisecond,
		ShuffleTiers: cfg.Sources.ShuffleTiers,
	})
}
