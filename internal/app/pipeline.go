package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"slidecraft/internal/imagery"
	"slidecraft/internal/llm"
	"slidecraft/internal/store"
	"slidecraft/internal/telegram"
)

// Pipeline runs one topic through outline generation, per-slide image
// resolution and deck rendering.
type Pipeline struct {
	service *Service
}

type Result struct {
	Title     string
	OutputDir string
	DeckPath  string
	Sources   []string
	Duration  time.Duration
}

func NewPipeline(service *Service) *Pipeline {
	return &Pipeline{service: service}
}

// Run produces a finished deck for the topic. progress may be nil.
func (p *Pipeline) Run(ctx context.Context, topic string, slideCount int, language string, progress func(string)) (*Result, error) {
	start := time.Now()
	report := func(text string) {
		if progress != nil {
			progress(text)
		}
	}

	report("Planning your slides...")
	slog.Info("Generating outline...", "topic", topic, "slides", slideCount)
	outline, err := p.service.LLM().GenerateOutline(ctx, topic, slideCount, language)
	if err != nil {
		return nil, fmt.Errorf("generate outline: %w", err)
	}
	if outline.Title == "" {
		title, err := p.service.LLM().GenerateTitle(ctx, topic)
		if err != nil || title == "" {
			slog.Warn("Title generation failed, using topic", "error", err)
			title = topic
		}
		outline.Title = title
	}

	sess := newSession(p.service.Config().Deck.OutputDir)
	if err := sess.finalize(outline.Title); err != nil {
		return nil, err
	}
	if data, err := json.MarshalIndent(outline, "", "  "); err == nil {
		_ = os.WriteFile(sess.outlinePath(), data, 0o644)
	}

	report("Finding images...")
	slog.Info("Resolving images...", "slides", len(outline.Slides))
	images := p.resolveImages(ctx, outline.Slides, report)

	report("Rendering your deck...")
	if err := p.service.Deck().Build(outline, images, sess.deckPath()); err != nil {
		return nil, fmt.Errorf("build deck: %w", err)
	}

	result := &Result{
		Title:     outline.Title,
		OutputDir: sess.dir,
		DeckPath:  sess.deckPath(),
		Sources:   winningSources(images),
		Duration:  time.Since(start),
	}

	slog.Info("Presentation ready",
		"title", result.Title,
		"path", result.DeckPath,
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

// resolveImages fans resolution out across slides with bounded parallelism.
// A slide whose resolution fails outright simply renders without an image;
// the deck is still delivered.
func (p *Pipeline) resolveImages(ctx context.Context, slides []llm.Slide, report func(string)) map[int]imagery.Result {
	images := make(map[int]imagery.Result)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.service.Config().Content.Parallelism)

	var done int64
	for i, slide := range slides {
		g.Go(func() error {
			q := imagery.Query{
				Topic:      slide.ImageQuery,
				Keywords:   slide.Keywords,
				SlideIndex: i,
			}

			res, err := p.service.Resolver().Resolve(gctx, q)
			if err != nil {
				slog.Error("Image resolution failed, slide renders text-only",
					"slide", i, "query", slide.ImageQuery, "error", err)
				return nil
			}

			mu.Lock()
			images[i] = res
			done++
			report(fmt.Sprintf("Finding images... (%d/%d)", done, len(slides)))
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return images
}

func winningSources(images map[int]imagery.Result) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, res := range images {
		if seen[res.Source] {
			continue
		}
		seen[res.Source] = true
		sources = append(sources, res.Source)
	}
	sort.Strings(sources)
	return sources
}

var _ telegram.Generator = (*Pipeline)(nil)

// Generate adapts Run to the bot's request shape, persisting the user and
// the finished presentation along the way.
func (p *Pipeline) Generate(ctx context.Context, req telegram.GenerateRequest) (*telegram.GenerateResult, error) {
	if db := p.service.Store(); db != nil && req.UserID != 0 {
		user := &store.User{
			ID:         req.UserID,
			Username:   req.UserName,
			FirstName:  req.FirstName,
			SlideCount: req.SlideCount,
			Language:   req.Language,
		}
		if err := db.SaveUser(ctx, user); err != nil {
			slog.Warn("Failed to save user", "user_id", req.UserID, "error", err)
		}
	}

	result, err := p.Run(ctx, req.Topic, req.SlideCount, req.Language, req.Progress)
	if err != nil {
		return nil, err
	}

	if db := p.service.Store(); db != nil && req.UserID != 0 {
		record := &store.Presentation{
			UserID:     req.UserID,
			Topic:      req.Topic,
			Title:      result.Title,
			SlideCount: req.SlideCount,
			Sources:    strings.Join(result.Sources, ","),
			Duration:   result.Duration,
		}
		if err := db.RecordPresentation(ctx, record); err != nil {
			slog.Warn("Failed to record presentation", "error", err)
		}
	}

	return &telegram.GenerateResult{
		Title:        result.Title,
		DocumentPath: result.DeckPath,
		Sources:      result.Sources,
		Duration:     result.Duration,
	}, nil
}

func (p *Pipeline) History(ctx context.Context, userID int64, limit int) ([]telegram.HistoryItem, error) {
	db := p.service.Store()
	if db == nil {
		return nil, nil
	}

	records, err := db.History(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]telegram.HistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, telegram.HistoryItem{
			Topic:      rec.Topic,
			Title:      rec.Title,
			SlideCount: rec.SlideCount,
			CreatedAt:  rec.CreatedAt,
		})
	}
	return items, nil
}
