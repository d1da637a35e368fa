package imagery

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"
)

const maxCandidatesPerSource = 3

// Resolver drives the ordered fallback across source adapters and the
// placeholder store. Resolve never returns an empty result unless the
// placeholder catalog itself is broken.
type Resolver struct {
	sources      []Source
	cache        *Cache
	store        *Store
	downloader   *Downloader
	cooldowns    *cooldownTracker
	budget       time.Duration
	shuffleTiers bool
	group        singleflight.Group
}

type ResolverOptions struct {
	Sources    []Source
	Store      *Store
	Downloader *Downloader
	Budget     time.Duration
	// ShuffleTiers randomizes order among equally-prioritized sources per
	// request. Off by default: deterministic order is easier to reason about
	// and to test.
	ShuffleTiers bool
}

func NewResolver(opts ResolverOptions) *Resolver {
	sources := make([]Source, 0, len(opts.Sources))
	for _, src := range opts.Sources {
		if src.Config.Enabled {
			sources = append(sources, src)
		} else {
			slog.Info("Image source disabled, no credential", "source", src.Config.Name)
		}
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Config.Priority < sources[j].Config.Priority
	})

	return &Resolver{
		sources:      sources,
		cache:        NewCache(),
		store:        opts.Store,
		downloader:   opts.Downloader,
		cooldowns:    newCooldownTracker(),
		budget:       opts.Budget,
		shuffleTiers: opts.ShuffleTiers,
	}
}

// Resolve returns an image for the query, trying enabled sources in priority
// order and falling back to the bundled placeholder catalog. Concurrent calls
// with the same signature collapse into one attempt sequence.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Result, error) {
	signature := q.Signature()

	if res, ok := r.cache.Get(signature); ok {
		slog.Debug("Resolution cache hit", "signature", signature)
		return res, nil
	}

	v, err, _ := r.group.Do(signature, func() (any, error) {
		if res, ok := r.cache.Get(signature); ok {
			return res, nil
		}
		return r.resolve(ctx, q, signature)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (r *Resolver) resolve(ctx context.Context, q Query, signature string) (Result, error) {
	deadline := time.Now().Add(r.budget)

	for _, src := range r.attemptOrder() {
		name := src.Config.Name

		if r.cooldowns.Active(name) {
			slog.Debug("Source in cooldown, skipping", "source", name)
			continue
		}

		remaining := time.Until(deadline)
		if r.budget > 0 && remaining <= 0 {
			slog.Warn("Resolution budget exhausted, falling through to placeholder", "signature", signature)
			break
		}

		res, err := r.attempt(ctx, src, q, signature, remaining)
		if err != nil {
			var soft *SoftError
			if errors.As(err, &soft) && soft.Cooldown > 0 {
				r.cooldowns.Disable(name, soft.Cooldown)
			}
			slog.Warn("Source attempt failed", "source", name, "query", q.SearchText(), "error", err)
			continue
		}

		slog.Info("Image resolved", "source", name, "signature", signature, "path", res.Path)
		r.cache.Put(signature, res)
		return res, nil
	}

	res, err := r.store.Get(q.Topic, q.SlideIndex)
	if err != nil {
		return Result{}, err
	}

	slog.Info("Falling back to placeholder", "signature", signature, "path", res.Path)
	r.cache.Put(signature, res)
	return res, nil
}

func (r *Resolver) attempt(ctx context.Context, src Source, q Query, signature string, remaining time.Duration) (Result, error) {
	timeout := src.Config.Timeout
	if r.budget > 0 && remaining < timeout {
		timeout = remaining
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name := src.Config.Name
	candidates, err := src.Searcher.Search(attemptCtx, q.SearchText(), maxCandidatesPerSource)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 0 {
		return Result{}, Soft(name, "empty result set", nil)
	}

	var lastErr error
	for i, cand := range candidates {
		if i >= maxCandidatesPerSource {
			break
		}
		path, err := r.downloader.Fetch(attemptCtx, name, signature, cand.URL)
		if err != nil {
			slog.Debug("Candidate download failed", "source", name, "url", cand.URL, "error", err)
			lastErr = err
			continue
		}
		// Usage ping for providers that require one once an image is used.
		if trigger, ok := src.Searcher.(DownloadTrigger); ok && cand.DownloadLocation != "" {
			trigger.TriggerDownload(ctx, cand.DownloadLocation)
		}
		return Result{
			Source:         name,
			Path:           path,
			Attribution:    cand.Attribution,
			AttributionURL: cand.AttributionURL,
		}, nil
	}

	return Result{}, Soft(name, "all candidate downloads failed", lastErr)
}

// attemptOrder returns sources ascending by priority. With shuffling enabled,
// sources inside one priority tier are permuted per request while tiers keep
// their order.
func (r *Resolver) attemptOrder() []Source {
	if !r.shuffleTiers {
		return r.sources
	}

	ordered := make([]Source, len(r.sources))
	copy(ordered, r.sources)

	start := 0
	for start < len(ordered) {
		end := start + 1
		for end < len(ordered) && ordered[end].Config.Priority == ordered[start].Config.Priority {
			end++
		}
		rand.Shuffle(end-start, func(i, j int) {
			ordered[start+i], ordered[start+j] = ordered[start+j], ordered[start+i]
		})
		start = end
	}
	return ordered
}
