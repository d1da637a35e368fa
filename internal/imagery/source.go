package imagery

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Searcher is the shape every source adapter implements. Errors returned by
// Search are always recoverable for the resolver; adapters signal how
// recoverable with SoftError.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Candidate, error)
}

// DownloadTrigger is an optional adapter interface for providers that require
// a usage ping after an image is actually used (Unsplash API terms).
type DownloadTrigger interface {
	TriggerDownload(ctx context.Context, downloadLocation string)
}

// SourceConfig is built once at startup and immutable afterwards. Enabled is
// derived from credential presence for keyed providers.
type SourceConfig struct {
	Name     string
	Enabled  bool
	Priority int
	Timeout  time.Duration
}

// Source pairs an adapter with its resolved configuration.
type Source struct {
	Searcher Searcher
	Config   SourceConfig
}

const (
	// CooldownShort follows any transient provider failure.
	CooldownShort = 5 * time.Minute
	// CooldownAuth follows an auth or quota rejection, which will not clear
	// on its own within minutes.
	CooldownAuth = time.Hour
)

// SoftError is a recoverable per-source failure: the resolver logs it and
// moves to the next source. A non-zero Cooldown asks the resolver to skip
// the source for a while.
type SoftError struct {
	Source   string
	Reason   string
	Cooldown time.Duration
	Err      error
}

func (e *SoftError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

func (e *SoftError) Unwrap() error { return e.Err }

// Soft wraps err as a SoftError without a cooldown request.
func Soft(source, reason string, err error) *SoftError {
	return &SoftError{Source: source, Reason: reason, Err: err}
}

// SoftCooldown wraps err as a SoftError that puts the source on cooldown.
func SoftCooldown(source, reason string, cooldown time.Duration, err error) *SoftError {
	return &SoftError{Source: source, Reason: reason, Cooldown: cooldown, Err: err}
}

// cooldownTracker records until when a source should not be attempted.
type cooldownTracker struct {
	mu    sync.Mutex
	until map[string]time.Time
}

func newCooldownTracker() *cooldownTracker {
	return &cooldownTracker{until: make(map[string]time.Time)}
}

func (t *cooldownTracker) Active(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Now().Before(t.until[name])
}

func (t *cooldownTracker) Disable(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.until[name] = time.Now().Add(d)
}
