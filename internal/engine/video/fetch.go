package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_ytchat/internal/engine"
)

const defaultSettleDelay = 500 * time.Millisecond

// FetcherConfig wires the fetch pipeline's collaborators.
type FetcherConfig struct {
	Sessions    SessionProvider
	Dialer      Dialer
	Extractor   *Extractor
	SettleDelay time.Duration // bounded pause after PausePlayback
	Memo        engine.MemoConfig
	Sleep       func(ctx context.Context, d time.Duration) // nil = context-aware sleep
}

// Fetcher runs URL → session → page → transcript, memoized by URL string.
type Fetcher struct {
	sessions    SessionProvider
	dialer      Dialer
	extractor   *Extractor
	settleDelay time.Duration
	sleep       func(context.Context, time.Duration)
	memo        *engine.Memo[*Info]
}

// NewFetcher builds a Fetcher. Extraction failures are memoized together with
// successes so a re-render never drives the browser twice for one URL;
// session and connection errors are not.
func NewFetcher(c FetcherConfig) *Fetcher {
	f := &Fetcher{
		sessions:    c.Sessions,
		dialer:      c.Dialer,
		extractor:   c.Extractor,
		settleDelay: c.SettleDelay,
		sleep:       c.Sleep,
	}
	if f.extractor == nil {
		f.extractor = NewExtractor(DefaultSelectors, 0)
	}
	if f.settleDelay <= 0 {
		f.settleDelay = defaultSettleDelay
	}
	if f.sleep == nil {
		f.sleep = sleepCtx
	}
	memoCfg := c.Memo
	memoCfg.CacheError = func(err error) bool { return errors.Is(err, engine.ErrExtraction) }
	f.memo = engine.NewMemo[*Info](memoCfg)
	return f
}

// Memo exposes the URL cache (cleanup loop, tests).
func (f *Fetcher) Memo() *engine.Memo[*Info] { return f.memo }

// Fetch validates rawURL and returns its transcript. The returned *Info is
// shared between callers that submitted the identical URL string. On an
// ErrExtraction failure the Info still carries the page metadata but no transcript.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Info, error) {
	id, ok := ParseVideoID(rawURL)
	if !ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrInvalidInput, rawURL)
	}
	return f.memo.Do(ctx, engine.CacheKey("transcript", rawURL), func(ctx context.Context) (*Info, error) {
		return f.fetch(ctx, id, rawURL)
	})
}

func (f *Fetcher) fetch(ctx context.Context, id, rawURL string) (*Info, error) {
	engine.IncrTranscriptFetch()
	start := time.Now()

	sess, err := f.sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Release on a fresh context so a cancelled fetch still frees the remote session.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if rerr := f.sessions.Release(rctx, sess); rerr != nil {
			slog.Warn("transcript: session release failed", slog.String("session", sess.ID), slog.Any("error", rerr))
		}
	}()

	nav, err := f.dialer.Dial(ctx, sess.WSEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrSessionAcquisition, err)
	}
	defer func() {
		if cerr := nav.Close(); cerr != nil {
			slog.Debug("transcript: navigator close", slog.Any("error", cerr))
		}
	}()

	title, err := nav.Open(ctx, rawURL)
	if err != nil {
		engine.IncrNavigationError()
		slog.Warn("transcript: title unavailable",
			slog.String("id", id), slog.Any("error", fmt.Errorf("%w: %v", engine.ErrNavigation, err)))
		title = UnknownVideo
	}

	if err := nav.PausePlayback(ctx); err != nil {
		slog.Debug("transcript: pause keystroke failed", slog.Any("error", err))
	}
	f.sleep(ctx, f.settleDelay)

	info := &Info{ID: id, Metadata: Metadata{Title: title, SourceURL: rawURL}}

	res := f.extractor.Extract(ctx, nav)
	if res.State != StateScraped {
		return info, res.Err
	}
	if len(res.Segments) == 0 {
		return info, fmt.Errorf("%w: transcript panel is empty", engine.ErrExtraction)
	}
	info.Transcript = res.Segments

	slog.Info("transcript: fetched",
		slog.String("id", id),
		slog.String("title", title),
		slog.Int("segments", len(res.Segments)),
		slog.Duration("elapsed", time.Since(start)))

	return info, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
