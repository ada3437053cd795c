package video

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/anatolykoptev/go_ytchat/internal/engine"
)

const rickURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

type fetchRig struct {
	sessions *fakeSessions
	dialer   *fakeDialer
	slept    []time.Duration
	fetcher  *Fetcher
}

func newFetchRig(page func() *fakeNavigator) *fetchRig {
	r := &fetchRig{sessions: &fakeSessions{}, dialer: &fakeDialer{page: page}}
	r.fetcher = NewFetcher(FetcherConfig{
		Sessions:  r.sessions,
		Dialer:    r.dialer,
		Extractor: NewExtractor(Selectors{}, 10*time.Millisecond),
		Sleep:     func(_ context.Context, d time.Duration) { r.slept = append(r.slept, d) },
	})
	return r
}

func TestFetchSuccess(t *testing.T) {
	r := newFetchRig(func() *fakeNavigator { return newPage(rickSegments) })

	info, err := r.fetcher.Fetch(context.Background(), rickURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if info.ID != "dQw4w9WgXcQ" {
		t.Errorf("ID = %q", info.ID)
	}
	if info.Metadata.Title != "Never Gonna Give You Up" {
		t.Errorf("Title = %q", info.Metadata.Title)
	}
	if info.Metadata.SourceURL != rickURL {
		t.Errorf("SourceURL = %q", info.Metadata.SourceURL)
	}
	if len(info.Transcript) != 3 {
		t.Errorf("got %d segments, want 3", len(info.Transcript))
	}

	if len(r.dialer.navs) != 1 {
		t.Fatalf("dialed %d pages, want 1", len(r.dialer.navs))
	}
	nav := r.dialer.navs[0]
	if !reflect.DeepEqual(nav.opened, []string{rickURL}) {
		t.Errorf("opened %v", nav.opened)
	}
	if nav.paused != 1 {
		t.Errorf("paused %d times, want 1", nav.paused)
	}
	if !nav.closed {
		t.Error("navigator not closed")
	}
	if !reflect.DeepEqual(r.dialer.dials, []string{"wss://browser.example/devtools"}) {
		t.Errorf("dialed %v", r.dialer.dials)
	}
	if !reflect.DeepEqual(r.sessions.released, []string{"sess-1"}) {
		t.Errorf("released %v", r.sessions.released)
	}
	if !reflect.DeepEqual(r.slept, []time.Duration{defaultSettleDelay}) {
		t.Errorf("slept %v, want one settle delay", r.slept)
	}
}

func TestFetchMemoizedPerURLString(t *testing.T) {
	r := newFetchRig(func() *fakeNavigator { return newPage(rickSegments) })
	ctx := context.Background()

	first, err := r.fetcher.Fetch(ctx, rickURL)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.fetcher.Fetch(ctx, rickURL)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("identical URL returned a different result")
	}
	if r.sessions.acquired != 1 {
		t.Errorf("acquired %d sessions, want 1", r.sessions.acquired)
	}

	if _, err := r.fetcher.Fetch(ctx, rickURL+"&t=5s"); err != nil {
		t.Fatal(err)
	}
	if r.sessions.acquired != 2 {
		t.Errorf("a different URL string should fetch again, acquired %d", r.sessions.acquired)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	r := newFetchRig(func() *fakeNavigator { return newPage(rickSegments) })

	info, err := r.fetcher.Fetch(context.Background(), "https://vimeo.com/123")
	if info != nil {
		t.Errorf("info = %+v, want nil", info)
	}
	if !errors.Is(err, engine.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if r.sessions.acquired != 0 {
		t.Errorf("acquired %d sessions for an invalid URL", r.sessions.acquired)
	}
}

func TestFetchSessionFailureNotMemoized(t *testing.T) {
	r := newFetchRig(func() *fakeNavigator { return newPage(rickSegments) })
	r.sessions.err = errors.Join(engine.ErrSessionAcquisition, errors.New("HTTP 401"))
	ctx := context.Background()

	if _, err := r.fetcher.Fetch(ctx, rickURL); !errors.Is(err, engine.ErrSessionAcquisition) {
		t.Errorf("err = %v, want ErrSessionAcquisition", err)
	}

	r.sessions.err = nil
	info, err := r.fetcher.Fetch(ctx, rickURL)
	if err != nil {
		t.Fatalf("retry after session failure: %v", err)
	}
	if len(info.Transcript) != 3 {
		t.Errorf("got %d segments, want 3", len(info.Transcript))
	}
}

func TestFetchDialFailureReleasesSession(t *testing.T) {
	r := newFetchRig(func() *fakeNavigator { return newPage(rickSegments) })
	r.dialer.err = errors.New("websocket: bad handshake")

	if _, err := r.fetcher.Fetch(context.Background(), rickURL); !errors.Is(err, engine.ErrSessionAcquisition) {
		t.Errorf("err = %v, want ErrSessionAcquisition", err)
	}
	if !reflect.DeepEqual(r.sessions.released, []string{"sess-1"}) {
		t.Errorf("released %v", r.sessions.released)
	}
}

func TestFetchTitleFallback(t *testing.T) {
	r := newFetchRig(func() *fakeNavigator {
		n := newPage(rickSegments)
		n.openErr = errors.New("navigation timeout")
		return n
	})

	info, err := r.fetcher.Fetch(context.Background(), rickURL)
	if err != nil {
		t.Fatal(err)
	}
	if info.Metadata.Title != UnknownVideo {
		t.Errorf("Title = %q, want %q", info.Metadata.Title, UnknownVideo)
	}
	if len(info.Transcript) != 3 {
		t.Errorf("got %d segments, want 3", len(info.Transcript))
	}
}

func TestFetchExtractionFailureMemoized(t *testing.T) {
	r := newFetchRig(func() *fakeNavigator {
		n := newPage(rickSegments)
		delete(n.visible, DefaultSelectors.ShowTranscript)
		return n
	})
	ctx := context.Background()

	info, err := r.fetcher.Fetch(ctx, rickURL)
	if !errors.Is(err, engine.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
	if info == nil {
		t.Fatal("info = nil, want page metadata")
	}
	if info.Metadata.Title != "Never Gonna Give You Up" {
		t.Errorf("Title = %q", info.Metadata.Title)
	}
	if info.Transcript != nil {
		t.Errorf("Transcript = %+v, want nil", info.Transcript)
	}
	if !reflect.DeepEqual(r.sessions.released, []string{"sess-1"}) {
		t.Errorf("released %v", r.sessions.released)
	}

	if _, err := r.fetcher.Fetch(ctx, rickURL); !errors.Is(err, engine.ErrExtraction) {
		t.Errorf("second fetch err = %v, want ErrExtraction", err)
	}
	if r.sessions.acquired != 1 {
		t.Errorf("acquired %d sessions, want 1", r.sessions.acquired)
	}
}

func TestFetchEmptyPanelIsExtractionFailure(t *testing.T) {
	r := newFetchRig(func() *fakeNavigator { return newPage("[]") })

	info, err := r.fetcher.Fetch(context.Background(), rickURL)
	if !errors.Is(err, engine.ErrExtraction) {
		t.Errorf("err = %v, want ErrExtraction", err)
	}
	if info == nil || len(info.Transcript) != 0 {
		t.Errorf("info = %+v, want metadata without transcript", info)
	}
}

func TestFetchEndToEndPlainText(t *testing.T) {
	r := newFetchRig(func() *fakeNavigator {
		return newPage(`[{"timestamp":"0:00","text":"hello"},{"timestamp":"0:05","text":"world"},{"timestamp":"0:10","text":"today"}]`)
	})

	info, err := r.fetcher.Fetch(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=5s")
	if err != nil {
		t.Fatal(err)
	}
	if info.ID != "dQw4w9WgXcQ" {
		t.Errorf("ID = %q", info.ID)
	}
	if got := Format(info.Transcript, false); got != "hello world today" {
		t.Errorf("Format() = %q, want %q", got, "hello world today")
	}
}
