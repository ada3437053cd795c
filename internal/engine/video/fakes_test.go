package video

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

type fakeHandle string

func (h fakeHandle) Selector() string { return string(h) }

// fakeNavigator serves a scripted page: selectors in visible resolve, the rest time out.
type fakeNavigator struct {
	mu       sync.Mutex
	title    string
	openErr  error
	visible  map[string]bool
	waitErr  map[string]error
	clickErr map[string]error
	evalRaw  json.RawMessage
	evalErr  error
	hangOn   map[string]bool // Click/Evaluate on these selectors block until ctx ends

	opened  []string
	paused  int
	clicked []string
	waited  []string
	script  string
	closed  bool
}

func newPage(segments string) *fakeNavigator {
	return &fakeNavigator{
		title: "Never Gonna Give You Up - YouTube",
		visible: map[string]bool{
			DefaultSelectors.Description:    true,
			DefaultSelectors.ShowTranscript: true,
			DefaultSelectors.SegmentList:    true,
		},
		evalRaw: json.RawMessage(segments),
	}
}

func (n *fakeNavigator) Open(_ context.Context, url string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opened = append(n.opened, url)
	if n.openErr != nil {
		return "", n.openErr
	}
	return CleanTitle(n.title), nil
}

func (n *fakeNavigator) PausePlayback(context.Context) error {
	n.mu.Lock()
	n.paused++
	n.mu.Unlock()
	return nil
}

func (n *fakeNavigator) RevealAndWait(_ context.Context, selector string, _ time.Duration) (Handle, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.waited = append(n.waited, selector)
	if err := n.waitErr[selector]; err != nil {
		return nil, false, err
	}
	if !n.visible[selector] {
		return nil, false, nil
	}
	return fakeHandle(selector), true, nil
}

func (n *fakeNavigator) Click(ctx context.Context, h Handle) error {
	n.mu.Lock()
	n.clicked = append(n.clicked, h.Selector())
	hang, err := n.hangOn[h.Selector()], n.clickErr[h.Selector()]
	n.mu.Unlock()
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (n *fakeNavigator) Evaluate(ctx context.Context, h Handle, script string) (json.RawMessage, error) {
	n.mu.Lock()
	if h.Selector() != DefaultSelectors.SegmentList {
		n.mu.Unlock()
		return nil, errors.New("evaluated against wrong element: " + h.Selector())
	}
	n.script = script
	hang, raw, err := n.hangOn[h.Selector()], n.evalRaw, n.evalErr
	n.mu.Unlock()
	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return raw, err
}

func (n *fakeNavigator) Close() error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	return nil
}

type fakeDialer struct {
	mu    sync.Mutex
	page  func() *fakeNavigator
	err   error
	dials []string
	navs  []*fakeNavigator
}

func (d *fakeDialer) Dial(_ context.Context, endpoint string) (Navigator, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, endpoint)
	if d.err != nil {
		return nil, d.err
	}
	nav := d.page()
	d.navs = append(d.navs, nav)
	return nav, nil
}

type fakeSessions struct {
	mu       sync.Mutex
	err      error
	acquired int
	released []string
}

func (s *fakeSessions) Acquire(context.Context) (*BrowserSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.acquired++
	return &BrowserSession{ID: "sess-1", WSEndpoint: "wss://browser.example/devtools"}, nil
}

func (s *fakeSessions) Release(_ context.Context, b *BrowserSession) error {
	s.mu.Lock()
	s.released = append(s.released, b.ID)
	s.mu.Unlock()
	return nil
}

const rickSegments = `[
	{"timestamp":"0:00","text":"We're no strangers to love"},
	{"timestamp":"0:04","text":"You know the rules and so do I"},
	{"timestamp":"1:02:03","text":"Never gonna give you up"}
]`
