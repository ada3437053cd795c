package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// siteTitleSuffix is appended by the platform to every watch page title.
const siteTitleSuffix = " - YouTube"

// Handle references an element resolved by RevealAndWait.
type Handle interface {
	Selector() string
}

// Navigator owns one live browser page.
type Navigator interface {
	// Open navigates to url, waits for DOMContentLoaded and returns the cleaned title.
	Open(ctx context.Context, url string) (string, error)
	// PausePlayback sends the player's pause keystroke.
	PausePlayback(ctx context.Context) error
	// RevealAndWait polls until selector matches a visible element.
	// ok is false when the timeout elapses first; err reports hard failures.
	RevealAndWait(ctx context.Context, selector string, timeout time.Duration) (h Handle, ok bool, err error)
	// Click dispatches a click on h.
	Click(ctx context.Context, h Handle) error
	// Evaluate runs a read-only function with `this` bound to h's element.
	Evaluate(ctx context.Context, h Handle, script string) (json.RawMessage, error)
	Close() error
}

// Dialer attaches a Navigator to a remote browser endpoint.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Navigator, error)
}

// CleanTitle strips the site-name suffix; an empty title becomes UnknownVideo.
func CleanTitle(title string) string {
	title = strings.TrimRightFunc(title, unicode.IsSpace)
	title = strings.TrimSpace(strings.TrimSuffix(title, siteTitleSuffix))
	if title == "" {
		return UnknownVideo
	}
	return title
}

// RodDialer connects to a CDP websocket endpoint with go-rod.
type RodDialer struct {
	NavTimeout time.Duration
}

// Dial connects to endpoint and opens a blank page in a fresh incognito context.
func (d RodDialer) Dial(ctx context.Context, endpoint string) (Navigator, error) {
	browser := rod.New().ControlURL(endpoint).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	incognito, err := browser.Incognito()
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		_ = browser.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	navTimeout := d.NavTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	return &RodNavigator{browser: browser, incognito: incognito, page: page, navTimeout: navTimeout}, nil
}

// RodNavigator implements Navigator on a go-rod page.
type RodNavigator struct {
	browser    *rod.Browser
	incognito  *rod.Browser
	page       *rod.Page
	navTimeout time.Duration
}

type rodHandle struct {
	selector string
	el       *rod.Element
}

func (h *rodHandle) Selector() string { return h.selector }

// Open implements Navigator.
func (n *RodNavigator) Open(ctx context.Context, url string) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, n.navTimeout)
	defer cancel()
	p := n.page.Context(tctx)

	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	wait()

	res, err := p.Eval(`() => document.title`)
	if err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	return CleanTitle(res.Value.Str()), nil
}

// PausePlayback implements Navigator.
func (n *RodNavigator) PausePlayback(_ context.Context) error {
	return n.page.Keyboard.Type(input.KeyK)
}

// RevealAndWait implements Navigator.
func (n *RodNavigator) RevealAndWait(ctx context.Context, selector string, timeout time.Duration) (Handle, bool, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := n.page.Context(tctx).Element(selector)
	if err != nil {
		return nil, false, timeoutAsMiss(err)
	}
	if err := el.WaitVisible(); err != nil {
		return nil, false, timeoutAsMiss(err)
	}
	// Rebind so the handle outlives the step timeout.
	return &rodHandle{selector: selector, el: el.Context(ctx)}, true, nil
}

// Click implements Navigator.
func (n *RodNavigator) Click(ctx context.Context, h Handle) error {
	rh, ok := h.(*rodHandle)
	if !ok {
		return fmt.Errorf("click: foreign handle %T", h)
	}
	return rh.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// Evaluate implements Navigator.
func (n *RodNavigator) Evaluate(ctx context.Context, h Handle, script string) (json.RawMessage, error) {
	rh, ok := h.(*rodHandle)
	if !ok {
		return nil, fmt.Errorf("evaluate: foreign handle %T", h)
	}
	res, err := rh.el.Context(ctx).Eval(script)
	if err != nil {
		return nil, err
	}
	return json.Marshal(res.Value)
}

// Close releases the page, its incognito context and the connection.
func (n *RodNavigator) Close() error {
	return errors.Join(n.page.Close(), n.incognito.Close(), n.browser.Close())
}

// timeoutAsMiss maps a step deadline to "not found" (nil error).
func timeoutAsMiss(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
