package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anatolykoptev/go_ytchat/internal/engine"
	"golang.org/x/time/rate"
)

const defaultHyperbrowserBase = "https://app.hyperbrowser.ai"

// BrowserSession is a remotely hosted browser the Navigator can attach to.
type BrowserSession struct {
	ID         string
	WSEndpoint string
}

// SessionProvider obtains and releases remote browser sessions.
type SessionProvider interface {
	Acquire(ctx context.Context) (*BrowserSession, error)
	Release(ctx context.Context, s *BrowserSession) error
}

// HyperbrowserConfig configures the Hyperbrowser session broker.
type HyperbrowserConfig struct {
	APIBase    string
	APIKey     string
	UseProxy   bool
	RatePerMin int // 0 = unlimited
	HTTPClient *http.Client
}

// Hyperbrowser requests proxied browser sessions from the Hyperbrowser API.
// Acquisitions are rate limited locally; failures are never retried here.
type Hyperbrowser struct {
	base     string
	apiKey   string
	useProxy bool
	client   *http.Client
	limiter  *rate.Limiter
}

// NewHyperbrowser builds a session provider.
func NewHyperbrowser(c HyperbrowserConfig) *Hyperbrowser {
	h := &Hyperbrowser{
		base:     strings.TrimRight(c.APIBase, "/"),
		apiKey:   c.APIKey,
		useProxy: c.UseProxy,
		client:   c.HTTPClient,
		limiter:  rate.NewLimiter(rate.Inf, 1),
	}
	if h.base == "" {
		h.base = defaultHyperbrowserBase
	}
	if h.client == nil {
		h.client = &http.Client{Timeout: 30 * time.Second}
	}
	if c.RatePerMin > 0 {
		h.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.RatePerMin)), 1)
	}
	return h
}

type createSessionReq struct {
	UseProxy bool `json:"useProxy"`
}

type createSessionResp struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	WSEndpoint string `json:"wsEndpoint"`
}

// Acquire creates a new session and returns its CDP websocket endpoint.
func (h *Hyperbrowser) Acquire(ctx context.Context) (*BrowserSession, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit: %v", engine.ErrSessionAcquisition, err)
	}
	engine.IncrSessionAcquisition()

	data, err := h.do(ctx, http.MethodPost, "/api/session", createSessionReq{UseProxy: h.useProxy})
	if err != nil {
		engine.IncrSessionError()
		return nil, fmt.Errorf("%w: %v", engine.ErrSessionAcquisition, err)
	}

	var resp createSessionResp
	if err := json.Unmarshal(data, &resp); err != nil {
		engine.IncrSessionError()
		return nil, fmt.Errorf("%w: decode session: %v", engine.ErrSessionAcquisition, err)
	}
	if resp.WSEndpoint == "" {
		engine.IncrSessionError()
		return nil, fmt.Errorf("%w: browser URL not found (session %q)", engine.ErrSessionAcquisition, resp.ID)
	}

	slog.Info("hyperbrowser: session created", slog.String("session", resp.ID))
	return &BrowserSession{ID: resp.ID, WSEndpoint: resp.WSEndpoint}, nil
}

// Release stops the session. Sessions without an id are ignored.
func (h *Hyperbrowser) Release(ctx context.Context, s *BrowserSession) error {
	if s == nil || s.ID == "" {
		return nil
	}
	if _, err := h.do(ctx, http.MethodPut, "/api/session/"+url.PathEscape(s.ID)+"/stop", nil); err != nil {
		return fmt.Errorf("stop session %s: %w", s.ID, err)
	}
	engine.IncrSessionRelease()
	return nil
}

func (h *Hyperbrowser) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", h.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", engine.UserAgentBot)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
}
