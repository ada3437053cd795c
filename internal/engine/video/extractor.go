package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_ytchat/internal/engine"
)

// State is a step of the transcript reveal-and-scrape sequence.
type State int

const (
	StateIdle State = iota
	StateDescriptionOpened
	StateTranscriptPanelRequested
	StateSegmentsVisible
	StateScraped
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDescriptionOpened:
		return "description_opened"
	case StateTranscriptPanelRequested:
		return "transcript_panel_requested"
	case StateSegmentsVisible:
		return "segments_visible"
	case StateScraped:
		return "scraped"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Selectors couple the extractor to the watch page markup.
// They change whenever the platform's markup drifts; keep them in config.
type Selectors struct {
	Description    string `json:"description"`
	ShowTranscript string `json:"show_transcript"`
	SegmentList    string `json:"segment_list"`
	Container      string `json:"container"`
	Segment        string `json:"segment"`
	Timestamp      string `json:"timestamp"`
	Text           string `json:"text"`
}

// DefaultSelectors match the current YouTube watch page.
var DefaultSelectors = Selectors{
	Description:    "div#description",
	ShowTranscript: `button[aria-label="Show transcript"]`,
	SegmentList:    "ytd-transcript-segment-list-renderer",
	Container:      "div#segments-container",
	Segment:        "ytd-transcript-segment-renderer",
	Timestamp:      "div.segment-timestamp",
	Text:           "yt-formatted-string",
}

// WithDefaults fills empty fields from DefaultSelectors.
func (s Selectors) WithDefaults() Selectors {
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.Description, DefaultSelectors.Description)
	fill(&s.ShowTranscript, DefaultSelectors.ShowTranscript)
	fill(&s.SegmentList, DefaultSelectors.SegmentList)
	fill(&s.Container, DefaultSelectors.Container)
	fill(&s.Segment, DefaultSelectors.Segment)
	fill(&s.Timestamp, DefaultSelectors.Timestamp)
	fill(&s.Text, DefaultSelectors.Text)
	return s
}

// ScrapeScript returns the DOM-read function evaluated against the segment list.
// It returns [{timestamp, text}] in document order with innerText untouched, or
// null when the container or any segment's timestamp or text node is missing.
func (s Selectors) ScrapeScript() string {
	q := func(v string) string {
		b, _ := json.Marshal(v)
		return string(b)
	}
	return fmt.Sprintf(`function () {
	const root = this.querySelector(%s);
	if (!root) { return null; }
	const out = [];
	for (const e of root.querySelectorAll(%s)) {
		const ts = e.querySelector(%s);
		const text = e.querySelector(%s);
		if (!ts || !text) { return null; }
		out.push({ timestamp: ts.innerText, text: text.innerText });
	}
	return out;
}`, q(s.Container), q(s.Segment), q(s.Timestamp), q(s.Text))
}

// Result is the outcome of one extraction run.
// Segments is non-nil only when State is StateScraped.
type Result struct {
	State    State
	Segments Transcript
	Err      error // why the run aborted
}

// Extractor drives a Navigator through the platform's progressive disclosure:
// description → "show transcript" → segment list → scrape.
type Extractor struct {
	Selectors   Selectors
	StepTimeout time.Duration
}

// NewExtractor builds an Extractor; zero values fall back to defaults.
func NewExtractor(sel Selectors, stepTimeout time.Duration) *Extractor {
	if stepTimeout <= 0 {
		stepTimeout = 10 * time.Second
	}
	return &Extractor{Selectors: sel.WithDefaults(), StepTimeout: stepTimeout}
}

// Extract runs the state machine. It never panics on page failures and never
// returns a partial transcript: any missing element or error ends in StateAborted.
// Every page call, click and scrape included, is bounded by StepTimeout.
func (x *Extractor) Extract(ctx context.Context, nav Navigator) Result {
	state := StateIdle
	abort := func(err error) Result {
		engine.IncrExtractionAbort()
		slog.Warn("transcript: extraction aborted",
			slog.String("after", state.String()), slog.Any("error", err))
		return Result{State: StateAborted, Err: fmt.Errorf("%w: after %s: %v", engine.ErrExtraction, state, err)}
	}

	steps := []struct {
		selector string
		click    bool
		next     State
	}{
		{x.Selectors.Description, true, StateDescriptionOpened},
		{x.Selectors.ShowTranscript, true, StateTranscriptPanelRequested},
		{x.Selectors.SegmentList, false, StateSegmentsVisible},
	}

	var h Handle
	for _, step := range steps {
		var ok bool
		var err error
		h, ok, err = nav.RevealAndWait(ctx, step.selector, x.StepTimeout)
		if err != nil {
			return abort(fmt.Errorf("wait for %q: %w", step.selector, err))
		}
		if !ok {
			return abort(fmt.Errorf("%q not visible within %s", step.selector, x.StepTimeout))
		}
		if step.click {
			if err := x.click(ctx, nav, h); err != nil {
				return abort(fmt.Errorf("click %q: %w", step.selector, err))
			}
		}
		state = step.next
	}

	raw, err := x.evaluate(ctx, nav, h)
	if err != nil {
		return abort(fmt.Errorf("scrape: %w", err))
	}
	segments, err := decodeSegments(raw)
	if err != nil {
		return abort(err)
	}
	return Result{State: StateScraped, Segments: segments}
}

func (x *Extractor) click(ctx context.Context, nav Navigator, h Handle) error {
	tctx, cancel := context.WithTimeout(ctx, x.StepTimeout)
	defer cancel()
	return nav.Click(tctx, h)
}

func (x *Extractor) evaluate(ctx context.Context, nav Navigator, h Handle) (json.RawMessage, error) {
	tctx, cancel := context.WithTimeout(ctx, x.StepTimeout)
	defer cancel()
	return nav.Evaluate(tctx, h, x.Selectors.ScrapeScript())
}

// decodeSegments requires a JSON array of segments with non-empty text;
// null, any other shape or a textless segment is malformed.
func decodeSegments(raw json.RawMessage) (Transcript, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("malformed scrape result: %s", engine.TruncateRunes(string(trimmed), 64, "..."))
	}
	segments := Transcript{}
	if err := json.Unmarshal(trimmed, &segments); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}
	for i, seg := range segments {
		if seg.Text == "" {
			return nil, fmt.Errorf("malformed scrape result: segment %d has no text", i)
		}
	}
	return segments, nil
}
