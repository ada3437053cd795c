package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/anatolykoptev/go_ytchat/internal/engine"
	"github.com/anatolykoptev/go_ytchat/internal/engine/video"
)

// fakeCompleter answers "answer N" and records every request it sees.
type fakeCompleter struct {
	mu   sync.Mutex
	err  error
	reqs []engine.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req engine.CompletionRequest) (*engine.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	text := fmt.Sprintf("answer %d", len(f.reqs))
	raw, _ := json.Marshal(map[string]any{"id": fmt.Sprintf("c%d", len(f.reqs)), "content": text})
	return &engine.Completion{Text: text, Raw: raw}, nil
}

func (f *fakeCompleter) last() engine.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

var errRateLimited = errors.New("429 rate limited")

var demoTranscript = video.Transcript{
	{Timestamp: "0:00", Text: "Go has goroutines"},
	{Timestamp: "0:03", Text: "and channels"},
}

func demoInfo() *video.Info {
	return &video.Info{
		ID:         "abc123",
		Metadata:   video.Metadata{Title: "Go Concurrency", SourceURL: "https://youtu.be/abc123"},
		Transcript: demoTranscript,
	}
}
