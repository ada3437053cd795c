package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_ytchat/internal/engine"
	"github.com/anatolykoptev/go_ytchat/internal/engine/video"
)

// Sampling defaults keep answers short and on-topic.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

const systemPromptTmpl = `You are an AI assistant that helps users understand the content of a YouTube video. Here is the transcript of the video:

%s

Answer questions based only on the content of this transcript. If you don't know the answer, preface your response by saying that you are inferring the answer based on your training data, and not the transcript.`

// ExchangeRecord is one audited completion call.
type ExchangeRecord struct {
	Messages  []engine.ChatMessage `json:"prompt"`
	Raw       json.RawMessage      `json:"response"`
	Timestamp time.Time            `json:"timestamp"`
}

// Engine answers questions grounded on a transcript.
type Engine struct {
	completer   engine.Completer
	temperature float64
	maxTokens   int
	now         func() time.Time
}

// NewEngine builds an Engine. A negative temperature or non-positive
// maxTokens falls back to the defaults.
func NewEngine(c engine.Completer, temperature float64, maxTokens int) *Engine {
	if temperature < 0 {
		temperature = DefaultTemperature
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Engine{completer: c, temperature: temperature, maxTokens: maxTokens, now: time.Now}
}

// BuildMessages returns system, then each prior (question, answer) in order,
// then the current question.
func BuildMessages(transcript video.Transcript, question string, history []Turn) []engine.ChatMessage {
	msgs := make([]engine.ChatMessage, 0, 2+2*len(history))
	msgs = append(msgs, engine.ChatMessage{
		Role:    engine.RoleSystem,
		Content: fmt.Sprintf(systemPromptTmpl, video.Format(transcript, false)),
	})
	for _, t := range history {
		msgs = append(msgs,
			engine.ChatMessage{Role: engine.RoleUser, Content: t.Question},
			engine.ChatMessage{Role: engine.RoleAssistant, Content: t.Answer},
		)
	}
	return append(msgs, engine.ChatMessage{Role: engine.RoleUser, Content: question})
}

// Answer never fails: completion errors come back as an "Error: ..." answer
// with a nil record, meaning the turn is not audited.
func (e *Engine) Answer(ctx context.Context, transcript video.Transcript, question string, history []Turn) (string, *ExchangeRecord) {
	msgs := BuildMessages(transcript, question, history)

	if e.completer == nil {
		return fmt.Sprintf("Error: %v: no completion service configured", engine.ErrAnswering), nil
	}

	var out *engine.Completion
	err := engine.TrackOperation(ctx, "chat:answer", 20*time.Second, func(ctx context.Context) error {
		var err error
		out, err = e.completer.Complete(ctx, engine.CompletionRequest{
			Messages:    msgs,
			Temperature: e.temperature,
			MaxTokens:   e.maxTokens,
		})
		return err
	})
	if err != nil {
		slog.Warn("chat: completion failed",
			slog.String("question", engine.Preview(question)), slog.Any("error", err))
		return "Error: " + err.Error(), nil
	}

	return out.Text, &ExchangeRecord{
		Messages:  msgs,
		Raw:       out.Raw,
		Timestamp: e.now(),
	}
}
