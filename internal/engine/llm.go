package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"
	openai "github.com/sashabaranov/go-openai"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role-tagged prompt message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a role-tagged message sequence plus sampling limits.
type CompletionRequest struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// Completion is the answer text plus the provider's raw payload, kept for audit.
type Completion struct {
	Text string
	Raw  json.RawMessage
}

// Completer obtains a model-generated completion for a message sequence.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// OpenAICompleter talks to any OpenAI-compatible chat completions endpoint.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter builds a chat-completions client for apiBase.
func NewOpenAICompleter(apiBase, apiKey, model string, httpClient *http.Client) *OpenAICompleter {
	c := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		c.BaseURL = apiBase
	}
	if httpClient != nil {
		c.HTTPClient = httpClient
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(c), model: model}
}

// Complete sends the messages as-is to /chat/completions.
func (o *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	IncrLLMCall()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		IncrLLMError()
		return nil, err
	}
	if len(resp.Choices) == 0 {
		IncrLLMError()
		return nil, errors.New("completion returned no choices")
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode raw response: %w", err)
	}
	return &Completion{Text: resp.Choices[0].Message.Content, Raw: raw}, nil
}

// KitCompleter adapts the single-prompt go-kit LLM client: the system message
// becomes the system prompt and the remaining turns are flattened with role tags.
type KitCompleter struct {
	client *llm.Client
	model  string
}

// NewKitCompleter wraps an existing go-kit LLM client.
func NewKitCompleter(client *llm.Client, model string) *KitCompleter {
	return &KitCompleter{client: client, model: model}
}

// Complete flattens req and sends it as one prompt.
func (k *KitCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	system, prompt := FlattenMessages(req.Messages)

	IncrLLMCall()
	text, err := k.client.Complete(ctx, system, prompt,
		llm.WithChatTemperature(req.Temperature),
		llm.WithChatMaxTokens(req.MaxTokens),
	)
	if err != nil {
		IncrLLMError()
		return nil, err
	}
	text = stripFences(text)

	raw, err := json.Marshal(map[string]any{
		"model":   k.model,
		"system":  system,
		"prompt":  prompt,
		"content": text,
	})
	if err != nil {
		return nil, fmt.Errorf("encode raw response: %w", err)
	}
	return &Completion{Text: text, Raw: raw}, nil
}

// FlattenMessages splits off the leading system messages and renders the rest
// as <|im_start|>role ... <|im_end|> blocks, ending with an open assistant tag.
func FlattenMessages(msgs []ChatMessage) (system, prompt string) {
	var sys []string
	i := 0
	for ; i < len(msgs) && msgs[i].Role == RoleSystem; i++ {
		sys = append(sys, msgs[i].Content)
	}

	var sb strings.Builder
	for _, m := range msgs[i:] {
		role := strings.ToLower(m.Role)
		if role == "" {
			role = RoleUser
		}
		sb.WriteString("<|im_start|>" + role + "\n" + m.Content + "\n<|im_end|>\n")
	}
	sb.WriteString("<|im_start|>" + RoleAssistant + "\n")
	return strings.Join(sys, "\n\n"), sb.String()
}

// stripFences removes markdown code fences wrapping a whole LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
