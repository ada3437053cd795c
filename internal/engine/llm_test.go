package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFlattenMessages(t *testing.T) {
	system, prompt := FlattenMessages([]ChatMessage{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "q2"},
	})

	if system != "be brief" {
		t.Errorf("system = %q, want %q", system, "be brief")
	}
	want := "<|im_start|>user\nq1\n<|im_end|>\n" +
		"<|im_start|>assistant\na1\n<|im_end|>\n" +
		"<|im_start|>user\nq2\n<|im_end|>\n" +
		"<|im_start|>assistant\n"
	if prompt != want {
		t.Errorf("prompt = %q, want %q", prompt, want)
	}
}

func TestFlattenMessagesNoSystem(t *testing.T) {
	system, prompt := FlattenMessages([]ChatMessage{{Role: RoleUser, Content: "hi"}})
	if system != "" {
		t.Errorf("system = %q, want empty", system)
	}
	if !strings.HasPrefix(prompt, "<|im_start|>user\nhi") {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  answer  ", "answer"},
		{"fenced", "```\nanswer\n```", "answer"},
		{"markdown fence", "```markdown\n# Title\n```", "# Title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenAICompleter(t *testing.T) {
	var got struct {
		Model       string        `json:"model"`
		Messages    []ChatMessage `json:"messages"`
		Temperature float64       `json:"temperature"`
		MaxTokens   int           `json:"max_tokens"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"It is about Go."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter(srv.URL+"/v1", "test-key", "gpt-4o-mini", srv.Client())
	out, err := c.Complete(context.Background(), CompletionRequest{
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: "transcript"},
			{Role: RoleUser, Content: "what is it about?"},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Text != "It is about Go." {
		t.Errorf("Text = %q", out.Text)
	}
	if !strings.Contains(string(out.Raw), `"id":"c1"`) {
		t.Errorf("Raw does not carry the response: %s", out.Raw)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", got.Model)
	}
	if got.MaxTokens != 500 {
		t.Errorf("max_tokens = %d, want 500", got.MaxTokens)
	}
	if got.Temperature < 0.699 || got.Temperature > 0.701 {
		t.Errorf("temperature = %v, want 0.7", got.Temperature)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("sent %d messages, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != RoleSystem || got.Messages[1].Content != "what is it about?" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestOpenAICompleterNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c2","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter(srv.URL, "k", "m", srv.Client())
	if _, err := c.Complete(context.Background(), CompletionRequest{Messages: []ChatMessage{{Role: RoleUser, Content: "q"}}}); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestOpenAICompleterHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter(srv.URL, "k", "m", srv.Client())
	_, err := c.Complete(context.Background(), CompletionRequest{Messages: []ChatMessage{{Role: RoleUser, Content: "q"}}})
	if err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Errorf("err = %v, want API error mentioning bad key", err)
	}
}

func TestPreview(t *testing.T) {
	got := Preview("  what\n is   this  ")
	if got != "what is this" {
		t.Errorf("Preview() = %q", got)
	}
	long := strings.Repeat("a", 200)
	if r := []rune(Preview(long)); len(r) > 83 {
		t.Errorf("Preview not truncated: %d runes", len(r))
	}
}
