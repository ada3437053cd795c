package videoserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anatolykoptev/go_ytchat/internal/engine"
	"github.com/anatolykoptev/go_ytchat/internal/engine/chat"
	"github.com/anatolykoptev/go_ytchat/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VideoHistoryInput struct {
	Session string `json:"session,omitempty" jsonschema:"Chat session key (default: MCP session)"`
	API     bool   `json:"api,omitempty" jsonschema:"Include the raw completion API exchanges"`
}

type VideoHistoryOutput struct {
	Title     string        `json:"title,omitempty"`
	Turns     []chat.Turn   `json:"turns"`
	Exchanges []APIExchange `json:"exchanges,omitempty"`
}

// APIExchange is one audited completion call as shown to the client.
type APIExchange struct {
	Prompt    []engine.ChatMessage `json:"prompt"`
	Response  any                  `json:"response"`
	Timestamp string               `json:"timestamp"`
}

type VideoClearInput struct {
	Session string `json:"session,omitempty" jsonschema:"Chat session key (default: MCP session)"`
}

type VideoClearOutput struct {
	Message string `json:"message"`
}

func registerHistory(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_history",
		Description: "Show the conversation about the loaded video, oldest first. With api=true also returns every completion request/response pair sent for this session.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoHistoryInput) (*mcp.CallToolResult, VideoHistoryOutput, error) {
		out, err := d.history(ctx, toolutil.SessionKey(req, input.Session), input.API)
		return nil, out, err
	})
}

func registerClear(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_clear",
		Description: "Clear the chat history and API history of this session. The loaded video stays loaded.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoClearInput) (*mcp.CallToolResult, VideoClearOutput, error) {
		if err := d.Chats.Clear(ctx, toolutil.SessionKey(req, input.Session)); err != nil {
			return nil, VideoClearOutput{}, err
		}
		return nil, VideoClearOutput{Message: "chat history cleared"}, nil
	})
}

func (d Deps) history(ctx context.Context, key string, withAPI bool) (VideoHistoryOutput, error) {
	s := d.Chats.Snapshot(key)
	out := VideoHistoryOutput{Turns: s.Turns}
	if out.Turns == nil {
		out.Turns = []chat.Turn{}
	}
	if s.Info != nil {
		out.Title = s.Info.Metadata.Title
	}
	if withAPI {
		ex, err := d.Chats.Exchanges(ctx, key)
		if err != nil {
			return VideoHistoryOutput{}, fmt.Errorf("load API history: %w", err)
		}
		for _, rec := range ex {
			var resp any
			if err := json.Unmarshal(rec.Raw, &resp); err != nil {
				resp = string(rec.Raw)
			}
			out.Exchanges = append(out.Exchanges, APIExchange{
				Prompt:    rec.Messages,
				Response:  resp,
				Timestamp: rec.Timestamp.Format(time.RFC3339),
			})
		}
	}
	return out, nil
}
