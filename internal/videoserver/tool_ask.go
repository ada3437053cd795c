package videoserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_ytchat/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VideoAskInput struct {
	Question string `json:"question" jsonschema:"Question about the loaded video"`
	Session  string `json:"session,omitempty" jsonschema:"Chat session key (default: MCP session)"`
}

type VideoAskOutput struct {
	Answer string `json:"answer"`
	Turns  int    `json:"turns"`
}

func registerAsk(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_ask",
		Description: "Ask a question about the loaded video. Answers are grounded on the transcript; the last 5 exchanges are used as conversation context. Answers that fall back on general knowledge say so.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoAskInput) (*mcp.CallToolResult, VideoAskOutput, error) {
		out, err := d.ask(ctx, toolutil.SessionKey(req, input.Session), input.Question)
		return nil, out, err
	})
}

func (d Deps) ask(ctx context.Context, key, question string) (VideoAskOutput, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return VideoAskOutput{}, fmt.Errorf("question is required")
	}
	turn, err := d.Chats.Ask(ctx, key, question)
	if err != nil {
		return VideoAskOutput{}, err
	}
	return VideoAskOutput{Answer: turn.Answer, Turns: len(d.Chats.Snapshot(key).Turns)}, nil
}
