package videoserver

import (
	"context"

	"github.com/anatolykoptev/go_ytchat/internal/engine/chat"
	"github.com/anatolykoptev/go_ytchat/internal/engine/video"
	"github.com/anatolykoptev/go_ytchat/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VideoTranscriptInput struct {
	Session      string `json:"session,omitempty" jsonschema:"Chat session key (default: MCP session)"`
	NoTimestamps bool   `json:"no_timestamps,omitempty" jsonschema:"Render plain text without [m:ss] prefixes"`
	Raw          bool   `json:"raw,omitempty" jsonschema:"Also return the raw segment list"`
}

type VideoTranscriptOutput struct {
	Title      string          `json:"title"`
	Transcript string          `json:"transcript"`
	Segments   []video.Segment `json:"segments,omitempty"`
}

func registerTranscript(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_transcript",
		Description: "Show the loaded video's transcript, one [timestamp] text line per segment, optionally with the raw segment data.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoTranscriptInput) (*mcp.CallToolResult, VideoTranscriptOutput, error) {
		out, err := d.transcript(toolutil.SessionKey(req, input.Session), input)
		return nil, out, err
	})
}

func (d Deps) transcript(key string, input VideoTranscriptInput) (VideoTranscriptOutput, error) {
	s := d.Chats.Snapshot(key)
	if s.Info == nil || len(s.Info.Transcript) == 0 {
		return VideoTranscriptOutput{}, chat.ErrNoTranscript
	}

	out := VideoTranscriptOutput{
		Title:      s.Info.Metadata.Title,
		Transcript: video.Format(s.Info.Transcript, !input.NoTimestamps),
	}
	if input.Raw {
		out.Segments = s.Info.Transcript
	}
	return out, nil
}
