package videoserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_ytchat/internal/engine"
	"github.com/anatolykoptev/go_ytchat/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VideoLoadInput struct {
	URL     string `json:"url" jsonschema:"YouTube video URL (youtube.com/watch?v=... or youtu.be/...)"`
	Session string `json:"session,omitempty" jsonschema:"Chat session key (default: MCP session)"`
}

type VideoLoadOutput struct {
	Session  string `json:"session"`
	VideoID  string `json:"video_id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Segments int    `json:"segments"`
	Reset    bool   `json:"reset"` // previous conversation was discarded
}

func registerLoad(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_load",
		Description: "Load a YouTube video for chat. Opens the watch page in a remote browser, reveals the transcript panel and scrapes its segments. Repeated loads of the same URL are served from memory. Loading a different video resets the conversation.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoLoadInput) (*mcp.CallToolResult, VideoLoadOutput, error) {
		out, err := d.load(ctx, toolutil.SessionKey(req, input.Session), input.URL)
		return nil, out, err
	})
}

// load fetches the transcript and binds it to the session. A page whose
// transcript could not be scraped is still bound so the title is kept, and
// questions stay gated until a transcript loads.
func (d Deps) load(ctx context.Context, key, rawURL string) (VideoLoadOutput, error) {
	url := toolutil.NormURL(rawURL)
	if url == "" {
		return VideoLoadOutput{}, fmt.Errorf("url is required")
	}

	info, err := d.Fetcher.Fetch(ctx, url)
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		return VideoLoadOutput{}, fmt.Errorf("invalid YouTube URL, please enter a valid URL: %w", err)
	case err != nil && info == nil:
		slog.Warn("video_load: fetch failed", slog.String("url", url), slog.Any("error", err))
		return VideoLoadOutput{}, fmt.Errorf("fetch video: %w", err)
	}

	reset, bindErr := d.Chats.Bind(ctx, key, url, info)
	if bindErr != nil {
		slog.Warn("video_load: bind failed", slog.String("session", key), slog.Any("error", bindErr))
	}
	if err != nil {
		return VideoLoadOutput{}, fmt.Errorf("failed to retrieve transcript for %q: %w", info.Metadata.Title, err)
	}

	return VideoLoadOutput{
		Session:  key,
		VideoID:  info.ID,
		Title:    info.Metadata.Title,
		URL:      url,
		Segments: len(info.Transcript),
		Reset:    reset,
	}, nil
}
