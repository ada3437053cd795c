package videoserver

import (
	"github.com/anatolykoptev/go_ytchat/internal/engine/chat"
	"github.com/anatolykoptev/go_ytchat/internal/engine/video"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Deps are the core services the tools call into.
type Deps struct {
	Fetcher *video.Fetcher
	Chats   *chat.Store
}

// RegisterTools registers the video chat tools on the given MCP server:
// video_load, video_ask, video_transcript, video_history, video_clear.
func RegisterTools(server *mcp.Server, d Deps) {
	registerLoad(server, d)
	registerAsk(server, d)
	registerTranscript(server, d)
	registerHistory(server, d)
	registerClear(server, d)
}
