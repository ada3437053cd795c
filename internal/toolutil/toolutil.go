// Package toolutil provides shared helper functions for go_ytchat MCP tools.
package toolutil

import (
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultSession is used when neither the caller nor the transport names a session.
const DefaultSession = "default"

// SessionKey resolves which chat session a tool call belongs to:
// explicit input first, then the MCP transport session, then DefaultSession.
func SessionKey(req *mcp.CallToolRequest, explicit string) string {
	if k := strings.TrimSpace(explicit); k != "" {
		return k
	}
	if req != nil && req.Session != nil {
		if id := req.Session.ID(); id != "" {
			return id
		}
	}
	return DefaultSession
}

// NormURL trims surrounding whitespace from a submitted URL.
// The memo cache keys on the exact string, so no other rewriting happens.
func NormURL(raw string) string {
	return strings.TrimSpace(raw)
}
