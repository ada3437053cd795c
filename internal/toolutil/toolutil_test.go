package toolutil

import (
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestSessionKey(t *testing.T) {
	tests := []struct {
		name     string
		req      *mcp.CallToolRequest
		explicit string
		want     string
	}{
		{"explicit wins", &mcp.CallToolRequest{}, " alice ", "alice"},
		{"nil request", nil, "", DefaultSession},
		{"no transport session", &mcp.CallToolRequest{}, "", DefaultSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SessionKey(tt.req, tt.explicit); got != tt.want {
				t.Errorf("SessionKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormURL(t *testing.T) {
	if got := NormURL("  https://youtu.be/x?si=1 \n"); got != "https://youtu.be/x?si=1" {
		t.Errorf("NormURL() = %q", got)
	}
}
