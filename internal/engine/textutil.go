package engine

import (
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

// User-Agent sent to the session broker.
const UserAgentBot = "go_ytchat/1.0"

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8 (Cyrillic, CJK, emoji).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}

// Preview collapses whitespace and shortens s for log attributes.
func Preview(s string) string {
	return TruncateRunes(strings.Join(strings.Fields(s), " "), 80, "...")
}
