package video

import (
	"strings"
	"unicode"
)

// Format renders segments for display (includeTimestamps) or for prompting.
// With timestamps each line is "[timestamp] text"; without, texts are joined
// by single spaces. Trailing whitespace is trimmed; empty input yields "".
func Format(segments []Segment, includeTimestamps bool) string {
	if len(segments) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, seg := range segments {
		if includeTimestamps {
			sb.WriteString("[" + seg.Timestamp + "] " + seg.Text + "\n")
		} else {
			sb.WriteString(seg.Text + " ")
		}
	}
	return strings.TrimRightFunc(sb.String(), unicode.IsSpace)
}
