package video

import "regexp"

// videoIDPatterns are tried in order; the first match wins.
// Each capture stops at the first '&', '?', '#' or whitespace; the first v= parameter wins.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.|m\.)?youtube\.com/watch\?(?:[^#\s&]*&)*?v=([^&?#\s]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtu\.be/([^?&#\s]+)`),
}

// ParseVideoID extracts the video identifier from a long-form or short-form URL.
func ParseVideoID(raw string) (string, bool) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(raw); len(m) >= 2 && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}
