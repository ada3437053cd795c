package video

// Video transcript acquisition is split across files by responsibility:
//   videoid.go   identifier parsing (input validation)
//   format.go    transcript rendering for display and prompting
//   session.go   remote browser session broker (Hyperbrowser)
//   navigator.go page navigation primitives (go-rod)
//   extractor.go reveal-and-scrape state machine over a Navigator
//   fetch.go     end-to-end fetch pipeline with URL memoization

// UnknownVideo is the placeholder title used when the page title is unreadable.
const UnknownVideo = "Unknown Video"

// Segment is one timestamped caption line of the transcript panel.
type Segment struct {
	Timestamp string `json:"timestamp"` // m:ss or h:mm:ss, as rendered
	Text      string `json:"text"`
}

// Transcript is the ordered segment sequence in on-screen order.
type Transcript []Segment

// Metadata describes the video page a transcript came from.
type Metadata struct {
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
}

// Info is the outcome of one transcript fetch for a URL.
type Info struct {
	ID         string     `json:"id"`
	Metadata   Metadata   `json:"metadata"`
	Transcript Transcript `json:"transcript"`
}
