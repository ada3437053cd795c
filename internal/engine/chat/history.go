package chat

// HistoryWindow is how many of the most recent turns are replayed into a prompt.
// Older turns stay in the session for display but drop out of model context.
const HistoryWindow = 5

// Turn is one answered question.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RecentTurns returns the last HistoryWindow turns, oldest first.
func RecentTurns(turns []Turn) []Turn {
	if len(turns) <= HistoryWindow {
		return turns
	}
	return turns[len(turns)-HistoryWindow:]
}
