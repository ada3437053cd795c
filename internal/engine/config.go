package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	HyperbrowserAPIKey   string
	HyperbrowserAPIBase  string
	HyperbrowserProxy    bool
	SessionRatePerMin    int
	LLMProvider          string // "openai" (chat messages) or "kit" (single prompt)
	LLMAPIKey            string
	LLMAPIKeyFallbacks   []string
	LLMAPIBase           string
	LLMModel             string
	LLMTemperature       float64
	LLMMaxTokens         int
	NavTimeout           time.Duration // page navigation + title read
	StepTimeout          time.Duration // each reveal-and-wait step of the extractor
	SettleDelay          time.Duration // pause after the "pause playback" keystroke
	FetchTimeout         time.Duration // whole transcript fetch, shared by concurrent callers
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
	LLMClient            Completer // nil = answering disabled
}

var cfg Config

// Cfg exposes the engine configuration to main.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}
