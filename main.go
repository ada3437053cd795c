// go_ytchat: chat with a YouTube video over MCP.
//
// Exposes five MCP tools: video_load, video_ask, video_transcript,
// video_history, video_clear. Transcripts are scraped from the watch page
// through a remote Hyperbrowser session; answers come from an
// OpenAI-compatible completion API grounded on the transcript.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_ytchat/internal/engine"
	"github.com/anatolykoptev/go_ytchat/internal/engine/chat"
	"github.com/anatolykoptev/go_ytchat/internal/engine/video"
	"github.com/anatolykoptev/go_ytchat/internal/videoserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	initEngine()
	c := engine.Cfg

	if c.HyperbrowserAPIKey == "" {
		slog.Warn("HYPERBROWSER_API_KEY is not set, video_load will fail")
	}

	fetcher := video.NewFetcher(video.FetcherConfig{
		Sessions: video.NewHyperbrowser(video.HyperbrowserConfig{
			APIBase:    c.HyperbrowserAPIBase,
			APIKey:     c.HyperbrowserAPIKey,
			UseProxy:   c.HyperbrowserProxy,
			RatePerMin: c.SessionRatePerMin,
			HTTPClient: c.HTTPClient,
		}),
		Dialer:      video.RodDialer{NavTimeout: c.NavTimeout},
		Extractor:   video.NewExtractor(selectorsFromEnv(), c.StepTimeout),
		SettleDelay: c.SettleDelay,
		Memo: engine.MemoConfig{
			TTL:         c.CacheTTL,
			MaxEntries:  c.CacheMaxEntries,
			LoadTimeout: c.FetchTimeout,
		},
	})
	go fetcher.Memo().RunCleanup(context.Background(), c.CacheCleanupInterval)

	audit, err := chat.OpenAuditLog()
	if err != nil {
		slog.Error("audit log init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer audit.Close()

	if c.LLMClient == nil {
		slog.Warn("LLM_API_KEY is not set, answers will report an error")
	}
	store := chat.NewStore(chat.NewEngine(c.LLMClient, c.LLMTemperature, c.LLMMaxTokens), audit)

	slog.Info("starting go_ytchat",
		slog.String("port", mcpPort),
		slog.String("llm_provider", c.LLMProvider),
		slog.String("llm_model", c.LLMModel),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_ytchat",
		Version: version,
	}, nil)

	videoserver.RegisterTools(server, videoserver.Deps{Fetcher: fetcher, Chats: store})
	slog.Info("tools registered", slog.Int("count", 5))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_ytchat",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 300 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.Config{
		HyperbrowserAPIKey:   env.Str("HYPERBROWSER_API_KEY", ""),
		HyperbrowserAPIBase:  env.Str("HYPERBROWSER_API_BASE", "https://app.hyperbrowser.ai"),
		HyperbrowserProxy:    envBool("HYPERBROWSER_USE_PROXY", true),
		SessionRatePerMin:    env.Int("SESSION_RATE_PER_MIN", 0),
		LLMProvider:          env.Str("LLM_PROVIDER", "openai"),
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://api.openai.com/v1"),
		LLMModel:             env.Str("LLM_MODEL", "gpt-4o-mini"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", chat.DefaultTemperature),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", chat.DefaultMaxTokens),
		NavTimeout:           env.Duration("NAV_TIMEOUT", 30*time.Second),
		StepTimeout:          env.Duration("STEP_TIMEOUT", 10*time.Second),
		SettleDelay:          env.Duration("SETTLE_DELAY", 500*time.Millisecond),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 2*time.Minute),
		CacheTTL:             env.Duration("CACHE_TTL", 0),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 500),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	if c.LLMAPIKey != "" {
		llmHTTP := &http.Client{Timeout: 60 * time.Second}
		switch c.LLMProvider {
		case "kit":
			client := llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
				llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
				llm.WithMaxTokens(c.LLMMaxTokens),
				llm.WithTemperature(c.LLMTemperature),
				llm.WithHTTPClient(llmHTTP),
			)
			c.LLMClient = engine.NewKitCompleter(client, c.LLMModel)
		default:
			if c.LLMProvider != "openai" {
				slog.Warn("unknown LLM_PROVIDER, using openai", slog.String("provider", c.LLMProvider))
				c.LLMProvider = "openai"
			}
			c.LLMClient = engine.NewOpenAICompleter(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel, llmHTTP)
		}
	}

	engine.Init(c)
}

// selectorsFromEnv overrides individual page selectors; empty values keep the defaults.
func selectorsFromEnv() video.Selectors {
	return video.Selectors{
		Description:    env.Str("YT_SELECTOR_DESCRIPTION", ""),
		ShowTranscript: env.Str("YT_SELECTOR_SHOW_TRANSCRIPT", ""),
		SegmentList:    env.Str("YT_SELECTOR_SEGMENT_LIST", ""),
		Container:      env.Str("YT_SELECTOR_CONTAINER", ""),
		Segment:        env.Str("YT_SELECTOR_SEGMENT", ""),
		Timestamp:      env.Str("YT_SELECTOR_TIMESTAMP", ""),
		Text:           env.Str("YT_SELECTOR_TEXT", ""),
	}.WithDefaults()
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(env.Str(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return v
}
