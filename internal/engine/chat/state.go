package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/anatolykoptev/go_ytchat/internal/engine"
	"github.com/anatolykoptev/go_ytchat/internal/engine/video"
)

// ErrNoTranscript gates the question flow until a transcript is loaded.
var ErrNoTranscript = errors.New("no transcript loaded; submit a video URL first")

// Session is one user's chat state: the loaded video and its conversation.
type Session struct {
	Key   string      `json:"key"`
	URL   string      `json:"url,omitempty"`
	Info  *video.Info `json:"info,omitempty"`
	Turns []Turn      `json:"turns"`
}

type sessionState struct {
	mu sync.Mutex
	Session
}

// Store keeps per-session state in memory. Each session is serialized by its
// own lock, so a slow completion only blocks that session.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
	audit    *AuditLog
	engine   *Engine
}

// NewStore builds a Store answering through eng and auditing into audit.
func NewStore(eng *Engine, audit *AuditLog) *Store {
	return &Store{sessions: make(map[string]*sessionState), audit: audit, engine: eng}
}

func (s *Store) get(key string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[key]
	if !ok {
		st = &sessionState{Session: Session{Key: key}}
		s.sessions[key] = st
	}
	return st
}

// Bind attaches a fetch result to the session. A different result than the
// one already bound means a new video: the conversation and audit log reset.
func (s *Store) Bind(ctx context.Context, key, url string, info *video.Info) (reset bool, err error) {
	st := s.get(key)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.Info == info {
		return false, nil
	}
	reset = st.Info != nil || len(st.Turns) > 0
	st.URL, st.Info, st.Turns = url, info, nil
	if err := s.audit.Clear(ctx, key); err != nil {
		return reset, err
	}
	if reset {
		slog.Info("chat: new video, conversation reset", slog.String("session", key), slog.String("url", url))
	}
	return reset, nil
}

// Ask answers question against the bound transcript, replaying the recent
// window of turns, and records the turn. Completion failures still produce a
// turn (with an error answer) but no audit record.
func (s *Store) Ask(ctx context.Context, key, question string) (Turn, error) {
	st := s.get(key)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.Info == nil || len(st.Info.Transcript) == 0 {
		return Turn{}, ErrNoTranscript
	}

	answer, rec := s.engine.Answer(ctx, st.Info.Transcript, question, RecentTurns(st.Turns))
	if rec != nil {
		if err := s.audit.Append(ctx, key, rec); err != nil {
			slog.Warn("chat: audit append failed", slog.String("session", key), slog.Any("error", err))
		}
	}

	turn := Turn{Question: question, Answer: answer}
	st.Turns = append(st.Turns, turn)
	slog.Info("chat: answered",
		slog.String("session", key),
		slog.Int("turns", len(st.Turns)),
		slog.String("question", engine.Preview(question)))
	return turn, nil
}

// Snapshot returns a copy of the session state.
func (s *Store) Snapshot(key string) Session {
	st := s.get(key)
	st.mu.Lock()
	defer st.mu.Unlock()
	out := st.Session
	out.Turns = append([]Turn(nil), st.Turns...)
	return out
}

// Exchanges returns the session's audit records in arrival order.
func (s *Store) Exchanges(ctx context.Context, key string) ([]ExchangeRecord, error) {
	return s.audit.List(ctx, key)
}

// Clear resets the conversation and audit log, keeping the loaded video.
func (s *Store) Clear(ctx context.Context, key string) error {
	st := s.get(key)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.Turns = nil
	return s.audit.Clear(ctx, key)
}
