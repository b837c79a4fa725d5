package server

import (
	"bytes"
	"crypto/rand"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/yuin/goldmark"

	"story_vocab/audio"
	"story_vocab/generator"
	"story_vocab/history"
)

// Deps 是构建 Server 所需的依赖。History 是启动时读取的历史记录。
type Deps struct {
	Agent    *generator.Agent
	Recorder *history.Recorder
	History  history.Log
	Fetcher  *audio.Fetcher
	Logger   *log.Logger
	// SavedNotice overrides how long the "saved" flag stays up; zero keeps the default.
	SavedNotice time.Duration
}

type Server struct {
	genAgent *generator.Agent
	recorder *history.Recorder
	fetcher  *audio.Fetcher
	logger   *log.Logger
	store    *sessionStore
	md       goldmark.Markdown
	notice   time.Duration

	histMu  sync.Mutex
	entries history.Log
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*generator.Session
}

func newStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*generator.Session)}
}

func (s *sessionStore) set(id string, sess *generator.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
}

func (s *sessionStore) get(id string) (*generator.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func New(deps Deps) (*Server, error) {
	if deps.Agent == nil {
		return nil, errors.New("generator agent required")
	}
	if deps.Recorder == nil {
		return nil, errors.New("history recorder required")
	}
	if deps.Fetcher == nil {
		deps.Fetcher = audio.NewFetcher(audio.Resolver{}, nil)
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	entries := deps.History
	if entries == nil {
		entries = history.Log{}
	}

	return &Server{
		genAgent: deps.Agent,
		recorder: deps.Recorder,
		fetcher:  deps.Fetcher,
		logger:   deps.Logger,
		store:    newStore(),
		md:       goldmark.New(),
		notice:   deps.SavedNotice,
		entries:  entries,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleSessionCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSessionGet)
	mux.HandleFunc("PUT /api/sessions/{id}/input", s.handleInput)
	mux.HandleFunc("POST /api/sessions/{id}/remove", s.handleRemoveWord)
	mux.HandleFunc("POST /api/sessions/{id}/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/sessions/{id}/save", s.handleSave)
	mux.HandleFunc("POST /api/sessions/{id}/load", s.handleLoad)
	mux.HandleFunc("GET /api/history", s.handleHistoryList)
	mux.HandleFunc("GET /api/history/{id}", s.handleHistoryGet)
	mux.HandleFunc("DELETE /api/history/{id}", s.handleHistoryDelete)
	mux.HandleFunc("GET /api/audio/{word}", s.handleAudio)
	return s.logMiddleware(mux)
}

// snapshotHistory returns a copy safe to encode outside the lock.
func (s *Server) snapshotHistory() history.Log {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	out := make(history.Log, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Server) renderStory(story string) string {
	if story == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(story), &buf); err != nil {
		s.logger.Printf("[server] render story: %v", err)
		return ""
	}
	return buf.String()
}

func newSessionID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Printf("[server] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
