package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"story_vocab/generator"
	"story_vocab/history"
)

type sessionResp struct {
	generator.View
	StoryHTML string `json:"story_html,omitempty"`
}

type inputReq struct {
	Text string `json:"text"`
}

type removeReq struct {
	Word string `json:"word"`
}

type loadReq struct {
	ID int64 `json:"id"`
}

type saveResp struct {
	Entry   history.Entry `json:"entry"`
	Session sessionResp   `json:"session"`
}

type errorResp struct {
	Error   string       `json:"error"`
	Session *sessionResp `json:"session,omitempty"`
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req inputReq
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	id := newSessionID()
	sess := generator.NewSession(id, s.genAgent)
	if s.notice > 0 {
		sess.SetNoticeDuration(s.notice)
	}
	if req.Text != "" {
		sess.SetInput(req.Text)
	}
	s.store.set(id, sess)
	writeJSONStatus(w, http.StatusCreated, s.view(sess))
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.view(sess))
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req inputReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.SetInput(req.Text)
	writeJSON(w, s.view(sess))
}

func (s *Server) handleRemoveWord(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req removeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.RemoveWord(req.Word)
	writeJSON(w, s.view(sess))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	_, err := sess.Generate(r.Context())
	if err != nil {
		view := s.view(sess)
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, generator.ErrBusy):
			status = http.StatusConflict
		case errors.Is(err, generator.ErrEmptyInput):
			status = http.StatusBadRequest
		}
		s.logger.Printf("[server] generate session=%s: %v", sess.ID, err)
		writeJSONStatus(w, status, errorResp{Error: generator.UserMessage(err), Session: &view})
		return
	}
	writeJSON(w, s.view(sess))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	res := sess.Current()
	if res.Empty() {
		writeError(w, http.StatusBadRequest, "nothing to save")
		return
	}

	s.histMu.Lock()
	next, err := s.recorder.Append(r.Context(), s.entries, history.Draft{
		Story:       res.Story,
		Definitions: res.Definitions,
		Words:       res.Words,
	})
	if err == nil {
		s.entries = next
	}
	s.histMu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sess.MarkSaved()
	writeJSONStatus(w, http.StatusCreated, saveResp{Entry: next[0], Session: s.view(sess)})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req loadReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := s.snapshotHistory().Get(req.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	sess.LoadEntry(entry.Story, entry.Definitions, entry.Words)
	writeJSON(w, s.view(sess))
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshotHistory())
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	id, ok := historyID(w, r)
	if !ok {
		return
	}
	entry, err := s.snapshotHistory().Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, entry)
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := historyID(w, r)
	if !ok {
		return
	}
	s.histMu.Lock()
	next, err := s.recorder.Remove(r.Context(), s.entries, id)
	if err == nil {
		s.entries = next
	}
	s.histMu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, s.snapshotHistory())
}

// handleAudio 代理发音音频；失败只影响这一次请求。
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	word := r.PathValue("word")
	clip, err := s.fetcher.Fetch(r.Context(), word)
	if err != nil {
		s.logger.Printf("[audio] %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.Header().Set("Content-Type", clip.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(clip.Data)))
	_, _ = w.Write(clip.Data)
}

// --- Helpers ---

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*generator.Session, bool) {
	sess, ok := s.store.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func (s *Server) view(sess *generator.Session) sessionResp {
	v := sess.Snapshot()
	return sessionResp{View: v, StoryHTML: s.renderStory(v.Story)}
}

func historyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid history id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, errorResp{Error: msg})
}
