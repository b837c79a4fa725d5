package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"story_vocab/audio"
	"story_vocab/generator"
	"story_vocab/history"
)

// stubLLM answers story and definitions prompts; failDefs makes the second call fail.
type stubLLM struct {
	calls    atomic.Int32
	failDefs atomic.Bool
}

func (s *stubLLM) Complete(_ context.Context, p generator.Prompt) (string, error) {
	s.calls.Add(1)
	if p.Kind == generator.PromptDefinitions {
		if s.failDefs.Load() {
			return "", errors.New("upstream closed connection")
		}
		return "apple [ˈæpl] : 苹果\ntree [triː] : 树", nil
	}
	return "**Once** an apple fell from a tree.", nil
}

type testEnv struct {
	srv  *httptest.Server
	llm  *stubLLM
	path string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	llm := &stubLLM{}
	agent, err := generator.NewAgent(llm, time.Second)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "history.json")
	store, err := history.NewFileStore(path)
	require.NoError(t, err)
	recorder, err := history.NewRecorder(store)
	require.NoError(t, err)

	voice := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("audio") == "zzz" {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3:" + r.URL.Query().Get("audio")))
	}))
	t.Cleanup(voice.Close)

	s, err := New(Deps{
		Agent:       agent,
		Recorder:    recorder,
		Fetcher:     audio.NewFetcher(audio.Resolver{BaseURL: voice.URL}, nil),
		Logger:      log.New(io.Discard, "", 0),
		SavedNotice: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, llm: llm, path: path}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) newSession(t *testing.T, text string) sessionResp {
	t.Helper()
	var v sessionResp
	code := e.do(t, http.MethodPost, "/api/sessions", inputReq{Text: text}, &v)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, v.ID)
	return v
}

func TestGenerateSaveLoadDelete(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newSession(t, "apple, tree")
	assert.Equal(t, []string{"apple", "tree"}, []string(sess.Words))
	base := "/api/sessions/" + sess.ID

	var v sessionResp
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, base+"/generate", nil, &v))
	assert.Equal(t, generator.StateReady, v.State)
	assert.Empty(t, v.Words)
	assert.Contains(t, v.StoryHTML, "<strong>Once</strong>")
	require.Len(t, v.Lines, 2)
	assert.Equal(t, "tree", v.Lines[1].Word)

	var saved saveResp
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, base+"/save", nil, &saved))
	assert.True(t, saved.Session.Saved)
	assert.Equal(t, []string{"apple", "tree"}, saved.Entry.Words)
	assert.NotEmpty(t, saved.Entry.CreatedAt)

	require.Eventually(t, func() bool {
		var cur sessionResp
		env.do(t, http.MethodGet, base, nil, &cur)
		return !cur.Saved
	}, 2*time.Second, 10*time.Millisecond)

	var entries history.Log
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/history", nil, &entries))
	require.Len(t, entries, 1)
	id := strconv.FormatInt(entries[0].ID, 10)

	var entry history.Entry
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/history/"+id, nil, &entry))
	assert.Equal(t, entries[0], entry)

	other := env.newSession(t, "")
	var loaded sessionResp
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/sessions/"+other.ID+"/load", loadReq{ID: entry.ID}, &loaded))
	assert.Equal(t, entry.Story, loaded.Story)
	assert.Equal(t, entry.Definitions, loaded.Definitions)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/history/"+id, nil, &entries))
	assert.Empty(t, entries)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/history/"+id, nil, nil))

	// a fresh recorder on the same file sees the deletion
	store, err := history.NewFileStore(env.path)
	require.NoError(t, err)
	rec, err := history.NewRecorder(store)
	require.NoError(t, err)
	persisted, err := rec.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestInputAndRemove(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newSession(t, "")
	base := "/api/sessions/" + sess.ID

	var v sessionResp
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, base+"/input", inputReq{Text: "cat, dog  cat"}, &v))
	assert.Equal(t, []string{"cat", "dog", "cat"}, []string(v.Words))

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, base+"/remove", removeReq{Word: "cat"}, &v))
	assert.Equal(t, []string{"dog"}, []string(v.Words))
	assert.Equal(t, "dog", v.Input)
}

func TestGenerateEmptyInput(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newSession(t, "")

	var resp errorResp
	code := env.do(t, http.MethodPost, "/api/sessions/"+sess.ID+"/generate", nil, &resp)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "请先输入一些单词", resp.Error)
	assert.Zero(t, env.llm.calls.Load())
}

func TestGenerateDefinitionsFailure(t *testing.T) {
	env := newTestEnv(t)
	env.llm.failDefs.Store(true)
	sess := env.newSession(t, "apple")

	var resp errorResp
	code := env.do(t, http.MethodPost, "/api/sessions/"+sess.ID+"/generate", nil, &resp)

	assert.Equal(t, http.StatusBadGateway, code)
	require.NotNil(t, resp.Session)
	assert.Equal(t, generator.StateError, resp.Session.State)
	assert.NotEmpty(t, resp.Session.Story)
	assert.Empty(t, resp.Session.Definitions)
	assert.Contains(t, resp.Error, "upstream closed connection")
}

func TestSaveWithoutResult(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newSession(t, "apple")

	code := env.do(t, http.MethodPost, "/api/sessions/"+sess.ID+"/save", nil, nil)

	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUnknownSessionAndBadIDs(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/sessions/nope", nil, nil))
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodDelete, "/api/history/abc", nil, nil))

	var entries history.Log
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/history/123", nil, &entries))
	assert.Empty(t, entries)

	sess := env.newSession(t, "")
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/sessions/"+sess.ID+"/load", loadReq{ID: 1}, nil))
}

func TestAudioProxy(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/api/audio/apple")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, "mp3:apple", string(body))

	assert.Equal(t, http.StatusBadGateway, env.do(t, http.MethodGet, "/api/audio/zzz", nil, nil))
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	require.Error(t, err)
}
