package cli

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"story_vocab/audio"
	"story_vocab/config"
	"story_vocab/generator"
	"story_vocab/history"
)

func TestBuildLLM(t *testing.T) {
	ctx := context.Background()

	_, err := buildLLM(ctx, config.Config{})
	require.Error(t, err)

	_, err = buildLLM(ctx, config.Config{LLM: &config.LLMConfig{Provider: "claude"}})
	require.Error(t, err)

	llm, err := buildLLM(ctx, config.Config{LLM: &config.LLMConfig{Provider: "mock"}})
	require.NoError(t, err)
	assert.IsType(t, generator.MockLLM{}, llm)

	llm, err = buildLLM(ctx, config.Config{LLM: &config.LLMConfig{
		Provider: "deepseek", Model: "deepseek-chat", APIKey: "k", BaseURL: config.DefaultDeepSeekURL,
	}})
	require.NoError(t, err)
	require.IsType(t, &generator.OpenAILLM{}, llm)
	assert.Equal(t, "deepseek", llm.(*generator.OpenAILLM).Provider)

	_, err = buildLLM(ctx, config.Config{LLM: &config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini"}})
	require.Error(t, err, "missing key must be rejected")
}

func TestOpenHistoryStoreBackends(t *testing.T) {
	dir := t.TempDir()

	s, err := openHistoryStore(config.Config{History: config.HistoryConfig{Backend: "sqlite", Path: filepath.Join(dir, "h.db")}})
	require.NoError(t, err)
	assert.IsType(t, &history.SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = openHistoryStore(config.Config{History: config.HistoryConfig{Backend: "file", Path: filepath.Join(dir, "h.json")}})
	require.NoError(t, err)
	assert.IsType(t, &history.FileStore{}, s)

	_, err = openHistoryStore(config.Config{History: config.HistoryConfig{Backend: "s3"}})
	require.Error(t, err)
}

func TestPrintResult(t *testing.T) {
	res := generator.Result{Story: "story text", Definitions: "apple [ˈæpl] : 苹果\n[x] : y"}

	var buf bytes.Buffer
	printResult(&buf, res, "both")
	assert.Equal(t, "story text\n\n🔊 apple [ˈæpl] : 苹果\n[x] : y\n", buf.String())

	buf.Reset()
	printResult(&buf, res, "story")
	assert.Equal(t, "story text\n", buf.String())

	buf.Reset()
	printResult(&buf, res, "definitions")
	assert.Equal(t, "🔊 apple [ˈæpl] : 苹果\n[x] : y\n", buf.String())
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range RootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"generate", "history", "say", "serve"} {
		assert.True(t, names[want], want)
	}
}

func TestSayReportsFetchOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("audio") == "missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3:" + r.URL.Query().Get("audio")))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	sink := audio.FileSink{Dir: dir}
	player := audio.NewPlayer(audio.NewFetcher(audio.Resolver{BaseURL: srv.URL}, nil), sink, log.New(io.Discard, "", 0))

	t.Run("padded word", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.True(t, say(player, sink, " cat ", &stdout, &stderr))
		assert.Equal(t, filepath.Join(dir, "cat.mp3")+"\n", stdout.String())
		assert.Empty(t, stderr.String())

		data, err := os.ReadFile(filepath.Join(dir, "cat.mp3"))
		require.NoError(t, err)
		assert.Equal(t, "ID3:cat", string(data))
	})

	t.Run("stale file does not mask failure", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "missing.mp3"), []byte("old"), 0o644))

		var stdout, stderr bytes.Buffer
		require.False(t, say(player, sink, "missing", &stdout, &stderr))
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "pronunciation unavailable")
	})
}
