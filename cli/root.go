// Package cli implements the story-vocab commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"story_vocab/config"
	"story_vocab/generator"
	"story_vocab/history"
)

var (
	configPath string
	verbose    bool
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "story-vocab",
	Short: "Learn vocabulary through tiny generated stories",
	Long:  "Enter English words, get a short story that uses each of them plus definitions with IPA, and keep a local history of what you saved.",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.json", "path to config.json")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable info logs")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
}

func loadConfig() config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	return cfg
}

// logger 在 -v 时输出到标准日志，否则丢弃。
func logger() *log.Logger {
	if verbose {
		return log.Default()
	}
	return log.New(io.Discard, "", 0)
}

func buildLLM(ctx context.Context, cfg config.Config) (generator.LLMClient, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key_env in config")
	}
	settings := &generator.LLMSettings{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout(),
	}
	switch cfg.LLM.Provider {
	case "openai", "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，base_url 默认指向官方地址。
		return generator.NewOpenAILLMFromConfig(settings)
	case "gemini":
		return generator.NewGeminiLLMFromConfig(ctx, settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}

func buildAgent(ctx context.Context, cfg config.Config) *generator.Agent {
	llm, err := buildLLM(ctx, cfg)
	if err != nil {
		exitErr("build llm", err)
	}
	agent, err := generator.NewAgent(llm, cfg.LLM.Timeout())
	if err != nil {
		exitErr("build agent", err)
	}
	return agent
}

func openHistoryStore(cfg config.Config) (history.Store, error) {
	h := cfg.History
	switch h.Backend {
	case "sqlite":
		return history.NewSQLiteStore(h.Path)
	case "s3":
		return history.NewObjectStore(history.ObjectConfig{
			Endpoint:  h.S3.Endpoint,
			Region:    h.S3.Region,
			AccessKey: h.S3.AccessKey,
			SecretKey: h.S3.SecretKey,
			Bucket:    h.S3.Bucket,
			UseSSL:    h.S3.UseSSL,
		})
	default:
		return history.NewFileStore(h.Path)
	}
}

// openHistory 打开存储并读取历史；数据损坏时按空记录继续。
func openHistory(ctx context.Context, cfg config.Config) (history.Store, *history.Recorder, history.Log) {
	store, err := openHistoryStore(cfg)
	if err != nil {
		exitErr("open history", err)
	}
	rec, err := history.NewRecorder(store,
		history.WithTimeFormat(cfg.History.TimeLayout, cfg.History.Location()),
		history.WithLogger(logger()),
	)
	if err != nil {
		store.Close()
		exitErr("open history", err)
	}
	entries, err := rec.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; starting with an empty history\n", err)
	}
	return store, rec, entries
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
