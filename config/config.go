// Package config loads the JSON configuration file and resolves secrets from the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyEnv   = "STORY_VOCAB_API_KEY"
	DefaultDeepSeekURL = "https://api.deepseek.com"
	DefaultModel       = "deepseek-chat"
)

// Config 对应 config.json。
type Config struct {
	LLM        *LLMConfig    `json:"llm,omitempty"`
	ServerAddr string        `json:"server_addr,omitempty"`
	History    HistoryConfig `json:"history"`
	Audio      AudioConfig   `json:"audio"`
}

// LLMConfig 模型配置。密钥不写进配置文件时，从 api_key_env 指定的环境变量读取。
type LLMConfig struct {
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
	APIKeyEnv      string `json:"api_key_env,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

type HistoryConfig struct {
	Backend    string   `json:"backend,omitempty"` // file | sqlite | s3
	Path       string   `json:"path,omitempty"`
	TimeLayout string   `json:"time_layout,omitempty"`
	Timezone   string   `json:"timezone,omitempty"`
	S3         S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint,omitempty"`
	Region    string `json:"region,omitempty"`
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
	UseSSL    bool   `json:"use_ssl,omitempty"`
}

type AudioConfig struct {
	BaseURL string `json:"base_url,omitempty"`
}

// LoadConfig reads JSON config from disk. A missing file yields defaults so
// the history and audio commands work without any setup. Variables from a
// .env file in the working directory are loaded first.
func LoadConfig(path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, err
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.History.Backend == "" {
		c.History.Backend = "file"
	}
	if c.History.Path == "" && c.History.Backend != "s3" {
		home, _ := os.UserHomeDir()
		name := "history.json"
		if c.History.Backend == "sqlite" {
			name = "history.db"
		}
		c.History.Path = filepath.Join(home, ".story-vocab", name)
	}
	if c.History.S3.Endpoint == "" {
		c.History.S3.Endpoint = strings.TrimSpace(os.Getenv("STORY_VOCAB_S3_ENDPOINT"))
	}
	if c.History.S3.AccessKey == "" {
		c.History.S3.AccessKey = strings.TrimSpace(os.Getenv("STORY_VOCAB_S3_ACCESS_KEY"))
	}
	if c.History.S3.SecretKey == "" {
		c.History.S3.SecretKey = strings.TrimSpace(os.Getenv("STORY_VOCAB_S3_SECRET_KEY"))
	}
	if c.LLM == nil {
		return
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = strings.TrimSpace(os.Getenv(c.LLM.APIKeyEnv))
	}
	if c.LLM.Provider == "deepseek" {
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = DefaultDeepSeekURL
		}
		if c.LLM.Model == "" {
			c.LLM.Model = DefaultModel
		}
	}
}

func (c *Config) validate() error {
	switch c.History.Backend {
	case "file", "sqlite", "s3":
	default:
		return fmt.Errorf("history backend %q not supported (file, sqlite, s3)", c.History.Backend)
	}
	if c.History.Timezone != "" {
		if _, err := time.LoadLocation(c.History.Timezone); err != nil {
			return fmt.Errorf("history timezone: %w", err)
		}
	}
	return nil
}

// Timeout 返回单次模型调用的超时时间，未配置时为 0，由调用方决定默认值。
func (l *LLMConfig) Timeout() time.Duration {
	if l == nil || l.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// Location returns the configured timezone, or time.Local.
func (h HistoryConfig) Location() *time.Location {
	if h.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
