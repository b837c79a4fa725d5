// Package audio fetches word pronunciations from a dictionary voice service.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "http://dict.youdao.com/dictvoice"

// Resolver 把单词映射为发音地址。
type Resolver struct {
	BaseURL string
}

func (r Resolver) URL(word string) string {
	base := r.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	// 空格编码为 %20 而不是 +
	return base + "?audio=" + strings.ReplaceAll(url.QueryEscape(word), "+", "%20") + "&type=0"
}

// Clip is a downloaded pronunciation.
type Clip struct {
	Word        string
	ContentType string
	Data        []byte
}

type Fetcher struct {
	resolver Resolver
	client   *http.Client
}

func NewFetcher(resolver Resolver, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Fetcher{resolver: resolver, client: client}
}

func (f *Fetcher) Fetch(ctx context.Context, word string) (Clip, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return Clip{}, errors.New("word is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.resolver.URL(word), nil)
	if err != nil {
		return Clip{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Clip{}, fmt.Errorf("fetch pronunciation %q: %w", word, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Clip{}, fmt.Errorf("fetch pronunciation %q: unexpected status %s", word, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Clip{}, fmt.Errorf("read pronunciation %q: %w", word, err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "audio/mpeg"
	}
	return Clip{Word: word, ContentType: ct, Data: data}, nil
}

// Sink 接收下载好的发音，例如写入文件或交给播放器。
type Sink interface {
	Play(ctx context.Context, clip Clip) error
}

type SinkFunc func(ctx context.Context, clip Clip) error

func (f SinkFunc) Play(ctx context.Context, clip Clip) error { return f(ctx, clip) }

// Player 异步获取并播放发音，失败只记录日志，不影响其他状态。
type Player struct {
	fetcher *Fetcher
	sink    Sink
	logger  *log.Logger
	timeout time.Duration
}

func NewPlayer(fetcher *Fetcher, sink Sink, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.Default()
	}
	if sink == nil {
		sink = SinkFunc(func(context.Context, Clip) error { return nil })
	}
	return &Player{fetcher: fetcher, sink: sink, logger: logger, timeout: 15 * time.Second}
}

// Play returns immediately. The returned channel yields the outcome of the
// attempt (nil on success) and is then closed. Callers may ignore it.
func (p *Player) Play(word string) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		clip, err := p.fetcher.Fetch(ctx, word)
		if err != nil {
			p.logger.Printf("[audio] play failed: %v", err)
			done <- err
			return
		}
		if err := p.sink.Play(ctx, clip); err != nil {
			p.logger.Printf("[audio] play failed: %q: %v", word, err)
			done <- err
			return
		}
		done <- nil
	}()
	return done
}
