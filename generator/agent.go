package generator

import (
	"context"
	"errors"
	"time"

	"story_vocab/words"
)

const DefaultTimeout = 60 * time.Second

// Agent 负责一次生成流程：先生成故事，再生成释义，两次调用严格串行。
type Agent struct {
	llm     LLMClient
	timeout time.Duration
}

func NewAgent(llm LLMClient, timeout time.Duration) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Agent{llm: llm, timeout: timeout}, nil
}

// Generate runs the story call and then the definitions call. If the second
// call fails the returned Result still carries the story.
func (a *Agent) Generate(ctx context.Context, ws words.Set) (Result, error) {
	story, err := a.Story(ctx, ws)
	if err != nil {
		return Result{}, err
	}
	res := Result{Story: story, Words: ws.Clone()}
	defs, err := a.Definitions(ctx, ws)
	if err != nil {
		return res, err
	}
	res.Definitions = defs
	return res, nil
}

// Story 只执行故事调用。
func (a *Agent) Story(ctx context.Context, ws words.Set) (string, error) {
	if ws.Empty() {
		return "", ErrEmptyInput
	}
	return a.complete(ctx, BuildStoryPrompt(ws))
}

// Definitions 只执行释义调用。
func (a *Agent) Definitions(ctx context.Context, ws words.Set) (string, error) {
	if ws.Empty() {
		return "", ErrEmptyInput
	}
	return a.complete(ctx, BuildDefinitionsPrompt(ws))
}

func (a *Agent) complete(ctx context.Context, prompt Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return "", asGenerationError(err)
	}
	return PostProcess(raw)
}
