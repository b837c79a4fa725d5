package generator

import (
	"context"
	"sync"
	"time"

	"story_vocab/words"
)

// SavedNoticeDuration 是"保存成功"提示自动消失的时间。
const SavedNoticeDuration = 2 * time.Second

// Session 持有一个用户的界面状态：输入、单词、生成状态、结果和保存提示。
// 同一时间只允许一次生成，Loading 期间再次触发返回 ErrBusy。
type Session struct {
	ID string

	mu       sync.Mutex
	agent    *Agent
	input    string
	words    words.Set
	state    State
	errMsg   string
	result   Result
	saved    bool
	savedSeq int
	notice   time.Duration
}

// View is a point-in-time copy of the session for rendering.
type View struct {
	ID          string           `json:"session_id"`
	Input       string           `json:"input"`
	Words       words.Set        `json:"words"`
	State       State            `json:"state"`
	Error       string           `json:"error,omitempty"`
	Story       string           `json:"story"`
	Definitions string           `json:"definitions"`
	Lines       []DefinitionLine `json:"definition_lines,omitempty"`
	ResultWords words.Set        `json:"result_words,omitempty"`
	Saved       bool             `json:"saved"`
}

// NewSession 创建 session，尚未生成内容。
func NewSession(id string, agent *Agent) *Session {
	return &Session{
		ID:     id,
		agent:  agent,
		words:  words.Set{},
		state:  StateIdle,
		notice: SavedNoticeDuration,
	}
}

// SetNoticeDuration overrides how long the saved flag stays up.
func (s *Session) SetNoticeDuration(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = d
}

// SetInput 更新原始输入并重新拆分单词。
func (s *Session) SetInput(raw string) words.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = raw
	s.words = words.Normalize(raw)
	return s.words.Clone()
}

// RemoveWord 删除所有与 word 相同的单词，并用剩余单词重写输入。
func (s *Session) RemoveWord(word string) words.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words, s.input = words.Remove(s.words, word)
	return s.words.Clone()
}

// Generate 触发一次生成。故事返回后立即对外可见；释义失败时保留故事、清空释义。
// 成功后清空输入和单词。
func (s *Session) Generate(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.state == StateLoading {
		s.mu.Unlock()
		return Result{}, ErrBusy
	}
	ws := s.words.Clone()
	if ws.Empty() {
		s.state = StateError
		s.errMsg = UserMessage(ErrEmptyInput)
		s.mu.Unlock()
		return Result{}, ErrEmptyInput
	}
	s.state = StateLoading
	s.errMsg = ""
	s.mu.Unlock()

	story, err := s.agent.Story(ctx, ws)
	if err != nil {
		return Result{}, s.fail(err)
	}

	s.mu.Lock()
	s.result = Result{Story: story, Words: ws}
	s.mu.Unlock()

	defs, err := s.agent.Definitions(ctx, ws)
	if err != nil {
		s.mu.Lock()
		res := s.result
		s.mu.Unlock()
		return res, s.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.result.Definitions = defs
	s.state = StateReady
	s.input = ""
	s.words = words.Set{}
	return s.result, nil
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateError
	s.errMsg = UserMessage(err)
	return err
}

// Current returns the result currently on screen.
func (s *Session) Current() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.result
	r.Words = r.Words.Clone()
	return r
}

// LoadEntry 展示一条历史记录的内容。
func (s *Session) LoadEntry(story, definitions string, ws []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = Result{Story: story, Definitions: definitions, Words: words.Set(ws).Clone()}
	if s.state != StateLoading {
		s.state = StateReady
		s.errMsg = ""
	}
}

// MarkSaved 打开保存提示，并在 notice 时间后自动关闭。
func (s *Session) MarkSaved() {
	s.mu.Lock()
	s.saved = true
	s.savedSeq++
	seq := s.savedSeq
	d := s.notice
	s.mu.Unlock()

	time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.savedSeq == seq {
			s.saved = false
		}
	})
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:          s.ID,
		Input:       s.input,
		Words:       s.words.Clone(),
		State:       s.state,
		Error:       s.errMsg,
		Story:       s.result.Story,
		Definitions: s.result.Definitions,
		Lines:       ParseDefinitions(s.result.Definitions),
		ResultWords: s.result.Words.Clone(),
		Saved:       s.saved,
	}
}
