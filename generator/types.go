package generator

import "story_vocab/words"

// Result 是一次生成的产物。Words 记录生成时使用的单词。
type Result struct {
	Story       string    `json:"story"`
	Definitions string    `json:"definitions"`
	Words       words.Set `json:"words"`
}

func (r Result) Empty() bool {
	return r.Story == "" && r.Definitions == ""
}

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateError   State = "error"
	StateReady   State = "ready"
)

// DefinitionLine 是释义文本中的一行；Word 非空时界面可以提供发音按钮。
type DefinitionLine struct {
	Text string `json:"text"`
	Word string `json:"word,omitempty"`
}
