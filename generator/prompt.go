package generator

import (
	"fmt"
	"strings"

	"story_vocab/words"
)

type PromptKind int

const (
	PromptStory PromptKind = iota
	PromptDefinitions
)

// Prompt 是一次 LLM 调用：单条 user 消息。
type Prompt struct {
	Kind  PromptKind
	Words words.Set
	User  string
}

// 故事要求，顺序即提示词中的编号。
var storyConstraints = []string{
	"每个英文单词在故事中必须且只能出现一次",
	"英文单词直接使用，不加任何中文翻译",
	"故事要简单有趣，适合儿童阅读",
	"不要在故事结尾添加任何单词释义或解释",
	"故事要完整，但必须控制在100字以内",
}

// BuildStoryPrompt 生成故事提示词，单词以 ", " 拼接嵌入。
func BuildStoryPrompt(ws words.Set) Prompt {
	var sb strings.Builder
	sb.WriteString("创作一个非常简短的故事（100字以内），将以下英文单词巧妙融入中文叙述中：")
	sb.WriteString(ws.Join(", "))
	sb.WriteString("。\n严格要求：")
	for i, c := range storyConstraints {
		sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, c))
	}
	return Prompt{Kind: PromptStory, Words: ws, User: sb.String()}
}

// BuildDefinitionsPrompt 生成释义提示词：每行一个单词，格式为 "单词 [音标] : 释义"。
func BuildDefinitionsPrompt(ws words.Set) Prompt {
	user := "为以下英文单词提供中文释义和音标，每行一个，格式为\"单词 [音标] : 释义\"，音标要准确：" + ws.Join(", ")
	return Prompt{Kind: PromptDefinitions, Words: ws, User: user}
}
