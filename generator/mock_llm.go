package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	ws := prompt.Words
	switch prompt.Kind {
	case PromptDefinitions:
		var sb strings.Builder
		for _, w := range ws {
			sb.WriteString(fmt.Sprintf("%s [-] : （示例释义）\n", w))
		}
		return sb.String(), nil
	default:
		return fmt.Sprintf("从前有一只小猫，它每天都在学习新单词：%s。", ws.Join("、")), nil
	}
}
