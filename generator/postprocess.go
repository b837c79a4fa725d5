package generator

import (
	"regexp"
	"strings"
)

// PostProcess 校验模型输出，空内容视为响应缺少字段。
func PostProcess(raw string) (string, error) {
	out := strings.TrimSpace(raw)
	if out == "" {
		return "", &MalformedResponseError{Field: "message content"}
	}
	return out, nil
}

// 单词后的空白与 words.IsSeparator 保持一致，支持全角空格等 Unicode 空白。
var leadingWord = regexp.MustCompile(`^(\w+)[\s\v\p{Z}\x{85}\x{FEFF}]+`)

// ParseDefinitions splits definitions into lines; lines starting with a word
// followed by whitespace carry that word so the UI can offer pronunciation.
func ParseDefinitions(defs string) []DefinitionLine {
	if defs == "" {
		return nil
	}
	lines := strings.Split(defs, "\n")
	out := make([]DefinitionLine, 0, len(lines))
	for _, line := range lines {
		dl := DefinitionLine{Text: line}
		if m := leadingWord.FindStringSubmatch(line); len(m) >= 2 {
			dl.Word = m[1]
		}
		out = append(out, dl)
	}
	return out
}
