package words

import (
	"strings"
	"unicode"
)

// Set 是用户输入拆分后的单词序列，保留出现顺序，不去重。
type Set []string

// IsSeparator 判断分隔符：逗号或任意 Unicode 空白（含全角空格 U+3000、U+00A0、\v、BOM）。
func IsSeparator(r rune) bool {
	return r == ',' || r == '\uFEFF' || unicode.IsSpace(r)
}

// Normalize splits raw input on runs of whitespace or commas and drops empty tokens.
func Normalize(raw string) Set {
	parts := strings.FieldsFunc(raw, IsSeparator)
	out := make(Set, 0, len(parts))
	out = append(out, parts...)
	return out
}

// Remove 删除所有等于 target 的单词（按值匹配，重复输入会被一起删除），
// 并返回新的单词序列以及用单个空格拼接的输入文本。
func Remove(set Set, target string) (Set, string) {
	out := make(Set, 0, len(set))
	for _, w := range set {
		if w == target {
			continue
		}
		out = append(out, w)
	}
	return out, out.Join(" ")
}

func (s Set) Join(sep string) string {
	return strings.Join(s, sep)
}

func (s Set) Empty() bool {
	return len(s) == 0
}

// Clone returns a copy that does not share the backing array.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	copy(out, s)
	return out
}
