// Package annotation 保存句子的连读标注数据：每个单词是否重读，
// 以及是否带有连读/失爆标记（要删掉的字母）。
//
// 数据在启动时整体加载，之后只读。
package annotation

import (
	"strings"
	"unicode/utf8"
)

// trailingPunct 是 Strip 会去掉的句尾标点。
const trailingPunct = ".,!?;:"

// Liaison 连读/失爆标记。Delete 是要划掉的单个字母。
type Liaison struct {
	Delete string
}

// Annotation 单个单词的标注。Liaison 为 nil 表示没有连读标记。
type Annotation struct {
	Stress  bool
	Liaison *Liaison
}

// DeleteChar 返回要划掉的字母。
func (a Annotation) DeleteChar() (string, bool) {
	if a.Liaison == nil || a.Liaison.Delete == "" {
		return "", false
	}
	return a.Liaison.Delete, true
}

// Tokenize 按单个空格切分句子。
// 连续空格会产生空 token，这样每个 token 的字符偏移仍是 len+1 累加。
func Tokenize(sentence string) []string {
	if sentence == "" {
		return nil
	}
	return strings.Split(sentence, " ")
}

// Strip 去掉 token 末尾的一个标点（.,!?;:）。
func Strip(token string) string {
	if token == "" {
		return token
	}
	r, size := utf8.DecodeLastRuneInString(token)
	if strings.ContainsRune(trailingPunct, r) {
		return token[:len(token)-size]
	}
	return token
}

// Set 是整个标注数据集：句子 → (单词 → 标注)。
// 句子按加载顺序保存，供导航使用。
type Set struct {
	order   []string
	entries map[string]map[string]Annotation
}

// NewSet 创建空数据集。
func NewSet() *Set {
	return &Set{entries: make(map[string]map[string]Annotation)}
}

// Add 添加或替换一个句子的标注。
func (s *Set) Add(sentence string, words map[string]Annotation) {
	if _, exists := s.entries[sentence]; !exists {
		s.order = append(s.order, sentence)
	}
	copied := make(map[string]Annotation, len(words))
	for k, v := range words {
		copied[k] = v
	}
	s.entries[sentence] = copied
}

// Sentences 按加载顺序返回所有句子。
func (s *Set) Sentences() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len 返回句子数量。
func (s *Set) Len() int {
	return len(s.order)
}

// Has 报告句子是否有标注数据。
func (s *Set) Has(sentence string) bool {
	_, ok := s.entries[sentence]
	return ok
}

// Words 返回句子的全部单词标注。
func (s *Set) Words(sentence string) (map[string]Annotation, bool) {
	words, ok := s.entries[sentence]
	return words, ok
}

// Lookup 查找 token 的标注。token 先去掉一个句尾标点，再区分大小写精确匹配。
// 找不到时返回 false，调用方按无标注绘制。
func (s *Set) Lookup(sentence, token string) (Annotation, bool) {
	words, ok := s.entries[sentence]
	if !ok {
		return Annotation{}, false
	}
	a, ok := words[Strip(token)]
	return a, ok
}
