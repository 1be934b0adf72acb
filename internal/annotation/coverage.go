package annotation

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// suggestThreshold 是给出拼写建议的最低 Jaro-Winkler 相似度。
const suggestThreshold = 0.75

// IssueKind 数据问题类型。
type IssueKind string

const (
	// MissingAnnotation token 在该句标注中没有对应的键，会按普通文字绘制。
	MissingAnnotation IssueKind = "missing_annotation"
	// MissingMark 标注要删的字母在 token 中找不到，删除符号不会绘制。
	MissingMark IssueKind = "missing_mark"
)

// Issue 是一条覆盖率问题。
type Issue struct {
	Sentence   string
	Token      string
	Kind       IssueKind
	Suggestion string // 最相近的标注键，可能为空
}

// Check 检查每个句子的 token 是否都有标注，以及删除字母是否存在。
// 这些问题在渲染时都会被静默降级，这里只是帮助维护数据。
func Check(set *Set) []Issue {
	var issues []Issue
	for _, sentence := range set.Sentences() {
		words, _ := set.Words(sentence)
		keys := make([]string, 0, len(words))
		for k := range words {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, token := range Tokenize(sentence) {
			stripped := Strip(token)
			if stripped == "" {
				continue
			}
			a, ok := words[stripped]
			if !ok {
				issues = append(issues, Issue{
					Sentence:   sentence,
					Token:      stripped,
					Kind:       MissingAnnotation,
					Suggestion: Suggest(stripped, keys),
				})
				continue
			}
			if c, has := a.DeleteChar(); has && !strings.Contains(stripped, c) {
				issues = append(issues, Issue{Sentence: sentence, Token: stripped, Kind: MissingMark})
			}
		}
	}
	return issues
}

// Suggest 返回 keys 中与 token 最相近的键；都不够相近时返回空串。
func Suggest(token string, keys []string) string {
	best, bestScore := "", 0.0
	for _, k := range keys {
		score := matchr.JaroWinkler(strings.ToLower(token), strings.ToLower(k), false)
		if score > bestScore {
			best, bestScore = k, score
		}
	}
	if bestScore < suggestThreshold {
		return ""
	}
	return best
}
