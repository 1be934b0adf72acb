package timing

import (
	"strings"

	"github.com/iabetor/speakline/internal/annotation"
)

// clusterWeight 是每个辅音连缀（≥2 个辅音字母）增加的权重。
const clusterWeight = 0.2

// WordWeight 估算单词的相对发音时长：
// 元音字母数（至少 1）+ 0.2 × 长度 ≥2 的辅音连缀数。
// 调用方应传入已去掉句尾标点的 token。
func WordWeight(token string) float64 {
	vowels, clusters, run := 0, 0, 0
	for _, r := range strings.ToLower(token) {
		switch {
		case isVowel(r):
			vowels++
			if run >= 2 {
				clusters++
			}
			run = 0
		case r >= 'a' && r <= 'z':
			run++
		default:
			if run >= 2 {
				clusters++
			}
			run = 0
		}
	}
	if run >= 2 {
		clusters++
	}
	if vowels < 1 {
		vowels = 1
	}
	return float64(vowels) + clusterWeight*float64(clusters)
}

// Weights 计算每个 token 的权重（先去掉句尾标点）。
func Weights(tokens []string) []float64 {
	out := make([]float64, len(tokens))
	for i, t := range tokens {
		out[i] = WordWeight(annotation.Strip(t))
	}
	return out
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
