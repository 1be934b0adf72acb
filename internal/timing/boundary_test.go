package timing

import (
	"testing"

	"github.com/iabetor/speakline/internal/annotation"
)

func TestWordAt(t *testing.T) {
	tokens := annotation.Tokenize("I went to the store.")
	tests := []struct {
		charIndex int
		want      int
	}{
		{0, 0},  // I
		{1, 0},  // 空格算在前一个词
		{2, 1},  // went
		{5, 1},
		{6, 1},
		{7, 2},  // to
		{10, 3}, // the
		{14, 4}, // store.
		{19, 4}, // 句号
		{20, 4},
		{21, -1},
		{-1, -1},
	}
	for _, tt := range tests {
		if got := WordAt(tokens, tt.charIndex); got != tt.want {
			t.Errorf("WordAt(%d) = %d, want %d", tt.charIndex, got, tt.want)
		}
	}
}

func TestWordAt_DoubleSpaceKeepsSingleSpaceMath(t *testing.T) {
	// "a  b" 切分为 ["a", "", "b"]，空 token 占一个字符
	tokens := annotation.Tokenize("a  b")
	if got := WordAt(tokens, 3); got != 2 {
		t.Fatalf("WordAt = %d, want 2", got)
	}
	if got := WordAt(tokens, 2); got != 1 {
		t.Fatalf("WordAt = %d, want 1", got)
	}
}

func TestWordAt_NoTokens(t *testing.T) {
	if got := WordAt(nil, 0); got != -1 {
		t.Fatalf("WordAt(nil) = %d", got)
	}
}
