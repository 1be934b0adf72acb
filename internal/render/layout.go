package render

import (
	"github.com/iabetor/speakline/internal/annotation"
)

// Options 排版参数。
type Options struct {
	Margin         float64
	FontSize       float64
	StressFontSize float64
	LineHeight     float64
}

// DefaultOptions 返回默认排版参数。
func DefaultOptions() Options {
	return Options{Margin: 40, FontSize: 28, StressFontSize: 34, LineHeight: 80}
}

// WordPosition 是一个 token 的排版结果，每次渲染重新计算。
type WordPosition struct {
	Index int
	Token string
	// X, Y 为基线起点。
	X, Y  float64
	Width float64
	Line  int
	// Annotated 为 false 时 Annotation 是零值，按普通单词绘制。
	Annotated  bool
	Annotation annotation.Annotation
}

// Connector 是两个相邻单词之间的连读弧线。
type Connector struct {
	From, To int
	X0, Y0   float64
	CX, CY   float64
	X1, Y1   float64
}

// fontFor 返回 token 使用的字体，重读词加粗放大。
func fontFor(a annotation.Annotation, opts Options) Font {
	if a.Stress {
		return Font{Size: opts.StressFontSize, Bold: true}
	}
	return Font{Size: opts.FontSize}
}

// Layout 按单个空格切分句子，从左到右排版，放不下时整词换行。
// words 为句子的单词标注，可以为 nil。
func Layout(s Surface, sentence string, words map[string]annotation.Annotation, opts Options) []WordPosition {
	tokens := annotation.Tokenize(sentence)
	if len(tokens) == 0 {
		return nil
	}

	space := s.MeasureText(" ", Font{Size: opts.FontSize})
	right := s.Width() - opts.Margin
	x := opts.Margin
	y := opts.Margin + opts.StressFontSize
	line := 0

	out := make([]WordPosition, 0, len(tokens))
	for i, tok := range tokens {
		a, ok := words[annotation.Strip(tok)]
		w := s.MeasureText(tok, fontFor(a, opts))
		if x+w > right && x > opts.Margin {
			line++
			x = opts.Margin
			y += opts.LineHeight
		}
		out = append(out, WordPosition{
			Index:      i,
			Token:      tok,
			X:          x,
			Y:          y,
			Width:      w,
			Line:       line,
			Annotated:  ok,
			Annotation: a,
		})
		x += w + space
	}
	return out
}

// Connectors 为带连读标记且与下一个词在同一行的单词生成弧线。
// 弧线不跨行。
func Connectors(layout []WordPosition) []Connector {
	var out []Connector
	for i := 0; i+1 < len(layout); i++ {
		cur, next := layout[i], layout[i+1]
		if _, ok := cur.Annotation.DeleteChar(); !ok {
			continue
		}
		if cur.Line != next.Line {
			continue
		}
		x0 := cur.X + cur.Width*0.75
		x1 := next.X + next.Width*0.25
		y := cur.Y + 8
		out = append(out, Connector{
			From: cur.Index,
			To:   next.Index,
			X0:   x0,
			Y0:   y,
			CX:   (x0 + x1) / 2,
			CY:   y + 18,
			X1:   x1,
			Y1:   y,
		})
	}
	return out
}
