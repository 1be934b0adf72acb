package render

import (
	"image/color"
	"sync"
	"unicode/utf8"
)

// Op 是 Recorder 记录的一次绘图调用。
type Op struct {
	Kind  string // clear, text, circle, curve
	Text  string
	X, Y  float64
	Font  Font
	Color color.Color
	// curve 的控制点和终点。
	CX, CY float64
	X1, Y1 float64
}

// Recorder 是只记录调用的 Surface，每个字符宽度固定为字号的一半。
// 用于测试和无图形环境下的排版检查。
type Recorder struct {
	mu     sync.Mutex
	width  float64
	height float64
	ops    []Op
}

// NewRecorder 创建指定尺寸的 Recorder。
func NewRecorder(width, height float64) *Recorder {
	return &Recorder{width: width, height: height}
}

func (r *Recorder) Width() float64  { return r.width }
func (r *Recorder) Height() float64 { return r.height }

func (r *Recorder) Clear(bg color.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = r.ops[:0]
	r.ops = append(r.ops, Op{Kind: "clear", Color: bg})
}

func (r *Recorder) MeasureText(text string, f Font) float64 {
	return float64(utf8.RuneCountInString(text)) * f.Size / 2
}

func (r *Recorder) DrawText(text string, x, y float64, f Font, c color.Color) {
	r.record(Op{Kind: "text", Text: text, X: x, Y: y, Font: f, Color: c})
}

func (r *Recorder) FillCircle(x, y, radius float64, c color.Color) {
	r.record(Op{Kind: "circle", X: x, Y: y, Font: Font{Size: radius}, Color: c})
}

func (r *Recorder) QuadraticCurve(x0, y0, cx, cy, x1, y1 float64, c color.Color, lineWidth float64) {
	r.record(Op{Kind: "curve", X: x0, Y: y0, CX: cx, CY: cy, X1: x1, Y1: y1, Color: c})
}

// Ops 返回自上次 Clear 以来的绘图调用。
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Count 返回某类调用的次数。
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, op := range r.Ops() {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Recorder) record(op Op) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}
