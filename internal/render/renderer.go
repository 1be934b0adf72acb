package render

import (
	"strings"
	"sync"

	"github.com/iabetor/speakline/internal/annotation"
	"github.com/iabetor/speakline/internal/logger"
)

// Placeholder 是句子没有标注数据时显示的提示。
const Placeholder = "No annotation data available for this sentence."

const (
	stressDotRadius  = 4.0
	connectorWidth   = 2.0
	captionFontScale = 0.6
)

// Captions 为句子提供一行辅助字幕（如中文翻译），没有时返回空串。
type Captions interface {
	Caption(sentence string) string
}

// Option 配置 Renderer。
type Option func(*Renderer)

// WithOptions 设置排版参数。
func WithOptions(o Options) Option {
	return func(r *Renderer) { r.opts = o }
}

// WithPalette 设置配色。
func WithPalette(p Palette) Option {
	return func(r *Renderer) { r.palette = p }
}

// WithCaptions 在句子下方绘制字幕。
func WithCaptions(c Captions) Option {
	return func(r *Renderer) { r.captions = c }
}

// Renderer 把句子绘制到 Surface 上，并保留最近一次的排版结果。
type Renderer struct {
	surface  Surface
	set      *annotation.Set
	opts     Options
	palette  Palette
	captions Captions

	mu   sync.Mutex
	last []WordPosition
}

// NewRenderer 创建渲染器。
func NewRenderer(surface Surface, set *annotation.Set, opts ...Option) *Renderer {
	r := &Renderer{
		surface: surface,
		set:     set,
		opts:    DefaultOptions(),
		palette: DefaultPalette(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render 清空画布并绘制句子，highlight 为要高亮的单词下标，-1 表示不高亮。
// 句子没有标注数据时只绘制一行提示，不做排版。
func (r *Renderer) Render(sentence string, highlight int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.surface
	s.Clear(r.palette.Background)

	words, ok := r.set.Words(sentence)
	if !ok {
		logger.Debugf("[render] 句子没有标注数据: %q", sentence)
		r.last = nil
		s.DrawText(Placeholder, r.opts.Margin, s.Height()/2, Font{Size: r.opts.FontSize}, r.palette.Text)
		return
	}

	layout := Layout(s, sentence, words, r.opts)
	r.last = layout

	for _, wp := range layout {
		r.drawWord(wp, wp.Index == highlight)
	}
	for _, c := range Connectors(layout) {
		s.QuadraticCurve(c.X0, c.Y0, c.CX, c.CY, c.X1, c.Y1, r.palette.Connector, connectorWidth)
	}

	if r.captions != nil {
		if text := r.captions.Caption(sentence); text != "" {
			f := Font{Size: r.opts.FontSize * captionFontScale}
			s.DrawText(text, r.opts.Margin, s.Height()-r.opts.Margin, f, r.palette.Caption)
		}
	}
}

// LastLayout 返回最近一次渲染的排版结果副本。
func (r *Renderer) LastLayout() []WordPosition {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil
	}
	return append([]WordPosition(nil), r.last...)
}

func (r *Renderer) drawWord(wp WordPosition, highlighted bool) {
	s := r.surface
	f := fontFor(wp.Annotation, r.opts)

	col := r.palette.Text
	if highlighted {
		col = r.palette.Highlight
	}
	s.DrawText(wp.Token, wp.X, wp.Y, f, col)

	if wp.Annotation.Stress {
		s.FillCircle(wp.X+wp.Width/2, wp.Y-f.Size-stressDotRadius*2, stressDotRadius, r.palette.Stress)
	}

	del, ok := wp.Annotation.DeleteChar()
	if !ok {
		return
	}
	stripped := annotation.Strip(wp.Token)
	idx := strings.Index(stripped, del)
	if idx < 0 {
		logger.Debugf("[render] 失爆字母 %q 不在 %q 中", del, stripped)
		return
	}
	prefix := s.MeasureText(stripped[:idx], f)
	charW := s.MeasureText(del, f)
	slashW := s.MeasureText("/", f)
	s.DrawText("/", wp.X+prefix+(charW-slashW)/2, wp.Y, f, r.palette.Elision)
}
