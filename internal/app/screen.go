package app

import (
	"sync"

	"github.com/iabetor/speakline/internal/logger"
	"github.com/iabetor/speakline/internal/render"
)

// Screen 把渲染器和输出方式组合成引擎的 View。
// 引擎回调和命令循环可能同时重绘，这里串行化。
type Screen struct {
	mu       sync.Mutex
	renderer *render.Renderer
	present  func() error

	sentence  string
	highlight int
	frames    int
}

// NewScreen 创建 Screen。present 在每次绘制后调用（例如写出 PNG），可以为 nil。
func NewScreen(renderer *render.Renderer, present func() error) *Screen {
	return &Screen{renderer: renderer, present: present, highlight: -1}
}

// Render 绘制句子并输出一帧。
func (s *Screen) Render(sentence string, highlight int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderLocked(sentence, highlight)
}

// Refresh 用最近一次的参数重绘，字幕到达后调用。
func (s *Screen) Refresh(sentence string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sentence != sentence {
		return
	}
	s.renderLocked(sentence, s.highlight)
}

func (s *Screen) renderLocked(sentence string, highlight int) {
	s.renderer.Render(sentence, highlight)
	s.sentence = sentence
	s.highlight = highlight
	s.frames++

	if s.present == nil {
		return
	}
	if err := s.present(); err != nil {
		logger.Warnf("[app] 输出画面失败: %v", err)
	}
}

// Frames 返回已绘制的帧数。
func (s *Screen) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Highlight 返回最近一帧的高亮下标。
func (s *Screen) Highlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlight
}
