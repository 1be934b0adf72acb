// Package translate 为练习句提供翻译字幕。翻译在后台进行，
// 结果保存在内存和 SQLite 中，渲染时只读缓存，不会阻塞。
package translate

import (
	"context"
	"sync"
	"time"

	"github.com/iabetor/speakline/internal/logger"
)

// Translator 翻译一段文本。
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Store 持久化翻译结果。
type Store interface {
	Translation(text, target string) (string, bool, error)
	SaveTranslation(text, target, translated string) error
}

// Captions 实现字幕缓存：Caption 只查缓存，Prefetch 在后台补齐。
type Captions struct {
	tr      Translator
	store   Store
	target  string
	timeout time.Duration
	onReady func(sentence string)

	mu      sync.Mutex
	mem     map[string]string
	pending map[string]bool
	wg      sync.WaitGroup
}

// NewCaptions 创建字幕服务。store 可以为 nil。
func NewCaptions(tr Translator, store Store, target string) *Captions {
	return &Captions{
		tr:      tr,
		store:   store,
		target:  target,
		timeout: 10 * time.Second,
		mem:     make(map[string]string),
		pending: make(map[string]bool),
	}
}

// OnReady 注册翻译完成回调，在后台 goroutine 中调用。
func (c *Captions) OnReady(fn func(sentence string)) {
	c.mu.Lock()
	c.onReady = fn
	c.mu.Unlock()
}

// Caption 返回已缓存的翻译，没有时返回空串。
func (c *Captions) Caption(sentence string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mem[sentence]
}

// Prefetch 确保句子的翻译最终可用：先查数据库，再在后台请求翻译。
// 同一句子同时只会有一个请求。
func (c *Captions) Prefetch(sentence string) {
	if sentence == "" {
		return
	}
	c.mu.Lock()
	if _, ok := c.mem[sentence]; ok || c.pending[sentence] {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if c.store != nil {
		text, ok, err := c.store.Translation(sentence, c.target)
		if err != nil {
			logger.Warnf("[translate] 读取翻译缓存失败: %v", err)
		} else if ok {
			c.mu.Lock()
			c.mem[sentence] = text
			c.mu.Unlock()
			return
		}
	}

	c.mu.Lock()
	if c.pending[sentence] {
		c.mu.Unlock()
		return
	}
	c.pending[sentence] = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.fetch(sentence)
}

// Wait 等待所有后台翻译结束。
func (c *Captions) Wait() {
	c.wg.Wait()
}

func (c *Captions) fetch(sentence string) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	text, err := c.tr.Translate(ctx, sentence, c.target)

	c.mu.Lock()
	delete(c.pending, sentence)
	if err == nil {
		c.mem[sentence] = text
	}
	onReady := c.onReady
	c.mu.Unlock()

	if err != nil {
		logger.Warnf("[translate] 翻译失败: %v", err)
		return
	}
	if c.store != nil {
		if err := c.store.SaveTranslation(sentence, c.target, text); err != nil {
			logger.Warnf("[translate] 保存翻译失败: %v", err)
		}
	}
	logger.Debugf("[translate] %q → %q", sentence, text)
	if onReady != nil {
		onReady(sentence)
	}
}
