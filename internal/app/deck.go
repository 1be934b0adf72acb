package app

import (
	"fmt"
	"sync"
)

// Deck 保存练习句列表和当前位置。prev/next 到达两端时循环。
type Deck struct {
	mu        sync.Mutex
	sentences []string
	index     int
}

// NewDeck 创建句子列表，初始位置为第一句。
func NewDeck(sentences []string) *Deck {
	return &Deck{sentences: append([]string(nil), sentences...)}
}

// Len 返回句子数量。
func (d *Deck) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sentences)
}

// Index 返回当前句子下标。
func (d *Deck) Index() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index
}

// Current 返回当前句子，列表为空时返回空串。
func (d *Deck) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentLocked()
}

// Next 前进一句并返回新的当前句子。
func (d *Deck) Next() string {
	return d.step(1)
}

// Prev 后退一句并返回新的当前句子。
func (d *Deck) Prev() string {
	return d.step(-1)
}

// Goto 跳到第 i 句（从 0 开始），错误信息按界面上从 1 开始的序号描述。
func (d *Deck) Goto(i int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.sentences) {
		return "", fmt.Errorf("句子序号 %d 超出范围 1-%d", i+1, len(d.sentences))
	}
	d.index = i
	return d.sentences[i], nil
}

func (d *Deck) step(delta int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.sentences)
	if n == 0 {
		return ""
	}
	d.index = ((d.index+delta)%n + n) % n
	return d.sentences[d.index]
}

func (d *Deck) currentLocked() string {
	if len(d.sentences) == 0 {
		return ""
	}
	return d.sentences[d.index]
}
