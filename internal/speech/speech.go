// Package speech 定义语音合成协作方的接口，并提供基于
// Edge TTS、腾讯云 TTS 和 sherpa-onnx 的实现。
//
// 一个 Synthesizer 接收整句的 Utterance，异步播放，并尽力回报
// start / boundary / end 事件。boundary 事件不保证出现，调用方需要
// 自行处理没有边界信号的情况。
package speech

import (
	"strings"
)

// Voice 描述一个可用语音。
type Voice struct {
	ID     string
	Name   string
	Locale string
}

// Utterance 是一次整句朗读请求。
type Utterance struct {
	Text   string
	Rate   float64 // 1.0 为正常语速
	Pitch  float64 // 1.0 为默认音高
	Volume float64 // 0–1
	Locale string
	// Voice 为 nil 时使用引擎默认语音。
	Voice *Voice
}

// Handlers 是朗读过程中的事件回调，任一字段都可以为 nil。
// 回调可能在任意 goroutine 中被调用。
type Handlers struct {
	OnStart func()
	// OnBoundary 在朗读到句子中 charIndex 处的单词时触发。
	OnBoundary func(charIndex int, name string)
	OnEnd      func()
	// OnError 在提交之后的异步失败时触发，之后不会再有 OnEnd。
	OnError func(err error)
}

// Synthesizer 是语音合成协作方。
type Synthesizer interface {
	// Speak 提交朗读请求并立即返回。会先取消正在进行的朗读。
	// 被取消的朗读不再触发任何回调。
	Speak(u Utterance, h Handlers) error
	// Cancel 立即停止当前朗读，没有朗读时什么也不做。
	Cancel()
	// Voices 返回当前已知的语音列表，可能为空（列表可能异步加载）。
	Voices() []Voice
}

// qualityMarkers 是语音名称中表示较高音质的关键词。
var qualityMarkers = []string{"neural", "natural", "enhanced", "premium", "online"}

// PickVoice 选择朗读用的语音：优先选 locale 语言（如 en）下名称带
// 音质关键词的语音，其次同语言的任一语音；都没有则返回 nil 使用默认语音。
func PickVoice(voices []Voice, locale string) *Voice {
	lang := strings.ToLower(locale)
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	if lang == "" {
		lang = "en"
	}

	var fallback *Voice
	for i := range voices {
		v := &voices[i]
		if !sameLanguage(v.Locale, lang) {
			continue
		}
		name := strings.ToLower(v.Name + " " + v.ID)
		for _, m := range qualityMarkers {
			if strings.Contains(name, m) {
				picked := *v
				return &picked
			}
		}
		if fallback == nil {
			fallback = v
		}
	}
	if fallback == nil {
		return nil
	}
	picked := *fallback
	return &picked
}

func sameLanguage(locale, lang string) bool {
	l := strings.ToLower(locale)
	return l == lang || strings.HasPrefix(l, lang+"-") || strings.HasPrefix(l, lang+"_")
}
