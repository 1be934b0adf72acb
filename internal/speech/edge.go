package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pp-group/edge-tts-go/biz/service/tts/edge"

	"github.com/iabetor/speakline/internal/audio"
	"github.com/iabetor/speakline/internal/logger"
)

const (
	// edgeTick 是 Edge TTS 时间单位（100ns）。
	edgeTick         = 100 * time.Nanosecond
	edgePitchScaleHz = 100
	defaultEdgeVoice = "en-US-AriaNeural"
)

// EdgeBackend 使用微软 Edge TTS 合成，WordBoundary 消息提供单词时间。
type EdgeBackend struct {
	voices []Voice
}

// NewEdgeBackend 创建 Edge TTS 后端，voices 为候选语音短名（如 en-US-AriaNeural）。
func NewEdgeBackend(voiceNames []string) *EdgeBackend {
	voices := make([]Voice, 0, len(voiceNames))
	for _, name := range voiceNames {
		voices = append(voices, Voice{ID: name, Name: name, Locale: edgeLocale(name)})
	}
	return &EdgeBackend{voices: voices}
}

// Name 返回后端名称。
func (e *EdgeBackend) Name() string { return "edge" }

// Voices 返回配置的语音列表。
func (e *EdgeBackend) Voices() []Voice {
	return append([]Voice(nil), e.voices...)
}

// Synthesize 流式接收 MP3 音频和单词边界，解码为单声道 PCM。
func (e *EdgeBackend) Synthesize(ctx context.Context, u Utterance) (*Clip, error) {
	voice := defaultEdgeVoice
	if u.Voice != nil {
		voice = u.Voice.ID
	} else if len(e.voices) > 0 {
		voice = e.voices[0].ID
	}
	logger.Debugf("[speech] edge-tts: 正在合成 %d 个字符，语音=%s 语速=%s", len(u.Text), voice, EdgeRate(u.Rate))

	comm, err := edge.NewCommunicate(u.Text,
		edge.WithVoice(voice),
		edge.WithRate(EdgeRate(u.Rate)),
		edge.WithPitch(EdgePitch(u.Pitch)),
		edge.WithVolume(EdgeVolume(u.Volume)),
	)
	if err != nil {
		return nil, fmt.Errorf("edge-tts 创建实例失败: %w", err)
	}
	ch, err := comm.Stream()
	if err != nil {
		return nil, fmt.Errorf("edge-tts 开始流式合成失败: %w", err)
	}

	var (
		mp3Buf bytes.Buffer
		marks  []Mark
		cursor int
	)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return e.finish(mp3Buf.Bytes(), marks)
			}
			switch msg["type"] {
			case "audio":
				if data, ok := msg["data"].([]byte); ok {
					mp3Buf.Write(data)
				}
			case "WordBoundary":
				if m, next, ok := edgeMark(msg, u.Text, cursor); ok {
					marks = append(marks, m)
					cursor = next
				}
			}
		}
	}
}

// edgeMark 把一条 WordBoundary 消息换算成 Mark，并返回下一次查找的起点。
func edgeMark(msg map[string]interface{}, sentence string, cursor int) (Mark, int, bool) {
	if msg["type"] != "WordBoundary" {
		return Mark{}, cursor, false
	}
	text := boundaryText(msg["text"])
	offset, ok := numeric(msg["offset"])
	if !ok || text == "" {
		return Mark{}, cursor, false
	}
	idx := locateWord(sentence, text, cursor)
	if idx < 0 {
		logger.Debugf("[speech] edge-tts: 边界文本 %q 不在句子中", text)
		return Mark{}, cursor, false
	}
	return Mark{
		CharIndex: idx,
		Name:      text,
		Offset:    time.Duration(offset) * edgeTick,
	}, idx + len(text), true
}

// boundaryText 取出边界消息中的单词。edge-tts-go 放的是 {Text, Length, BoundaryType} 结构体。
func boundaryText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	var meta struct {
		Text string `json:"Text"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return ""
	}
	return meta.Text
}

func (e *EdgeBackend) finish(mp3Data []byte, marks []Mark) (*Clip, error) {
	if len(mp3Data) == 0 {
		return nil, fmt.Errorf("edge-tts: 未收到音频数据")
	}
	samples, rate, err := audio.DecodeMP3(mp3Data)
	if err != nil {
		return nil, err
	}
	return &Clip{Samples: samples, SampleRate: rate, Marks: marks}, nil
}

// EdgeRate 把倍速换算成 Edge TTS 的相对语速，如 0.9 → "-10%"。
func EdgeRate(rate float64) string {
	if rate <= 0 {
		rate = 1
	}
	return signed(int(math.Round((rate-1)*100)), "%")
}

// EdgePitch 把音高倍数换算成 Edge TTS 的音高偏移，1.0 → "+0Hz"，1.2 → "+20Hz"。
func EdgePitch(pitch float64) string {
	if pitch <= 0 {
		pitch = 1
	}
	return signed(int(math.Round((pitch-1)*edgePitchScaleHz)), "Hz")
}

// EdgeVolume 把 0–1 音量换算成 Edge TTS 的相对音量，1.0 → "+0%"，0.5 → "-50%"。
func EdgeVolume(volume float64) string {
	if volume <= 0 || volume > 1 {
		volume = 1
	}
	return signed(int(math.Round((volume-1)*100)), "%")
}

func signed(n int, unit string) string {
	if n >= 0 {
		return fmt.Sprintf("+%d%s", n, unit)
	}
	return fmt.Sprintf("%d%s", n, unit)
}

// locateWord 从 cursor 开始查找 word 在 sentence 中的位置，找不到时从头再找一次。
func locateWord(sentence, word string, cursor int) int {
	if cursor < 0 || cursor > len(sentence) {
		cursor = 0
	}
	if i := strings.Index(sentence[cursor:], word); i >= 0 {
		return cursor + i
	}
	return strings.Index(sentence, word)
}

// numeric 兼容 JSON 解码后可能出现的各种数字类型。
func numeric(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

// edgeLocale 从 en-US-AriaNeural 形式的短名中取出 en-US。
func edgeLocale(name string) string {
	parts := strings.SplitN(name, "-", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[0] + "-" + parts[1]
}
