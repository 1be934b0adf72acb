package speech

import (
	"context"
	"fmt"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/iabetor/speakline/internal/logger"
)

// SherpaConfig sherpa-onnx 离线 TTS 配置（VITS / Piper 模型）。
type SherpaConfig struct {
	Model      string
	Tokens     string
	Lexicon    string
	DataDir    string
	NumThreads int
	SpeakerID  int
}

// SherpaBackend 使用 sherpa-onnx 本地合成，作为没有网络时的备用方案。
// 离线模型不提供单词时间，高亮由引擎的启发式时间轴驱动。
type SherpaBackend struct {
	mu  sync.Mutex
	tts *sherpa.OfflineTts
	sid int
}

// NewSherpaBackend 加载离线 TTS 模型。
func NewSherpaBackend(cfg SherpaConfig) (*SherpaBackend, error) {
	if cfg.Model == "" || cfg.Tokens == "" {
		return nil, fmt.Errorf("sherpa-onnx TTS 需要 model 和 tokens")
	}
	if cfg.NumThreads <= 0 {
		cfg.NumThreads = 2
	}

	config := sherpa.OfflineTtsConfig{}
	config.Model.Vits.Model = cfg.Model
	config.Model.Vits.Tokens = cfg.Tokens
	config.Model.Vits.Lexicon = cfg.Lexicon
	config.Model.Vits.DataDir = cfg.DataDir
	config.Model.NumThreads = cfg.NumThreads
	config.Model.Provider = "cpu"
	config.MaxNumSentences = 1

	t := sherpa.NewOfflineTts(&config)
	if t == nil {
		return nil, fmt.Errorf("加载离线 TTS 模型失败: %s", cfg.Model)
	}
	logger.Infof("[speech] sherpa-onnx TTS 已加载: %s", cfg.Model)
	return &SherpaBackend{tts: t, sid: cfg.SpeakerID}, nil
}

// Name 返回后端名称。
func (e *SherpaBackend) Name() string { return "sherpa" }

// Voices 离线模型只有一个说话人，返回空列表使用默认语音。
func (e *SherpaBackend) Voices() []Voice { return nil }

// Synthesize 在后台生成音频，ctx 取消时立即返回（生成本身无法中断）。
func (e *SherpaBackend) Synthesize(ctx context.Context, u Utterance) (*Clip, error) {
	speed := float32(u.Rate)
	if speed <= 0 {
		speed = 1
	}

	type result struct {
		clip *Clip
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.tts == nil {
			ch <- result{err: fmt.Errorf("离线 TTS 已关闭")}
			return
		}
		generated := e.tts.Generate(u.Text, e.sid, speed)
		if generated == nil || len(generated.Samples) == 0 {
			ch <- result{err: fmt.Errorf("离线 TTS 未生成音频")}
			return
		}
		ch <- result{clip: &Clip{Samples: generated.Samples, SampleRate: generated.SampleRate}}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.clip, r.err
	}
}

// Close 释放模型。
func (e *SherpaBackend) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tts != nil {
		sherpa.DeleteOfflineTts(e.tts)
		e.tts = nil
	}
}
