package speech

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iabetor/speakline/internal/logger"
)

// Mark 是合成结果中一个单词的起始位置。
type Mark struct {
	// CharIndex 是单词在原句中的字符偏移。
	CharIndex int    `json:"char_index"`
	Name      string `json:"name"`
	// Offset 是相对音频开头的时间。
	Offset time.Duration `json:"offset"`
}

// Clip 是一段合成好的单声道音频。
type Clip struct {
	Samples    []float32
	SampleRate int
	// Marks 按时间排序；后端不提供单词时间时为空。
	Marks []Mark
}

// Duration 返回音频时长。
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Backend 把整句文本合成为音频。
type Backend interface {
	Name() string
	Synthesize(ctx context.Context, u Utterance) (*Clip, error)
	Voices() []Voice
}

// Player 播放 float32 音频，阻塞直到播放完成或 ctx 被取消。
// onStart 在设备真正开始出声时调用一次。
type Player interface {
	Play(ctx context.Context, samples []float32, sampleRate int, onStart func()) error
}

// SpeakerOption 配置 Speaker。
type SpeakerOption func(*Speaker)

// WithCache 启用合成结果缓存。
func WithCache(c *ClipCache) SpeakerOption {
	return func(s *Speaker) { s.cache = c }
}

// WithTimeout 设置单次合成的超时时间。
func WithTimeout(d time.Duration) SpeakerOption {
	return func(s *Speaker) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Speaker 把 Backend 和 Player 组合成 Synthesizer：
// 合成整句音频，播放时按 Mark 的时间偏移发出 boundary 事件。
type Speaker struct {
	backend Backend
	player  Player
	cache   *ClipCache
	timeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
}

// NewSpeaker 创建 Speaker。
func NewSpeaker(backend Backend, player Player, opts ...SpeakerOption) *Speaker {
	s := &Speaker{
		backend: backend,
		player:  player,
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Speak 取消正在进行的朗读，在后台合成并播放新的句子。
func (s *Speaker) Speak(u Utterance, h Handlers) error {
	if u.Text == "" {
		return fmt.Errorf("朗读文本为空")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	go s.run(ctx, gen, u, h)
	return nil
}

// Cancel 停止当前朗读。
func (s *Speaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Voices 返回后端的语音列表。
func (s *Speaker) Voices() []Voice {
	return s.backend.Voices()
}

func (s *Speaker) run(ctx context.Context, gen uint64, u Utterance, h Handlers) {
	defer s.release(gen)

	clip, err := s.synthesize(ctx, u)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		logger.Warnf("[speech] %s 合成失败: %v", s.backend.Name(), err)
		if h.OnError != nil {
			h.OnError(err)
		}
		return
	}

	var (
		mu     sync.Mutex
		timers []*time.Timer
	)
	onStart := func() {
		if ctx.Err() != nil {
			return
		}
		if h.OnStart != nil {
			h.OnStart()
		}
		if h.OnBoundary == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		for _, m := range clip.Marks {
			timers = append(timers, time.AfterFunc(m.Offset, func() {
				if ctx.Err() == nil {
					h.OnBoundary(m.CharIndex, m.Name)
				}
			}))
		}
	}

	if len(clip.Samples) == 0 {
		onStart()
		err = nil
	} else {
		err = s.player.Play(ctx, clip.Samples, clip.SampleRate, onStart)
	}

	mu.Lock()
	for _, t := range timers {
		t.Stop()
	}
	mu.Unlock()

	if ctx.Err() != nil {
		logger.Debugf("[speech] 朗读已取消")
		return
	}
	if err != nil {
		logger.Warnf("[speech] 播放失败: %v", err)
		if h.OnError != nil {
			h.OnError(fmt.Errorf("播放失败: %w", err))
		}
		return
	}
	if h.OnEnd != nil {
		h.OnEnd()
	}
}

func (s *Speaker) synthesize(ctx context.Context, u Utterance) (*Clip, error) {
	key := ""
	if s.cache.Enabled() {
		key = CacheKey(s.backend.Name(), u)
		if clip, ok := s.cache.Load(key); ok {
			logger.Debugf("[speech] 命中缓存: %q", u.Text)
			return clip, nil
		}
	}

	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	clip, err := s.backend.Synthesize(sctx, u)
	if err != nil {
		return nil, err
	}
	if clip == nil {
		return nil, fmt.Errorf("%s 未返回音频", s.backend.Name())
	}
	logger.Debugf("[speech] %s 合成完成: %v 音频, %d 个单词时间, 耗时 %v",
		s.backend.Name(), clip.Duration(), len(clip.Marks), time.Since(start))

	if key != "" {
		if err := s.cache.Store(key, u.Text, clip); err != nil {
			logger.Warnf("[speech] 写入缓存失败: %v", err)
		}
	}
	return clip, nil
}

// release 在朗读结束后释放取消函数，前提是它还没有被新的朗读替换。
func (s *Speaker) release(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
