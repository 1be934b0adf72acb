package timing

import (
	"fmt"
	"math"
	"time"

	"github.com/iabetor/speakline/internal/annotation"
	"github.com/iabetor/speakline/internal/config"
	"github.com/iabetor/speakline/internal/logger"
	"github.com/iabetor/speakline/internal/speech"
)

// 默认参数。
const (
	DefaultGraceDelay   = 100 * time.Millisecond
	DefaultPollInterval = 16 * time.Millisecond
	defaultPitch        = 1.0
	defaultVolume       = 1.0
	defaultLocale       = "en-US"
)

// View 接收高亮变化并重绘句子。highlight 为 -1 表示无高亮。
type View interface {
	Render(sentence string, highlight int)
}

// Mode 表示一次会话最终采用的驱动方式。
type Mode int

const (
	// ModeSpeech：已提交语音，尚未确定驱动方式。
	ModeSpeech Mode = iota
	// ModeBoundary：由语音的单词边界事件驱动。
	ModeBoundary
	// ModeFallback：语音在播放但没有边界事件，由启发式时间轴轮询驱动。
	ModeFallback
	// ModeDirect：没有可用语音，逐词链式定时驱动。
	ModeDirect
)

var modeNames = [...]string{"speech", "boundary", "fallback", "direct"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// Report 是一次会话结束（完成或被取消）时的摘要。
type Report struct {
	SessionID uint64
	Sentence  string
	Rate      float64
	Mode      Mode
	Completed bool
	Elapsed   time.Duration
}

// Option 配置 Engine。
type Option func(*Engine)

// WithClock 替换时钟，测试用。
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRate 设置初始语速。
func WithRate(rate float64) Option {
	return func(e *Engine) {
		if validRate(rate) {
			e.rate = config.ClampRate(rate)
		}
	}
}

// WithGraceDelay 设置语音开始后等待边界事件的时长。
func WithGraceDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.grace = d
		}
	}
}

// WithPollInterval 设置启发式时间轴的轮询间隔。
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.poll = d
		}
	}
}

// WithVoice 设置音高、音量和语言。
func WithVoice(pitch, volume float64, locale string) Option {
	return func(e *Engine) {
		if pitch > 0 {
			e.pitch = pitch
		}
		if volume > 0 {
			e.volume = volume
		}
		if locale != "" {
			e.locale = locale
		}
	}
}

// WithObserver 注册会话结束回调。回调在事件循环中执行，不能调用 Engine 的方法。
func WithObserver(fn func(Report)) Option {
	return func(e *Engine) { e.observer = fn }
}

// session 是一次 play 的全部可变状态，只在事件循环中访问。
type session struct {
	id       uint64
	sentence string
	tokens   []string
	weights  []float64
	rate     float64
	mode     Mode
	started  time.Time

	speaking     bool
	boundarySeen bool
	timeline     *Timeline
	fallbackAt   time.Time
	next         int

	timer Timer
	tick  uint64
}

// Engine 是单词高亮同步引擎。
//
// 同一时刻最多只有一个活动会话。所有状态都在内部事件循环中读写；
// 每个延时回调和语音回调都带着创建时的会话 id 和定时器序号，
// 会话被取消或定时器被替换后，迟到的回调什么也不做。
type Engine struct {
	view     View
	synth    speech.Synthesizer
	clock    Clock
	loop     *Loop
	state    *StateMachine
	grace    time.Duration
	poll     time.Duration
	pitch    float64
	volume   float64
	locale   string
	observer func(Report)

	// 以下字段只在事件循环中访问
	rate         float64
	highlight    int
	generation   uint64
	session      *session
	lastSentence string
}

// NewEngine 创建引擎。synth 为 nil 表示没有语音能力，play 直接走启发式时间轴。
func NewEngine(view View, synth speech.Synthesizer, opts ...Option) *Engine {
	e := &Engine{
		view:      view,
		synth:     synth,
		clock:     SystemClock(),
		state:     NewStateMachine(),
		grace:     DefaultGraceDelay,
		poll:      DefaultPollInterval,
		pitch:     defaultPitch,
		volume:    defaultVolume,
		locale:    defaultLocale,
		rate:      config.DefaultRate,
		highlight: -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.loop = NewLoop()
	return e
}

// Play 开始朗读并高亮句子，先取消正在进行的会话。
// 不会返回错误：语音不可用时静默退回启发式时间轴。
func (e *Engine) Play(sentence string) {
	e.loop.Do(func() { e.play(sentence) })
}

// Stop 停止语音和所有待触发的回调，清除高亮并重绘一次。
// 空闲时调用也是安全的。
func (e *Engine) Stop() {
	e.loop.Do(e.stop)
}

// Show 停止当前会话并绘制另一个句子，不高亮。用于切换句子，
// 之后的 Stop 会重绘这个句子。
func (e *Engine) Show(sentence string) {
	e.loop.Do(func() {
		e.lastSentence = sentence
		e.stop()
	})
}

// SetSpeechRate 修改语速，只影响下一次 Play。
// 非正数和 NaN 被忽略，其余值限制在 [0.1, 2.0]。
func (e *Engine) SetSpeechRate(rate float64) {
	if !validRate(rate) {
		logger.Warnf("[timing] 忽略无效语速: %v", rate)
		return
	}
	e.loop.Do(func() { e.rate = config.ClampRate(rate) })
}

// SpeechRate 返回当前配置的语速。
func (e *Engine) SpeechRate() float64 {
	var r float64
	e.loop.Do(func() { r = e.rate })
	return r
}

// Highlight 返回当前高亮的单词下标，-1 表示无高亮。
func (e *Engine) Highlight() int {
	h := -1
	e.loop.Do(func() { h = e.highlight })
	return h
}

// State 返回当前播放状态。
func (e *Engine) State() State {
	return e.state.Current()
}

// States 返回状态机，用于注册状态变化回调。
func (e *Engine) States() *StateMachine {
	return e.state
}

// Close 停止当前会话并关闭事件循环。
func (e *Engine) Close() {
	e.loop.Do(e.stop)
	e.loop.Close()
}

func validRate(rate float64) bool {
	return rate > 0 && !math.IsNaN(rate) && !math.IsInf(rate, 0)
}

func (e *Engine) play(sentence string) {
	e.cancelSession()

	tokens := annotation.Tokenize(sentence)
	e.generation++
	s := &session{
		id:       e.generation,
		sentence: sentence,
		tokens:   tokens,
		weights:  Weights(tokens),
		rate:     e.rate,
		started:  e.clock.Now(),
	}
	e.session = s
	e.lastSentence = sentence
	e.highlight = -1
	e.state.Transition(StatePlaying)
	logger.Debugf("[timing] 会话 #%d 开始: %q (语速 %.2f)", s.id, sentence, s.rate)

	if len(tokens) == 0 {
		e.finish(s, true)
		return
	}

	if e.synth == nil {
		e.startDirect(s, 0)
		return
	}

	s.mode = ModeSpeech
	u := speech.Utterance{
		Text:   sentence,
		Rate:   s.rate,
		Pitch:  e.pitch,
		Volume: e.volume,
		Locale: e.locale,
		Voice:  speech.PickVoice(e.synth.Voices(), e.locale),
	}
	if err := e.speak(u, e.handlers(s.id)); err != nil {
		logger.Warnf("[timing] 语音不可用，改用时间轴: %v", err)
		e.startDirect(s, 0)
	}
}

func (e *Engine) stop() {
	if e.synth != nil {
		e.cancelSynth()
	}
	e.cancelSession()
	e.highlight = -1
	if e.lastSentence != "" {
		e.view.Render(e.lastSentence, -1)
	}
}

// handlers 生成语音回调。回调可能来自任意 goroutine，一律投递到事件循环，
// 并在循环中校验会话 id。
func (e *Engine) handlers(id uint64) speech.Handlers {
	return speech.Handlers{
		OnStart: func() {
			e.post(id, e.onStart)
		},
		OnBoundary: func(charIndex int, name string) {
			e.post(id, func(s *session) { e.onBoundary(s, charIndex, name) })
		},
		OnEnd: func() {
			e.post(id, func(s *session) { e.finish(s, true) })
		},
		OnError: func(err error) {
			e.post(id, func(s *session) { e.onError(s, err) })
		},
	}
}

func (e *Engine) post(id uint64, fn func(s *session)) {
	e.loop.Post(func() {
		s := e.session
		if s == nil || s.id != id {
			logger.Debugf("[timing] 丢弃过期会话 #%d 的回调", id)
			return
		}
		fn(s)
	})
}

func (e *Engine) onStart(s *session) {
	if s.speaking {
		return
	}
	s.speaking = true
	if s.boundarySeen {
		return
	}
	e.schedule(s, e.grace, e.checkBoundary)
}

// checkBoundary 在宽限期结束时检查是否收到过边界事件，没有则启动启发式时间轴。
func (e *Engine) checkBoundary(s *session) {
	if s.boundarySeen {
		return
	}
	tl := BuildTimeline(s.weights, s.rate)
	s.timeline = &tl
	s.mode = ModeFallback
	s.fallbackAt = e.clock.Now()
	s.next = 0
	logger.Debugf("[timing] 会话 #%d 未收到边界事件，启用时间轴 (%d 词, %v)", s.id, tl.Len(), tl.End)
	e.pollFallback(s)
}

// pollFallback 按实际流逝时间推进时间轴，每次最多前进一个单词。
func (e *Engine) pollFallback(s *session) {
	if s.mode != ModeFallback {
		return
	}
	elapsed := e.clock.Now().Sub(s.fallbackAt)
	if s.next < s.timeline.Len() && elapsed >= s.timeline.Entries[s.next].Start {
		e.setHighlight(s, s.timeline.Entries[s.next].WordIndex)
		s.next++
	}
	if s.next >= s.timeline.Len() {
		return
	}
	e.schedule(s, e.poll, e.pollFallback)
}

func (e *Engine) onBoundary(s *session, charIndex int, name string) {
	idx := WordAt(s.tokens, charIndex)
	if idx < 0 {
		logger.Debugf("[timing] 边界事件无法映射: charIndex=%d name=%q", charIndex, name)
		return
	}
	if !s.boundarySeen {
		s.boundarySeen = true
		s.mode = ModeBoundary
		e.stopTimer(s)
	}
	s.next = idx + 1
	if idx != e.highlight {
		e.setHighlight(s, idx)
	}
}

// onError 处理提交后的异步失败：已经在跟随边界事件时直接结束，
// 否则从下一个未高亮的单词开始逐词定时，保证视觉反馈不中断。
func (e *Engine) onError(s *session, err error) {
	logger.Warnf("[timing] 会话 #%d 语音出错: %v", s.id, err)
	if s.boundarySeen {
		e.finish(s, false)
		return
	}
	e.stopTimer(s)
	e.startDirect(s, s.next)
}

func (e *Engine) startDirect(s *session, from int) {
	s.mode = ModeDirect
	if from >= len(s.tokens) {
		e.finish(s, true)
		return
	}
	var delay time.Duration
	if from == 0 {
		delay = InitialOffset(s.rate)
	}
	e.schedule(s, delay, func(s *session) { e.stepDirect(s, from) })
}

func (e *Engine) stepDirect(s *session, i int) {
	e.setHighlight(s, i)
	s.next = i + 1
	d := WordDuration(s.weights[i], s.rate)
	if s.next < len(s.tokens) {
		e.schedule(s, d, func(s *session) { e.stepDirect(s, i+1) })
		return
	}
	e.schedule(s, d, func(s *session) { e.finish(s, true) })
}

func (e *Engine) setHighlight(s *session, idx int) {
	e.highlight = idx
	e.view.Render(s.sentence, idx)
}

// schedule 替换会话的待触发定时器。
func (e *Engine) schedule(s *session, d time.Duration, fn func(s *session)) {
	e.stopTimer(s)
	s.tick++
	id, tick := s.id, s.tick
	s.timer = e.clock.AfterFunc(d, func() {
		e.post(id, func(s *session) {
			if s.tick != tick {
				return
			}
			s.timer = nil
			fn(s)
		})
	})
}

func (e *Engine) stopTimer(s *session) {
	s.tick++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// finish 结束会话：清除高亮，重绘无高亮的句子，回到 Idle。
func (e *Engine) finish(s *session, completed bool) {
	e.stopTimer(s)
	e.session = nil
	e.highlight = -1
	e.view.Render(s.sentence, -1)
	e.state.ForceIdle()
	e.report(s, completed)
}

// cancelSession 丢弃当前会话，不重绘。
func (e *Engine) cancelSession() {
	s := e.session
	if s == nil {
		return
	}
	if e.synth != nil && s.mode != ModeDirect {
		e.cancelSynth()
	}
	e.stopTimer(s)
	e.session = nil
	e.state.ForceIdle()
	e.report(s, false)
}

func (e *Engine) report(s *session, completed bool) {
	r := Report{
		SessionID: s.id,
		Sentence:  s.sentence,
		Rate:      s.rate,
		Mode:      s.mode,
		Completed: completed,
		Elapsed:   e.clock.Now().Sub(s.started),
	}
	logger.Debugf("[timing] 会话 #%d 结束: mode=%s completed=%v elapsed=%v", r.SessionID, r.Mode, r.Completed, r.Elapsed)
	if e.observer != nil {
		e.observer(r)
	}
}

// speak 调用语音协作方，panic 视为错误。
func (e *Engine) speak(u speech.Utterance, h speech.Handlers) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("语音合成 panic: %v", r)
		}
	}()
	if err := e.synth.Speak(u, h); err != nil {
		return fmt.Errorf("提交朗读失败: %w", err)
	}
	return nil
}

func (e *Engine) cancelSynth() {
	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("[timing] 取消朗读 panic: %v", r)
		}
	}()
	e.synth.Cancel()
}
