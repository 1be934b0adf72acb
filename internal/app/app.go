// Package app 把标注数据、渲染器、同步引擎和语音合成串联成一个
// 交互式的跟读练习程序。
package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/iabetor/speakline/internal/annotation"
	"github.com/iabetor/speakline/internal/audio"
	"github.com/iabetor/speakline/internal/config"
	"github.com/iabetor/speakline/internal/database"
	"github.com/iabetor/speakline/internal/logger"
	"github.com/iabetor/speakline/internal/render"
	"github.com/iabetor/speakline/internal/speech"
	"github.com/iabetor/speakline/internal/timing"
	"github.com/iabetor/speakline/internal/translate"
)

// App 是主编排器。
type App struct {
	cfg *config.Config
	db  *database.DB

	set      *annotation.Set
	deck     *Deck
	screen   *Screen
	engine   *timing.Engine
	captions *translate.Captions

	// closers 按注册的逆序在 Close 中调用。
	closers []func()
}

// New 根据配置创建所有组件。
func New(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	// 1. 数据库
	db, err := database.Open(filepath.Join(cfg.Data.Dir, "speakline.db"))
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, func() { db.Close() })
	if err := db.Migrate(); err != nil {
		a.Close()
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	// 2. 标注数据
	set, err := loadAnnotations(cfg, db)
	if err != nil {
		a.Close()
		return nil, err
	}
	if set.Len() == 0 {
		a.Close()
		return nil, fmt.Errorf("没有可练习的句子，请配置 data.sentences_file")
	}
	a.set = set
	logger.Infof("[app] 已加载 %d 个句子", set.Len())

	// 3. 画布与渲染器
	canvas, err := render.NewCanvas(cfg.Canvas.Width, cfg.Canvas.Height)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("初始化画布失败: %w", err)
	}
	renderOpts := []render.Option{render.WithOptions(render.Options{
		Margin:         cfg.Canvas.Margin,
		FontSize:       cfg.Canvas.FontSize,
		StressFontSize: cfg.Canvas.StressFontSize,
		LineHeight:     cfg.Canvas.LineHeight,
	})}

	// 4. 翻译字幕（可选）
	if cfg.Translate.Enabled {
		tr, err := translate.NewTencentTranslator(cfg.Translate.SecretID, cfg.Translate.SecretKey, cfg.Translate.Region)
		if err != nil {
			logger.Warnf("[app] 翻译字幕不可用: %v", err)
		} else {
			a.captions = translate.NewCaptions(tr, db, cfg.Translate.Target)
			renderOpts = append(renderOpts, render.WithCaptions(a.captions))
			logger.Infof("[app] 翻译字幕已启用，目标语言=%s", cfg.Translate.Target)
		}
	}

	output := cfg.Canvas.Output
	screen := NewScreen(render.NewRenderer(canvas, set, renderOpts...), func() error {
		return canvas.SavePNG(output)
	})

	// 5. 语音合成（可选）
	synth, err := a.initSpeech()
	if err != nil {
		logger.Warnf("[app] 语音引擎 %s 不可用，只使用启发式时间轴: %v", cfg.Speech.Engine, err)
	}

	a.assemble(set, screen, synth,
		timing.WithRate(cfg.Speech.Rate),
		timing.WithVoice(cfg.Speech.Pitch, cfg.Speech.Volume, cfg.Speech.Locale),
		timing.WithGraceDelay(time.Duration(cfg.Speech.GraceMs)*time.Millisecond),
		timing.WithPollInterval(time.Duration(cfg.Speech.PollMs)*time.Millisecond),
	)

	logger.Infof("[app] 初始化完成，画面输出到 %s", output)
	return a, nil
}

// assemble 组装导航、画面和引擎。synth 为 nil 表示没有语音能力。
func (a *App) assemble(set *annotation.Set, screen *Screen, synth speech.Synthesizer, opts ...timing.Option) {
	a.set = set
	a.deck = NewDeck(set.Sentences())
	a.screen = screen

	opts = append(opts, timing.WithObserver(a.recordPractice))
	a.engine = timing.NewEngine(screen, synth, opts...)
	a.engine.States().SetOnChange(func(from, to timing.State) {
		logger.Debugf("[app] 播放状态 %s → %s", from, to)
	})

	if a.captions != nil {
		a.captions.OnReady(screen.Refresh)
	}
}

// initSpeech 按配置创建语音合成协作方。engine 为 none 时返回 nil。
func (a *App) initSpeech() (speech.Synthesizer, error) {
	cfg := a.cfg.Speech

	var backend speech.Backend
	switch cfg.Engine {
	case "none":
		logger.Info("[app] 未启用语音引擎")
		return nil, nil
	case "edge":
		backend = speech.NewEdgeBackend(cfg.Edge.Voices)
	case "tencent":
		voices := make([]speech.TencentVoiceConfig, 0, len(cfg.Tencent.Voices))
		for _, v := range cfg.Tencent.Voices {
			voices = append(voices, speech.TencentVoiceConfig{Type: v.Type, Name: v.Name, Locale: v.Locale})
		}
		tb, err := speech.NewTencentBackend(speech.TencentConfig{
			SecretID:  cfg.Tencent.SecretID,
			SecretKey: cfg.Tencent.SecretKey,
			Region:    cfg.Tencent.Region,
			Voices:    voices,
		})
		if err != nil {
			return nil, err
		}
		backend = tb
	case "sherpa":
		sb, err := speech.NewSherpaBackend(speech.SherpaConfig{
			Model:      cfg.Sherpa.Model,
			Tokens:     cfg.Sherpa.Tokens,
			Lexicon:    cfg.Sherpa.Lexicon,
			DataDir:    cfg.Sherpa.DataDir,
			NumThreads: cfg.Sherpa.NumThreads,
			SpeakerID:  cfg.Sherpa.SpeakerID,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sb.Close)
		backend = sb
	default:
		return nil, fmt.Errorf("未知的语音引擎: %s", cfg.Engine)
	}

	player, err := audio.NewPlayer(1)
	if err != nil {
		return nil, fmt.Errorf("初始化播放器失败: %w", err)
	}
	a.closers = append(a.closers, player.Close)

	opts := []speech.SpeakerOption{speech.WithTimeout(time.Duration(cfg.TimeoutSec) * time.Second)}
	if cfg.CacheMB > 0 {
		cache, err := speech.NewClipCache(cfg.CacheDir, cfg.CacheMB)
		if err != nil {
			logger.Warnf("[app] 合成缓存不可用: %v", err)
		} else {
			opts = append(opts, speech.WithCache(cache))
			logger.Infof("[app] 合成缓存: %s（%d 条）", cfg.CacheDir, cache.Len())
		}
	}

	logger.Infof("[app] 语音引擎: %s", backend.Name())
	return speech.NewSpeaker(backend, player, opts...), nil
}

// loadAnnotations 优先读取 YAML 数据集并同步到数据库，否则使用数据库中已导入的数据。
func loadAnnotations(cfg *config.Config, db *database.DB) (*annotation.Set, error) {
	if cfg.Data.SentencesFile == "" {
		set, err := db.LoadAnnotations()
		if err != nil {
			return nil, fmt.Errorf("从数据库加载标注失败: %w", err)
		}
		return set, nil
	}

	set, err := annotation.LoadFile(cfg.Data.SentencesFile)
	if err != nil {
		return nil, err
	}
	if err := db.SaveAnnotations(set); err != nil {
		logger.Warnf("[app] 保存标注到数据库失败: %v", err)
	}
	for _, issue := range annotation.Check(set) {
		logger.Debugf("[app] 标注问题 %s: %q 中的 %q", issue.Kind, issue.Sentence, issue.Token)
	}
	return set, nil
}

// recordPractice 在事件循环中被调用，只写数据库，不调用引擎。
func (a *App) recordPractice(r timing.Report) {
	logger.Debugf("[app] 会话 #%d 结束: mode=%s completed=%v elapsed=%v", r.SessionID, r.Mode, r.Completed, r.Elapsed)
	if a.db == nil {
		return
	}
	if _, err := a.db.LogPractice(database.PracticeRecord{
		Sentence:  r.Sentence,
		Rate:      r.Rate,
		Mode:      r.Mode.String(),
		Completed: r.Completed,
		Elapsed:   r.Elapsed,
	}); err != nil {
		logger.Warnf("[app] 记录练习失败: %v", err)
	}
}

// Run 显示第一句并处理命令，直到输入结束、收到 q 或 ctx 被取消。
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	a.show(out, a.deck.Current())
	fmt.Fprintln(out, helpText)

	lines := make(chan string)
	go scanLines(ctx, in, lines)

	for {
		fmt.Fprint(out, "> ")
		select {
		case <-ctx.Done():
			a.engine.Stop()
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				a.engine.Stop()
				return nil
			}
			if a.Handle(line, out) {
				a.engine.Stop()
				return nil
			}
		}
	}
}

// show 停止当前播放，绘制新句子并预取字幕。
func (a *App) show(out io.Writer, sentence string) {
	a.engine.Show(sentence)
	if a.captions != nil {
		a.captions.Prefetch(sentence)
	}
	fmt.Fprintf(out, "[%d/%d] %s\n", a.deck.Index()+1, a.deck.Len(), sentence)
}

// Close 释放所有资源。
func (a *App) Close() {
	logger.Info("[app] 正在关闭...")
	if a.engine != nil {
		a.engine.Close()
	}
	if a.captions != nil {
		a.captions.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	logger.Info("[app] 已关闭")
}
