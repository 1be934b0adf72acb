package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// 语速允许范围，与界面上的滑块一致。
const (
	MinRate     = 0.1
	MaxRate     = 2.0
	DefaultRate = 0.9
)

// Config 是 speakline 的顶层配置结构。
type Config struct {
	Canvas    CanvasConfig    `yaml:"canvas"`
	Speech    SpeechConfig    `yaml:"speech"`
	Data      DataConfig      `yaml:"data"`
	Translate TranslateConfig `yaml:"translate"`
	Log       LogConfig       `yaml:"log"`
}

// CanvasConfig 画布与排版配置。
type CanvasConfig struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	Margin         float64 `yaml:"margin"`
	FontSize       float64 `yaml:"font_size"`
	StressFontSize float64 `yaml:"stress_font_size"`
	LineHeight     float64 `yaml:"line_height"`
	// Output 每次渲染后写出的 PNG 路径。
	Output string `yaml:"output"`
}

// SpeechConfig 语音合成与同步配置。
type SpeechConfig struct {
	// Engine 可选 edge、tencent、sherpa、none。
	// none 表示没有语音能力，只按启发式时间轴高亮。
	Engine string  `yaml:"engine"`
	Rate   float64 `yaml:"rate"`
	Pitch  float64 `yaml:"pitch"`
	Volume float64 `yaml:"volume"`
	Locale string  `yaml:"locale"`
	// GraceMs 语音开始后等待边界事件的时间（毫秒）。
	GraceMs int `yaml:"grace_ms"`
	// PollMs 回退时间轴轮询间隔（毫秒）。
	PollMs int `yaml:"poll_ms"`
	// TimeoutSec 单次合成的超时时间（秒）。
	TimeoutSec int `yaml:"timeout_sec"`
	// CacheMB 合成结果磁盘缓存上限（MB），0 表示不缓存。
	CacheMB int64 `yaml:"cache_mb"`
	// CacheDir 缓存目录，默认 <data.dir>/clips。
	CacheDir string `yaml:"cache_dir"`

	Edge    EdgeConfig    `yaml:"edge"`
	Tencent TencentConfig `yaml:"tencent"`
	Sherpa  SherpaConfig  `yaml:"sherpa"`
}

// EdgeConfig Edge TTS 配置。
type EdgeConfig struct {
	// Voices 候选语音，按优先级挑选。
	Voices []string `yaml:"voices"`
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID  string         `yaml:"secret_id"`
	SecretKey string         `yaml:"secret_key"`
	Region    string         `yaml:"region"`
	Voices    []TencentVoice `yaml:"voices"`
}

// TencentVoice 腾讯云音色。
type TencentVoice struct {
	Type   int64  `yaml:"type"`
	Name   string `yaml:"name"`
	Locale string `yaml:"locale"`
}

// SherpaConfig sherpa-onnx 离线 TTS 配置（VITS / Piper 模型）。
type SherpaConfig struct {
	Model      string `yaml:"model"`
	Tokens     string `yaml:"tokens"`
	Lexicon    string `yaml:"lexicon"`
	DataDir    string `yaml:"data_dir"`
	NumThreads int    `yaml:"num_threads"`
	SpeakerID  int    `yaml:"speaker_id"`
}

// DataConfig 数据配置。
type DataConfig struct {
	// SentencesFile 标注数据集（YAML）。为空时从数据库读取。
	SentencesFile string `yaml:"sentences_file"`
	// Dir 数据目录，SQLite 文件存放在这里。
	Dir string `yaml:"dir"`
}

// TranslateConfig 句子翻译字幕配置。
type TranslateConfig struct {
	Enabled   bool   `yaml:"enabled"`
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Target    string `yaml:"target"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	expanded := os.Expand(string(data), os.Getenv)

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查取值是否合法。
func (c *Config) Validate() error {
	switch c.Speech.Engine {
	case "edge", "tencent", "sherpa", "none":
	default:
		return fmt.Errorf("未知的语音引擎: %s", c.Speech.Engine)
	}
	if c.Speech.Engine == "sherpa" && c.Speech.Sherpa.Model == "" {
		return fmt.Errorf("sherpa 引擎需要配置 speech.sherpa.model")
	}
	if c.Canvas.Width <= int(2*c.Canvas.Margin) {
		return fmt.Errorf("画布宽度 %d 小于两侧边距", c.Canvas.Width)
	}
	return nil
}

// ClampRate 把语速限制在 [MinRate, MaxRate]。
func ClampRate(rate float64) float64 {
	if rate < MinRate {
		return MinRate
	}
	if rate > MaxRate {
		return MaxRate
	}
	return rate
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Canvas.Width == 0 {
		cfg.Canvas.Width = 960
	}
	if cfg.Canvas.Height == 0 {
		cfg.Canvas.Height = 360
	}
	if cfg.Canvas.Margin == 0 {
		cfg.Canvas.Margin = 40
	}
	if cfg.Canvas.FontSize == 0 {
		cfg.Canvas.FontSize = 28
	}
	if cfg.Canvas.StressFontSize == 0 {
		cfg.Canvas.StressFontSize = 34
	}
	if cfg.Canvas.LineHeight == 0 {
		cfg.Canvas.LineHeight = 80
	}

	if cfg.Speech.Engine == "" {
		cfg.Speech.Engine = "edge"
	}
	if cfg.Speech.Rate == 0 {
		cfg.Speech.Rate = DefaultRate
	}
	cfg.Speech.Rate = ClampRate(cfg.Speech.Rate)
	if cfg.Speech.Pitch == 0 {
		cfg.Speech.Pitch = 1.0
	}
	if cfg.Speech.Volume == 0 {
		cfg.Speech.Volume = 1.0
	}
	if cfg.Speech.Locale == "" {
		cfg.Speech.Locale = "en-US"
	}
	if cfg.Speech.GraceMs == 0 {
		cfg.Speech.GraceMs = 100
	}
	if cfg.Speech.PollMs == 0 {
		cfg.Speech.PollMs = 16
	}
	if cfg.Speech.TimeoutSec == 0 {
		cfg.Speech.TimeoutSec = 15
	}
	if len(cfg.Speech.Edge.Voices) == 0 {
		cfg.Speech.Edge.Voices = []string{"en-US-AriaNeural", "en-US-GuyNeural"}
	}
	if cfg.Speech.Tencent.Region == "" {
		cfg.Speech.Tencent.Region = "ap-guangzhou"
	}
	if len(cfg.Speech.Tencent.Voices) == 0 {
		cfg.Speech.Tencent.Voices = []TencentVoice{
			{Type: 101051, Name: "WeRose Premium", Locale: "en-US"},
			{Type: 101050, Name: "WeJack Premium", Locale: "en-US"},
		}
	}
	if cfg.Speech.Sherpa.NumThreads == 0 {
		cfg.Speech.Sherpa.NumThreads = 2
	}

	if cfg.Data.Dir == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.Data.Dir = home + "/.speakline"
		} else {
			cfg.Data.Dir = "./.speakline-data"
		}
	}
	cfg.Data.Dir = expandHome(cfg.Data.Dir)
	cfg.Data.SentencesFile = expandHome(cfg.Data.SentencesFile)

	if cfg.Speech.CacheDir == "" {
		cfg.Speech.CacheDir = cfg.Data.Dir + "/clips"
	}
	cfg.Speech.CacheDir = expandHome(cfg.Speech.CacheDir)

	if cfg.Canvas.Output == "" {
		cfg.Canvas.Output = cfg.Data.Dir + "/frame.png"
	}
	cfg.Canvas.Output = expandHome(cfg.Canvas.Output)

	if cfg.Translate.Region == "" {
		cfg.Translate.Region = cfg.Speech.Tencent.Region
	}
	if cfg.Translate.Target == "" {
		cfg.Translate.Target = "zh"
	}
	// 翻译默认复用 TTS 的腾讯云凭证
	if cfg.Translate.SecretID == "" {
		cfg.Translate.SecretID = cfg.Speech.Tencent.SecretID
	}
	if cfg.Translate.SecretKey == "" {
		cfg.Translate.SecretKey = cfg.Speech.Tencent.SecretKey
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	cfg.Log.File = expandHome(cfg.Log.File)

	// 环境变量展开后常带空白
	cfg.Speech.Tencent.SecretID = strings.TrimSpace(cfg.Speech.Tencent.SecretID)
	cfg.Speech.Tencent.SecretKey = strings.TrimSpace(cfg.Speech.Tencent.SecretKey)
	cfg.Translate.SecretID = strings.TrimSpace(cfg.Translate.SecretID)
	cfg.Translate.SecretKey = strings.TrimSpace(cfg.Translate.SecretKey)
}

// expandHome 把 ~/ 开头的路径展开为用户主目录。
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return path
	}
	return home + path[1:]
}
