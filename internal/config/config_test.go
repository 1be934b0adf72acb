package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Canvas.Width", cfg.Canvas.Width, 960},
		{"Canvas.Height", cfg.Canvas.Height, 360},
		{"Canvas.FontSize", cfg.Canvas.FontSize, 28.0},
		{"Speech.Engine", cfg.Speech.Engine, "edge"},
		{"Speech.Rate", cfg.Speech.Rate, 0.9},
		{"Speech.Locale", cfg.Speech.Locale, "en-US"},
		{"Speech.GraceMs", cfg.Speech.GraceMs, 100},
		{"Speech.PollMs", cfg.Speech.PollMs, 16},
		{"Translate.Target", cfg.Translate.Target, "zh"},
		{"Log.Level", cfg.Log.Level, "info"},
	}

	for _, c := range checks {
		switch want := c.want.(type) {
		case int:
			if c.got.(int) != want {
				t.Errorf("%s: got %v, want %v", c.name, c.got, want)
			}
		case float64:
			if c.got.(float64) != want {
				t.Errorf("%s: got %v, want %v", c.name, c.got, want)
			}
		case string:
			if c.got.(string) != want {
				t.Errorf("%s: got %v, want %v", c.name, c.got, want)
			}
		}
	}

	if len(cfg.Speech.Edge.Voices) == 0 {
		t.Error("Speech.Edge.Voices should have defaults")
	}
	if !strings.HasSuffix(cfg.Canvas.Output, "frame.png") {
		t.Errorf("Canvas.Output default: got %q", cfg.Canvas.Output)
	}
}

func TestSetDefaults_DoesNotOverride(t *testing.T) {
	cfg := &Config{
		Canvas: CanvasConfig{Width: 640, FontSize: 20},
		Speech: SpeechConfig{Engine: "none", Rate: 1.2, GraceMs: 250},
		Log:    LogConfig{Level: "debug"},
	}
	setDefaults(cfg)

	if cfg.Canvas.Width != 640 {
		t.Errorf("Width should not be overridden: got %d", cfg.Canvas.Width)
	}
	if cfg.Canvas.FontSize != 20 {
		t.Errorf("FontSize should not be overridden: got %v", cfg.Canvas.FontSize)
	}
	if cfg.Speech.Engine != "none" {
		t.Errorf("Engine should not be overridden: got %s", cfg.Speech.Engine)
	}
	if cfg.Speech.Rate != 1.2 {
		t.Errorf("Rate should not be overridden: got %v", cfg.Speech.Rate)
	}
	if cfg.Speech.GraceMs != 250 {
		t.Errorf("GraceMs should not be overridden: got %d", cfg.Speech.GraceMs)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level should not be overridden: got %s", cfg.Log.Level)
	}
}

func TestSetDefaults_ClampsRate(t *testing.T) {
	cfg := &Config{Speech: SpeechConfig{Rate: 5}}
	setDefaults(cfg)
	if cfg.Speech.Rate != MaxRate {
		t.Errorf("rate should clamp to %v, got %v", MaxRate, cfg.Speech.Rate)
	}
}

func TestClampRate(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.05, MinRate},
		{0.1, 0.1},
		{0.9, 0.9},
		{2.0, 2.0},
		{3.5, MaxRate},
	}
	for _, tt := range tests {
		if got := ClampRate(tt.in); got != tt.want {
			t.Errorf("ClampRate(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetDefaults_TranslateReusesTencentCredentials(t *testing.T) {
	cfg := &Config{
		Speech: SpeechConfig{Tencent: TencentConfig{SecretID: " id ", SecretKey: "key\n"}},
	}
	setDefaults(cfg)
	if cfg.Translate.SecretID != "id" || cfg.Translate.SecretKey != "key" {
		t.Errorf("expected trimmed tencent credentials, got %q / %q", cfg.Translate.SecretID, cfg.Translate.SecretKey)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	yamlContent := `
canvas:
  width: 800
  output: /tmp/speakline-frame.png
speech:
  engine: none
  rate: 0.7
data:
  sentences_file: /data/sentences.yaml
log:
  level: debug
`
	tmpFile := filepath.Join(t.TempDir(), "speakline.yaml")
	if err := os.WriteFile(tmpFile, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Canvas.Width != 800 {
		t.Errorf("Canvas.Width: got %d, want 800", cfg.Canvas.Width)
	}
	if cfg.Speech.Engine != "none" {
		t.Errorf("Speech.Engine: got %q, want none", cfg.Speech.Engine)
	}
	if cfg.Speech.Rate != 0.7 {
		t.Errorf("Speech.Rate: got %v, want 0.7", cfg.Speech.Rate)
	}
	if cfg.Data.SentencesFile != "/data/sentences.yaml" {
		t.Errorf("Data.SentencesFile: got %q", cfg.Data.SentencesFile)
	}
	// 未设置的字段使用默认值
	if cfg.Speech.GraceMs != 100 {
		t.Errorf("Speech.GraceMs should default to 100, got %d", cfg.Speech.GraceMs)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_TENCENT_SECRET", "secret-from-env")

	yamlContent := `
speech:
  engine: tencent
  tencent:
    secret_id: abc
    secret_key: "${TEST_TENCENT_SECRET}"
`
	tmpFile := filepath.Join(t.TempDir(), "speakline.yaml")
	if err := os.WriteFile(tmpFile, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Speech.Tencent.SecretKey != "secret-from-env" {
		t.Errorf("expected env var expansion, got %q", cfg.Speech.Tencent.SecretKey)
	}
}

func TestLoad_RejectsUnknownEngine(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "speakline.yaml")
	if err := os.WriteFile(tmpFile, []byte("speech:\n  engine: festival\n"), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if _, err := Load(tmpFile); err == nil {
		t.Fatal("expected error for unknown engine")
	}
}

func TestLoad_SherpaNeedsModel(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "speakline.yaml")
	if err := os.WriteFile(tmpFile, []byte("speech:\n  engine: sherpa\n"), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if _, err := Load(tmpFile); err == nil {
		t.Fatal("expected error when sherpa model is missing")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/path/speakline.yaml"); err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}
