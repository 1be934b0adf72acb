package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tts "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tts/v20190823"

	"github.com/iabetor/speakline/internal/audio"
	"github.com/iabetor/speakline/internal/logger"
)

// 腾讯云 TTS 语速取值范围，0 为正常语速。
const (
	tencentMinSpeed = -2.0
	tencentMaxSpeed = 6.0
	// tencentEnglish 是 PrimaryLanguage 的英文取值。
	tencentEnglish = 2
)

// TencentVoiceConfig 描述一个腾讯云音色。
type TencentVoiceConfig struct {
	Type   int64
	Name   string
	Locale string
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID  string
	SecretKey string
	Region    string
	Voices    []TencentVoiceConfig
}

// TencentBackend 使用腾讯云 TTS 合成，开启字幕后返回逐词时间。
type TencentBackend struct {
	client *tts.Client
	voices []Voice
}

// NewTencentBackend 创建腾讯云 TTS 后端。
func NewTencentBackend(cfg TencentConfig) (*TencentBackend, error) {
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("腾讯云 TTS 需要 SecretID 和 SecretKey")
	}
	if cfg.Region == "" {
		cfg.Region = "ap-guangzhou"
	}

	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tts.tencentcloudapi.com"

	client, err := tts.NewClient(credential, cfg.Region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建腾讯云 TTS 客户端失败: %w", err)
	}

	voices := make([]Voice, 0, len(cfg.Voices))
	for _, v := range cfg.Voices {
		voices = append(voices, Voice{ID: strconv.FormatInt(v.Type, 10), Name: v.Name, Locale: v.Locale})
	}
	logger.Infof("[speech] 腾讯云 TTS 已初始化 (region=%s, %d 个音色)", cfg.Region, len(voices))

	return &TencentBackend{client: client, voices: voices}, nil
}

// Name 返回后端名称。
func (e *TencentBackend) Name() string { return "tencent" }

// Voices 返回配置的音色。
func (e *TencentBackend) Voices() []Voice {
	return append([]Voice(nil), e.voices...)
}

// Synthesize 调用 TextToVoice，MP3 解码为 PCM，字幕转为单词时间。
func (e *TencentBackend) Synthesize(ctx context.Context, u Utterance) (*Clip, error) {
	request := tts.NewTextToVoiceRequest()
	request.Text = common.StringPtr(u.Text)
	request.SessionId = common.StringPtr(uuid.NewString())
	request.Codec = common.StringPtr("mp3")
	request.Speed = common.Float64Ptr(TencentSpeed(u.Rate))
	request.Volume = common.Float64Ptr(tencentVolume(u.Volume))
	request.PrimaryLanguage = common.Int64Ptr(tencentEnglish)
	request.EnableSubtitle = common.BoolPtr(true)
	if u.Voice != nil {
		if vt, err := strconv.ParseInt(u.Voice.ID, 10, 64); err == nil {
			request.VoiceType = common.Int64Ptr(vt)
		}
	} else if len(e.voices) > 0 {
		if vt, err := strconv.ParseInt(e.voices[0].ID, 10, 64); err == nil {
			request.VoiceType = common.Int64Ptr(vt)
		}
	}

	logger.Debugf("[speech] 腾讯云 TTS: 正在合成 %d 个字符", len(u.Text))
	response, err := e.client.TextToVoiceWithContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("腾讯云 TTS 合成失败: %w", err)
	}
	if response.Response == nil || response.Response.Audio == nil {
		return nil, fmt.Errorf("腾讯云 TTS: 未返回音频数据")
	}

	mp3Data, err := base64.StdEncoding.DecodeString(*response.Response.Audio)
	if err != nil {
		return nil, fmt.Errorf("Base64 解码失败: %w", err)
	}
	samples, rate, err := audio.DecodeMP3(mp3Data)
	if err != nil {
		return nil, err
	}

	var marks []Mark
	for _, sub := range response.Response.Subtitles {
		if sub == nil || sub.BeginIndex == nil || sub.BeginTime == nil {
			continue
		}
		name := ""
		if sub.Text != nil {
			name = *sub.Text
		}
		marks = append(marks, Mark{
			CharIndex: int(*sub.BeginIndex),
			Name:      name,
			Offset:    time.Duration(*sub.BeginTime) * time.Millisecond,
		})
	}
	return &Clip{Samples: samples, SampleRate: rate, Marks: marks}, nil
}

// TencentSpeed 把倍速换算成腾讯云语速档位：每 0.2 倍速一档，限制在 [-2, 6]。
func TencentSpeed(rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	speed := math.Round((rate-1)/0.2*10) / 10
	return math.Max(tencentMinSpeed, math.Min(tencentMaxSpeed, speed))
}

// tencentVolume 把 0–1 音量换算成腾讯云的 [0, 10]，1.0 对应默认值 5。
func tencentVolume(v float64) float64 {
	if v <= 0 {
		return 5
	}
	return math.Min(10, v*5)
}
