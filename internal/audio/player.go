package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/iabetor/speakline/internal/logger"
)

// Player 使用 malgo (miniaudio) 管理音频播放。
type Player struct {
	ctx      *malgo.AllocatedContext
	channels uint32
	mu       sync.Mutex
	closed   bool
}

// NewPlayer 创建一个新的音频播放实例。
// channels: 声道数，通常为 1（单声道）
func NewPlayer(channels int) (*Player, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("初始化播放上下文失败: %w", err)
	}

	return &Player{
		ctx:      ctx,
		channels: uint32(channels),
	}, nil
}

// Play 通过默认扬声器播放 float32 音频样本，阻塞直到播放完成或 ctx 被取消。
// 设备启动成功后调用一次 onStart（可以为 nil），单词边界计时以此为零点。
func (p *Player) Play(ctx context.Context, samples []float32, sampleRate int, onStart func()) error {
	if len(samples) == 0 {
		if onStart != nil {
			onStart()
		}
		return nil
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("播放器已关闭")
	}
	p.mu.Unlock()

	pcmBytes := Float32ToBytes(samples)
	pos := 0
	done := make(chan struct{}, 1)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = p.channels
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInFrames = 512
	deviceConfig.Periods = 2

	callbacks := malgo.DeviceCallbacks{
		Data: func(outputSamples, inputSamples []byte, frameCount uint32) {
			bytesNeeded := int(frameCount) * int(p.channels) * 2 // 每个 int16 采样点 2 字节
			if pos >= len(pcmBytes) {
				// 数据播完，填充静音
				clear(outputSamples[:bytesNeeded])
				select {
				case done <- struct{}{}:
				default:
				}
				return
			}

			end := min(pos+bytesNeeded, len(pcmBytes))
			copy(outputSamples, pcmBytes[pos:end])
			if end-pos < bytesNeeded {
				clear(outputSamples[end-pos : bytesNeeded])
			}
			pos = end
		},
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("初始化播放设备失败: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("启动播放设备失败: %w", err)
	}
	defer device.Stop()

	if onStart != nil {
		onStart()
	}

	select {
	case <-ctx.Done():
		logger.Debugf("[audio] 播放被取消")
		return ctx.Err()
	case <-done:
		logger.Debugf("[audio] 播放完成")
		return nil
	}
}

// Close 释放所有资源。
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if p.ctx != nil {
		_ = p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
	}
}
