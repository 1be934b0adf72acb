package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iabetor/speakline/internal/app"
	"github.com/iabetor/speakline/internal/config"
	"github.com/iabetor/speakline/internal/logger"
)

func main() {
	configPath := flag.String("config", "configs/speakline.yaml", "配置文件路径")
	engine := flag.String("engine", "", "覆盖配置中的语音引擎 (edge/tencent/sherpa/none)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if *engine != "" {
		cfg.Speech.Engine = *engine
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "配置无效: %v\n", err)
			os.Exit(1)
		}
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infof("[main] speakline 启动中 (engine=%s, rate=%.2f)", cfg.Speech.Engine, cfg.Speech.Rate)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("[main] 收到信号 %v，正在关闭...", sig)
		cancel()
	}()

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "运行出错: %v\n", err)
		os.Exit(1)
	}

	logger.Info("[main] speakline 已停止")
}
