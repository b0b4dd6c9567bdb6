package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"marlin/internal/app"
	"marlin/internal/config"
	"marlin/internal/logger"
)

func main() {
	ctx := context.Background()
	cfgPath := os.Getenv("MARLIN_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) && os.Getenv("MARLIN_CONFIG") == "" {
		// 缺省路径不存在时允许全缺省启动。
		cfgPath = ""
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("初始化日志文件失败: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（环境=%s，监听=%s）", cfg.App.Env, cfg.Server.HTTPAddr)

	a, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Fatalf("运行失败: %v", err)
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
