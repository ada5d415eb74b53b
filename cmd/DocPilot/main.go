package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"DocPilot/internal/config"
	"DocPilot/pkg/zlog"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml")
	flag.Parse()

	// 1. 加载配置
	conf, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	zlog.Init(conf.LogConfig.LogPath, conf.LogConfig.Level)
	defer zlog.Sync()

	// 2. 组装依赖
	ctx := context.Background()
	a, err := buildApp(ctx, conf)
	if err != nil {
		zlog.Fatal("服务初始化失败", zap.Error(err))
	}
	defer a.Close()

	// 3. 启动 HTTP 服务
	addr := net.JoinHostPort(conf.MainConfig.Host, strconv.Itoa(conf.MainConfig.Port))
	srv := &http.Server{Addr: addr, Handler: a.router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		zlog.Info("服务器正在启动", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 4. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("正在关闭服务器...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("服务器关闭超时", zap.Error(err))
	}
	zlog.Info("服务器已关闭")
}
