// Package main 提供 hostrpc 服务端命令行入口
//
// 默认挂载演示宿主（internal/demohost），开箱即可连接调试。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dep2p/go-hostrpc"
	"github.com/dep2p/go-hostrpc/config"
	"github.com/dep2p/go-hostrpc/internal/demohost"
	"github.com/dep2p/go-hostrpc/pkg/lib/log"
)

var logger = log.Logger("hostrpc/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
// 命令行参数：运行时覆盖（「这次运行」想怎么跑）
// JSON 配置文件：持久化配置
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	// ─────────────────────────────────────────────────────────────────────
	// 运行时参数
	// ─────────────────────────────────────────────────────────────────────
	configFile = flag.String("config", "", "配置文件路径（JSON）")
	host       = flag.String("host", "", "监听地址")
	port       = flag.Int("port", 0, "监听端口（1000-65535）")
	key        = flag.String("key", "", "共享认证密钥")
	encryption = flag.Bool("encryption", false, "启用加密线上格式")

	// ─────────────────────────────────────────────────────────────────────
	// 日志与调试
	// ─────────────────────────────────────────────────────────────────────
	logFile = flag.String("log", "", "日志文件路径（默认输出到 stderr）")
	fxDebug = flag.Bool("fx-debug", false, "输出 Fx 容器事件")

	// ─────────────────────────────────────────────────────────────────────
	// 信息显示
	// ─────────────────────────────────────────────────────────────────────
	printConfig = flag.Bool("print-config", false, "打印最终配置并退出")
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(hostrpc.VersionInfo())
		return nil
	}

	cfg, err := buildConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}
	if *printConfig {
		data, err := cfg.ToJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	logHandle, err := setupLogging()
	if err != nil {
		fmt.Fprintf(os.Stderr, "警告: %v，继续使用控制台输出日志\n", err)
	}
	if logHandle != nil {
		defer func() { _ = logHandle.Close() }()
	}

	fmt.Printf("📦 %s\n", hostrpc.VersionInfo())
	logger.Info("启动 hostrpc", "version", hostrpc.Version, "commit", hostrpc.GitCommit, "buildDate", hostrpc.BuildDate)
	if cfg.Auth.IsDefaultKey() {
		logger.Warn("正在使用默认认证密钥，请通过 --key 或配置文件修改")
	}

	svc, err := hostrpc.Start(context.Background(),
		hostrpc.WithConfig(cfg),
		hostrpc.WithHost(demohost.Module()),
		hostrpc.WithFxDebug(*fxDebug),
	)
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	printInfo(svc)
	fmt.Println("服务已启动，按 Ctrl+C 退出")
	waitForSignal()

	fmt.Println("\n正在关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration()+5*time.Second)
	defer cancel()
	return svc.Stop(ctx)
}

// buildConfig 构建配置
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（HOSTRPC_* 前缀）
//  3. 配置文件
//  4. 默认值
func buildConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}

	if err := applyEnvOverrides(cfg, os.Getenv); err != nil {
		return nil, err
	}
	applyFlagOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagOverrides 只应用显式设置的参数
func applyFlagOverrides(cfg *config.Config) {
	if isFlagSet("host") {
		cfg.Server.Host = *host
	}
	if isFlagSet("port") {
		cfg.Server.Port = *port
	}
	if isFlagSet("key") {
		cfg.Auth.Key = *key
	}
	if isFlagSet("encryption") {
		cfg.Codec.Encryption = *encryption
	}
}

// isFlagSet 检查命令行参数是否被显式设置
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// waitForSignal 等待退出信号
func waitForSignal() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
}

// setupLogging 设置日志输出
//
// 未指定 --log 时优先使用 HOSTRPC_LOG_FILE，都为空则输出到 stderr。
func setupLogging() (*os.File, error) {
	path := *logFile
	if path == "" {
		path = os.Getenv(envPrefix + envLogFile)
	}
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	log.SetOutput(file)
	fmt.Printf("📝 日志文件: %s\n", path)
	return file, nil
}

func printInfo(svc *hostrpc.Service) {
	cfg := svc.Config()
	scheme := "ws"
	if cfg.Server.TLSEnabled() {
		scheme = "wss"
	}
	fmt.Println()
	fmt.Printf("  地址:     %s://%s%s\n", scheme, svc.Addr(), cfg.Server.Path)
	fmt.Printf("  模块:     %v\n", svc.Modules())
	fmt.Printf("  加密:     %v\n", cfg.Codec.Encryption)
	if cfg.Metrics.Enabled {
		fmt.Printf("  指标:     http://%s%s\n", svc.Addr(), cfg.Metrics.Path)
		fmt.Printf("  健康检查: http://%s%s\n", svc.Addr(), cfg.Metrics.HealthPath)
	}
	fmt.Println()
}
