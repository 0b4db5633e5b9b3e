// Package main 提供 hostrpc 命令行客户端
//
// 用法：
//
//	hostrpc-cli [flags] <module> <method> [args-json]
//	hostrpc-cli -key secret world getTime '["overworld"]'
//	hostrpc-cli -key secret system modules
//
// args-json 为 JSON 数组；单个非数组 JSON 值视为唯一参数，
// 无法解析为 JSON 时按字符串处理。
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dep2p/go-hostrpc"
	"github.com/dep2p/go-hostrpc/config"
	"github.com/dep2p/go-hostrpc/pkg/client"
)

var (
	url        = flag.String("url", "ws://127.0.0.1:8765/", "服务端地址")
	key        = flag.String("key", os.Getenv("HOSTRPC_AUTH_KEY"), "共享认证密钥（默认取 HOSTRPC_AUTH_KEY）")
	encryption = flag.Bool("encryption", false, "启用加密线上格式")
	cipher     = flag.String("cipher", config.CipherAESECB, "加密算法 (aes-ecb/aes-gcm)")
	derivation = flag.String("key-derivation", config.KeyDerivationPad, "密钥派生方式 (pad/hkdf)")
	timeout    = flag.Duration("timeout", 10*time.Second, "单次调用超时")
	watch      = flag.Bool("watch", false, "调用后持续打印服务端 EVENT 消息")
	showVer    = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		var re *client.RemoteError
		if errors.As(err, &re) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	flag.Usage = usage
	flag.Parse()

	if *showVer {
		fmt.Println(hostrpc.VersionInfo())
		return nil
	}

	if flag.NArg() < 2 || flag.NArg() > 3 {
		usage()
		return errors.New("需要 <module> <method> [args-json]")
	}
	module, method := flag.Arg(0), flag.Arg(1)
	args := parseArgs(flag.Arg(2))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	c, err := client.Dial(dialCtx, client.Config{
		URL:           *url,
		Key:           *key,
		Encryption:    *encryption,
		Cipher:        *cipher,
		KeyDerivation: *derivation,
		DialTimeout:   *timeout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	data, err := c.Invoke(dialCtx, module, method, args...)
	if err != nil {
		return err
	}
	if err := printJSON(data); err != nil {
		return err
	}

	if !*watch {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.Done():
			return errors.New("连接已关闭")
		case ev := <-c.Events():
			fmt.Printf("[%s.%s] ", ev.Module, ev.Method)
			if err := printJSON(ev.Data); err != nil {
				return err
			}
		}
	}
}

// parseArgs 解析参数 JSON
func parseArgs(raw string) []any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return []any{raw}
	}
	if arr, ok := v.([]any); ok {
		return arr
	}
	return []any{v}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("格式化结果失败: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "用法: %s [flags] <module> <method> [args-json]\n\n", os.Args[0])
	flag.PrintDefaults()
}
