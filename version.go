package hostrpc

import "strings"

// Version 当前版本
const Version = "v0.1.0"

// 构建时通过 -ldflags "-X github.com/dep2p/go-hostrpc.GitCommit=..." 注入
var (
	GitCommit string
	BuildDate string
)

// VersionInfo 返回 "hostrpc v0.1.0 (abcdef12) built 2026-01-01" 形式的版本串
func VersionInfo() string {
	var b strings.Builder
	b.WriteString("hostrpc ")
	b.WriteString(Version)
	if GitCommit != "" {
		b.WriteString(" (")
		b.WriteString(GitCommit[:min(8, len(GitCommit))])
		b.WriteString(")")
	}
	if BuildDate != "" {
		b.WriteString(" built ")
		b.WriteString(BuildDate)
	}
	return b.String()
}
