// Package authapi 实现连接绑定的 auth 模块
//
// 每个连接一个实例，认证前即可调用：
//
//	auth.authenticate(key) → {success, message}
//	auth.getInfo()         → {authenticated, remoteAddress, sslEnabled, authRequired}
//	auth.check()           → {authenticated, message}
//	auth.logout()          → {success, message}
package authapi

import (
	"context"

	"github.com/dep2p/go-hostrpc/internal/core/auth"
	"github.com/dep2p/go-hostrpc/internal/core/server"
	"github.com/dep2p/go-hostrpc/pkg/capability"
)

// Session 单个连接的 auth 模块
type Session struct {
	mgr  *auth.Manager
	conn server.ConnInfo
}

var _ capability.Module = (*Session)(nil)

// New 创建连接绑定的 auth 模块
func New(mgr *auth.Manager, conn server.ConnInfo) *Session {
	return &Session{mgr: mgr, conn: conn}
}

// Factory 返回连接处理器使用的模块工厂
func Factory(mgr *auth.Manager) server.SessionModuleFactory {
	return func(conn server.ConnInfo) capability.Module {
		return New(mgr, conn)
	}
}

// Name 路由名
func (s *Session) Name() string { return server.AuthModuleName }

// Operations 操作表
func (s *Session) Operations() []capability.Operation {
	return []capability.Operation{
		{
			Name:        "authenticate",
			Params:      []capability.Param{capability.String("key")},
			Handler:     s.authenticate,
			Description: "Present the shared key for this connection",
		},
		{
			Name:        "getInfo",
			Handler:     s.getInfo,
			Description: "Session and transport details",
		},
		{
			Name:        "check",
			Handler:     s.check,
			Description: "Whether this connection is authenticated",
		},
		{
			Name:        "logout",
			Handler:     s.logout,
			Description: "Drop the authenticated session",
		},
	}
}

func (s *Session) authenticate(_ context.Context, args capability.Args) (any, error) {
	ok := s.mgr.Authenticate(s.conn.ID, args.String(0))
	message := "Authentication failed"
	if ok {
		message = "Authentication successful"
	}
	return map[string]any{
		"success": ok,
		"message": message,
	}, nil
}

func (s *Session) getInfo(context.Context, capability.Args) (any, error) {
	remote := s.conn.RemoteAddr
	if remote == "" {
		remote = "unknown"
	}
	return map[string]any{
		"authenticated": s.mgr.IsAuthenticated(s.conn.ID),
		"remoteAddress": remote,
		"sslEnabled":    s.conn.TLS,
		"authRequired":  true,
	}, nil
}

func (s *Session) check(context.Context, capability.Args) (any, error) {
	ok := s.mgr.IsAuthenticated(s.conn.ID)
	message := "Not authenticated"
	if ok {
		message = "Authenticated"
	}
	return map[string]any{
		"authenticated": ok,
		"message":       message,
	}, nil
}

func (s *Session) logout(context.Context, capability.Args) (any, error) {
	ok := s.mgr.Logout(s.conn.ID)
	message := "Not authenticated"
	if ok {
		message = "Logged out"
	}
	return map[string]any{
		"success": ok,
		"message": message,
	}, nil
}
