// Package auth 实现连接级认证会话管理
//
// 每个传输连接对应一个会话：连接建立时登记占位（未认证），
// 提交正确的共享密钥后进入已认证状态，并获得滑动过期时间。
// 每次成功的 IsAuthenticated 调用都会把过期时间向后推移。
//
// 会话只存在于内存中，进程重启后全部丢失。
package auth

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-hostrpc/pkg/lib/log"
	"github.com/dep2p/go-hostrpc/pkg/types"
)

var logger = log.Logger("core/auth")

// Config 认证配置
type Config struct {
	// Key 共享密钥
	Key string

	// SessionTimeout 滑动超时
	SessionTimeout time.Duration

	// PruneInterval 后台清理间隔，0 表示不启动清理循环
	PruneInterval time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Key:            "default-secret-key-change-me",
		SessionTimeout: 30 * time.Minute,
		PruneInterval:  time.Minute,
	}
}

// SessionInfo 会话快照
type SessionInfo struct {
	ConnID        types.ConnID
	RemoteAddr    string
	Authenticated bool
	OpenedAt      time.Time
	ExpiresAt     time.Time
}

type session struct {
	remote        string
	opened        time.Time
	authenticated bool
	expires       time.Time
}

// Manager 认证会话管理器
type Manager struct {
	key     []byte
	timeout time.Duration
	prune   time.Duration
	clock   clock.Clock

	mu       sync.Mutex
	sessions map[types.ConnID]*session

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Option 管理器选项
type Option func(*Manager)

// WithClock 注入时钟（测试使用 clock.NewMock）
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// NewManager 创建认证会话管理器
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if cfg.Key == "" {
		return nil, ErrEmptyKey
	}
	if cfg.SessionTimeout <= 0 {
		return nil, ErrInvalidTimeout
	}
	m := &Manager{
		key:      []byte(cfg.Key),
		timeout:  cfg.SessionTimeout,
		prune:    cfg.PruneInterval,
		clock:    clock.New(),
		sessions: make(map[types.ConnID]*session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	logger.Info("认证会话管理器已创建", "sessionTimeout", cfg.SessionTimeout)
	return m, nil
}

// Open 为新连接登记未认证的会话占位
func (m *Manager) Open(id types.ConnID, remote string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &session{remote: remote, opened: m.clock.Now()}
}

// Authenticate 校验密钥
//
// 匹配时创建或刷新会话并返回 true；不匹配时不创建会话，已有会话保持原状。
func (m *Manager) Authenticate(id types.ConnID, key string) bool {
	if subtle.ConstantTimeCompare([]byte(key), m.key) != 1 {
		logger.Warn("认证失败", "conn", id.ShortString())
		return false
	}

	now := m.clock.Now()
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		s = &session{opened: now}
		m.sessions[id] = s
	}
	s.authenticated = true
	s.expires = now.Add(m.timeout)
	m.mu.Unlock()

	logger.Info("认证成功", "conn", id.ShortString(), "remote", s.remote)
	return true
}

// IsAuthenticated 判断连接是否已认证
//
// 已过期的会话会被降级为未认证；有效会话的过期时间向后滑动。
func (m *Manager) IsAuthenticated(id types.ConnID) bool {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || !s.authenticated {
		return false
	}
	if now.After(s.expires) {
		s.authenticated = false
		s.expires = time.Time{}
		logger.Debug("会话已过期", "conn", id.ShortString())
		return false
	}
	s.expires = now.Add(m.timeout)
	return true
}

// Info 返回会话快照
func (m *Manager) Info(id types.ConnID) (SessionInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return SessionInfo{}, false
	}
	return SessionInfo{
		ConnID:        id,
		RemoteAddr:    s.remote,
		Authenticated: s.authenticated && !m.clock.Now().After(s.expires),
		OpenedAt:      s.opened,
		ExpiresAt:     s.expires,
	}, true
}

// Logout 撤销认证但保留连接占位
func (m *Manager) Logout(id types.ConnID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !s.authenticated {
		return false
	}
	s.authenticated = false
	s.expires = time.Time{}
	logger.Info("会话已登出", "conn", id.ShortString())
	return true
}

// Forget 连接断开时移除会话
func (m *Manager) Forget(id types.ConnID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count 返回已认证会话数
func (m *Manager) Count() int {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.authenticated && !now.After(s.expires) {
			n++
		}
	}
	return n
}

// Len 返回登记的连接数（含未认证）
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Prune 把过期会话降级为未认证，返回处理数量
func (m *Manager) Prune() int {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.authenticated && now.After(s.expires) {
			s.authenticated = false
			s.expires = time.Time{}
			n++
		}
	}
	return n
}

// Start 启动后台清理循环
func (m *Manager) Start(_ context.Context) error {
	if m.prune <= 0 {
		close(m.done)
		return nil
	}
	ticker := m.clock.Ticker(m.prune)
	go func() {
		defer close(m.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Prune(); n > 0 {
					logger.Debug("已清理过期会话", "count", n)
				}
			case <-m.stop:
				return
			}
		}
	}()
	return nil
}

// Close 停止清理循环并丢弃所有会话
func (m *Manager) Close() error {
	m.once.Do(func() {
		close(m.stop)
	})
	m.mu.Lock()
	m.sessions = make(map[types.ConnID]*session)
	m.mu.Unlock()
	return nil
}

// Wait 等待清理循环退出（仅在 Start 之后调用）
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
