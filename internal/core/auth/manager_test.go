package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-hostrpc/pkg/types"
)

func newTestManager(t *testing.T) (*Manager, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	m, err := NewManager(Config{Key: "secret", SessionTimeout: 30 * time.Minute}, WithClock(clk))
	require.NoError(t, err)
	return m, clk
}

// TestNewManager_InvalidConfig 测试无效配置
func TestNewManager_InvalidConfig(t *testing.T) {
	_, err := NewManager(Config{SessionTimeout: time.Minute})
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, err = NewManager(Config{Key: "k"})
	assert.ErrorIs(t, err, ErrInvalidTimeout)
}

// TestManager_Authenticate 测试密钥校验
func TestManager_Authenticate(t *testing.T) {
	m, _ := newTestManager(t)
	conn := types.ConnID("c1")
	m.Open(conn, "10.0.0.1:5000")

	assert.False(t, m.IsAuthenticated(conn), "占位会话不应视为已认证")

	assert.False(t, m.Authenticate(conn, "wrong"))
	assert.False(t, m.IsAuthenticated(conn))
	assert.False(t, m.Authenticate(conn, ""))

	assert.True(t, m.Authenticate(conn, "secret"))
	assert.True(t, m.IsAuthenticated(conn))
	assert.Equal(t, 1, m.Count())

	info, ok := m.Info(conn)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1:5000", info.RemoteAddr)
	assert.True(t, info.Authenticated)

	t.Log("✅ 认证测试通过")
}

// TestManager_WrongKeyDoesNotCreateSession 测试错误密钥不创建会话
func TestManager_WrongKeyDoesNotCreateSession(t *testing.T) {
	m, _ := newTestManager(t)

	assert.False(t, m.Authenticate("ghost", "nope"))
	assert.Equal(t, 0, m.Len())
}

// TestManager_SlidingExpiry 测试滑动过期
func TestManager_SlidingExpiry(t *testing.T) {
	m, clk := newTestManager(t)
	conn := types.ConnID("c1")
	require.True(t, m.Authenticate(conn, "secret"))

	// 每 20 分钟访问一次，总时长远超 30 分钟仍有效
	for i := 0; i < 5; i++ {
		clk.Add(20 * time.Minute)
		require.True(t, m.IsAuthenticated(conn), "iteration %d", i)
	}

	// 空闲超过超时后失效
	clk.Add(31 * time.Minute)
	assert.False(t, m.IsAuthenticated(conn))
	assert.False(t, m.IsAuthenticated(conn))
	assert.Equal(t, 0, m.Count())

	// 连接占位仍在，可重新认证
	assert.True(t, m.Authenticate(conn, "secret"))
	assert.True(t, m.IsAuthenticated(conn))

	t.Log("✅ 滑动过期测试通过")
}

// TestManager_LogoutAndForget 测试登出与断开
func TestManager_LogoutAndForget(t *testing.T) {
	m, _ := newTestManager(t)
	conn := types.ConnID("c1")
	m.Open(conn, "remote")
	require.True(t, m.Authenticate(conn, "secret"))

	assert.True(t, m.Logout(conn))
	assert.False(t, m.Logout(conn))
	assert.False(t, m.IsAuthenticated(conn))
	assert.Equal(t, 1, m.Len())

	m.Forget(conn)
	assert.Equal(t, 0, m.Len())
	_, ok := m.Info(conn)
	assert.False(t, ok)
}

// TestManager_Prune 测试清理过期会话
func TestManager_Prune(t *testing.T) {
	m, clk := newTestManager(t)
	require.True(t, m.Authenticate("a", "secret"))
	clk.Add(20 * time.Minute)
	require.True(t, m.Authenticate("b", "secret"))

	clk.Add(15 * time.Minute)
	assert.Equal(t, 1, m.Prune())
	assert.Equal(t, 1, m.Count())
	assert.True(t, m.IsAuthenticated("b"))
}

// TestManager_PruneLoop 测试后台清理循环
func TestManager_PruneLoop(t *testing.T) {
	clk := clock.NewMock()
	m, err := NewManager(Config{Key: "secret", SessionTimeout: time.Minute, PruneInterval: 10 * time.Second}, WithClock(clk))
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))

	require.True(t, m.Authenticate("a", "secret"))
	clk.Add(70 * time.Second)

	assert.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return !m.sessions["a"].authenticated
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Close())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, m.Wait(ctx))
}

// TestManager_Concurrent 测试并发访问
func TestManager_Concurrent(t *testing.T) {
	m, _ := newTestManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := types.ConnID(string(rune('a' + i)))
			m.Open(conn, "r")
			for j := 0; j < 100; j++ {
				m.Authenticate(conn, "secret")
				m.IsAuthenticated(conn)
				m.Count()
			}
			if i%2 == 0 {
				m.Forget(conn)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, m.Len())
}
