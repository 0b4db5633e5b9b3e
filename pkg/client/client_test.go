package client

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-hostrpc/internal/core/auth"
	"github.com/dep2p/go-hostrpc/internal/core/codec"
	"github.com/dep2p/go-hostrpc/internal/core/dispatch"
	"github.com/dep2p/go-hostrpc/internal/core/registry"
	"github.com/dep2p/go-hostrpc/internal/core/server"
	"github.com/dep2p/go-hostrpc/internal/modules/authapi"
	"github.com/dep2p/go-hostrpc/pkg/capability"
	"github.com/dep2p/go-hostrpc/pkg/protocol"
)

const testKey = "secret"

func startServer(t *testing.T, cc codec.Config) (string, *server.Server) {
	t.Helper()
	reg := registry.New()
	_, err := reg.Register(capability.Func("echo",
		capability.Operation{
			Name:   "say",
			Params: []capability.Param{capability.String("text")},
			Handler: func(_ context.Context, a capability.Args) (any, error) {
				return a.String(0), nil
			},
		},
		capability.Operation{
			Name:   "slow",
			Params: []capability.Param{capability.Int("ms")},
			Handler: func(ctx context.Context, a capability.Args) (any, error) {
				select {
				case <-time.After(time.Duration(a.Int(0)) * time.Millisecond):
				case <-ctx.Done():
				}
				return a.Int(0), nil
			},
		},
	))
	require.NoError(t, err)

	mgr, err := auth.NewManager(auth.Config{Key: testKey, SessionTimeout: time.Minute})
	require.NoError(t, err)
	cd, err := codec.New(cc)
	require.NoError(t, err)

	cfg := server.DefaultConfig()
	cfg.ShutdownTimeout = 2 * time.Second
	s, err := server.New(cfg, dispatch.New(dispatch.DefaultConfig(), reg), mgr, cd,
		server.WithSessionModule(authapi.Factory(mgr)))
	require.NoError(t, err)

	hs := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		_ = s.Stop(context.Background())
		hs.Close()
	})
	return "ws" + strings.TrimPrefix(hs.URL, "http") + "/", s
}

// TestClient_InvokeAfterAuth 测试认证后调用
func TestClient_InvokeAfterAuth(t *testing.T) {
	url, _ := startServer(t, codec.DefaultConfig())
	ctx := context.Background()

	c, err := Dial(ctx, Config{URL: url, Key: testKey})
	require.NoError(t, err)
	defer c.Close()

	data, err := c.Invoke(ctx, "echo", "say", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", data)

	_, err = c.Invoke(ctx, "echo", "shout", "hello")
	require.Error(t, err)
	assert.True(t, IsCode(err, protocol.CodeMethodNotFound))
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{"say", "slow"}, re.Suggestions)
	assert.Contains(t, re.Error(), "did you mean: say, slow")

	t.Log("✅ 认证后调用测试通过")
}

// TestClient_Unauthenticated 测试未认证与错误密钥
func TestClient_Unauthenticated(t *testing.T) {
	url, _ := startServer(t, codec.DefaultConfig())
	ctx := context.Background()

	_, err := Dial(ctx, Config{URL: url, Key: "wrong"})
	assert.ErrorIs(t, err, ErrAuthFailed)

	c, err := Dial(ctx, Config{URL: url})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Invoke(ctx, "echo", "say", "hello")
	assert.True(t, IsCode(err, protocol.CodeNotAuthenticated), "err=%v", err)

	require.NoError(t, c.Authenticate(ctx, testKey))
	_, err = c.Invoke(ctx, "echo", "say", "hello")
	assert.NoError(t, err)

	t.Log("✅ 未认证测试通过")
}

// TestClient_Encrypted 测试加密层
func TestClient_Encrypted(t *testing.T) {
	for _, cipher := range []string{codec.CipherAESECB, codec.CipherAESGCM} {
		t.Run(cipher, func(t *testing.T) {
			url, _ := startServer(t, codec.Config{Encryption: true, Key: testKey, Cipher: cipher})
			ctx := context.Background()

			c, err := Dial(ctx, Config{URL: url, Key: testKey, Encryption: true, Cipher: cipher})
			require.NoError(t, err)
			defer c.Close()

			data, err := c.Invoke(ctx, "echo", "say", "sealed")
			require.NoError(t, err)
			assert.Equal(t, "sealed", data)
		})
	}
}

// TestClient_ConcurrentCalls 测试并发请求关联
func TestClient_ConcurrentCalls(t *testing.T) {
	url, _ := startServer(t, codec.DefaultConfig())
	ctx := context.Background()

	c, err := Dial(ctx, Config{URL: url, Key: testKey})
	require.NoError(t, err)
	defer c.Close()

	var g errgroup.Group
	for i := 0; i < 50; i++ {
		text := fmt.Sprintf("msg-%d", i)
		g.Go(func() error {
			data, err := c.Invoke(ctx, "echo", "say", text)
			if err != nil {
				return err
			}
			if data != text {
				return fmt.Errorf("got %v, want %s", data, text)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	t.Log("✅ 并发请求测试通过")
}

// TestClient_ContextCancel 测试调用方取消
func TestClient_ContextCancel(t *testing.T) {
	url, _ := startServer(t, codec.DefaultConfig())
	c, err := Dial(context.Background(), Config{URL: url, Key: testKey})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Invoke(ctx, "echo", "slow", 500)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestClient_ServerStop 测试服务端关闭后调用失败
func TestClient_ServerStop(t *testing.T) {
	url, s := startServer(t, codec.DefaultConfig())
	ctx := context.Background()

	c, err := Dial(ctx, Config{URL: url, Key: testKey})
	require.NoError(t, err)

	require.NoError(t, s.Stop(ctx))
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("连接未关闭")
	}

	_, err = c.Invoke(ctx, "echo", "say", "x")
	assert.ErrorIs(t, err, ErrClosed)
	_ = c.Close()
}

// TestClient_RequestIDs 测试 requestId 分配
func TestClient_RequestIDs(t *testing.T) {
	c := &Client{pending: make(map[string]chan *protocol.Message), next: maxRequestID - 1}

	id, _, err := c.register()
	require.NoError(t, err)
	assert.Equal(t, "ffff", id)

	id, _, err = c.register()
	require.NoError(t, err)
	assert.Equal(t, "1", id, "回绕后跳过 0")
	assert.True(t, protocol.ValidRequestID(id))

	c.next = 0
	c.pending["2"] = make(chan *protocol.Message, 1)
	c.unregister("1")
	id, _, err = c.register()
	require.NoError(t, err)
	assert.Equal(t, "1", id)
	id, _, err = c.register()
	require.NoError(t, err)
	assert.Equal(t, "3", id, "跳过占用中的 id")
}

// TestDial_Failure 测试握手失败
func TestDial_Failure(t *testing.T) {
	_, err := Dial(context.Background(), Config{URL: "ws://127.0.0.1:1/", DialTimeout: 200 * time.Millisecond})
	assert.ErrorIs(t, err, ErrDial)
}
