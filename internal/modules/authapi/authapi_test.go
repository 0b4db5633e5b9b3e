package authapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-hostrpc/internal/core/auth"
	"github.com/dep2p/go-hostrpc/internal/core/dispatch"
	"github.com/dep2p/go-hostrpc/internal/core/registry"
	"github.com/dep2p/go-hostrpc/internal/core/server"
	"github.com/dep2p/go-hostrpc/pkg/protocol"
	"github.com/dep2p/go-hostrpc/pkg/types"
)

func setup(t *testing.T, tls bool) (*dispatch.Dispatcher, *registry.Entry, *auth.Manager, types.ConnID) {
	t.Helper()
	cfg := auth.DefaultConfig()
	cfg.Key = "secret"
	mgr, err := auth.NewManager(cfg)
	require.NoError(t, err)

	id := types.NewConnID()
	mgr.Open(id, "10.0.0.1:5000")
	entry, err := registry.Compile(Factory(mgr)(server.ConnInfo{
		ID: id, RemoteAddr: "10.0.0.1:5000", TLS: tls, OpenedAt: time.Now(),
	}))
	require.NoError(t, err)
	return dispatch.New(dispatch.DefaultConfig(), registry.New()), entry, mgr, id
}

func call(d *dispatch.Dispatcher, e *registry.Entry, id, method string, args ...any) map[string]any {
	resp := d.Dispatch(context.Background(), protocol.NewRequest("auth", method, id, args...), dispatch.WithModule(e))
	data, _ := resp.Data.(map[string]any)
	return data
}

// TestSession_Authenticate 测试认证成功与失败
func TestSession_Authenticate(t *testing.T) {
	d, e, mgr, id := setup(t, false)

	got := call(d, e, "1a", "authenticate", "wrong")
	assert.Equal(t, map[string]any{"success": false, "message": "Authentication failed"}, got)
	assert.False(t, mgr.IsAuthenticated(id))

	got = call(d, e, "1b", "authenticate", "secret")
	assert.Equal(t, map[string]any{"success": true, "message": "Authentication successful"}, got)
	assert.True(t, mgr.IsAuthenticated(id))

	t.Log("✅ 认证测试通过")
}

// TestSession_GetInfoAndCheck 测试会话信息
func TestSession_GetInfoAndCheck(t *testing.T) {
	d, e, _, _ := setup(t, true)

	info := call(d, e, "01", "getInfo")
	assert.Equal(t, false, info["authenticated"])
	assert.Equal(t, "10.0.0.1:5000", info["remoteAddress"])
	assert.Equal(t, true, info["sslEnabled"])
	assert.Equal(t, true, info["authRequired"])

	assert.Equal(t, map[string]any{"authenticated": false, "message": "Not authenticated"}, call(d, e, "02", "check"))
	call(d, e, "03", "authenticate", "secret")
	assert.Equal(t, map[string]any{"authenticated": true, "message": "Authenticated"}, call(d, e, "04", "CHECK"))
}

// TestSession_Logout 测试注销
func TestSession_Logout(t *testing.T) {
	d, e, mgr, id := setup(t, false)

	assert.Equal(t, false, call(d, e, "01", "logout")["success"])
	call(d, e, "02", "authenticate", "secret")
	assert.Equal(t, map[string]any{"success": true, "message": "Logged out"}, call(d, e, "03", "logout"))
	assert.False(t, mgr.IsAuthenticated(id))
}

// TestSession_MethodNotFound 测试未知方法的建议
func TestSession_MethodNotFound(t *testing.T) {
	d, e, _, _ := setup(t, false)

	resp := d.Dispatch(context.Background(), protocol.NewRequest("auth", "login", "0f"), dispatch.WithModule(e))
	data, ok := resp.ErrorData()
	require.True(t, ok)
	assert.Equal(t, protocol.CodeMethodNotFound, data.Code)
	assert.Equal(t, []string{"authenticate", "check", "getInfo", "logout"}, data.Suggestions)
}
