package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-hostrpc/pkg/capability"
)

func nop(context.Context, capability.Args) (any, error) { return nil, nil }

// WorldApiModule 名称由类型名推导
type WorldApiModule struct {
	ops []capability.Operation
}

func (m *WorldApiModule) Name() string                       { return "" }
func (m *WorldApiModule) Operations() []capability.Operation { return m.ops }

// TestCompile 测试编译操作表
func TestCompile(t *testing.T) {
	e, err := Compile(capability.Func("World",
		capability.Operation{Name: "getTime", Handler: nop},
		capability.Operation{Name: "list", Handler: nop},
	))
	require.NoError(t, err)

	assert.Equal(t, "world", e.Key())
	assert.Equal(t, "World", e.Name())
	assert.Equal(t, []string{"getTime", "list"}, e.OperationNames())
	assert.Equal(t, 2, e.Len())

	op, ok := e.Lookup("GETTIME")
	require.True(t, ok)
	assert.Equal(t, "getTime", op.Name)

	_, ok = e.Lookup("missing")
	assert.False(t, ok)
}

// TestCompile_Errors 测试非法操作表
func TestCompile_Errors(t *testing.T) {
	_, err := Compile(nil)
	assert.ErrorIs(t, err, ErrNilModule)

	_, err = Compile(capability.Func("m", capability.Operation{Name: " ", Handler: nop}))
	assert.ErrorIs(t, err, ErrEmptyOperationName)

	_, err = Compile(capability.Func("m", capability.Operation{Name: "a"}))
	assert.ErrorIs(t, err, ErrNilHandler)

	_, err = Compile(capability.Func("m",
		capability.Operation{Name: "get", Handler: nop},
		capability.Operation{Name: "GET", Handler: nop},
	))
	assert.ErrorIs(t, err, ErrDuplicateOperation)
}

// TestCompile_DerivedName 测试从类型名推导模块名
func TestCompile_DerivedName(t *testing.T) {
	e, err := Compile(&WorldApiModule{})
	require.NoError(t, err)
	assert.Equal(t, "worldapi", e.Key())
}

// TestRegistry_Resolve 测试解析
func TestRegistry_Resolve(t *testing.T) {
	r := New()
	_, err := r.Register(capability.Func("auth", capability.Operation{Name: "authenticate", Handler: nop}))
	require.NoError(t, err)
	_, err = r.Register(capability.Func("world", capability.Operation{Name: "list", Handler: nop}))
	require.NoError(t, err)

	e, op, err := r.Resolve("AUTH", "Authenticate")
	require.NoError(t, err)
	assert.Equal(t, "auth", e.Name())
	assert.Equal(t, "authenticate", op.Name)

	_, _, err = r.Resolve("foo", "bar")
	assert.ErrorIs(t, err, ErrModuleNotFound)

	e, _, err = r.Resolve("world", "nope")
	assert.ErrorIs(t, err, ErrMethodNotFound)
	require.NotNil(t, e, "方法不存在时仍返回模块索引，用于生成建议")
	assert.Equal(t, []string{"list"}, e.OperationNames())

	assert.Equal(t, []string{"auth", "world"}, r.Modules())
	assert.Equal(t, 2, r.Len())

	t.Log("✅ 注册表解析测试通过")
}

// TestRegistry_ReRegisterRebuilds 测试同名重新注册清空并重建索引
func TestRegistry_ReRegisterRebuilds(t *testing.T) {
	r := New()
	_, err := r.Register(capability.Func("world", capability.Operation{Name: "old", Handler: nop}))
	require.NoError(t, err)
	_, err = r.Register(capability.Func("World", capability.Operation{Name: "new", Handler: nop}))
	require.NoError(t, err)

	assert.Equal(t, 1, r.Len())
	_, _, err = r.Resolve("world", "old")
	assert.ErrorIs(t, err, ErrMethodNotFound)
	_, _, err = r.Resolve("world", "new")
	assert.NoError(t, err)
}

// TestRegistry_Rescan 测试显式重新扫描
func TestRegistry_Rescan(t *testing.T) {
	r := New()
	m := &WorldApiModule{ops: []capability.Operation{{Name: "a", Handler: nop}}}
	_, err := r.Register(m)
	require.NoError(t, err)

	// 注册后修改操作表不影响已有索引
	m.ops = append(m.ops, capability.Operation{Name: "b", Handler: nop})
	_, _, err = r.Resolve("worldapi", "b")
	require.ErrorIs(t, err, ErrMethodNotFound)

	e, err := r.Rescan("worldapi")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, e.OperationNames())

	_, err = r.Rescan("missing")
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

// TestRegistry_Unregister 测试注销
func TestRegistry_Unregister(t *testing.T) {
	r := New()
	_, err := r.Register(capability.Func("x", capability.Operation{Name: "y", Handler: nop}))
	require.NoError(t, err)

	assert.True(t, r.Unregister("X"))
	assert.False(t, r.Unregister("x"))
	assert.Empty(t, r.Modules())
}
