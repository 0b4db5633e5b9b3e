package lookup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-hostrpc/internal/core/bridge"
	"github.com/dep2p/go-hostrpc/internal/core/cache"
	"github.com/dep2p/go-hostrpc/internal/core/eventbus"
	"github.com/dep2p/go-hostrpc/internal/testutil"
	"github.com/dep2p/go-hostrpc/pkg/capability"
	pkgif "github.com/dep2p/go-hostrpc/pkg/interfaces"
	"github.com/dep2p/go-hostrpc/pkg/types"
)

func startBridge(t *testing.T) *bridge.Bridge {
	t.Helper()
	b := bridge.New(bridge.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		_ = b.Close()
		<-done
	})
	return b
}

func newTestResolver(t *testing.T, opts ...Option) (*Resolver, *testutil.Directory, *bridge.Bridge) {
	t.Helper()
	dir := testutil.NewDirectory()
	b := startBridge(t)
	return New(DefaultConfig(), dir, b, opts...), dir, b
}

// ============================================================================
//                              主体解析
// ============================================================================

// TestResolver_SubjectByName 测试按名称解析并缓存
func TestResolver_SubjectByName(t *testing.T) {
	r, dir, _ := newTestResolver(t)
	alex := dir.AddSubject(testutil.NewSubject("Alex"))

	s, err := r.Subject(context.Background(), "alex")
	require.NoError(t, err)
	assert.Equal(t, alex.ID(), s.ID())
	assert.EqualValues(t, 1, dir.Queries())

	// 命中：不再查询目录，名称与唯一标识两个索引都可用
	_, err = r.Subject(context.Background(), "ALEX")
	require.NoError(t, err)
	_, err = r.Subject(context.Background(), alex.ID().String())
	require.NoError(t, err)
	assert.EqualValues(t, 1, dir.Queries())

	t.Log("✅ 按名称解析测试通过")
}

// TestResolver_SubjectByUUID 测试 UUID 字符串走唯一标识索引
func TestResolver_SubjectByUUID(t *testing.T) {
	r, dir, _ := newTestResolver(t)
	alex := dir.AddSubject(testutil.NewSubject("Alex"))

	s, err := r.Subject(context.Background(), alex.ID().String())
	require.NoError(t, err)
	assert.Equal(t, "Alex", s.Name())

	_, err = r.Subject(context.Background(), "Alex")
	require.NoError(t, err)
	assert.EqualValues(t, 1, dir.Queries(), "按唯一标识填充后名称索引也应命中")
}

// TestResolver_SubjectNotFound 测试主体不存在
func TestResolver_SubjectNotFound(t *testing.T) {
	r, _, _ := newTestResolver(t)

	_, err := r.Subject(context.Background(), "Bob")
	require.Error(t, err)
	assert.Equal(t, "Subject not found: Bob", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, capability.ErrInvalidInput), "查不到对象属于调用方错误")

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Subject", nf.Kind)
}

// TestResolver_EmptyIdentifier 测试空标识
func TestResolver_EmptyIdentifier(t *testing.T) {
	r, dir, _ := newTestResolver(t)

	_, err := r.Subject(context.Background(), "  ")
	assert.ErrorIs(t, err, capability.ErrInvalidInput)
	_, err = r.World(context.Background(), "")
	assert.ErrorIs(t, err, capability.ErrInvalidInput)
	assert.Zero(t, dir.Queries())
}

// TestResolver_StaleReference 测试失效引用视为未命中
func TestResolver_StaleReference(t *testing.T) {
	r, dir, _ := newTestResolver(t)
	alex := dir.AddSubject(testutil.NewSubject("Alex"))

	_, err := r.Subject(context.Background(), "Alex")
	require.NoError(t, err)

	// 主体下线后重新登录：旧引用失效，目录返回新对象
	dir.RemoveSubject(alex)
	again := dir.AddSubject(testutil.NewSubject("Alex"))

	s, err := r.Subject(context.Background(), "Alex")
	require.NoError(t, err)
	assert.Equal(t, again.ID(), s.ID())
	assert.EqualValues(t, 2, dir.Queries())
}

// TestResolver_TTLExpiry 测试条目过期后重新查询
func TestResolver_TTLExpiry(t *testing.T) {
	mock := clock.NewMock()
	r, dir, _ := newTestResolver(t, WithClock(mock))
	dir.AddSubject(testutil.NewSubject("Alex"))

	_, err := r.Subject(context.Background(), "Alex")
	require.NoError(t, err)

	mock.Add(DefaultConfig().SubjectTTL + time.Second)

	_, err = r.Subject(context.Background(), "Alex")
	require.NoError(t, err)
	assert.EqualValues(t, 2, dir.Queries())
}

// TestResolver_Forget 测试显式移除
func TestResolver_Forget(t *testing.T) {
	r, dir, _ := newTestResolver(t)
	alex := dir.AddSubject(testutil.NewSubject("Alex"))

	_, err := r.Subject(context.Background(), "Alex")
	require.NoError(t, err)
	assert.True(t, r.Forget("alex", alex.ID()))
	assert.Equal(t, 0, r.CacheSizes()[cache.FamilySubject])
}

// ============================================================================
//                              世界解析
// ============================================================================

// TestResolver_World 测试世界解析
func TestResolver_World(t *testing.T) {
	r, dir, _ := newTestResolver(t)
	nether := dir.AddWorld(testutil.NewWorld("nether"))

	w, err := r.World(context.Background(), "nether")
	require.NoError(t, err)
	assert.Equal(t, "nether", w.ID())

	_, err = r.World(context.Background(), "nether")
	require.NoError(t, err)
	assert.EqualValues(t, 1, dir.Queries())

	nether.Unload()
	_, err = r.World(context.Background(), "nether")
	require.Error(t, err)
	assert.Equal(t, "World not found: nether", err.Error())
}

// TestResolver_Worlds 测试列出世界并写入缓存
func TestResolver_Worlds(t *testing.T) {
	r, dir, _ := newTestResolver(t)
	dir.AddWorld(testutil.NewWorld("overworld"))
	dir.AddWorld(testutil.NewWorld("nether"))

	worlds, err := r.Worlds(context.Background())
	require.NoError(t, err)
	assert.Len(t, worlds, 2)
	assert.Equal(t, 2, r.CacheSizes()[cache.FamilyWorld])

	_, err = r.World(context.Background(), "overworld")
	require.NoError(t, err)
	assert.EqualValues(t, 1, dir.Queries())
}

// ============================================================================
//                              并发与宿主线程
// ============================================================================

// TestResolver_CoalescesConcurrentLoads 测试相同键的并发未命中只查询一次
func TestResolver_CoalescesConcurrentLoads(t *testing.T) {
	r, dir, _ := newTestResolver(t)
	dir.AddSubject(testutil.NewSubject("Alex"))

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	dir.OnQuery = func() {
		once.Do(func() { close(entered) })
		<-release
	}

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Subject(context.Background(), "Alex")
			errs <- err
		}()
	}

	<-entered
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, dir.Queries())

	t.Log("✅ 并发合并测试通过")
}

// TestResolver_OnHostBypassesCoalescing 测试宿主线程上直接查询
func TestResolver_OnHostBypassesCoalescing(t *testing.T) {
	r, dir, b := newTestResolver(t)
	dir.AddSubject(testutil.NewSubject("Alex"))

	v, err := b.Execute(context.Background(), func(ctx context.Context) (any, error) {
		s, err := r.Subject(ctx, "Alex")
		if err != nil {
			return nil, err
		}
		return s.Name(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Alex", v)
}

// TestResolver_CallerCancelled 测试调用方取消等待
func TestResolver_CallerCancelled(t *testing.T) {
	r, dir, _ := newTestResolver(t)
	dir.AddSubject(testutil.NewSubject("Alex"))

	release := make(chan struct{})
	dir.OnQuery = func() { <-release }
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := r.Subject(ctx, "Alex")
	assert.ErrorIs(t, err, bridge.ErrInterrupted)
}

// ============================================================================
//                              失效与 Fx
// ============================================================================

// TestResolver_InvalidatedByEvents 测试生命周期事件使缓存失效
func TestResolver_InvalidatedByEvents(t *testing.T) {
	r, dir, _ := newTestResolver(t)
	alex := dir.AddSubject(testutil.NewSubject("Alex"))
	dir.AddWorld(testutil.NewWorld("nether"))

	inv := cache.NewInvalidator(eventbus.NewBus(), cache.NewGroup(r.Members()...))

	_, err := r.Subject(context.Background(), "Alex")
	require.NoError(t, err)
	_, err = r.World(context.Background(), "nether")
	require.NoError(t, err)

	inv.Handle(types.EvtSubjectRemoved{Name: "Alex", ID: alex.ID()})
	inv.Handle(types.EvtWorldUnloaded{WorldID: "nether"})

	sizes := r.CacheSizes()
	assert.Equal(t, 0, sizes[cache.FamilySubject])
	assert.Equal(t, 0, sizes[cache.FamilyWorld])
}

// TestModule_ProvidesResolverAndMembers 测试 Fx 模块装配
func TestModule_ProvidesResolverAndMembers(t *testing.T) {
	dir := testutil.NewDirectory()
	dir.AddSubject(testutil.NewSubject("Alex"))

	var (
		resolver *Resolver
		group    *cache.Group
	)
	app := fxtest.New(t,
		eventbus.Module(),
		bridge.Module(),
		cache.Module(),
		Module(),
		fx.Provide(func() pkgif.Directory { return dir }),
		fx.Populate(&resolver, &group),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, resolver)
	assert.ElementsMatch(t, []string{cache.FamilySubject, cache.FamilyWorld}, group.Families())

	assert.Equal(t, 2, group.Len())

	_, err := resolver.Subject(context.Background(), "Alex")
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.CacheSizes()[cache.FamilySubject])
}
