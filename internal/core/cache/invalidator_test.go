package cache

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-hostrpc/internal/core/eventbus"
	"github.com/dep2p/go-hostrpc/pkg/types"
)

// TestInvalidator_Handle 测试生命周期事件映射到缓存失效
func TestInvalidator_Handle(t *testing.T) {
	subjects := newSubjectCache(clock.New(), 500)
	worlds := New[string, string](Options[string]{Family: FamilyWorld, TTL: time.Minute})
	inv := NewInvalidator(eventbus.NewBus(), NewGroup(subjects, worlds))

	alex := &subject{name: "Alex", id: uuid.New()}
	subjects.Put(alex)
	worlds.Put("overworld", "W")
	worlds.Put("nether", "N")

	inv.Handle(types.EvtSubjectRemoved{Name: "alex"})
	_, ok := subjects.GetByID(alex.id)
	assert.False(t, ok, "按名称移除应同时移除唯一标识索引")

	subjects.Put(alex)
	inv.Handle(&types.EvtSubjectChanged{ID: alex.id, Reason: types.ChangeWorld})
	_, ok = subjects.GetByName("Alex")
	assert.False(t, ok)

	inv.Handle(types.EvtWorldUnloaded{WorldID: "nether"})
	_, ok = worlds.Get("nether")
	assert.False(t, ok)
	assert.Equal(t, 1, worlds.Len())

	subjects.Put(alex)
	inv.Handle(types.EvtHostReset{Phase: types.ResetStart})
	assert.Zero(t, worlds.Len())
	assert.Zero(t, subjects.Len())

	inv.Handle("unknown")
}

// TestInvalidator_Subscribe 测试经事件总线投递
func TestInvalidator_Subscribe(t *testing.T) {
	bus := eventbus.NewBus()
	worlds := New[string, string](Options[string]{Family: FamilyWorld, TTL: time.Minute})
	inv := NewInvalidator(bus, NewGroup(worlds))
	require.NoError(t, inv.Start(context.Background()))

	em, err := bus.Emitter(new(types.EvtHostReset))
	require.NoError(t, err)
	defer em.Close()

	worlds.Put("overworld", "W")
	require.NoError(t, em.Emit(types.EvtHostReset{Phase: types.ResetStop}))

	assert.Eventually(t, func() bool { return worlds.Len() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, inv.Stop())
	require.NoError(t, inv.Stop())
}
