package cache

// 淘汰原因
const (
	ReasonExpired     = "expired"
	ReasonDead        = "dead"
	ReasonInvalidated = "invalidated"
	ReasonCleared     = "cleared"
	ReasonSwept       = "swept"
)

// Observer 缓存事件观察者
//
// 由 internal/core/metrics 实现，family 为缓存家族名。
type Observer interface {
	CacheHit(family string)
	CacheMiss(family string)
	CacheEvicted(family, reason string, n int)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)                  {}
func (nopObserver) CacheMiss(string)                 {}
func (nopObserver) CacheEvicted(string, string, int) {}

// NopObserver 返回不做任何事的观察者
func NopObserver() Observer { return nopObserver{} }
