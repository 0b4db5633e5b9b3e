package cache

import "time"

// Entry 缓存条目
type Entry[V any] struct {
	// Value 缓存的值（宿主对象引用）
	Value V

	// Created 创建时间，确认有效的命中可刷新
	Created time.Time

	// TTL 存活时间，<= 0 表示不过期
	TTL time.Duration
}

// NewEntry 创建缓存条目
func NewEntry[V any](value V, now time.Time, ttl time.Duration) *Entry[V] {
	return &Entry[V]{Value: value, Created: now, TTL: ttl}
}

// Age 返回条目年龄
func (e *Entry[V]) Age(now time.Time) time.Duration {
	return now.Sub(e.Created)
}

// Expired 判断条目是否已过期
func (e *Entry[V]) Expired(now time.Time) bool {
	return e.TTL > 0 && e.Age(now) > e.TTL
}

// Touch 刷新创建时间
func (e *Entry[V]) Touch(now time.Time) {
	e.Created = now
}
