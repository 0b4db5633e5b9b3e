// Package cache 实现有界 TTL 缓存
//
// 用于避免每次调用都经宿主线程重新解析代价高昂的宿主对象
// （按名称查找的主体、按标识查找的世界）。
//
// # 所有权
//
// 缓存只是旁路查找表，从不拥有所引用的宿主对象：
// 宿主目录是唯一所有者。引用是否仍有效由 Alive 谓词判断，
// 失效或超过 TTL 的条目被视为未命中并移除。
//
// # 淘汰策略
//
//   - TTL：读取时检查，过期即移除（惰性淘汰，无后台定时器）
//   - 软容量：插入新键前若已达容量，先全量清扫过期条目；
//     清扫后仍满也照常插入，不做 LRU
//   - 显式失效：单键、整个家族、或经 Group 广播到所有已注册缓存
//
// # 组成
//
//   - Entry:     带创建时间与 TTL 的值
//   - TTLCache:  单索引缓存
//   - DualIndex: 名称 + 唯一标识双索引缓存，两个索引在每次写入时保持一致
//   - Group:     显式的失效目标列表，由组合根持有
//
// # 并发安全
//
// 所有类型均可并发使用，内部以互斥锁保护。
package cache
