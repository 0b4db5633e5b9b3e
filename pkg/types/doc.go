// Package types 定义 hostrpc 的公共数据结构
//
// 这是最底层包之一，不依赖任何其他 hostrpc 内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - ids.go     - ConnID
//   - events.go  - 宿主生命周期事件与连接事件
//
// # 与 pkg/protocol 的区别
//
// pkg/types 定义进程内数据结构，pkg/protocol 定义线上消息格式。
package types
