// Package lib 包含基础设施工具库
//
// 本目录包含与架构组件无关的通用工具库：
//
//   - log: 日志封装（slog + 按组件级别控制）
//
// # 与 pkg/ 其他目录的关系
//
//   - interfaces/: 组件公共接口
//   - types/: 公共类型定义
//   - protocol/: 线上消息格式
//   - capability/: 模块操作表契约
//   - client/: WebSocket 客户端
//   - lib/: 基础设施工具库（本目录）
package lib
