// Package interfaces 定义 hostrpc 的公共接口
//
// 接口按职责组织（一个接口文件 = 一个实现目录或一个外部协作者）：
//
//   - host.go      - 宿主应用目录（Directory/Subject/World），由嵌入方实现
//   - executor.go  - 宿主线程执行器，由 internal/core/bridge 实现
//   - eventbus.go  - 事件总线，由 internal/core/eventbus 实现
//
// 宿主对象的所有权始终属于宿主应用，本库只持有查找得到的引用，
// 并通过 Valid() 判断引用是否仍然有效。
package interfaces
