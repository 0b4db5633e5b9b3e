// Package hostrpc 把宿主应用的状态以 WebSocket RPC 的形式暴露给远程客户端
//
// 客户端通过单个 WebSocket 连接发送 REQUEST 信封，服务端按模块名与方法名
// 分发到已注册的能力模块，并回传带相同 requestId 的 RESPONSE 或 ERROR。
// 读取或修改宿主状态的操作经宿主线程桥执行且仅执行一次。
//
// # 快速开始
//
//	svc, err := hostrpc.Start(ctx,
//	    hostrpc.WithConfig(cfg),
//	    hostrpc.WithDirectory(myHost),
//	    hostrpc.WithModuleFactories(newWorldModule, newScoreModule),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Stop(context.Background())
//
// 能力模块实现 capability.Module，构造函数的参数由 Fx 注入，
// 可以依赖 *lookup.Resolver、pkgif.Executor 等内部组件。
//
// # 组件
//
//	┌──────────────────────────────────────────────────────────────┐
//	│  server     WebSocket 升级、读循环、认证检查、健康与指标端点  │
//	├──────────────────────────────────────────────────────────────┤
//	│  codec      JSON ─[AES]─ Base64          auth  会话管理       │
//	│  dispatch   requestId 校验 → 去重 → 解析 → 参数转换 → 调用     │
//	│  registry   模块名 → 操作表                                    │
//	├──────────────────────────────────────────────────────────────┤
//	│  lookup     名称/UUID → 主体、标识 → 世界（TTL 缓存）          │
//	│  bridge     I/O goroutine → 宿主线程                           │
//	│  eventbus   宿主生命周期事件 → 缓存失效                        │
//	└──────────────────────────────────────────────────────────────┘
//
// # 宿主线程
//
// 默认由服务内部启动一个锁定 OS 线程的宿主循环。宿主应用自带主循环时
// 设置 bridge.external_loop，并在每个 tick 调用 Service.Drain。
//
// # 缓存失效
//
// 宿主通过 Service.EventBus 发出 types.EvtSubjectRemoved、
// types.EvtSubjectChanged、types.EvtWorldUnloaded，相关缓存项随之移除。
// 服务启动与停止时清空所有缓存。
package hostrpc
