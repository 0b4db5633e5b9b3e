// Package metrics 提供监控指标收集
//
// 两部分组成：
//   - Collector：Prometheus 收集器，使用私有注册表，实现桥、分发器、
//     缓存与连接处理器的观察者接口
//   - TrafficCounter：帧流量计数（全局/按连接），带 60 秒滑动窗口速率
//
// # 快速开始
//
//	c := metrics.NewCollector()
//	b := bridge.New(cfg, bridge.WithObserver(c))
//	d := dispatch.New(dcfg, reg, dispatch.WithObserver(c))
//	http.Handle("/metrics", c.Handler())
//
//	tc := metrics.NewTrafficCounter(nil)
//	tc.LogRecvFrame(int64(len(frame)), connID)
//	stats := tc.ForConn(connID)
//
// # Fx 模块
//
//	app := fx.New(
//	    metrics.Module,
//	    fx.Invoke(func(r metrics.Reporter) {
//	        log.Printf("Stats: %+v", r.Totals())
//	    }),
//	)
//
// metrics.enabled 为 false 时 *Collector 为 nil，所有观察者方法为空操作，
// TrafficCounter 始终可用（system.stats 依赖它）。
//
// # 标签基数
//
// 模块名与方法名来自客户端输入，MODULE_NOT_FOUND 与 METHOD_NOT_FOUND
// 的请求统一记为 "_unknown"。
package metrics
