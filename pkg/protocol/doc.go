// Package protocol 定义 hostrpc 线上消息格式
//
// 本包是请求/响应/事件信封 (Message) 的单一真相源。
// 所有组件应从此包引用消息类型、状态与错误码，而不是自行定义字符串。
//
// # 消息类型
//
//   - REQUEST: 客户端发起的调用，必须携带 module、method、requestId
//   - RESPONSE: 成功响应，data 为操作返回值，status 为 SUCCESS
//   - ERROR: 失败响应，data 为 ErrorData，status 为 ERROR
//   - EVENT: 服务端主动推送
//
// # 线上格式
//
//	{"type":"REQUEST","module":"auth","method":"authenticate","args":["secret"],"requestId":"1a","timestamp":1700000000000}
//
// 未设置的可选字段不会出现在线上格式中（不会序列化为 null）。
// timestamp 为毫秒级 Unix 时间，仅在构造时设置一次。
//
// # RequestID
//
// requestId 为 1-4 位十六进制字符串（不区分大小写），
// 用于关联请求与响应，见 ValidRequestID。
package protocol
