package protocol

// ============================================================================
//                              错误码
// ============================================================================

// 所有错误都以结构化 ERROR 消息返回，连接本身不可用时才断开。
const (
	// CodeInvalidRequestID requestId 不是 1-4 位十六进制
	CodeInvalidRequestID = "INVALID_REQUEST_ID"

	// CodeDuplicateRequest 相同 requestId 的请求仍在处理中
	CodeDuplicateRequest = "DUPLICATE_REQUEST"

	// CodeModuleNotFound 模块不存在（附带已知模块名）
	CodeModuleNotFound = "MODULE_NOT_FOUND"

	// CodeMethodNotFound 方法不存在（附带该模块的方法名）
	CodeMethodNotFound = "METHOD_NOT_FOUND"

	// CodeInvalidArguments 参数转换失败
	CodeInvalidArguments = "INVALID_ARGUMENTS"

	// CodeExecutionError 操作执行失败
	CodeExecutionError = "EXECUTION_ERROR"

	// CodeNotAuthenticated 连接未认证
	CodeNotAuthenticated = "NOT_AUTHENTICATED"

	// CodeProcessingError 帧级编解码失败
	CodeProcessingError = "PROCESSING_ERROR"

	// CodeRateLimited 超出请求速率限制
	CodeRateLimited = "RATE_LIMITED"
)

// 固定错误描述
const (
	MsgInvalidRequestID = "Request ID must be 1-4 character hex string"
	MsgDuplicateRequest = "Request with this ID is already processing"
	MsgNotAuthenticated = "Authentication required. Use auth.authenticate(key) first."
	MsgRateLimited      = "Too many requests, slow down"
)

// FallbackRequestID 无法解析出请求时使用的 requestId
const FallbackRequestID = "000"
