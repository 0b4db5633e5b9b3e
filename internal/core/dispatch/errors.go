package dispatch

import "errors"

// errPanic 处理函数 panic
var errPanic = errors.New("handler panicked")
