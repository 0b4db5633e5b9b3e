package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dep2p/go-hostrpc/internal/core/dispatch"
	"github.com/dep2p/go-hostrpc/internal/core/registry"
	"github.com/dep2p/go-hostrpc/pkg/protocol"
	"github.com/dep2p/go-hostrpc/pkg/types"
)

// conn 单个 WebSocket 连接
type conn struct {
	s      *Server
	ws     *websocket.Conn
	id     types.ConnID
	remote string
	tls    bool
	opened time.Time

	// bound 连接绑定的 auth 模块
	bound *registry.Entry

	writeMu sync.Mutex

	closeOnce sync.Once
	// reason 由首个关闭路径设置
	reason atomic.Int32
}

func (s *Server) newConn(ws *websocket.Conn, r *http.Request) *conn {
	c := &conn{
		s:      s,
		ws:     ws,
		id:     types.NewConnID(),
		remote: r.RemoteAddr,
		tls:    r.TLS != nil,
		opened: time.Now(),
	}
	c.bound = s.sessionEntry(ConnInfo{ID: c.id, RemoteAddr: c.remote, TLS: c.tls, OpenedAt: c.opened})
	return c
}

// serve 运行读循环直到连接关闭
func (c *conn) serve(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	s := c.s
	s.auth.Open(c.id, c.remote)
	s.observer.ConnectionOpened()
	s.emit(s.opened, types.EvtConnectionOpened{
		BaseEvent:  types.BaseEvent{EventType: "connection.opened", Time: c.opened},
		ConnID:     c.id,
		RemoteAddr: c.remote,
	})
	logger.Info("新客户端连接", "conn", c.id.ShortString(), "remote", c.remote)

	defer func() {
		s.auth.Forget(c.id)
		s.traffic.Forget(c.id)
		c.shutdown(websocket.CloseNormalClosure, "")

		reason := types.DisconnectReason(c.reason.Load())
		lifetime := time.Since(c.opened)
		s.observer.ConnectionClosed(reason, lifetime)
		s.emit(s.closed, types.EvtConnectionClosed{
			BaseEvent:  types.BaseEvent{EventType: "connection.closed", Time: time.Now()},
			ConnID:     c.id,
			RemoteAddr: c.remote,
			Duration:   lifetime,
			Reason:     reason,
		})
		logger.Info("客户端断开", "conn", c.id.ShortString(), "remote", c.remote, "reason", reason, "lifetime", lifetime)
	}()

	c.ws.SetReadLimit(s.cfg.MaxFrameSize)
	c.touch()
	c.ws.SetPingHandler(func(data string) error {
		logger.Debug("收到 ping，回复 pong", "conn", c.id.ShortString())
		c.touch()
		err := c.control(websocket.PongMessage, []byte(data))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
	c.ws.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})
	c.ws.SetCloseHandler(func(code int, text string) error {
		logger.Debug("收到 close 帧", "conn", c.id.ShortString(), "code", code, "text", text)
		c.setReason(types.DisconnectReasonGraceful)
		s.auth.Forget(c.id)
		_ = c.control(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""))
		return nil
	})

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			c.setReason(c.classify(err))
			return
		}
		c.touch()
		s.traffic.LogRecvFrame(int64(len(data)), c.id)

		switch mt {
		case websocket.TextMessage:
			if !c.handleFrame(ctx, string(data)) {
				c.setReason(types.DisconnectReasonError)
				return
			}
		default:
			logger.Warn("不支持的帧类型", "conn", c.id.ShortString(), "type", mt)
		}
	}
}

// handleFrame 处理一个文本帧，返回 false 表示连接不可用
func (c *conn) handleFrame(ctx context.Context, frame string) bool {
	s := c.s

	req, err := s.codec.Decode(frame)
	if err != nil {
		logger.Warn("帧解码失败", "conn", c.id.ShortString(), "error", err)
		return c.send(protocol.NewError(protocol.FallbackRequestID, protocol.CodeProcessingError, err.Error(), nil))
	}
	logger.Debug("收到请求", "conn", c.id.ShortString(), "type", req.Type,
		"module", req.Module, "method", req.Method, "requestId", req.RequestID)

	if !s.limiter.Allow(c.remote) {
		s.observer.RateLimited()
		return c.send(protocol.NewError(req.RequestID, protocol.CodeRateLimited, protocol.MsgRateLimited, nil))
	}

	var opts []dispatch.CallOption
	if c.bound != nil {
		opts = append(opts, dispatch.WithModule(c.bound))
	}

	if !strings.EqualFold(req.Module, AuthModuleName) && !s.auth.IsAuthenticated(c.id) {
		logger.Warn("未认证的访问", "conn", c.id.ShortString(), "remote", c.remote,
			"module", req.Module, "method", req.Method)
		return c.send(protocol.NewError(req.RequestID, protocol.CodeNotAuthenticated, protocol.MsgNotAuthenticated, nil))
	}

	return c.send(s.dispatcher.Dispatch(ctx, req, opts...))
}

// send 编码并写出消息
//
// 编码失败时改为发送 PROCESSING_ERROR；返回 false 表示写失败。
func (c *conn) send(msg *protocol.Message) bool {
	frame, err := c.s.codec.Encode(msg)
	if err != nil {
		logger.Error("响应编码失败", "conn", c.id.ShortString(), "requestId", msg.RequestID, "error", err)
		id := msg.RequestID
		if id == "" {
			id = protocol.FallbackRequestID
		}
		frame, err = c.s.codec.Encode(protocol.NewError(id, protocol.CodeProcessingError, err.Error(), nil))
		if err != nil {
			return false
		}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.s.cfg.WriteTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.s.cfg.WriteTimeout))
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		logger.Debug("写帧失败", "conn", c.id.ShortString(), "error", err)
		return false
	}
	c.s.traffic.LogSentFrame(int64(len(frame)), c.id)
	return true
}

func (c *conn) control(mt int, data []byte) error {
	deadline := time.Now().Add(time.Second)
	if c.s.cfg.WriteTimeout > 0 {
		deadline = time.Now().Add(c.s.cfg.WriteTimeout)
	}
	return c.ws.WriteControl(mt, data, deadline)
}

// touch 延长空闲截止时间
func (c *conn) touch() {
	if c.s.cfg.IdleTimeout > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.s.cfg.IdleTimeout))
	}
}

func (c *conn) setReason(r types.DisconnectReason) {
	c.reason.CompareAndSwap(int32(types.DisconnectReasonUnknown), int32(r))
}

func (c *conn) classify(err error) types.DisconnectReason {
	if c.s.closing.Load() {
		return types.DisconnectReasonLocal
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return types.DisconnectReasonGraceful
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		logger.Info("空闲超时，强制关闭", "conn", c.id.ShortString(), "idle", c.s.cfg.IdleTimeout)
		return types.DisconnectReasonTimeout
	}
	return types.DisconnectReasonError
}

// shutdown 发送 close 帧并关闭底层连接，只执行一次
func (c *conn) shutdown(code int, text string) {
	c.closeOnce.Do(func() {
		if code == websocket.CloseGoingAway {
			c.setReason(types.DisconnectReasonLocal)
		}
		c.writeMu.Lock()
		_ = c.control(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
		c.writeMu.Unlock()
		_ = c.ws.Close()
	})
}
