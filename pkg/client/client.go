// Package client 提供 hostrpc 的 Go 客户端
//
//	c, err := client.Dial(ctx, client.Config{URL: "ws://127.0.0.1:8765/", Key: "secret"})
//	if err != nil { ... }
//	defer c.Close()
//
//	data, err := c.Invoke(ctx, "world", "getTime", "overworld")
//
// 同一连接上的请求可并发发出；客户端分配 1-4 位十六进制 requestId
// 并据此关联响应。ERROR 响应以 *RemoteError 返回。
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"

	"github.com/dep2p/go-hostrpc/internal/core/codec"
	"github.com/dep2p/go-hostrpc/pkg/lib/log"
	"github.com/dep2p/go-hostrpc/pkg/protocol"
)

var logger = log.Logger("client")

// maxRequestID 4 位十六进制能表示的最大 requestId
const maxRequestID = 0xffff

// Config 客户端配置
type Config struct {
	// URL 服务端地址，例如 ws://127.0.0.1:8765/
	URL string

	// Key 共享密钥；非空时 Dial 成功后立即认证
	Key string

	// Encryption 是否启用加密层，必须与服务端一致
	Encryption bool

	// Cipher 加密算法，空表示 aes-ecb
	Cipher string

	// KeyDerivation 密钥派生方式，空表示 pad
	KeyDerivation string

	// Header 握手附加请求头（例如 Origin）
	Header http.Header

	// DialTimeout 握手超时
	DialTimeout time.Duration

	// EventBuffer EVENT 消息缓冲，满时丢弃
	EventBuffer int
}

// Client 单连接客户端，可并发使用
type Client struct {
	ws    *websocket.Conn
	codec *codec.Codec

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan *protocol.Message
	next    uint32
	err     error

	events chan *protocol.Message
	done   chan struct{}
	once   sync.Once
}

// Dial 建立连接，cfg.Key 非空时完成认证
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	cd, err := codec.New(codec.Config{
		Encryption:    cfg.Encryption,
		Key:           cfg.Key,
		Cipher:        cfg.Cipher,
		KeyDerivation: cfg.KeyDerivation,
	})
	if err != nil {
		return nil, err
	}

	dialer := *websocket.DefaultDialer
	dialer.EnableCompression = true
	if cfg.DialTimeout > 0 {
		dialer.HandshakeTimeout = cfg.DialTimeout
	}
	ws, resp, err := dialer.DialContext(ctx, cfg.URL, cfg.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDial, err)
	}

	buf := cfg.EventBuffer
	if buf <= 0 {
		buf = 16
	}
	c := &Client{
		ws:      ws,
		codec:   cd,
		pending: make(map[string]chan *protocol.Message),
		events:  make(chan *protocol.Message, buf),
		done:    make(chan struct{}),
	}
	go c.readLoop()

	if cfg.Key != "" {
		if err := c.Authenticate(ctx, cfg.Key); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

// Authenticate 调用 auth.authenticate
func (c *Client) Authenticate(ctx context.Context, key string) error {
	data, err := c.Invoke(ctx, "auth", "authenticate", key)
	if err != nil {
		return err
	}
	if m, ok := data.(map[string]any); ok && m["success"] == true {
		return nil
	}
	return ErrAuthFailed
}

// Invoke 发送请求并返回 RESPONSE 的 data
//
// ERROR 响应返回 *RemoteError。
func (c *Client) Invoke(ctx context.Context, module, method string, args ...any) (any, error) {
	resp, err := c.Call(ctx, module, method, args...)
	if err != nil {
		return nil, err
	}
	if resp.Type == protocol.TypeError {
		return nil, newRemoteError(resp)
	}
	return resp.Data, nil
}

// Call 发送请求并返回原始响应消息
func (c *Client) Call(ctx context.Context, module, method string, args ...any) (*protocol.Message, error) {
	id, ch, err := c.register()
	if err != nil {
		return nil, err
	}
	defer c.unregister(id)

	frame, err := c.codec.Encode(protocol.NewRequest(module, method, id, args...))
	if err != nil {
		return nil, err
	}
	if err := c.write(ctx, frame); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-c.done:
		return nil, c.closedErr()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Events 返回服务端 EVENT 消息
func (c *Client) Events() <-chan *protocol.Message {
	return c.events
}

// Done 连接关闭时关闭
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close 发送 close 帧并关闭连接
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		c.writeMu.Lock()
		err = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		if errors.Is(err, websocket.ErrCloseSent) {
			err = nil
		}
		err = multierr.Append(err, c.ws.Close())
	})
	<-c.done
	return err
}

// ============================================================================
//                              内部实现
// ============================================================================

// register 分配一个未被占用的 requestId
func (c *Client) register() (string, chan *protocol.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", nil, c.err
	}
	if len(c.pending) >= maxRequestID {
		return "", nil, ErrTooManyRequests
	}
	for {
		c.next = c.next%maxRequestID + 1
		id := strconv.FormatUint(uint64(c.next), 16)
		if _, busy := c.pending[id]; busy {
			continue
		}
		ch := make(chan *protocol.Message, 1)
		c.pending[id] = ch
		return id, ch, nil
	}
}

func (c *Client) unregister(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) write(ctx context.Context, frame string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}
		msg, err := c.codec.Decode(string(data))
		if err != nil {
			logger.Warn("响应解码失败", "error", err)
			continue
		}
		if msg.Type == protocol.TypeEvent {
			select {
			case c.events <- msg:
			default:
				logger.Debug("事件缓冲已满，丢弃", "module", msg.Module, "method", msg.Method)
			}
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[msg.RequestID]
		c.mu.Unlock()
		if !ok {
			logger.Debug("无法关联的响应", "requestId", msg.RequestID, "type", msg.Type)
			continue
		}
		ch <- msg
	}
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = fmt.Errorf("%w: %v", ErrClosed, err)
	}
	c.mu.Unlock()
}

func (c *Client) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return ErrClosed
}
