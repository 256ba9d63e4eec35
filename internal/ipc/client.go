package ipc

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"dragwatch/internal/health"
)

// Common errors
var (
	ErrNotConnected     = errors.New("not connected to daemon")
	ErrTimeout          = errors.New("request timeout")
	ErrDaemonNotRunning = errors.New("daemon is not running")
)

// DaemonError is the client-side view of a daemon error response.
type DaemonError struct {
	Code    int
	Message string
}

func (e *DaemonError) Error() string {
	return fmt.Sprintf("daemon error %d: %s", e.Code, e.Message)
}

// CtlClient is a synchronous client for the daemon control socket. One
// request is in flight at a time; events that arrive between responses
// are buffered and drained through Events.
type CtlClient struct {
	mu         sync.Mutex
	conn       net.Conn
	socketPath string
	timeout    time.Duration
	nextReqID  atomic.Uint32

	eventBuf []*Event
}

// ClientConfig configures the control client.
type ClientConfig struct {
	SocketPath     string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(socketPath string) ClientConfig {
	return ClientConfig{
		SocketPath:     socketPath,
		ConnectTimeout: 5 * time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

// NewClient creates an unconnected control client.
func NewClient(cfg ClientConfig) *CtlClient {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &CtlClient{
		socketPath: cfg.SocketPath,
		timeout:    timeout,
	}
}

// Connect establishes the connection to the daemon.
func (c *CtlClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, err := dialSocket(c.socketPath, 5*time.Second)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
	}
	c.conn = conn
	return nil
}

// Close tears down the connection.
func (c *CtlClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// request sends one message and waits for its correlated response.
// Pings are answered inline; events are buffered.
func (c *CtlClient) request(msgType MessageType, payload any) (*Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = Encode(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	reqID := c.nextReqID.Add(1)
	msg := NewMessage(msgType, reqID, body)

	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if err := msg.Write(c.conn); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	deadline := time.Now().Add(c.timeout)
	for {
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		c.conn.SetReadDeadline(deadline)

		resp, err := ReadMessage(c.conn)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil, ErrTimeout
			}
			return nil, fmt.Errorf("read response: %w", err)
		}

		switch resp.Header.Type {
		case MsgPing:
			pong := NewMessage(MsgPong, resp.Header.RequestID, nil)
			c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
			if err := pong.Write(c.conn); err != nil {
				return nil, fmt.Errorf("write pong: %w", err)
			}
			continue

		case MsgEvent:
			var ev Event
			if err := Decode(resp.Payload, &ev); err == nil {
				c.eventBuf = append(c.eventBuf, &ev)
			}
			continue
		}

		if resp.Header.RequestID != reqID {
			continue
		}

		if resp.Header.Type == MsgError {
			var er ErrorResponse
			if err := Decode(resp.Payload, &er); err != nil {
				return nil, fmt.Errorf("daemon error (undecodable)")
			}
			return nil, &DaemonError{Code: er.Code, Message: er.Message}
		}

		return resp, nil
	}
}

// Ping verifies the daemon is responsive.
func (c *CtlClient) Ping() error {
	resp, err := c.request(MsgPing, nil)
	if err != nil {
		return err
	}
	if resp.Header.Type != MsgPong {
		return fmt.Errorf("unexpected response type: %#04x", uint16(resp.Header.Type))
	}
	return nil
}

// Status fetches daemon status.
func (c *CtlClient) Status(includeSession bool) (*StatusResponse, error) {
	resp, err := c.request(MsgStatusRequest, &StatusRequest{IncludeSession: includeSession})
	if err != nil {
		return nil, err
	}
	var status StatusResponse
	if err := Decode(resp.Payload, &status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

// Health fetches the daemon health report.
func (c *CtlClient) Health(includeComponents bool) (*health.Response, error) {
	resp, err := c.request(MsgHealthRequest, &HealthRequest{IncludeComponents: includeComponents})
	if err != nil {
		return nil, err
	}
	var report health.Response
	if err := Decode(resp.Payload, &report); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	return &report, nil
}

// Metrics fetches the metrics registry contents.
func (c *CtlClient) Metrics() (*MetricsResponse, error) {
	resp, err := c.request(MsgMetricsRequest, nil)
	if err != nil {
		return nil, err
	}
	var metrics MetricsResponse
	if err := Decode(resp.Payload, &metrics); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	return &metrics, nil
}

// Dragging asks whether a drag session is active.
func (c *CtlClient) Dragging() (*DraggingResponse, error) {
	resp, err := c.request(MsgDraggingRequest, nil)
	if err != nil {
		return nil, err
	}
	var dragging DraggingResponse
	if err := Decode(resp.Payload, &dragging); err != nil {
		return nil, fmt.Errorf("decode dragging: %w", err)
	}
	return &dragging, nil
}

// CheckNow runs a synchronous clipboard probe on the daemon.
func (c *CtlClient) CheckNow() (*CheckNowResponse, error) {
	resp, err := c.request(MsgCheckNowRequest, nil)
	if err != nil {
		return nil, err
	}
	var result CheckNowResponse
	if err := Decode(resp.Payload, &result); err != nil {
		return nil, fmt.Errorf("decode check result: %w", err)
	}
	return &result, nil
}

// Activate signals possible drag intent to the daemon.
func (c *CtlClient) Activate() (*ActivateResponse, error) {
	resp, err := c.request(MsgActivateRequest, nil)
	if err != nil {
		return nil, err
	}
	var result ActivateResponse
	if err := Decode(resp.Payload, &result); err != nil {
		return nil, fmt.Errorf("decode activate response: %w", err)
	}
	return &result, nil
}

// Shutdown asks the daemon to exit.
func (c *CtlClient) Shutdown() error {
	_, err := c.request(MsgShutdown, nil)
	return err
}

// Subscribe registers for the given event types; empty means all.
func (c *CtlClient) Subscribe(events ...EventType) error {
	resp, err := c.request(MsgSubscribe, &SubscribeRequest{Events: events})
	if err != nil {
		return err
	}
	var sub SubscribeResponse
	if err := Decode(resp.Payload, &sub); err != nil {
		return fmt.Errorf("decode subscribe response: %w", err)
	}
	if !sub.Success {
		return fmt.Errorf("subscription rejected")
	}
	return nil
}

// NextEvent blocks until an event arrives or the timeout passes.
// Buffered events from earlier reads are returned first.
func (c *CtlClient) NextEvent(timeout time.Duration) (*Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.eventBuf) > 0 {
		ev := c.eventBuf[0]
		c.eventBuf = c.eventBuf[1:]
		return ev, nil
	}

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		c.conn.SetReadDeadline(deadline)

		msg, err := ReadMessage(c.conn)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil, ErrTimeout
			}
			return nil, err
		}

		switch msg.Header.Type {
		case MsgPing:
			pong := NewMessage(MsgPong, msg.Header.RequestID, nil)
			c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
			if err := pong.Write(c.conn); err != nil {
				return nil, err
			}

		case MsgEvent:
			var ev Event
			if err := Decode(msg.Payload, &ev); err != nil {
				return nil, fmt.Errorf("decode event: %w", err)
			}
			return &ev, nil
		}
	}
}
