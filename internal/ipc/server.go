package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"dragwatch/internal/logging"
)

// Handler processes IPC messages.
type Handler interface {
	// HandleMessage processes a message and returns a response.
	HandleMessage(ctx context.Context, client *Client, msg *Message) (*Message, error)
}

// HandlerFunc is a function that implements Handler.
type HandlerFunc func(ctx context.Context, client *Client, msg *Message) (*Message, error)

func (f HandlerFunc) HandleMessage(ctx context.Context, client *Client, msg *Message) (*Message, error) {
	return f(ctx, client, msg)
}

// Server is the IPC server that manages client connections.
type Server struct {
	mu          sync.RWMutex
	listener    net.Listener
	socketPath  string
	handler     Handler
	log         *logging.Logger
	clients     map[string]*Client
	subscribers map[string]*subscription

	readTimeout    time.Duration
	writeTimeout   time.Duration
	maxConnections int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	nextRequestID atomic.Uint32

	eventChan chan *Event
}

// Client represents a connected client.
type Client struct {
	mu           sync.Mutex
	ID           string
	conn         net.Conn
	ConnectedAt  time.Time
	LastActivity time.Time

	// Write serialization
	writeMu sync.Mutex
}

// subscription tracks event subscriptions.
type subscription struct {
	clientID string
	events   map[EventType]bool
}

// ServerConfig configures the IPC server.
type ServerConfig struct {
	SocketPath     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxConnections int
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig(socketPath string) ServerConfig {
	return ServerConfig{
		SocketPath:     socketPath,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxConnections: 16,
	}
}

// NewServer creates a new IPC server.
func NewServer(cfg ServerConfig, handler Handler, log *logging.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 16
	}

	return &Server{
		socketPath:     cfg.SocketPath,
		handler:        handler,
		log:            log.WithComponent("ipc"),
		clients:        make(map[string]*Client),
		subscribers:    make(map[string]*subscription),
		readTimeout:    cfg.ReadTimeout,
		writeTimeout:   cfg.WriteTimeout,
		maxConnections: cfg.MaxConnections,
		ctx:            ctx,
		cancel:         cancel,
		eventChan:      make(chan *Event, 100),
	}
}

// Start begins listening for connections.
func (s *Server) Start() error {
	listener, err := listenSocket(s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}

	s.listener = listener
	s.running.Store(true)

	s.wg.Add(1)
	go s.eventBroadcaster()

	s.wg.Add(1)
	go s.acceptLoop()

	s.log.Info("ipc server listening", "socket", s.socketPath)
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	// Last event out before the channel closes; the broadcaster drains
	// what remains.
	select {
	case s.eventChan <- &Event{Type: EventDaemonShutdown, Timestamp: time.Now()}:
	default:
	}

	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for _, client := range s.clients {
		client.conn.Close()
	}
	s.mu.Unlock()

	close(s.eventChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn("ipc shutdown timed out waiting for connections")
	}

	if err := CleanupSocket(s.socketPath); err != nil {
		s.log.Warn("remove socket", "error", err)
	}

	s.log.Info("ipc server stopped")
	return nil
}

// SocketPath returns the socket path.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends an event to all subscribed clients. Drops the event
// when the channel is full rather than blocking the caller.
func (s *Server) Broadcast(event *Event) {
	if !s.running.Load() {
		return
	}
	select {
	case s.eventChan <- event:
	default:
	}
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.log.Warn("accept failed", "error", err)
				continue
			}
		}

		if ok, err := VerifyPeerIsCurrentUser(conn); err != nil || !ok {
			s.log.Warn("rejecting connection from foreign peer", "error", err)
			conn.Close()
			continue
		}

		s.mu.RLock()
		count := len(s.clients)
		s.mu.RUnlock()

		if count >= s.maxConnections {
			s.log.Warn("connection limit reached", "max", s.maxConnections)
			conn.Close()
			continue
		}

		client := &Client{
			ID:           generateClientID(),
			conn:         conn,
			ConnectedAt:  time.Now(),
			LastActivity: time.Now(),
		}

		s.mu.Lock()
		s.clients[client.ID] = client
		s.mu.Unlock()

		s.log.Debug("client connected", "client", client.ID)

		s.wg.Add(1)
		go s.handleConnection(client)
	}
}

func (s *Server) handleConnection(client *Client) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.clients, client.ID)
		delete(s.subscribers, client.ID)
		s.mu.Unlock()
		client.conn.Close()
		s.log.Debug("client disconnected", "client", client.ID)
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		client.conn.SetReadDeadline(time.Now().Add(s.readTimeout))

		msg, err := ReadMessage(client.conn)
		if err != nil {
			if err == io.EOF || errors.Is(err, net.ErrClosed) {
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				// Idle client; ping to keep the connection alive.
				if err := s.sendPing(client); err != nil {
					return
				}
				continue
			}
			s.log.Debug("read failed", "client", client.ID, "error", err)
			return
		}

		client.mu.Lock()
		client.LastActivity = time.Now()
		client.mu.Unlock()

		response, err := s.processMessage(client, msg)
		if err != nil {
			response = NewErrorMessage(msg.Header.RequestID, ErrInternalError, err.Error())
		}

		if response != nil {
			if err := s.sendMessage(client, response); err != nil {
				return
			}
		}
	}
}

func (s *Server) processMessage(client *Client, msg *Message) (*Message, error) {
	switch msg.Header.Type {
	case MsgPing:
		return NewMessage(MsgPong, msg.Header.RequestID, nil), nil

	case MsgPong:
		// Reply to our keepalive; nothing to send back.
		return nil, nil

	case MsgSubscribe:
		return s.handleSubscribe(client, msg)

	case MsgUnsubscribe:
		s.mu.Lock()
		delete(s.subscribers, client.ID)
		s.mu.Unlock()
		return NewMessage(MsgUnsubscribeResp, msg.Header.RequestID, nil), nil

	default:
		if s.handler != nil {
			return s.handler.HandleMessage(s.ctx, client, msg)
		}
		return NewErrorMessage(msg.Header.RequestID, ErrInvalidRequest, "no handler"), nil
	}
}

func (s *Server) handleSubscribe(client *Client, msg *Message) (*Message, error) {
	var req SubscribeRequest
	if err := Decode(msg.Payload, &req); err != nil {
		return NewErrorMessage(msg.Header.RequestID, ErrInvalidRequest, "invalid subscribe request"), nil
	}

	sub := &subscription{
		clientID: client.ID,
		events:   make(map[EventType]bool),
	}
	if len(req.Events) == 0 {
		for _, et := range []EventType{
			EventDragStart, EventDragEnd, EventFilesDetected,
			EventShakeDetected, EventConfigChanged, EventDaemonShutdown,
		} {
			sub.events[et] = true
		}
	} else {
		for _, et := range req.Events {
			sub.events[et] = true
		}
	}

	s.mu.Lock()
	s.subscribers[client.ID] = sub
	s.mu.Unlock()

	return NewResponse(MsgSubscribeResp, msg.Header.RequestID, &SubscribeResponse{
		Success:        true,
		SubscriptionID: client.ID,
	})
}

func (s *Server) eventBroadcaster() {
	defer s.wg.Done()

	for event := range s.eventChan {
		s.mu.RLock()
		targets := make([]*Client, 0, len(s.subscribers))
		for clientID, sub := range s.subscribers {
			if sub.events[event.Type] {
				if client, ok := s.clients[clientID]; ok {
					targets = append(targets, client)
				}
			}
		}
		s.mu.RUnlock()

		for _, client := range targets {
			go s.sendEvent(client, event)
		}
	}
}

func (s *Server) sendEvent(client *Client, event *Event) {
	payload, err := Encode(event)
	if err != nil {
		return
	}
	msg := NewMessage(MsgEvent, s.nextRequestID.Add(1), payload)
	s.sendMessage(client, msg)
}

func (s *Server) sendMessage(client *Client, msg *Message) error {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	client.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return msg.Write(client.conn)
}

func (s *Server) sendPing(client *Client) error {
	msg := NewMessage(MsgPing, s.nextRequestID.Add(1), nil)
	return s.sendMessage(client, msg)
}

func generateClientID() string {
	return fmt.Sprintf("client-%d-%d", time.Now().UnixNano(), os.Getpid())
}
