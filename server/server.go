// Package server exposes the orchestration core over a websocket streaming
// endpoint. Connected clients receive every broadcast event as it happens and
// can submit requests over the same connection. A client whose connection
// breaks is dropped from the bus automatically.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	supplymesh "github.com/hupe1980/supplymesh"
	"github.com/hupe1980/supplymesh/config"
	"github.com/hupe1980/supplymesh/core"
	"github.com/hupe1980/supplymesh/logging"
)

// Inbound message types.
const (
	msgUserRequest = "user_request"
	msgPing        = "ping"
)

// Outbound message types.
const (
	msgConnected = "connected"
	msgEvent     = "event"
	msgResponse  = "response"
	msgError     = "error"
	msgPong      = "pong"
)

// inbound is the client-to-server message envelope.
type inbound struct {
	Type      string         `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	Input     string         `json:"input,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
}

// outbound is the server-to-client message envelope.
type outbound struct {
	Type      string                 `json:"type"`
	RequestID string                 `json:"request_id,omitempty"`
	Event     *core.StreamingEvent   `json:"event,omitempty"`
	Response  *supplymesh.Response   `json:"response,omitempty"`
	Handlers  []core.HandlerSnapshot `json:"handlers,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Options configures a Server.
type Options struct {
	// Config carries timeouts and the listen address.
	Config config.ServerConfig

	// Logger receives connection lifecycle messages. Defaults to NoOp.
	Logger logging.Logger
}

// Server bridges websocket clients onto the orchestrator's broadcast bus.
type Server struct {
	orch     *supplymesh.Orchestrator
	cfg      config.ServerConfig
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// New constructs a websocket server over the given orchestrator.
func New(orch *supplymesh.Orchestrator, optFns ...func(o *Options)) *Server {
	opts := Options{
		Config: config.Default().Server,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		orch: orch,
		cfg:  opts.Config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser dashboards connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: opts.Logger,
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.serveConn(r.Context(), conn)
}

// ListenAndServe runs an HTTP server on the configured address until the
// context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	s.logger.Info("streaming server listening", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) {
	sink := &wsSink{conn: conn, timeout: s.cfg.WriteTimeout}
	subID := s.orch.Subscribe(sink)
	defer func() {
		s.orch.Unsubscribe(subID)
		conn.Close()
	}()
	s.logger.Info("client connected", "remote", conn.RemoteAddr().String(), "subscription_id", subID)

	// Greet with the current handler status surface.
	if err := sink.write(outbound{Type: msgConnected, Handlers: s.orch.Handlers()}); err != nil {
		return
	}

	for {
		if s.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Info("client disconnected", "subscription_id", subID, "error", err)
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = sink.write(outbound{Type: msgError, Error: "malformed message"})
			continue
		}

		switch msg.Type {
		case msgPing:
			_ = sink.write(outbound{Type: msgPong})
		case msgUserRequest:
			s.handleRequest(ctx, sink, msg)
		default:
			_ = sink.write(outbound{Type: msgError, RequestID: msg.RequestID, Error: "unknown message type"})
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, sink *wsSink, msg inbound) {
	if msg.Input == "" {
		_ = sink.write(outbound{Type: msgError, RequestID: msg.RequestID, Error: "input must not be empty"})
		return
	}

	req := core.NewTaskRequest(msg.Input, func(o *core.TaskRequestOptions) {
		if msg.RequestID != "" {
			o.ID = msg.RequestID
		}
		o.Context = msg.Context
		o.UserScope = msg.UserID
	})

	resp, err := s.orch.Submit(ctx, req)
	if err != nil {
		_ = sink.write(outbound{Type: msgError, RequestID: req.ID, Error: err.Error()})
		return
	}
	_ = sink.write(outbound{Type: msgResponse, RequestID: req.ID, Response: resp})
}

// wsSink adapts one websocket connection to the bus.Sink interface.
// Gorilla connections allow a single concurrent writer, so every write is
// serialized through a mutex.
type wsSink struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

// Send implements bus.Sink. A write failure marks the subscriber dead.
func (s *wsSink) Send(event core.StreamingEvent) error {
	return s.write(outbound{Type: msgEvent, Event: &event})
}

func (s *wsSink) write(msg outbound) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.timeout))
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
