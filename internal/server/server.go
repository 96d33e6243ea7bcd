package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Tyrowin/guildchat/internal/realtime"
)

// Server is the guildchat HTTP service: the hub plus the HTTP listener in
// front of it.
type Server struct {
	cfg      Config
	log      *zap.Logger
	metrics  *Metrics
	hub      *Hub
	upgrader websocket.Upgrader
	http     *http.Server
}

// New applies cfg and builds a server persisting through gateway. Call
// StartHub before serving.
func New(cfg Config, gateway realtime.Gateway, log *zap.Logger) *Server {
	cfg = SetConfig(&cfg)
	if log == nil {
		log = zap.NewNop()
	}

	metrics := NewMetrics()
	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		hub:     NewHub(gateway, cfg.Realtime, log, metrics),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(log.Named("origin")),
	}
	s.http = CreateServer(cfg.Server.Port, s.SetupRoutes())
	return s
}

// CreateServer creates and configures an HTTP server with the specified port and handler.
// It sets reasonable timeout values for production use.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Hub returns the connection hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// StartHub starts the hub loop in a separate goroutine. It must be called
// before the HTTP server accepts connections.
func (s *Server) StartHub() {
	go s.hub.Run()
	s.log.Info("Hub started and ready to manage WebSocket connections")
}

// ListenAndServe blocks serving HTTP until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info("Server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting HTTP requests, then closes every WebSocket
// connection and waits for the pumps, each bounded by the configured
// shutdown timeout.
func (s *Server) Shutdown() error {
	timeout := s.cfg.Server.ShutdownTimeout
	s.log.Info("Shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	httpErr := s.http.Shutdown(ctx)
	if httpErr != nil {
		s.log.Error("HTTP server shutdown error", zap.Error(httpErr))
	}

	hubErr := s.hub.Shutdown(timeout)
	return errors.Join(httpErr, hubErr)
}
