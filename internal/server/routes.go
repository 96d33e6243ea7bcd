package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes builds the router: health checks, the WebSocket endpoint, the
// built-in test page and Prometheus metrics.
func (s *Server) SetupRoutes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/healthz", HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.WebSocketHandler)
	router.HandleFunc("/test", TestPageHandler).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	return router
}
