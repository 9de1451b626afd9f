package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/planetxonline/server/pkg/api/handlers"
	"github.com/planetxonline/server/pkg/api/middleware"
	"github.com/planetxonline/server/pkg/log"
	"github.com/planetxonline/server/pkg/notifier"
	"github.com/planetxonline/server/pkg/session"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port    int
	TLS     *TLSConfig
	Manager *session.Manager
	Hub     *notifier.Hub
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	r := mux.NewRouter()
	r.Use(middleware.CORS, middleware.RequestLogging)

	r.HandleFunc("/sessions", handlers.HandleCreateSession(opts.Manager)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/sessions/join", handlers.HandleJoinSession(opts.Manager)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/sessions/{sessionID}", handlers.HandleGetSession(opts.Manager)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/sessions/{sessionID}/game", handlers.HandleGetGame(opts.Manager)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/sessions/{sessionID}/start", handlers.HandleStartSession(opts.Manager)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/sessions/{sessionID}/moves", handlers.HandleSubmitMove(opts.Manager)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/sessions/{sessionID}/theories", handlers.HandleSubmitTheories(opts.Manager)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/sessions/{sessionID}/conference", handlers.HandleAcknowledgeConference(opts.Manager)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/sessions/{sessionID}/kick-votes", handlers.HandleCastKickVote(opts.Manager)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/sessions/{sessionID}/ws", handlers.HandleSubscribe(opts.Hub)).Methods(http.MethodGet)
	r.HandleFunc("/players/{playerID}/color", handlers.HandleSetPlayerColor(opts.Manager)).Methods(http.MethodPut, http.MethodOptions)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: r,
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
