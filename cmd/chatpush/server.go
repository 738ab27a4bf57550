package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"chatpush/internal/assistant"
	"chatpush/internal/clients"
	apperrors "chatpush/internal/errors"
	"chatpush/internal/metrics"
	"chatpush/internal/middleware"
	"chatpush/internal/models"
	"chatpush/internal/push"
	"chatpush/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// ServerDeps groups the components the HTTP layer dispatches to
type ServerDeps struct {
	Admin     service.AdminService
	Receivers map[string]*push.Receiver
	Hub       *clients.Hub
	Assistant *assistant.Client
	Metrics   *metrics.Metrics
}

type Server struct {
	router    *mux.Router
	logger    *logrus.Logger
	cfg       *models.Config
	admin     service.AdminService
	receivers map[string]*push.Receiver
	hub       *clients.Hub
	assistant *assistant.Client
	metrics   *metrics.Metrics
	server    *http.Server
	verbose   bool
}

func NewServer(cfg *models.Config, deps ServerDeps, logger *logrus.Logger) *Server {
	m := deps.Metrics
	if m == nil {
		m = metrics.Default()
	}

	s := &Server{
		router:    mux.NewRouter(),
		logger:    logger,
		cfg:       cfg,
		admin:     deps.Admin,
		receivers: deps.Receivers,
		hub:       deps.Hub,
		assistant: deps.Assistant,
		metrics:   m,
	}

	s.setupRoutes()
	return s
}

// WithVerbose marks request contexts for verbose logging
func (s *Server) WithVerbose(verbose bool) *Server {
	s.verbose = verbose
	return s
}

func (s *Server) setupRoutes() {
	observe := middleware.ObservabilityMiddleware(s.logger, s.metrics)
	detailed := middleware.DetailedLoggingMiddleware(s.logger, middleware.DefaultDetailedLoggingConfig())
	s.router.Use(observe)
	s.router.Use(detailed)

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	// Push events for the notification workers
	s.router.HandleFunc("/push/{profile}", s.handlePush()).Methods(http.MethodPost)

	// Admin functions answer every method; OPTIONS is the CORS preflight
	functions := s.router.PathPrefix("/functions/v1").Subrouter()
	functions.Use(middleware.CORS(middleware.DefaultAdminCORSConfig()))
	functions.HandleFunc("/delete-recent-messages", s.handleDeleteRecentMessages())
	functions.HandleFunc("/delete-messages", s.handleDeleteMessages())

	s.router.HandleFunc("/assistant/reply", s.handleAssistantReply()).Methods(http.MethodPost)

	if s.hub != nil {
		s.router.Handle("/ws", s.hub).Methods(http.MethodGet)
	}

	s.router.NotFoundHandler = observe(detailed(s.handleNotFound()))
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called
func (s *Server) Serve(ln net.Listener) error {
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeoutSec) * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithValue(context.Background(), service.VerboseContextKey, s.verbose)
		},
	}

	s.logger.Infof("Starting server on %s", ln.Addr())
	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler implementations
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	logger := s.logger.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		apperrors.LogError(logger, err, "Request failed")
	} else {
		logger.WithFields(apperrors.Fields(err)).Debug("Request rejected")
	}
	s.writeJSON(w, status, apperrors.ToHTTPResponse(err))
}
