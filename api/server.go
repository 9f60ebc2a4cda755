// Package api hosts the local ingest server: the camera/decoder
// collaborator POSTs decoded label reads here, and the operator's UI
// polls the ledger and diagnostics endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"

	"example.com/fieldops/api/handlers"
	"example.com/fieldops/api/middleware"
	"example.com/fieldops/api/routes"
	"example.com/fieldops/config"
	"example.com/fieldops/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Server represents the local ingest HTTP server
type Server struct {
	router     *gin.Engine
	config     *config.Config
	httpServer *http.Server
	log        *logrus.Logger
}

// NewServer creates a new ingest server
func NewServer(
	cfg *config.Config,
	log *logrus.Logger,
	sink handlers.ScanSink,
	sess session.Store,
	backend handlers.BackendInfo,
) *Server {
	gin.SetMode(cfg.Ingest.Mode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(log))

	routes.SetupRoutes(router, sink, sess, backend, log)

	return &Server{
		router: router,
		config: cfg,
		log:    log,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Ingest.Port),
			Handler: router,
		},
	}
}

// Start starts the ingest server
func (s *Server) Start() error {
	s.log.Infof("Starting scan ingest server on port %d", s.config.Ingest.Port)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the ingest server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
