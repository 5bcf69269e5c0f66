package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"diet-planner/internal/catalog"
	"diet-planner/internal/session"
	"diet-planner/pkg/logger"
)

type Server struct {
	server *http.Server
	logger *logger.Logger
}

func NewServer(port string, tracker *session.Tracker, foods *catalog.Accessor, logger *logger.Logger) *Server {
	h := &handlers{tracker: tracker, foods: foods, logger: logger.With("component", "http")}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      h.router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		server: httpServer,
		logger: logger,
	}
}

func (h *handlers) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.GET("/health", h.health)

	api := r.Group("/api/v1")
	api.POST("/plans", h.createPlan)
	api.GET("/sessions/:id", h.sessionState)
	api.GET("/foods", h.listFoods)

	return r
}

func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}
