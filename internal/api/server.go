package api

import (
	"context"
	"net/http"

	"planrec/app"
	"planrec/domain/dataset"
	"planrec/internal"
	"planrec/ports"

	"github.com/gin-gonic/gin"
)

// Recommender is the engine surface the API needs
type Recommender interface {
	Recommend(ctx context.Context, userID string) (*app.Recommendation, error)
}

// BillingSummarizer is the billing surface the API needs
type BillingSummarizer interface {
	Summarize(ctx context.Context, userID string) (*app.BillingSummary, error)
}

// SnapshotReloader rebuilds and publishes the dataset snapshot
type SnapshotReloader interface {
	Reload(ctx context.Context) (*dataset.Snapshot, error)
}

// Server is the public HTTP query interface
type Server struct {
	router      *gin.Engine
	snapshots   ports.SnapshotReader
	recommender Recommender
	billing     BillingSummarizer
	logger      *internal.Logger
}

// NewServer wires routes and middleware on a fresh gin engine
func NewServer(snapshots ports.SnapshotReader, recommender Recommender, billing BillingSummarizer, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:      gin.New(),
		snapshots:   snapshots,
		recommender: recommender,
		billing:     billing,
		logger:      logger.With("API"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the http.Handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(RequestID())
	s.router.Use(AccessLog(s.logger))
}

func (s *Server) setupRoutes() {
	s.router.GET("/recommend/:userId", s.handleRecommendPlans)
	s.router.GET("/healthz", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/recommendations/:userId", s.handleRecommendation)
		v1.GET("/plans", s.handleListPlans)
		v1.GET("/users", s.handleListUsers)
		v1.GET("/users/:userId/billing", s.handleBillingSummary)
		v1.GET("/users/:userId/logs", s.handleSubscriptionLogs)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

// EnableEvents exposes the hub's dataset event stream at /api/v1/events
func (s *Server) EnableEvents(hub *EventHub) {
	s.router.GET("/api/v1/events", hub.HandleEvents)
}
