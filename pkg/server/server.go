// Package server exposes the engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soundprediction/cliodyn"
	"github.com/soundprediction/cliodyn/pkg/config"
	"github.com/soundprediction/cliodyn/pkg/server/handlers"
	"github.com/soundprediction/cliodyn/pkg/telemetry"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	router *gin.Engine
	engine cliodyn.Cliodyn
	server *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, engine cliodyn.Cliodyn) *Server {
	return &Server{
		config: cfg,
		engine: engine,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	// Set gin mode
	gin.SetMode(s.config.Server.Mode)

	// Create router
	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	// Create handlers
	healthHandler := handlers.NewHealthHandler(s.engine)
	chronologyHandler := handlers.NewChronologyHandler(s.engine)
	patternsHandler := handlers.NewPatternsHandler(s.engine)
	simulationHandler := handlers.NewSimulationHandler(s.engine)
	forecastHandler := handlers.NewForecastHandler(s.engine)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck) // Kubernetes liveness probe
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		chronology := v1.Group("/chronology")
		{
			chronology.POST("/events", chronologyHandler.CreateEvent)
			chronology.GET("/events", chronologyHandler.ListEvents)
			chronology.GET("/events/:id", chronologyHandler.GetEvent)
			chronology.GET("/events/:id/contemporaneous", chronologyHandler.Contemporaneous)
			chronology.GET("/range", chronologyHandler.EventsInRange)
			chronology.GET("/year/:year", chronologyHandler.EventsByYear)
			chronology.GET("/era/:era", chronologyHandler.EventsByEra)
			chronology.GET("/distance", chronologyHandler.TemporalDistance)
			chronology.GET("/summary", chronologyHandler.Summary)
		}

		patterns := v1.Group("/patterns")
		{
			patterns.POST("", patternsHandler.CreatePattern)
			patterns.GET("", patternsHandler.ListPatterns)
			patterns.POST("/seed", patternsHandler.Seed)
			patterns.POST("/link", patternsHandler.Link)
			patterns.GET("/detect/:eventID", patternsHandler.Detect)
			patterns.GET("/:id", patternsHandler.GetPattern)
			patterns.GET("/:id/instances", patternsHandler.Instances)
			patterns.GET("/:id/recurrence", patternsHandler.Recurrence)
		}

		simulation := v1.Group("/simulation")
		{
			simulation.POST("/indicators", simulationHandler.AddIndicator)
			simulation.GET("/indicators/assessment", simulationHandler.AssessIndicators)
			simulation.GET("/match/:patternID", simulationHandler.MatchPreconditions)
			simulation.GET("/trajectory/:patternID", simulationHandler.Trajectory)
			simulation.GET("/risk", simulationHandler.RiskScore)
			simulation.POST("/scenarios", simulationHandler.CreateScenario)
			simulation.GET("/scenarios", simulationHandler.ListScenarios)
			simulation.GET("/scenarios/:id", simulationHandler.GetScenario)
			simulation.POST("/analogs", simulationHandler.Analogs)
			simulation.POST("/suggest/:eventID", simulationHandler.SuggestAnnotations)
		}

		forecast := v1.Group("/forecast")
		{
			forecast.POST("/records", forecastHandler.CreateRecord)
			forecast.GET("/records", forecastHandler.ListRecords)
			forecast.POST("/records/:id/fulfillments", forecastHandler.AddFulfillment)
			forecast.GET("/records/:id/fulfillments", forecastHandler.ListFulfillments)
			forecast.GET("/rollup", forecastHandler.Rollup)
		}
	}
}

// Start starts the server
func (s *Server) Start() error {
	fmt.Printf("Starting server on %s\n", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println("Stopping server...")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextMiddleware stamps each request with telemetry identifiers.
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = context.WithValue(ctx, telemetry.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, telemetry.ContextKeyRoute, c.FullPath())

		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
