package server

import (
	"fmt"
	"strings"
	"sync"

	"mobility-observer/src/logger"
	"mobility-observer/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	engine *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MResultSet // Strongly typed and Buffered Queue
	register   chan *Client
	unregister chan *Client

	// Local cache
	latestState *models.MResultSet
	stateMutex  sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, logger *logger.Logger) *APIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:  cfg,
		Logger:  logger,
		engine:  gin.Default(),
		clients: make(map[*Client]struct{}),
		// Buffered channel to prevent lock/blocking
		broadcast:  make(chan *models.MResultSet, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		latestState: &models.MResultSet{
			Type:         "INITIAL",
			Devices:      make(map[string]models.MDeviceMetrics),
			DeviceDays:   make(map[string]map[string]models.MDayMetrics),
			Anchors:      make(map[string]models.MAnchorList),
			Trajectories: make(map[string]map[string]models.MTrajectory),
		},
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/devices", s.getDevices)
	s.engine.GET("/api/devices/:id/days", s.getDeviceDays)
	s.engine.GET("/api/devices/:id/anchors", s.getDeviceAnchors)
	s.engine.GET("/api/devices/:id/trajectories", s.getDeviceTrajectories)
	s.engine.GET("/api/metrics", s.getMetrics)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/health", s.getHealth)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop() error {
	// Clean shutdown
	close(s.broadcast)
	close(s.register)
	close(s.unregister)
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getDevices(c *gin.Context) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	c.JSON(200, s.latestState.Devices)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getDeviceDays(c *gin.Context) {
	deviceID := c.Param("id")

	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	days, ok := s.latestState.DeviceDays[deviceID]
	if !ok {
		c.JSON(404, gin.H{"error": fmt.Sprintf("unknown device %s", deviceID)})
		return
	}
	c.JSON(200, days)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getDeviceAnchors(c *gin.Context) {
	deviceID := c.Param("id")

	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	anchors, ok := s.latestState.Anchors[deviceID]
	if !ok {
		c.JSON(404, gin.H{"error": fmt.Sprintf("unknown device %s", deviceID)})
		return
	}
	c.JSON(200, anchors)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getDeviceTrajectories(c *gin.Context) {
	deviceID := c.Param("id")

	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	trajectories, ok := s.latestState.Trajectories[deviceID]
	if !ok {
		c.JSON(404, gin.H{"error": fmt.Sprintf("unknown device %s", deviceID)})
		return
	}
	c.JSON(200, trajectories)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getMetrics(c *gin.Context) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	// Return processing_metrics
	c.JSON(200, s.latestState.ProcessingMetrics)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getConfig(c *gin.Context) {
	quantile := 0.5
	if q := s.Config.Estimator.Quantile; q != nil {
		quantile = *q
	}
	c.JSON(200, gin.H{
		"precision_meters": s.Config.Estimator.PrecisionMeters,
		"quantile":         quantile,
		"timestamp_rule":   s.Config.Ingest.TimestampRule,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	timestamp := s.latestState.Timestamp
	s.stateMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":        "ok",
		"connections":   connections,
		"latest_update": timestamp,
	})
}

// Hub methods live in hub.go to follow Single Responsibility Principle
