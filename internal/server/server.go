package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"murphy/internal/session"
	"murphy/internal/store"
)

// #region server

// Server exposes the session state machine as a CORS-enabled JSON API.
// Each handler resolves a run by session id and delegates; all sequencing
// rules live in the session package, not here.
type Server struct {
	manager *session.Manager
	store   *store.Store // nil when persistence is disabled
	engine  *gin.Engine
	http    *http.Server
}

// New wires the routes. debug keeps gin's request logging; production mode
// drops it.
func New(manager *session.Manager, st *store.Store, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	if debug {
		engine.Use(gin.Logger())
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	engine.Use(cors.New(corsConfig))

	s := &Server{manager: manager, store: st, engine: engine}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")

	api.GET("/health", s.handleHealth)

	api.POST("/sessions", s.handleCreateSession)
	api.GET("/sessions/:id", s.handleGetSession)
	api.POST("/sessions/:id/reset", s.handleReset)
	api.POST("/sessions/:id/profile", s.handleProfile)
	api.POST("/sessions/:id/input", s.handleInput)
	api.GET("/sessions/:id/maze", s.handleMazeNode)
	api.POST("/sessions/:id/maze", s.handleMazeAnswer)
	api.POST("/sessions/:id/finalize", s.handleFinalize)
	api.POST("/sessions/:id/refine", s.handleRefine)
	api.POST("/sessions/:id/feedback", s.handleFeedback)
	api.GET("/sessions/:id/versions", s.handleVersions)
	api.POST("/sessions/:id/versions/current", s.handleSelectVersion)
	api.GET("/sessions/:id/followup", s.handleFollowup)
	api.POST("/sessions/:id/load", s.handleLoad)

	api.GET("/users", s.handleListUsers)
	api.GET("/users/:id/runs", s.handleListRuns)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	log.Printf("[SERVER] listening on %s", addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// #endregion server
