// Package server exposes the nutrition engine over HTTP.
package server

import (
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/korjavin/nutritrack/pkg/engine"
	"github.com/korjavin/nutritrack/pkg/logger"
	"github.com/korjavin/nutritrack/pkg/meals"
)

// Server handles HTTP requests against the engine and the meal log
type Server struct {
	engine    *engine.Engine
	meals     *meals.Service
	staticDir string
	logger    *logger.Logger
}

// New creates a new HTTP server
func New(eng *engine.Engine, mealService *meals.Service, staticDir string) *Server {
	return &Server{
		engine:    eng,
		meals:     mealService,
		staticDir: staticDir,
		logger:    logger.New("server"),
	}
}

// Router builds the gin router with all routes registered
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	router.POST("/goal", s.handleSetGoal)
	router.POST("/meal", s.handleUploadMeal)
	router.DELETE("/meal/:idx", s.handleDeleteMeal)
	router.GET("/summary", s.handleSummary)
	router.GET("/foods/search", s.handleSearchFoods)
	router.GET("/recommend/snacks", s.handleRecommendSnacks)

	// Serve the frontend build when it exists; API routes take precedence
	if info, err := os.Stat(s.staticDir); err == nil && info.IsDir() {
		s.logger.Info("Serving static files from %s", s.staticDir)
		fileServer := http.FileServer(http.Dir(s.staticDir))
		router.NoRoute(gin.WrapH(fileServer))
	} else {
		s.logger.Warn("Static files directory %s not found, frontend will not be served", s.staticDir)
	}

	return router
}

// Run starts the HTTP server on the given address
func (s *Server) Run(addr string) error {
	s.logger.Info("HTTP server listening on %s", addr)
	return s.Router().Run(addr)
}
