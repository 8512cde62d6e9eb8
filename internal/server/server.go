package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/usersvc/usersvc/common/apiutil"
	"github.com/usersvc/usersvc/internal/users"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	logger   *zap.Logger
	usersSvc users.UserService
}

// NewServer creates a new HTTP server around the users service
func NewServer(logger *zap.Logger, usersSvc users.UserService) *Server {
	server := &Server{
		logger:   logger,
		usersSvc: usersSvc,
	}

	// Create router
	apiutil.RegisterValidatorTagNames()
	router := gin.New()

	// Add middleware
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(otelgin.Middleware("usersvc"))
	router.Use(apiutil.RequestIDMiddleware())
	router.Use(apiutil.MetricsMiddleware())

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", apiutil.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	server.router = router
	server.registerRoutes()
	return server
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router returns the internal Gin engine for testing purposes
func (s *Server) Router() *gin.Engine {
	return s.router
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Metrics endpoint
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	s.router.GET("/health", s.healthCheck)

	// API documentation (ReDoc)
	s.router.GET("/docs/openapi.yaml", func(c *gin.Context) {
		c.File("docs/openapi.yaml")
	})
	s.router.GET("/docs", func(c *gin.Context) {
		html := `<!DOCTYPE html>
		<html>
		<head>
		  <title>API Docs</title>
		  <meta charset="utf-8" />
		  <meta name="viewport" content="width=device-width, initial-scale=1">
		  <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
		</head>
		<body>
		  <redoc spec-url='/docs/openapi.yaml'></redoc>
		</body>
		</html>`
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	})

	// User routes
	userRoutes := s.router.Group("/users")
	{
		userRoutes.POST("", s.handleCreateUser)
		userRoutes.GET("", s.handleListUsers)
		userRoutes.GET("/:id", s.handleGetUser)
		userRoutes.PUT("/:id", s.handleUpdateUser)
		userRoutes.DELETE("/:id", s.handleDeleteUser)
	}
}

// healthCheck handles the health check endpoint
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

// writeError maps service errors onto HTTP error responses
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		apiutil.WriteErrorResponse(c, http.StatusNotFound, "user_not_found", err.Error(), nil)
	case errors.Is(err, users.ErrEmailExists):
		apiutil.WriteErrorResponse(c, http.StatusBadRequest, "email_exists", err.Error(), nil)
	default:
		s.logger.Error("handler error", zap.Error(err))
		apiutil.WriteErrorResponse(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}
