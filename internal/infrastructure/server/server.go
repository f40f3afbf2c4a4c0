package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/guidebook/core/docs"
	httpHandlers "github.com/guidebook/core/internal/adapters/http"
	"github.com/guidebook/core/internal/adapters/storage"
	"github.com/guidebook/core/internal/application/services"
	"github.com/guidebook/core/internal/infrastructure/config"
	"github.com/guidebook/core/internal/infrastructure/logger"
	"github.com/guidebook/core/internal/infrastructure/metrics"
	"github.com/guidebook/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	repo    ports.GuideRepository
	storage ports.UploadStorage
	metrics *metrics.Metrics
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, repo ports.GuideRepository, uploads ports.UploadStorage, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	e.Validator = &CustomValidator{validator: validator.New()}

	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize services
	guideService := services.NewGuideService(repo, appLogger)
	uploadService := services.NewUploadService(guideService, uploads, cfg.Uploads, appLogger)
	authService := services.NewAuthService(cfg.Security)

	server := &Server{
		echo:    e,
		config:  cfg,
		logger:  appLogger,
		repo:    repo,
		storage: uploads,
	}
	if cfg.Metrics.Enabled {
		server.metrics = metrics.New()
	}

	// Initialize handlers
	guideHandler := httpHandlers.NewGuideHandler(guideService, appLogger)
	uploadHandler := httpHandlers.NewUploadHandler(uploadService, uploads, server.metrics, appLogger)

	server.setupMiddleware()
	server.setupRoutes(guideHandler, uploadHandler, authService)

	return server, nil
}

// Echo exposes the underlying echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			s.logger.LogHTTPRequest(
				values.Method,
				values.URI,
				values.RequestID,
				values.RemoteIP,
				values.Status,
				float64(values.Latency.Nanoseconds())/1000000,
				values.Error,
			)
			return nil
		},
	}))

	if s.metrics != nil {
		s.echo.Use(s.metrics.Middleware())
	}

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.POST, echo.OPTIONS},
	}))

	if s.config.Security.RateLimitRequests > 0 {
		window := s.config.Security.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(float64(s.config.Security.RateLimitRequests) / window.Seconds()),
					Burst:     s.config.Security.RateLimitRequests,
					ExpiresIn: window,
				},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return context.JSON(http.StatusForbidden, ports.ErrorResponse{Error: "rate limit exceeded"})
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return context.JSON(http.StatusTooManyRequests, ports.ErrorResponse{Error: "rate limit exceeded"})
			},
		}))
	}

	if s.config.Server.BodyLimit != "" {
		s.echo.Use(middleware.BodyLimit(s.config.Server.BodyLimit))
	}

	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: s.config.Server.RequestTimeout,
		}))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(guideHandler *httpHandlers.GuideHandler, uploadHandler *httpHandlers.UploadHandler, authService *services.AuthService) {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)
	s.echo.GET("/docs/*", echoSwagger.WrapHandler)

	if s.metrics != nil {
		s.echo.GET("/metrics", s.metrics.Handler())
	}

	editor := s.editorAuth(authService)

	api := s.echo.Group("/api")
	api.GET("/guides", guideHandler.ListGuides)
	api.GET("/guides/:id", guideHandler.GetGuide)
	api.POST("/guides", guideHandler.CreateGuide, editor)
	api.PUT("/guides/:id", guideHandler.UpdateGuide, editor)
	api.POST("/guides/:id/sections/:sectionId/move", guideHandler.MoveSection, editor)
	api.POST("/guides/:id/uploads", uploadHandler.UploadToGuide, editor)
	api.POST("/upload", uploadHandler.UploadImage, editor)

	prefix := s.config.Uploads.URLPrefix
	if disk, ok := s.storage.(*storage.DiskStorage); ok {
		s.echo.Static(prefix, disk.Dir())
	} else {
		s.echo.GET(prefix+"/*", uploadHandler.ServeUpload)
	}

	if s.config.Server.StaticDir != "" {
		s.echo.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:  s.config.Server.StaticDir,
			HTML5: true,
			Skipper: func(c echo.Context) bool {
				p := c.Request().URL.Path
				return strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, prefix+"/")
			},
		}))
	}
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) readinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		s.logger.Warnw("Readiness check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "store_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"storage": s.config.Storage.Driver,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler renders every error as {"error": message}
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  = http.StatusText(http.StatusInternalServerError)
		)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = fmt.Sprint(he.Message)
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if e, ok := err.(validator.ValidationErrors); ok {
			code = http.StatusBadRequest
			msg = e.Error()
		}

		if code >= http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, ports.ErrorResponse{Error: msg})
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
