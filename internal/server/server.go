// Package server exposes the analysis, research and chat operations over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xaenox/legal-assistant/internal/document"
	"github.com/xaenox/legal-assistant/internal/models"
	"github.com/xaenox/legal-assistant/internal/provider"
	"github.com/xaenox/legal-assistant/internal/storage"
)

// Assistant drives multi-step assistant runs.
type Assistant interface {
	GenerateResponse(ctx context.Context, message, userContext string, file models.FileRef) (string, error)
	ProcessDocument(ctx context.Context, text, occupation, age string, maxRetries int) models.AnalysisResult
}

// FileUploader stores a raw file with the assistant backend.
type FileUploader interface {
	UploadFile(ctx context.Context, name string, data []byte) (models.FileRef, error)
}

// RatingAnalyzer runs the function-calling rating analysis.
type RatingAnalyzer interface {
	Analyze(ctx context.Context, text, occupation, age string) (models.AnalysisResult, error)
}

// Workflow is the streaming workflow platform.
type Workflow interface {
	GenerateDocument(ctx context.Context, req models.DocumentRequest, onText func(string) error) error
	ResearchCaseLaw(ctx context.Context, q models.ResearchQuery, onResult func(models.ResearchResult) error) ([]models.ResearchResult, error)
	ReviewDocument(ctx context.Context, text, party string) (models.DocumentReview, error)
}

type Config struct {
	Port           int
	RequestTimeout time.Duration
	MaxUploadBytes int64
	// RateLimit is requests per second per client IP; zero disables it.
	RateLimit  float64
	JWTSecret  string
	StaticDir  string
	MaxRetries int
}

// Deps are the collaborators behind the routes. A nil collaborator makes
// its routes answer with a configuration error.
type Deps struct {
	Providers provider.Registry
	Assistant Assistant
	Uploader  FileUploader
	Analyzer  RatingAnalyzer
	Workflow  Workflow
	Jobs      storage.Storage
	// Extract defaults to document.Extract.
	Extract func(kind document.Kind, data []byte) (document.Text, error)
}

type Server struct {
	echo     *echo.Echo
	config   Config
	deps     Deps
	analysis document.Policy
	review   document.Policy
	logger   *zap.Logger
}

func New(config Config, deps Deps, logger *zap.Logger) *Server {
	if deps.Jobs == nil {
		deps.Jobs = storage.NewMemoryStorage()
	}
	if deps.Extract == nil {
		deps.Extract = document.Extract
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		config:   config,
		deps:     deps,
		analysis: document.AnalysisPolicy(config.MaxUploadBytes),
		review:   document.ReviewPolicy(config.MaxUploadBytes),
		logger:   logger,
	}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if subject, ok := c.Get(subjectKey).(string); ok && subject != "" {
				fields = append(fields, zap.String("subject", subject))
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("Request handled", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if config.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool { return c.Path() == "/health" },
			Store:   middleware.NewRateLimiterMemoryStore(rate.Limit(config.RateLimit)),
			DenyHandler: func(c echo.Context, _ string, _ error) error {
				return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "Too many requests"})
			},
		}))
	}
	if config.RequestTimeout > 0 {
		e.Use(requestTimeout(config.RequestTimeout))
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.health)

	api := s.echo.Group("/api")
	if s.config.JWTSecret != "" {
		api.Use(requireToken([]byte(s.config.JWTSecret)))
	}

	api.POST("/chat", s.chat)
	api.POST("/assistants/chat", s.assistantChat)
	api.POST("/assistants/upload", s.assistantUpload)
	api.POST("/chat/upload", s.chatUpload)
	api.POST("/process-document", s.processDocument)
	api.POST("/process-pdf", s.processDocument)
	api.POST("/case-law-research", s.caseLawResearch)
	api.POST("/generate-document", s.generateDocument)
	api.POST("/review-document", s.reviewDocument)
	api.POST("/system", s.persona(personaSystem))
	api.POST("/clone", s.persona(personaClone))
	api.GET("/jobs", s.listJobs)
	api.GET("/jobs/:id", s.getJob)

	if s.config.StaticDir != "" {
		s.echo.Static("/", s.config.StaticDir)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.Int("port", s.config.Port))
		if err := s.echo.Start(fmt.Sprintf(":%d", s.config.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func requestTimeout(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
