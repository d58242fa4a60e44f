package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hireportal/internal/authproxy"
	"github.com/hireportal/internal/backend"
	"github.com/hireportal/internal/config"
	"github.com/hireportal/internal/domain"
	"github.com/hireportal/internal/jobs"
	"github.com/hireportal/internal/ratelimit"
	"github.com/hireportal/internal/routes"
	"github.com/hireportal/internal/system"
	"github.com/hireportal/internal/token"
	"github.com/hireportal/internal/upload"
)

const (
	maxBodySize       = 10 << 20         // 10MB max non-multipart request body
	multipartOverhead = 1 << 20          // room for form fields and part headers
	readTimeout       = 30 * time.Second // 30s for reading request
	writeTimeout      = 90 * time.Second // backend timeout plus one refresh round trip
	idleTimeout       = 120 * time.Second
)

// Deps are the collaborators the server wires into its handlers
type Deps struct {
	Backend    *backend.Client
	Routes     *routes.Table
	Uploads    *upload.Store
	Companies  domain.CompanyService
	Drafts     domain.DraftService
	DraftStore string
	Limiter    *ratelimit.Limiter // nil disables rate limiting
	Collector  *system.Collector
	Scheduler  *jobs.Scheduler // optional, reported by the health endpoint
	Logger     *slog.Logger
}

// Server wraps the HTTP server
type Server struct {
	config     *config.Config
	engine     *gin.Engine
	logger     *slog.Logger
	backend    *backend.Client
	caller     *authproxy.Caller
	routes     *routes.Table
	uploads    *upload.Store
	companies  domain.CompanyService
	drafts     domain.DraftService
	draftStore string
	limiter    *ratelimit.Limiter
	collector  *system.Collector
	scheduler  *jobs.Scheduler
	cookies    token.CookieOptions
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := gin.New()

	// Middleware - order matters
	engine.Use(requestIDMiddleware())
	engine.Use(loggerMiddleware(logger))
	engine.Use(recoveryMiddleware(cfg, logger))
	engine.Use(securityHeadersMiddleware())
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsMW, err := corsMiddleware(cfg)
		if err != nil {
			return nil, err
		}
		engine.Use(corsMW)
	}
	engine.Use(cacheControlMiddleware())
	engine.Use(bodyLimitMiddleware(maxBodySize, deps.Uploads.MaxBytes()))

	engine.MaxMultipartMemory = deps.Uploads.MaxBytes() + multipartOverhead

	server := &Server{
		config:     cfg,
		engine:     engine,
		logger:     logger,
		backend:    deps.Backend,
		caller:     authproxy.NewCaller(deps.Backend, logger),
		routes:     deps.Routes,
		uploads:    deps.Uploads,
		companies:  deps.Companies,
		drafts:     deps.Drafts,
		draftStore: deps.DraftStore,
		limiter:    deps.Limiter,
		collector:  deps.Collector,
		scheduler:  deps.Scheduler,
		cookies: token.CookieOptions{
			Domain:     cfg.Cookie.Domain,
			Secure:     cfg.Cookie.Secure,
			AccessTTL:  cfg.Cookie.AccessTTL,
			RefreshTTL: cfg.Cookie.RefreshTTL,
		},
	}

	server.setupRoutes()

	return server, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// HTTPServer returns an http.Server for the configured address with timeouts
func (s *Server) HTTPServer() *http.Server {
	addr := s.config.ServerAddress
	if addr == "" {
		addr = ":3000"
	}

	return &http.Server{
		Addr:           addr,
		Handler:        s.engine,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}
}

// corsMiddleware allows the configured frontend origins with credentials
func corsMiddleware(cfg *config.Config) (gin.HandlerFunc, error) {
	for _, origin := range cfg.CORS.AllowedOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return nil, fmt.Errorf("invalid CORS origin %q: must start with http:// or https://", origin)
		}
	}

	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}), nil
}
