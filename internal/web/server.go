package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"tradelens/internal/provider"
	"tradelens/internal/recorder"
	"tradelens/internal/service"
)

// Deps are the collaborators the HTTP API serves
type Deps struct {
	Analyst   *service.Analyst
	Providers []string // data sources reported by /healthz
	Cache     *provider.CachingProvider
	Redis     *provider.RedisCache
	Recorder  recorder.Recorder
	Gatherer  prometheus.Gatherer
	JWTSecret string // empty disables bearer auth
	Logger    zerolog.Logger
}

// Server represents the API server
type Server struct {
	analyst   *service.Analyst
	providers []string
	cache     *provider.CachingProvider
	redis     *provider.RedisCache
	recorder  recorder.Recorder
	gatherer  prometheus.Gatherer
	jwtSecret string
	logger    zerolog.Logger
	now       func() time.Time

	srv *http.Server
}

// NewServer creates a new API server
func NewServer(d Deps) *Server {
	rec := d.Recorder
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		analyst:   d.Analyst,
		providers: d.Providers,
		cache:     d.Cache,
		redis:     d.Redis,
		recorder:  rec,
		gatherer:  gatherer,
		jwtSecret: d.JWTSecret,
		logger:    d.Logger.With().Str("component", "web").Logger(),
		now:       time.Now,
	}
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.logger))

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	if s.jwtSecret != "" {
		api.Use(authRequired(s.jwtSecret))
	}
	{
		stocks := api.Group("/stocks/:symbol")
		stocks.GET("/analysis", s.handleAnalysis)
		stocks.GET("/quote", s.handleQuote)
		stocks.GET("/relative-strength", s.handleRelativeStrength)
		stocks.GET("/volume-profile", s.handleVolumeProfile)
		stocks.GET("/patterns", s.handlePatterns)
		stocks.GET("/stops", s.handleStops)
		stocks.GET("/comprehensive", s.handleComprehensive)
		stocks.GET("/history", s.handleHistory)

		crypto := api.Group("/crypto/:symbol")
		crypto.GET("/analysis", s.handleCryptoAnalysis)
		crypto.GET("/quote", s.handleCryptoQuote)

		api.POST("/position-size", s.handlePositionSize)
		api.GET("/cache", s.handleCacheStatus)
		api.DELETE("/cache", s.handleCacheClear)
		api.GET("/journal", s.handleJournal)
	}
	return r
}

// Start listens on addr until Shutdown
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Bool("auth", s.jwtSecret != "").Msg("starting API server")

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind string) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindProvider:
		return http.StatusBadGateway
	case service.KindCanceled:
		return http.StatusGatewayTimeout
	case "invalid_parameter", "insufficient_data", "empty_series", "missing_column", "computation":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind := service.ErrorKind(err)
	c.JSON(statusFor(kind), gin.H{"error": err.Error(), "kind": kind})
}
