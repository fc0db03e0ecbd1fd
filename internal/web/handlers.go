package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tradelens/internal/analyzer"
	"tradelens/internal/provider"
	"tradelens/internal/scheduler"
	"tradelens/internal/service"
)

// HealthResponse reports liveness, market session and data sources
type HealthResponse struct {
	Status    string                 `json:"status"`
	Market    scheduler.MarketStatus `json:"market"`
	Providers []string               `json:"providers"`
}

// CacheResponse lists the in-memory candle cache
type CacheResponse struct {
	TTL     string                    `json:"ttl"`
	Entries []provider.CacheEntryInfo `json:"entries"`
	Redis   bool                      `json:"redis"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Market:    scheduler.GetMarketStatus(scheduler.DefaultMarketSchedule(), s.now()),
		Providers: s.providers,
	})
}

// respond writes v as JSON or the mapped error
func respond(c *gin.Context, v any, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// intQuery parses an optional positive integer query parameter; absent is 0
func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, analyzer.NewError("parse_query", analyzer.ErrInvalidParameter, "%s must be a non-negative integer, got %q", name, raw)
	}
	return n, nil
}

func (s *Server) handleAnalysis(c *gin.Context) {
	lookback, err := intQuery(c, "lookback")
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := s.analyst.AnalyzeStock(c.Request.Context(), c.Param("symbol"), lookback)
	respond(c, res, err)
}

func (s *Server) handleQuote(c *gin.Context) {
	res, err := s.analyst.Quote(c.Request.Context(), c.Param("symbol"))
	respond(c, res, err)
}

func (s *Server) handleRelativeStrength(c *gin.Context) {
	res, err := s.analyst.RelativeStrength(c.Request.Context(), c.Param("symbol"), c.Query("benchmark"))
	respond(c, res, err)
}

func (s *Server) handleVolumeProfile(c *gin.Context) {
	lookback, err := intQuery(c, "lookback")
	if err != nil {
		writeError(c, err)
		return
	}
	bins, err := intQuery(c, "bins")
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := s.analyst.VolumeProfile(c.Request.Context(), c.Param("symbol"), lookback, bins)
	respond(c, res, err)
}

func (s *Server) handlePatterns(c *gin.Context) {
	lookback, err := intQuery(c, "lookback")
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := s.analyst.DetectPatterns(c.Request.Context(), c.Param("symbol"), lookback)
	respond(c, res, err)
}

func (s *Server) handleStops(c *gin.Context) {
	lookback, err := intQuery(c, "lookback")
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := s.analyst.SuggestStops(c.Request.Context(), c.Param("symbol"), lookback)
	respond(c, res, err)
}

func (s *Server) handleComprehensive(c *gin.Context) {
	res, err := s.analyst.Comprehensive(c.Request.Context(), c.Param("symbol"))
	respond(c, res, err)
}

func (s *Server) handleHistory(c *gin.Context) {
	days, err := intQuery(c, "days")
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := s.analyst.History(c.Request.Context(), c.Param("symbol"), days)
	respond(c, res, err)
}

func (s *Server) handleCryptoAnalysis(c *gin.Context) {
	lookback, err := intQuery(c, "lookback")
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := s.analyst.AnalyzeCrypto(c.Request.Context(), c.Param("symbol"), c.Query("provider"), c.Query("quote"), lookback)
	respond(c, res, err)
}

func (s *Server) handleCryptoQuote(c *gin.Context) {
	res, err := s.analyst.CryptoQuote(c.Request.Context(), c.Param("symbol"), c.Query("provider"), c.Query("quote"))
	respond(c, res, err)
}

func (s *Server) handlePositionSize(c *gin.Context) {
	var req service.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	res, err := s.analyst.PositionSize(c.Request.Context(), req)
	respond(c, res, err)
}

func (s *Server) handleCacheStatus(c *gin.Context) {
	resp := CacheResponse{Entries: []provider.CacheEntryInfo{}, Redis: s.redis != nil}
	if s.cache != nil {
		stats := s.cache.Stats()
		resp.TTL = stats.TTL.String()
		if len(stats.Entries) > 0 {
			resp.Entries = stats.Entries
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCacheClear(c *gin.Context) {
	cleared := 0
	if s.cache != nil {
		cleared = s.cache.Clear()
	}
	if s.redis != nil {
		if err := s.redis.Clear(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("clearing redis cache: %v", err)})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"cleared": cleared})
}

func (s *Server) handleJournal(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}
	if limit == 0 {
		limit = 20
	}
	runs, err := s.recorder.Recent(limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
