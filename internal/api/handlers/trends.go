package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/competiscan/competiscan-go/internal/cache"
	"github.com/competiscan/competiscan-go/internal/config"
	"github.com/competiscan/competiscan-go/internal/models"
	"github.com/competiscan/competiscan-go/internal/services"
	"github.com/competiscan/competiscan-go/internal/utils"
)

// TrendsHandler exposes the trend engine's public operations over HTTP.
type TrendsHandler struct {
	trends   *services.TrendService
	alerts   *services.AlertService
	cache    *cache.AnalysisCache
	forecast config.ForecastConfig
	logger   *logrus.Logger
}

// TrendsResponse wraps a list of analyses.
type TrendsResponse struct {
	Trends    []models.TrendAnalysis `json:"trends"`
	Count     int                    `json:"count"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewTrendsHandler creates the handler. The cache may be nil in tests.
func NewTrendsHandler(trends *services.TrendService, alerts *services.AlertService, analysisCache *cache.AnalysisCache, forecastCfg config.ForecastConfig, logger *logrus.Logger) *TrendsHandler {
	return &TrendsHandler{
		trends:   trends,
		alerts:   alerts,
		cache:    analysisCache,
		forecast: forecastCfg,
		logger:   logger,
	}
}

// GetFeatureTrends handles GET /trends/features.
func (h *TrendsHandler) GetFeatureTrends(c *gin.Context) {
	days, ok := h.parseDays(c, h.forecast.FeatureLookbackDays)
	if !ok {
		return
	}
	h.respondTrends(c, cache.TrendKey("features", nil, days), func() ([]models.TrendAnalysis, error) {
		return h.trends.TrackFeatureAdoptionTrends(c.Request.Context(), days)
	})
}

// GetPricingTrends handles GET /trends/pricing.
func (h *TrendsHandler) GetPricingTrends(c *gin.Context) {
	days, ok := h.parseDays(c, h.forecast.PricingLookbackDays)
	if !ok {
		return
	}
	segmentID, ok := h.parseSegmentID(c, false)
	if !ok {
		return
	}
	h.respondTrends(c, cache.TrendKey("pricing", segmentID, days), func() ([]models.TrendAnalysis, error) {
		return h.trends.TrackPricingEvolution(c.Request.Context(), segmentID, days)
	})
}

// GetMarketShareTrends handles GET /trends/market-share. The segment is
// required for market-share analysis.
func (h *TrendsHandler) GetMarketShareTrends(c *gin.Context) {
	days, ok := h.parseDays(c, h.forecast.MarketShareLookbackDays)
	if !ok {
		return
	}
	segmentID, ok := h.parseSegmentID(c, true)
	if !ok {
		return
	}
	h.respondTrends(c, cache.TrendKey("market_share", segmentID, days), func() ([]models.TrendAnalysis, error) {
		return h.trends.TrackMarketShareShifts(c.Request.Context(), *segmentID, days)
	})
}

// GetTechnologyTrends handles GET /trends/technology.
func (h *TrendsHandler) GetTechnologyTrends(c *gin.Context) {
	days, ok := h.parseDays(c, h.forecast.TechnologyLookbackDays)
	if !ok {
		return
	}
	h.respondTrends(c, cache.TrendKey("technology", nil, days), func() ([]models.TrendAnalysis, error) {
		return h.trends.DetectTechnologyShifts(c.Request.Context(), days)
	})
}

// GetBreakouts handles GET /trends/breakouts.
func (h *TrendsHandler) GetBreakouts(c *gin.Context) {
	minSignificance := models.SignificanceLevel(c.DefaultQuery("min_significance", string(models.SignificanceMajor)))

	breakouts, err := h.trends.IdentifyTrendBreakouts(c.Request.Context(), minSignificance)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TrendsResponse{Trends: breakouts, Count: len(breakouts), Timestamp: time.Now()})
}

// NotifyBreakouts handles POST /trends/breakouts/notify: identifies breakouts
// and pushes them to alert subscribers.
func (h *TrendsHandler) NotifyBreakouts(c *gin.Context) {
	minSignificance := models.SignificanceLevel(c.DefaultQuery("min_significance", string(models.SignificanceMajor)))

	breakouts, err := h.trends.IdentifyTrendBreakouts(c.Request.Context(), minSignificance)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.alerts.NotifyBreakouts(c.Request.Context(), breakouts); err != nil {
		h.logger.WithError(err).Error("Failed to dispatch breakout alerts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to dispatch alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notified": len(breakouts), "timestamp": time.Now()})
}

// GetForecast handles GET /forecast.
func (h *TrendsHandler) GetForecast(c *gin.Context) {
	horizon := h.forecast.DefaultHorizonDays
	if raw := c.Query("horizon_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid horizon_days parameter"})
			return
		}
		horizon = parsed
	}
	segmentID, ok := h.parseSegmentID(c, false)
	if !ok {
		return
	}

	key := cache.ForecastKey(segmentID, horizon)
	if h.cache != nil {
		if forecast, found := h.cache.GetForecast(c.Request.Context(), key); found {
			c.JSON(http.StatusOK, forecast)
			return
		}
	}

	forecast, err := h.trends.GenerateMarketForecast(c.Request.Context(), segmentID, horizon)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.cache != nil {
		h.cache.SetForecast(c.Request.Context(), key, forecast)
	}

	c.JSON(http.StatusOK, forecast)
}

// InvalidateCache handles POST /admin/cache/invalidate.
func (h *TrendsHandler) InvalidateCache(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"invalidated": false})
		return
	}
	if err := h.cache.Invalidate(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Cache invalidation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache invalidation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invalidated": true})
}

// GetCacheStats handles GET /admin/cache/stats.
func (h *TrendsHandler) GetCacheStats(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, cache.CacheStats{})
		return
	}
	c.JSON(http.StatusOK, h.cache.Stats())
}

// respondTrends serves from cache when possible, otherwise computes and
// caches the result.
func (h *TrendsHandler) respondTrends(c *gin.Context, key string, compute func() ([]models.TrendAnalysis, error)) {
	if h.cache != nil {
		if analyses, found := h.cache.GetTrends(c.Request.Context(), key); found {
			c.JSON(http.StatusOK, TrendsResponse{Trends: analyses, Count: len(analyses), Timestamp: time.Now()})
			return
		}
	}

	analyses, err := compute()
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.cache != nil {
		h.cache.SetTrends(c.Request.Context(), key, analyses)
	}

	c.JSON(http.StatusOK, TrendsResponse{Trends: analyses, Count: len(analyses), Timestamp: time.Now()})
}

func (h *TrendsHandler) respondError(c *gin.Context, err error) {
	if utils.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.WithError(err).Error("Trend operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "trend analysis failed"})
}

func (h *TrendsHandler) parseDays(c *gin.Context, defaultDays int) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return defaultDays, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days parameter"})
		return 0, false
	}
	return days, true
}

func (h *TrendsHandler) parseSegmentID(c *gin.Context, required bool) (*int64, bool) {
	raw := c.Query("segment_id")
	if raw == "" {
		if required {
			c.JSON(http.StatusBadRequest, gin.H{"error": "segment_id parameter is required"})
			return nil, false
		}
		return nil, true
	}
	segmentID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid segment_id parameter"})
		return nil, false
	}
	return &segmentID, true
}
