package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competiscan/competiscan-go/internal/models"
)

func newTestCache(t *testing.T, ttl time.Duration) (*AnalysisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewAnalysisCache(client, ttl, logger), mr
}

func sampleTrends() []models.TrendAnalysis {
	return []models.TrendAnalysis{
		{
			ID:           "abc123",
			Type:         models.TrendFeatureAdoption,
			Label:        "dark_mode",
			Direction:    models.DirectionModerateUp,
			Significance: models.SignificanceModerate,
			Strength:     0.95,
			Velocity:     0.11,
		},
	}
}

func TestTrendsRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	key := TrendKey("features", nil, 90)

	_, ok := c.GetTrends(ctx, key)
	assert.False(t, ok, "cold cache must miss")

	c.SetTrends(ctx, key, sampleTrends())

	got, ok := c.GetTrends(ctx, key)
	require.True(t, ok)
	assert.Equal(t, sampleTrends(), got)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
}

func TestForecastRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	segmentID := int64(3)
	key := ForecastKey(&segmentID, 90)

	forecast := &models.MarketForecast{
		ID:          "f1",
		HorizonDays: 90,
		DataQuality: 0.8,
	}
	c.SetForecast(ctx, key, forecast)

	got, ok := c.GetForecast(ctx, key)
	require.True(t, ok)
	assert.Equal(t, forecast.ID, got.ID)
	assert.Equal(t, forecast.HorizonDays, got.HorizonDays)
	assert.Equal(t, forecast.DataQuality, got.DataQuality)
}

func TestExpiredKeyMisses(t *testing.T) {
	c, mr := newTestCache(t, time.Second)
	ctx := context.Background()
	key := TrendKey("features", nil, 90)

	c.SetTrends(ctx, key, sampleTrends())
	mr.FastForward(2 * time.Second)

	_, ok := c.GetTrends(ctx, key)
	assert.False(t, ok)
}

func TestUndecodablePayloadMisses(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	key := TrendKey("features", nil, 90)

	require.NoError(t, mr.Set("analysis_cache:"+key, "not json"))

	_, ok := c.GetTrends(context.Background(), key)
	assert.False(t, ok)
}

func TestInvalidateClearsOnlyCacheKeys(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	c.SetTrends(ctx, TrendKey("features", nil, 90), sampleTrends())
	c.SetTrends(ctx, TrendKey("pricing", nil, 365), sampleTrends())
	require.NoError(t, mr.Set("unrelated:key", "kept"))

	require.NoError(t, c.Invalidate(ctx))

	_, ok := c.GetTrends(ctx, TrendKey("features", nil, 90))
	assert.False(t, ok)
	_, ok = c.GetTrends(ctx, TrendKey("pricing", nil, 365))
	assert.False(t, ok)
	assert.True(t, mr.Exists("unrelated:key"))
}

func TestKeyBuilders(t *testing.T) {
	segmentID := int64(7)
	assert.Equal(t, "trends:features:all:90", TrendKey("features", nil, 90))
	assert.Equal(t, "trends:pricing:7:365", TrendKey("pricing", &segmentID, 365))
	assert.Equal(t, "forecast:all:90", ForecastKey(nil, 90))
	assert.Equal(t, "forecast:7:30", ForecastKey(&segmentID, 30))
}
