package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-health-monitor/internal/config"
	"wisefido-health-monitor/internal/models"
)

func setupCacheManager(t *testing.T) (*miniredis.Miniredis, *CacheManager) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{}
	cfg.Monitor.Cache.AnalysisKeyPrefix = "vital-focus:device:"
	cfg.Monitor.Cache.AnalysisSuffix = ":analysis"
	cfg.Monitor.Cache.AnalysisTTL = 60

	return mr, NewCacheManager(cfg, client, zap.NewNop())
}

func TestUpdateAndGetAnalysis(t *testing.T) {
	mr, cache := setupCacheManager(t)
	ctx := context.Background()

	hr := 155.0
	result := &models.AnalysisResult{
		DeviceID:      "dev-001",
		CurrentVitals: models.Reading{HeartRate: &hr, Timestamp: time.Now()},
		OverallStatus: models.OverallStatus{
			Level:      models.LevelEmergency,
			Severity:   models.SeverityCritical,
			Confidence: 0.95,
		},
		AnalysisTimestamp: time.Now(),
	}

	require.NoError(t, cache.UpdateAnalysisCache(ctx, result))

	// 键格式和 TTL
	key := "vital-focus:device:dev-001:analysis"
	assert.True(t, mr.Exists(key))
	ttl := mr.TTL(key)
	assert.True(t, ttl > 0 && ttl <= 60*time.Second)

	got, err := cache.GetAnalysis(ctx, "dev-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "dev-001", got.DeviceID)
	assert.Equal(t, models.LevelEmergency, got.OverallStatus.Level)
	require.NotNil(t, got.CurrentVitals.HeartRate)
	assert.Equal(t, 155.0, *got.CurrentVitals.HeartRate)
}

func TestGetAnalysis_CacheMiss(t *testing.T) {
	_, cache := setupCacheManager(t)

	got, err := cache.GetAnalysis(context.Background(), "unknown-device")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetAllDeviceIDs(t *testing.T) {
	_, cache := setupCacheManager(t)
	ctx := context.Background()

	for _, id := range []string{"dev-001", "dev-002", "dev-003"} {
		result := &models.AnalysisResult{
			DeviceID:          id,
			OverallStatus:     models.OverallStatus{Level: models.LevelNormal},
			AnalysisTimestamp: time.Now(),
		}
		require.NoError(t, cache.UpdateAnalysisCache(ctx, result))
	}

	ids, err := cache.GetAllDeviceIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dev-001", "dev-002", "dev-003"}, ids)
}
