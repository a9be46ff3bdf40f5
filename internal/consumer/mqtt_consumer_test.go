package consumer

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-health-monitor/internal/config"
	"wisefido-health-monitor/internal/models"
	"wisefido-health-monitor/internal/repository"
)

// stubAnalyzer 返回固定分析结果
type stubAnalyzer struct {
	result   *models.AnalysisResult
	devices  []string
	readings []models.Reading
}

func (a *stubAnalyzer) Analyze(ctx context.Context, deviceID string, reading models.Reading) *models.AnalysisResult {
	a.devices = append(a.devices, deviceID)
	a.readings = append(a.readings, reading)
	a.result.DeviceID = deviceID
	return a.result
}

func testConsumerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Monitor.DataTopic = "wearable/+/data"
	cfg.Monitor.Cache.AnalysisKeyPrefix = "vital-focus:device:"
	cfg.Monitor.Cache.AnalysisSuffix = ":analysis"
	cfg.Monitor.Cache.AnalysisTTL = 60
	cfg.Monitor.AlertStream = "health:alerts:stream"
	cfg.Monitor.DedupWindowMinutes = 5
	return cfg
}

func setupConsumer(t *testing.T, analyzer Analyzer) (*MQTTConsumer, *redis.Client, sqlmock.Sqlmock) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	cfg := testConsumerConfig()
	cache := NewCacheManager(cfg, redisClient, logger)
	eventsRepo := repository.NewHealthEventsRepository(db, logger)

	// 只测消息处理路径，不建立真实 MQTT 连接
	c := NewMQTTConsumer(cfg, nil, redisClient, cache, eventsRepo, analyzer, "tenant-1", logger)
	return c, redisClient, mock
}

func normalResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		OverallStatus: models.OverallStatus{
			Level:      models.LevelNormal,
			Severity:   models.SeverityNormal,
			Confidence: 0.8,
		},
		AnalysisTimestamp: time.Now(),
	}
}

func emergencyResult() *models.AnalysisResult {
	concern := "heart_rate critically high: 155"
	return &models.AnalysisResult{
		CurrentVitals: models.Reading{Timestamp: time.Now()},
		OverallStatus: models.OverallStatus{
			Level:          models.LevelEmergency,
			Severity:       models.SeverityCritical,
			Confidence:     0.95,
			PrimaryConcern: &concern,
		},
		ImmediateAlerts: []models.ThresholdAlert{
			{VitalSign: models.VitalHeartRate, Message: concern},
		},
		RequiresEmergencyResponse: true,
		AnalysisTimestamp:         time.Now(),
	}
}

func TestHandleMessage_NormalReadingCached(t *testing.T) {
	analyzer := &stubAnalyzer{result: normalResult()}
	c, redisClient, _ := setupConsumer(t, analyzer)

	hr := 72.0
	payload, _ := json.Marshal(models.Reading{HeartRate: &hr, Timestamp: time.Now()})

	err := c.handleMessage("wearable/dev-001/data", payload)
	require.NoError(t, err)

	require.Len(t, analyzer.devices, 1)
	assert.Equal(t, "dev-001", analyzer.devices[0])
	require.NotNil(t, analyzer.readings[0].HeartRate)
	assert.Equal(t, 72.0, *analyzer.readings[0].HeartRate)

	// 正常结果只缓存，不落库不发流
	val, err := redisClient.Get(context.Background(), "vital-focus:device:dev-001:analysis").Result()
	require.NoError(t, err)
	assert.Contains(t, val, `"level":"normal"`)

	streamLen, _ := redisClient.XLen(context.Background(), "health:alerts:stream").Result()
	assert.Zero(t, streamLen)
}

func TestHandleMessage_EmergencyPersistedAndPublished(t *testing.T) {
	analyzer := &stubAnalyzer{result: emergencyResult()}
	c, redisClient, mock := setupConsumer(t, analyzer)

	// 去重窗口内没有同类事件
	mock.ExpectQuery(`SELECT`).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO health_events`).WillReturnResult(sqlmock.NewResult(1, 1))

	payload, _ := json.Marshal(models.Reading{Timestamp: time.Now()})
	err := c.handleMessage("wearable/dev-001/data", payload)
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())

	streamLen, err := redisClient.XLen(context.Background(), "health:alerts:stream").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), streamLen)
}

func TestHandleMessage_DuplicateEventSuppressed(t *testing.T) {
	analyzer := &stubAnalyzer{result: emergencyResult()}
	c, redisClient, mock := setupConsumer(t, analyzer)

	// 去重窗口内已有同类事件
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"event_id", "tenant_id", "device_id", "event_type", "category",
		"alarm_level", "alarm_status", "triggered_at", "hand_time",
		"trigger_data", "handler", "notes", "metadata", "created_at", "updated_at",
	}).AddRow(
		"evt-existing", "tenant-1", "dev-001", "ThresholdBreach", "clinical",
		"EMERGENCY", "active", now.Add(-time.Minute), nil,
		`{}`, nil, nil, `{}`, now, now,
	)
	mock.ExpectQuery(`SELECT`).WillReturnRows(rows)
	// 不应有 INSERT

	payload, _ := json.Marshal(models.Reading{Timestamp: now})
	err := c.handleMessage("wearable/dev-001/data", payload)
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())

	streamLen, _ := redisClient.XLen(context.Background(), "health:alerts:stream").Result()
	assert.Zero(t, streamLen)
}

func TestHandleMessage_InvalidTopic(t *testing.T) {
	analyzer := &stubAnalyzer{result: normalResult()}
	c, _, _ := setupConsumer(t, analyzer)

	err := c.handleMessage("wearable", []byte(`{}`))
	assert.Error(t, err)
	assert.Empty(t, analyzer.devices)
}

func TestHandleMessage_MalformedPayload(t *testing.T) {
	analyzer := &stubAnalyzer{result: normalResult()}
	c, _, _ := setupConsumer(t, analyzer)

	err := c.handleMessage("wearable/dev-001/data", []byte(`not json`))
	assert.Error(t, err)
	assert.Empty(t, analyzer.devices)
}
