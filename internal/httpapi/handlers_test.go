package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-health-monitor/internal/models"
	"wisefido-health-monitor/internal/repository"
)

// stubService 测试用的服务实现
type stubService struct {
	analysis *models.AnalysisResult
	cached   *models.AnalysisResult
	summary  *models.HealthSummary
	forecast *models.RiskForecast
	events   []models.HealthEvent

	ackErr        error
	lastAckEvent  string
	lastSummaryID string
	lastDays      int
}

func (s *stubService) Analyze(ctx context.Context, deviceID string, reading models.Reading) *models.AnalysisResult {
	return s.analysis
}

func (s *stubService) GetCachedAnalysis(ctx context.Context, deviceID string) (*models.AnalysisResult, error) {
	return s.cached, nil
}

func (s *stubService) GetSummary(deviceID string, days int) *models.HealthSummary {
	s.lastSummaryID = deviceID
	s.lastDays = days
	return s.summary
}

func (s *stubService) GetRiskForecast(deviceID string) *models.RiskForecast {
	return s.forecast
}

func (s *stubService) ListEvents(ctx context.Context, filters repository.HealthEventFilters, page, pageSize int) ([]models.HealthEvent, int, error) {
	return s.events, len(s.events), nil
}

func (s *stubService) AcknowledgeEvent(ctx context.Context, eventID, handler, notes string) error {
	s.lastAckEvent = eventID
	return s.ackErr
}

func (s *stubService) Health() HealthStatus {
	return HealthStatus{
		Status:           "ok",
		UptimeSeconds:    12.5,
		MQTTConnected:    true,
		AvailableScorers: []string{"anomaly", "classification", "risk"},
	}
}

func setupTestServer(t *testing.T, svc *stubService) *httptest.Server {
	t.Helper()
	router := NewRouter(zap.NewNop())
	router.RegisterMonitorRoutes(NewMonitorHandler(svc, zap.NewNop()))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestAnalyzeEndpoint(t *testing.T) {
	svc := &stubService{
		analysis: &models.AnalysisResult{
			DeviceID: "dev-001",
			OverallStatus: models.OverallStatus{
				Level:      models.LevelNormal,
				Severity:   models.SeverityNormal,
				Confidence: 0.8,
			},
			AnalysisTimestamp: time.Now(),
		},
	}
	server := setupTestServer(t, svc)

	hr := 72.0
	body, _ := json.Marshal(map[string]interface{}{
		"device_id": "dev-001",
		"reading":   models.Reading{HeartRate: &hr, Timestamp: time.Now()},
	})

	resp, err := http.Post(server.URL+"/api/v1/analyze", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result Result[models.AnalysisResult]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, ResultSuccess, result.Code)
	assert.Equal(t, "dev-001", result.Result.DeviceID)
	assert.Equal(t, models.LevelNormal, result.Result.OverallStatus.Level)
}

func TestAnalyzeEndpoint_MissingDeviceID(t *testing.T) {
	server := setupTestServer(t, &stubService{})

	resp, err := http.Post(server.URL+"/api/v1/analyze", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetSummaryEndpoint(t *testing.T) {
	svc := &stubService{
		summary: &models.HealthSummary{
			Status:            models.SummaryStatusOK,
			DeviceID:          "dev-001",
			SummaryPeriodDays: 14,
			TotalReadings:     42,
			OverallScore:      87.5,
		},
	}
	server := setupTestServer(t, svc)

	resp, err := http.Get(server.URL + "/api/v1/devices/dev-001/summary?days=14")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result Result[models.HealthSummary]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "dev-001", result.Result.DeviceID)
	assert.Equal(t, 42, result.Result.TotalReadings)

	assert.Equal(t, "dev-001", svc.lastSummaryID)
	assert.Equal(t, 14, svc.lastDays)
}

func TestGetRiskForecastEndpoint(t *testing.T) {
	svc := &stubService{
		forecast: &models.RiskForecast{
			Status:           models.SummaryStatusOK,
			DeviceID:         "dev-001",
			OverallRiskScore: 0.5,
			RiskLevel:        models.RiskLevelMedium,
		},
	}
	server := setupTestServer(t, svc)

	resp, err := http.Get(server.URL + "/api/v1/devices/dev-001/risk-forecast")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result Result[models.RiskForecast]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, models.RiskLevelMedium, result.Result.RiskLevel)
}

func TestGetAnalysisEndpoint_NotCached(t *testing.T) {
	server := setupTestServer(t, &stubService{})

	resp, err := http.Get(server.URL + "/api/v1/devices/dev-001/analysis")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListEventsEndpoint(t *testing.T) {
	svc := &stubService{
		events: []models.HealthEvent{
			{EventID: "evt-1", DeviceID: "dev-001", AlarmLevel: models.EventLevelEmergency},
		},
	}
	server := setupTestServer(t, svc)

	resp, err := http.Get(server.URL + "/api/v1/events?alarm_level=EMERGENCY")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result Result[eventListResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, 1, result.Result.Count)
	require.Len(t, result.Result.Items, 1)
	assert.Equal(t, "evt-1", result.Result.Items[0].EventID)
}

func TestAcknowledgeEventEndpoint(t *testing.T) {
	svc := &stubService{}
	server := setupTestServer(t, svc)

	body := []byte(`{"handler": "nurse-01", "notes": "resolved"}`)
	resp, err := http.Post(server.URL+"/api/v1/events/evt-1/acknowledge", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "evt-1", svc.lastAckEvent)
}

func TestAcknowledgeEventEndpoint_NotFound(t *testing.T) {
	svc := &stubService{ackErr: fmt.Errorf("health event not found")}
	server := setupTestServer(t, svc)

	body := []byte(`{"handler": "nurse-01"}`)
	resp, err := http.Post(server.URL+"/api/v1/events/evt-x/acknowledge", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	server := setupTestServer(t, &stubService{})

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "ok", status.Status)
	assert.True(t, status.MQTTConnected)
	assert.Contains(t, status.AvailableScorers, "anomaly")
}

func TestMethodNotAllowed(t *testing.T) {
	server := setupTestServer(t, &stubService{})

	resp, err := http.Get(server.URL + "/api/v1/analyze")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
