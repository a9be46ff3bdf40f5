// Package httpapi 提供健康监测服务的查询 API
//
// 分析主链路走 MQTT 摄取，这里只暴露查询和手动触发入口。
package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"wisefido-health-monitor/internal/models"
	"wisefido-health-monitor/internal/repository"
)

// HealthStatus 服务健康状态
type HealthStatus struct {
	Status           string   `json:"status"`
	UptimeSeconds    float64  `json:"uptime_seconds"`
	MQTTConnected    bool     `json:"mqtt_connected"`
	AvailableScorers []string `json:"available_scorers"`
}

// Service 监测服务契约（由 service.Monitor 实现）
type Service interface {
	// Analyze 对一条读数做同步分析（手动触发入口）
	Analyze(ctx context.Context, deviceID string, reading models.Reading) *models.AnalysisResult

	// GetCachedAnalysis 读取设备最新分析结果，未命中返回 (nil, nil)
	GetCachedAnalysis(ctx context.Context, deviceID string) (*models.AnalysisResult, error)

	// GetSummary 生成设备健康趋势摘要
	GetSummary(deviceID string, days int) *models.HealthSummary

	// GetRiskForecast 生成设备风险预报
	GetRiskForecast(deviceID string) *models.RiskForecast

	// ListEvents 分页查询健康事件
	ListEvents(ctx context.Context, filters repository.HealthEventFilters, page, pageSize int) ([]models.HealthEvent, int, error)

	// AcknowledgeEvent 确认处理一条健康事件
	AcknowledgeEvent(ctx context.Context, eventID, handler, notes string) error

	// Health 返回服务健康状态
	Health() HealthStatus
}

// MonitorHandler 健康监测 API 处理器
type MonitorHandler struct {
	service Service
	logger  *zap.Logger
}

// NewMonitorHandler 创建处理器
func NewMonitorHandler(service Service, logger *zap.Logger) *MonitorHandler {
	return &MonitorHandler{service: service, logger: logger}
}

// analyzeRequest POST /api/v1/analyze 请求体
type analyzeRequest struct {
	DeviceID string         `json:"device_id"`
	Reading  models.Reading `json:"reading"`
}

// Analyze POST /api/v1/analyze
// 手动触发一次分析（调试和补测用，主链路走 MQTT）
func (h *MonitorHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.DeviceID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("device_id is required"))
		return
	}
	if req.Reading.Timestamp.IsZero() {
		req.Reading.Timestamp = time.Now()
	}

	result := h.service.Analyze(r.Context(), req.DeviceID, req.Reading)
	writeJSON(w, http.StatusOK, Ok(result))
}

// GetAnalysis GET /api/v1/devices/{id}/analysis
// 读取缓存中的设备最新分析结果
func (h *MonitorHandler) GetAnalysis(w http.ResponseWriter, r *http.Request, deviceID string) {
	result, err := h.service.GetCachedAnalysis(r.Context(), deviceID)
	if err != nil {
		h.logger.Error("Failed to get cached analysis",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get analysis"))
		return
	}
	if result == nil {
		writeJSON(w, http.StatusNotFound, Fail("no analysis available for device"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// GetSummary GET /api/v1/devices/{id}/summary?days=N
func (h *MonitorHandler) GetSummary(w http.ResponseWriter, r *http.Request, deviceID string) {
	days := parseInt(r.URL.Query().Get("days"), 7)
	if days < 1 {
		days = 7
	}

	summary := h.service.GetSummary(deviceID, days)
	writeJSON(w, http.StatusOK, Ok(summary))
}

// GetRiskForecast GET /api/v1/devices/{id}/risk-forecast
func (h *MonitorHandler) GetRiskForecast(w http.ResponseWriter, r *http.Request, deviceID string) {
	forecast := h.service.GetRiskForecast(deviceID)
	writeJSON(w, http.StatusOK, Ok(forecast))
}

// eventListResponse 事件列表响应
type eventListResponse struct {
	Items []models.HealthEvent `json:"items"`
	Page  int                  `json:"page"`
	Size  int                  `json:"size"`
	Count int                  `json:"count"`
}

// ListEvents GET /api/v1/events
// params: device_id? alarm_level? alarm_status? page? size?
func (h *MonitorHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filters repository.HealthEventFilters
	if v := q.Get("device_id"); v != "" {
		filters.DeviceID = &v
	}
	if v := q.Get("alarm_level"); v != "" {
		filters.AlarmLevel = &v
	}
	if v := q.Get("alarm_status"); v != "" {
		filters.AlarmStatus = &v
	}

	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 50)

	events, total, err := h.service.ListEvents(r.Context(), filters, page, size)
	if err != nil {
		h.logger.Error("Failed to list health events", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list events"))
		return
	}
	if events == nil {
		events = []models.HealthEvent{}
	}

	writeJSON(w, http.StatusOK, Ok(eventListResponse{
		Items: events,
		Page:  page,
		Size:  size,
		Count: total,
	}))
}

// acknowledgeRequest POST /api/v1/events/{id}/acknowledge 请求体
type acknowledgeRequest struct {
	Handler string `json:"handler"`
	Notes   string `json:"notes"`
}

// AcknowledgeEvent POST /api/v1/events/{id}/acknowledge
func (h *MonitorHandler) AcknowledgeEvent(w http.ResponseWriter, r *http.Request, eventID string) {
	var req acknowledgeRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.Handler == "" {
		writeJSON(w, http.StatusBadRequest, Fail("handler is required"))
		return
	}

	if err := h.service.AcknowledgeEvent(r.Context(), eventID, req.Handler, req.Notes); err != nil {
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"event_id": eventID, "status": "acknowledged"}))
}

// Health GET /health
func (h *MonitorHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Health())
}
