package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"wisefido-health-monitor/internal/config"
	"wisefido-health-monitor/internal/fusion"
	"wisefido-health-monitor/internal/metrics"
	"wisefido-health-monitor/internal/models"
	mqttpkg "wisefido-health-monitor/internal/pkg/mqtt"
	redispkg "wisefido-health-monitor/internal/pkg/redis"
	"wisefido-health-monitor/internal/repository"
)

// Analyzer 分析器契约（由融合引擎实现）
type Analyzer interface {
	Analyze(ctx context.Context, deviceID string, reading models.Reading) *models.AnalysisResult
}

// MQTTConsumer 可穿戴设备读数消费者
// 订阅设备上报主题，触发分析，缓存结果，持久化高严重度事件
type MQTTConsumer struct {
	config      *config.Config
	mqttClient  *mqttpkg.Client
	redisClient *redis.Client
	cache       *CacheManager
	eventsRepo  *repository.HealthEventsRepository
	analyzer    Analyzer
	tenantID    string
	logger      *zap.Logger
}

// NewMQTTConsumer 创建消费者
func NewMQTTConsumer(
	cfg *config.Config,
	mqttClient *mqttpkg.Client,
	redisClient *redis.Client,
	cache *CacheManager,
	eventsRepo *repository.HealthEventsRepository,
	analyzer Analyzer,
	tenantID string,
	logger *zap.Logger,
) *MQTTConsumer {
	return &MQTTConsumer{
		config:      cfg,
		mqttClient:  mqttClient,
		redisClient: redisClient,
		cache:       cache,
		eventsRepo:  eventsRepo,
		analyzer:    analyzer,
		tenantID:    tenantID,
		logger:      logger,
	}
}

// Start 启动消费者
func (c *MQTTConsumer) Start(ctx context.Context) error {
	if err := c.mqttClient.Subscribe(c.config.Monitor.DataTopic, c.config.MQTT.QoS, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to data topic: %w", err)
	}

	c.logger.Info("MQTT consumer started",
		zap.String("topic", c.config.Monitor.DataTopic),
	)

	// 等待上下文取消
	<-ctx.Done()
	return nil
}

// Stop 停止消费者
func (c *MQTTConsumer) Stop(ctx context.Context) error {
	if err := c.mqttClient.Unsubscribe(c.config.Monitor.DataTopic); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
	}

	c.logger.Info("MQTT consumer stopped")
	return nil
}

// handleMessage 处理一条设备上报
// 主题格式: wearable/{device_id}/data
func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	// 1. 从主题中提取设备 ID
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[1] == "" {
		metrics.ReadingRejected("invalid_topic")
		return fmt.Errorf("invalid topic format: %s", topic)
	}
	deviceID := parts[1]

	// 2. 解析读数
	var reading models.Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		metrics.ReadingRejected("unmarshal_failed")
		c.logger.Error("Failed to unmarshal reading",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return fmt.Errorf("failed to unmarshal reading: %w", err)
	}

	ctx := context.Background()

	// 3. 触发分析
	start := time.Now()
	result := c.analyzer.Analyze(ctx, deviceID, reading)
	metrics.ObserveAnalysis(result.OverallStatus.Level, time.Since(start))

	// 4. 缓存最新分析结果（失败不中断后续流程）
	if err := c.cache.UpdateAnalysisCache(ctx, result); err != nil {
		c.logger.Error("Failed to cache analysis result",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
	}

	// 5. 高严重度结果持久化并发布告警
	if event := fusion.BuildHealthEvent(c.tenantID, result); event != nil {
		c.persistAndPublish(ctx, event, result)
	}

	return nil
}

// persistAndPublish 去重窗口内不重复落库，落库成功后发布告警流
func (c *MQTTConsumer) persistAndPublish(ctx context.Context, event *models.HealthEvent, result *models.AnalysisResult) {
	dedupWindow := time.Duration(c.config.Monitor.DedupWindowMinutes) * time.Minute
	since := time.Now().Add(-dedupWindow)

	recent, err := c.eventsRepo.GetRecentHealthEvent(ctx, event.TenantID, event.DeviceID, event.EventType, since)
	if err != nil {
		c.logger.Error("Failed to check dedup window",
			zap.String("device_id", event.DeviceID),
			zap.Error(err),
		)
		// 查询失败时宁可重复也不丢事件
	}
	if recent != nil {
		metrics.EventDeduped()
		c.logger.Debug("Health event suppressed by dedup window",
			zap.String("device_id", event.DeviceID),
			zap.String("event_type", event.EventType),
			zap.String("existing_event_id", recent.EventID),
		)
		return
	}

	if err := c.eventsRepo.CreateHealthEvent(ctx, event); err != nil {
		c.logger.Error("Failed to persist health event",
			zap.String("device_id", event.DeviceID),
			zap.Error(err),
		)
		return
	}
	metrics.EventPersisted(event.AlarmLevel)

	alert := map[string]interface{}{
		"event_id":        event.EventID,
		"tenant_id":       event.TenantID,
		"device_id":       event.DeviceID,
		"event_type":      event.EventType,
		"alarm_level":     event.AlarmLevel,
		"level":           result.OverallStatus.Level,
		"severity":        result.OverallStatus.Severity,
		"primary_concern": result.OverallStatus.PrimaryConcern,
		"triggered_at":    event.TriggeredAt,
	}
	if _, err := redispkg.PublishJSONToStream(ctx, c.redisClient, c.config.Monitor.AlertStream, alert); err != nil {
		c.logger.Error("Failed to publish alert to stream",
			zap.String("stream", c.config.Monitor.AlertStream),
			zap.Error(err),
		)
		return
	}

	c.logger.Info("Health alert published",
		zap.String("event_id", event.EventID),
		zap.String("device_id", event.DeviceID),
		zap.String("alarm_level", event.AlarmLevel),
	)
}
