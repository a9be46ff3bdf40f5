// Package service 组装健康监测服务的全部组件
package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"wisefido-health-monitor/internal/config"
	"wisefido-health-monitor/internal/consumer"
	"wisefido-health-monitor/internal/fusion"
	"wisefido-health-monitor/internal/history"
	"wisefido-health-monitor/internal/httpapi"
	"wisefido-health-monitor/internal/metrics"
	"wisefido-health-monitor/internal/models"
	"wisefido-health-monitor/internal/pkg/database"
	mqttpkg "wisefido-health-monitor/internal/pkg/mqtt"
	redispkg "wisefido-health-monitor/internal/pkg/redis"
	"wisefido-health-monitor/internal/repository"
	"wisefido-health-monitor/internal/risk"
	"wisefido-health-monitor/internal/scorer"
	"wisefido-health-monitor/internal/threshold"
	"wisefido-health-monitor/internal/trend"
)

// Monitor 健康监测服务
type Monitor struct {
	config     *config.Config
	logger     *zap.Logger
	db         *sql.DB
	redis      *redis.Client
	mqttClient *mqttpkg.Client

	store         *history.Store
	engine        *fusion.Engine
	scorerAdapter *scorer.Adapter
	trendAnalyzer *trend.Analyzer
	windower      *risk.Windower

	cache      *consumer.CacheManager
	eventsRepo *repository.HealthEventsRepository
	consumer   *consumer.MQTTConsumer

	httpServer *http.Server
	startedAt  time.Time
}

// NewMonitor 创建健康监测服务
func NewMonitor(cfg *config.Config, logger *zap.Logger) (*Monitor, error) {
	// 初始化数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 初始化Redis
	redisClient := redispkg.NewRedisClient(&cfg.Redis)
	if err := redispkg.Ping(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	// 初始化MQTT
	mqttClient, err := mqttpkg.NewClient(&cfg.MQTT, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	metrics.Init()

	// 核心分析组件
	store := history.NewStore(cfg.Monitor.HistoryCap)
	evaluator := threshold.NewEvaluator(cfg.Monitor.CriticalThresholds)
	windower := risk.NewWindower(cfg.Monitor.RiskMinPoints, logger)
	trendAnalyzer := trend.NewAnalyzer(cfg.Monitor.NormalRanges, cfg.Monitor.TrendMinPoints, logger)

	scorerAdapter := scorer.NewAdapter(
		[]scorer.Scorer{
			scorer.NewAnomalyDetector(),
			scorer.NewEmergencyClassifier(),
			scorer.NewRiskRegressor(),
		},
		cfg.Monitor.ScorerTimeout,
		logger,
	)
	scorerAdapter.OnFailure(func(kind scorer.Kind) {
		metrics.ScorerFailure(string(kind))
	})

	engine := fusion.NewEngine(store, evaluator, scorerAdapter, windower, logger)

	// 存储、缓存和摄取
	eventsRepo := repository.NewHealthEventsRepository(db, logger)
	cache := consumer.NewCacheManager(cfg, redisClient, logger)
	mqttConsumer := consumer.NewMQTTConsumer(
		cfg, mqttClient, redisClient, cache, eventsRepo, engine, cfg.Monitor.TenantID, logger,
	)

	m := &Monitor{
		config:        cfg,
		logger:        logger,
		db:            db,
		redis:         redisClient,
		mqttClient:    mqttClient,
		store:         store,
		engine:        engine,
		scorerAdapter: scorerAdapter,
		trendAnalyzer: trendAnalyzer,
		windower:      windower,
		cache:         cache,
		eventsRepo:    eventsRepo,
		consumer:      mqttConsumer,
	}

	// HTTP 查询入口
	router := httpapi.NewRouter(logger)
	router.RegisterMonitorRoutes(httpapi.NewMonitorHandler(m, logger))
	m.httpServer = &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	return m, nil
}

// Start 启动服务（阻塞到 ctx 取消）
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("Starting health monitor components")
	m.startedAt = time.Now()

	go func() {
		m.logger.Info("HTTP server listening", zap.String("addr", m.config.HTTP.Addr))
		if err := m.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	if err := m.consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MQTT consumer: %w", err)
	}

	return nil
}

// Stop 停止服务
func (m *Monitor) Stop(ctx context.Context) error {
	m.logger.Info("Stopping health monitor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.httpServer.Shutdown(shutdownCtx); err != nil {
		m.logger.Error("Error shutting down HTTP server", zap.Error(err))
	}

	if m.consumer != nil {
		if err := m.consumer.Stop(ctx); err != nil {
			m.logger.Error("Error stopping consumer", zap.Error(err))
		}
	}

	if m.mqttClient != nil {
		m.mqttClient.Disconnect()
	}

	if m.redis != nil {
		redispkg.Close(m.redis)
	}

	if m.db != nil {
		database.Close(m.db)
	}

	m.logger.Info("Health monitor stopped")
	return nil
}

// Analyze 同步分析一条读数（HTTP 手动触发入口）
// 与 MQTT 链路共享同一个引擎和历史存储，结果同样写入缓存
func (m *Monitor) Analyze(ctx context.Context, deviceID string, reading models.Reading) *models.AnalysisResult {
	start := time.Now()
	result := m.engine.Analyze(ctx, deviceID, reading)
	metrics.ObserveAnalysis(result.OverallStatus.Level, time.Since(start))

	if err := m.cache.UpdateAnalysisCache(ctx, result); err != nil {
		m.logger.Error("Failed to cache analysis result",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
	}
	return result
}

// GetCachedAnalysis 读取设备最新分析结果
func (m *Monitor) GetCachedAnalysis(ctx context.Context, deviceID string) (*models.AnalysisResult, error) {
	return m.cache.GetAnalysis(ctx, deviceID)
}

// GetSummary 生成设备健康趋势摘要
func (m *Monitor) GetSummary(deviceID string, days int) *models.HealthSummary {
	readings := m.store.RecentSince(deviceID, time.Duration(days)*24*time.Hour)
	return m.trendAnalyzer.Summarize(deviceID, readings, days)
}

// GetRiskForecast 生成设备风险预报
func (m *Monitor) GetRiskForecast(deviceID string) *models.RiskForecast {
	readings := m.store.Recent(deviceID, m.config.Monitor.HistoryCap)
	return m.windower.Forecast(deviceID, readings)
}

// ListEvents 分页查询健康事件
func (m *Monitor) ListEvents(ctx context.Context, filters repository.HealthEventFilters, page, pageSize int) ([]models.HealthEvent, int, error) {
	return m.eventsRepo.ListHealthEvents(ctx, m.config.Monitor.TenantID, filters, page, pageSize)
}

// AcknowledgeEvent 确认处理一条健康事件
func (m *Monitor) AcknowledgeEvent(ctx context.Context, eventID, handler, notes string) error {
	return m.eventsRepo.AcknowledgeHealthEvent(ctx, m.config.Monitor.TenantID, eventID, handler, notes)
}

// Health 返回服务健康状态
func (m *Monitor) Health() httpapi.HealthStatus {
	kinds := m.scorerAdapter.Available()
	scorers := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		scorers = append(scorers, string(kind))
	}

	return httpapi.HealthStatus{
		Status:           "ok",
		UptimeSeconds:    time.Since(m.startedAt).Seconds(),
		MQTTConnected:    m.mqttClient.IsConnected(),
		AvailableScorers: scorers,
	}
}
