// Package consumer 实现设备读数的 MQTT 摄取和分析结果缓存
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
	"wisefido-health-monitor/internal/models"
)

// CacheManager Redis 缓存管理器（每设备最新分析结果）
type CacheManager struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewCacheManager 创建缓存管理器
func NewCacheManager(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) *CacheManager {
	return &CacheManager{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

// analysisKey 构建分析结果缓存键
func (c *CacheManager) analysisKey(deviceID string) string {
	return fmt.Sprintf("%s%s%s",
		c.config.Monitor.Cache.AnalysisKeyPrefix,
		deviceID,
		c.config.Monitor.Cache.AnalysisSuffix,
	)
}

// UpdateAnalysisCache 写入设备最新分析结果
func (c *CacheManager) UpdateAnalysisCache(ctx context.Context, result *models.AnalysisResult) error {
	key := c.analysisKey(result.DeviceID)

	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	err = c.redisClient.Set(
		ctx,
		key,
		jsonData,
		time.Duration(c.config.Monitor.Cache.AnalysisTTL)*time.Second,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set analysis cache: %w", err)
	}

	c.logger.Debug("Updated analysis cache",
		zap.String("device_id", result.DeviceID),
		zap.String("key", key),
		zap.String("level", result.OverallStatus.Level),
	)

	return nil
}

// GetAnalysis 读取设备最新分析结果
// 缓存未命中时返回 (nil, nil)
func (c *CacheManager) GetAnalysis(ctx context.Context, deviceID string) (*models.AnalysisResult, error) {
	key := c.analysisKey(deviceID)

	val, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis cache: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
	}

	return &result, nil
}

// GetAllDeviceIDs 扫描缓存键获取当前活跃的设备 ID 列表
func (c *CacheManager) GetAllDeviceIDs(ctx context.Context) ([]string, error) {
	pattern := c.config.Monitor.Cache.AnalysisKeyPrefix + "*" + c.config.Monitor.Cache.AnalysisSuffix

	var deviceIDs []string
	var cursor uint64
	for {
		keys, next, err := c.redisClient.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan cache keys: %w", err)
		}

		for _, key := range keys {
			id := strings.TrimPrefix(key, c.config.Monitor.Cache.AnalysisKeyPrefix)
			id = strings.TrimSuffix(id, c.config.Monitor.Cache.AnalysisSuffix)
			if id != "" {
				deviceIDs = append(deviceIDs, id)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return deviceIDs, nil
}
