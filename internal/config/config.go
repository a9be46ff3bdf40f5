package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"wisefido-health-monitor/internal/models"
)

// VitalBounds 单个生命体征的边界（阈值表和正常范围表共用）
type VitalBounds struct {
	Min float64
	Max float64
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// Config 健康监测服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// 健康监测服务特定配置
	Monitor struct {
		// 租户 ID（事件持久化和查询的隔离键）
		TenantID string

		// 每设备历史容量（超出后淘汰最旧记录）
		HistoryCap int

		// 评分器调用超时（超时视为缺席信号）
		ScorerTimeout time.Duration

		// 趋势分析 / 风险预测所需的最少历史点数
		TrendMinPoints int
		RiskMinPoints  int

		// 设备上报主题，如 "wearable/+/data"
		DataTopic string

		// Redis 缓存配置
		Cache struct {
			AnalysisKeyPrefix string // 分析结果缓存键前缀，如 "vital-focus:device:"
			AnalysisSuffix    string // 分析结果缓存键后缀，如 ":analysis"
			AnalysisTTL       int    // 分析结果 TTL（秒）
		}

		// 紧急事件发布流
		AlertStream string

		// 重复事件抑制窗口（分钟）
		DedupWindowMinutes int

		// 硬阈值表（按 models.VitalNames 顺序评估）
		CriticalThresholds map[string]VitalBounds

		// 正常范围表（用于健康评分）
		NormalRanges map[string]VitalBounds
	}

	HTTP struct {
		Addr string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "owlrd")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "wisefido-health-monitor")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1

	cfg.Monitor.TenantID = getEnv("TENANT_ID", "default")
	cfg.Monitor.HistoryCap = getEnvInt("HISTORY_CAP", 100)
	cfg.Monitor.ScorerTimeout = time.Duration(getEnvInt("SCORER_TIMEOUT_MS", 2000)) * time.Millisecond
	cfg.Monitor.TrendMinPoints = 10
	cfg.Monitor.RiskMinPoints = 5
	cfg.Monitor.DataTopic = getEnv("DATA_TOPIC", "wearable/+/data")

	cfg.Monitor.Cache.AnalysisKeyPrefix = getEnv("CACHE_ANALYSIS_PREFIX", "vital-focus:device:")
	cfg.Monitor.Cache.AnalysisSuffix = ":analysis"
	cfg.Monitor.Cache.AnalysisTTL = getEnvInt("CACHE_ANALYSIS_TTL", 60)

	cfg.Monitor.AlertStream = getEnv("ALERT_STREAM", "health:alerts:stream")
	cfg.Monitor.DedupWindowMinutes = getEnvInt("DEDUP_WINDOW_MINUTES", 5)

	cfg.Monitor.CriticalThresholds = defaultCriticalThresholds()
	cfg.Monitor.NormalRanges = defaultNormalRanges()

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8086")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// defaultCriticalThresholds 硬生理极限（只编码紧急边界，不做分级风险）
func defaultCriticalThresholds() map[string]VitalBounds {
	return map[string]VitalBounds{
		models.VitalHeartRate:       {Min: 40, Max: 150},
		models.VitalTemperature:     {Min: 35.0, Max: 39.0},
		models.VitalSystolicBP:      {Min: 80, Max: 180},
		models.VitalDiastolicBP:     {Min: 50, Max: 110},
		models.VitalSpO2:            {Min: 90, Max: 100},
		models.VitalRespiratoryRate: {Min: 8, Max: 30},
	}
}

// defaultNormalRanges 正常范围（用于 0-100 健康评分）
func defaultNormalRanges() map[string]VitalBounds {
	return map[string]VitalBounds{
		models.VitalHeartRate:       {Min: 60, Max: 100},
		models.VitalTemperature:     {Min: 36.1, Max: 37.2},
		models.VitalSystolicBP:      {Min: 90, Max: 140},
		models.VitalDiastolicBP:     {Min: 60, Max: 90},
		models.VitalSpO2:            {Min: 95, Max: 100},
		models.VitalRespiratoryRate: {Min: 12, Max: 20},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
