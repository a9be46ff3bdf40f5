package models

import "time"

// 汇总状态（趋势/风险查询的结构化结果，不足数据不是错误）
const (
	SummaryStatusOK               = "ok"
	SummaryStatusInsufficientData = "insufficient_data"
)

// 趋势方向
const (
	TrendIncreasing       = "increasing"
	TrendDecreasing       = "decreasing"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

// 整体轨迹
const (
	TrajectoryImproving  = "improving"
	TrajectoryStable     = "stable"
	TrajectoryConcerning = "concerning"
)

// VitalStats 单个生命体征的统计量
type VitalStats struct {
	Average       float64 `json:"average"`
	Minimum       float64 `json:"minimum"`
	Maximum       float64 `json:"maximum"`
	ReadingsCount int     `json:"readings_count"`
}

// AlertFrequency 告警频率估计
type AlertFrequency struct {
	TotalReadings   int     `json:"total_readings"`
	EstimatedAlerts int     `json:"estimated_alerts"`
	AlertRatePct    float64 `json:"alert_rate_percentage"`
}

// HealthSummary 一段时间窗口内的健康汇总（TrendAnalyzer 输出）
type HealthSummary struct {
	Status  string `json:"status"` // ok / insufficient_data
	Message string `json:"message,omitempty"`

	DeviceID          string                `json:"device_id"`
	SummaryPeriodDays int                   `json:"summary_period_days"`
	TotalReadings     int                   `json:"total_readings"`
	FirstReading      *time.Time            `json:"first_reading,omitempty"`
	LastReading       *time.Time            `json:"last_reading,omitempty"`
	VitalSignsSummary map[string]VitalStats `json:"vital_signs_summary,omitempty"`
	HealthTrends      map[string]string     `json:"health_trends,omitempty"`
	OverallTrajectory string                `json:"overall_trajectory,omitempty"`
	AlertFrequency    *AlertFrequency       `json:"alert_frequency,omitempty"`
	OverallScore      float64               `json:"overall_health_score"`
	GeneratedAt       time.Time             `json:"generated_at"`
}

// RiskWindowPrediction 单个时间窗口的风险预测
type RiskWindowPrediction struct {
	RiskScore   float64 `json:"risk_score"` // 0-1
	RiskLevel   string  `json:"risk_level"`
	Probability float64 `json:"probability"` // 百分比
}

// RiskForecast 风险预报（RiskWindower 输出）
type RiskForecast struct {
	Status  string `json:"status"` // ok / insufficient_data
	Message string `json:"message,omitempty"`

	DeviceID             string                          `json:"device_id"`
	OverallRiskScore     float64                         `json:"overall_risk_score"`
	RiskLevel            string                          `json:"risk_level"`
	TimePredictions      map[string]RiskWindowPrediction `json:"time_predictions,omitempty"`
	RiskFactors          []string                        `json:"risk_factors,omitempty"`
	Recommendations      []string                        `json:"recommendations,omitempty"`
	PredictionConfidence float64                         `json:"prediction_confidence"`
	DataPointsAnalyzed   int                             `json:"data_points_analyzed"`
	GeneratedAt          time.Time                       `json:"generated_at"`
}
