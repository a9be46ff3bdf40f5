package models

import "time"

// 综合状态级别
const (
	LevelNormal    = "normal"
	LevelCaution   = "caution"
	LevelWarning   = "warning"
	LevelEmergency = "emergency"
	LevelError     = "error"
)

// 严重程度
const (
	SeverityNormal   = "normal"
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
	SeverityUnknown  = "unknown"
)

// 阈值告警方向
const (
	AlertCriticalLow  = "critical_low"
	AlertCriticalHigh = "critical_high"
)

// ThresholdAlert 硬阈值告警（每个越界体征产生一条，severity 恒为 critical）
type ThresholdAlert struct {
	Type         string  `json:"type"` // critical_low / critical_high
	VitalSign    string  `json:"vital_sign"`
	CurrentValue float64 `json:"current_value"`
	Threshold    float64 `json:"threshold"` // 被突破的边界值
	Severity     string  `json:"severity"`
	Message      string  `json:"message"`
}

// OverallStatus 融合后的综合健康状态判定
// 每次分析产生一个新实例，创建后不再修改
type OverallStatus struct {
	Level          string  `json:"level"`
	Severity       string  `json:"severity"`
	Confidence     float64 `json:"confidence"`
	PrimaryConcern *string `json:"primary_concern"`
	Summary        string  `json:"summary"`
}

// AnomalyDetectionResult 异常检测结果分解（用于分析结果展示）
type AnomalyDetectionResult struct {
	IsAnomaly bool    `json:"is_anomaly"`
	RiskScore float64 `json:"risk_score"`
	RiskLevel string  `json:"risk_level"`
}

// EmergencyClassificationResult 紧急分类结果分解
type EmergencyClassificationResult struct {
	PredictedEmergency string  `json:"predicted_emergency"`
	Confidence         float64 `json:"confidence"`
	Severity           string  `json:"severity"`
}

// RiskPredictionResult 风险预测结果分解
type RiskPredictionResult struct {
	OverallRiskScore float64                         `json:"overall_risk_score"`
	RiskLevel        string                          `json:"risk_level"`
	TimePredictions  map[string]RiskWindowPrediction `json:"time_predictions,omitempty"`
	KeyRiskFactors   []string                        `json:"key_risk_factors,omitempty"`
}

// AnalysisResult 一次完整分析的输出（FusionEngine.Analyze 的返回值）
type AnalysisResult struct {
	DeviceID      string         `json:"device_id"`
	CurrentVitals Reading        `json:"current_vitals"`
	OverallStatus OverallStatus  `json:"overall_status"`

	ImmediateAlerts           []ThresholdAlert `json:"immediate_alerts"`
	Recommendations           []string         `json:"recommendations"`
	RequiresEmergencyResponse bool             `json:"requires_emergency_response"`
	ConfidenceScore           float64          `json:"confidence_score"`

	// 各评分器结果分解（评分器缺席时为 nil）
	AnomalyDetection        *AnomalyDetectionResult        `json:"anomaly_detection,omitempty"`
	EmergencyClassification *EmergencyClassificationResult `json:"emergency_classification,omitempty"`
	RiskPrediction          *RiskPredictionResult          `json:"risk_prediction,omitempty"`

	AnalysisTimestamp time.Time `json:"analysis_timestamp"`
	ProcessingTimeMs  float64   `json:"processing_time_ms"`
	Error             string    `json:"error,omitempty"`
}
