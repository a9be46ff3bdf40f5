package models

// SignalSource 信号来源（外部评分器类型）
type SignalSource string

const (
	SourceAnomaly        SignalSource = "anomaly"
	SourceClassification SignalSource = "classification"
	SourceRisk           SignalSource = "risk"
)

// 风险等级（评分器输出的分类等级）
const (
	RiskLevelMinimal  = "minimal"
	RiskLevelLow      = "low"
	RiskLevelMedium   = "medium"
	RiskLevelHigh     = "high"
	RiskLevelCritical = "critical"
	RiskLevelNormal   = "normal"
)

// Signal 评分器归一化输出
// 每个评分器的异构结果统一成固定形状，融合引擎不再探测动态键
// 三个 payload 中只有与 Source 对应的一个非 nil
type Signal struct {
	Source          SignalSource `json:"source"`
	Confidence      float64      `json:"confidence"` // 0-1
	Label           string       `json:"label"`
	Recommendations []string     `json:"recommendations,omitempty"`

	Anomaly        *AnomalyPayload        `json:"anomaly,omitempty"`
	Classification *ClassificationPayload `json:"classification,omitempty"`
	Risk           *RiskPayload           `json:"risk,omitempty"`
}

// AnomalyPayload 异常检测评分器的载荷
type AnomalyPayload struct {
	IsAnomaly bool    `json:"is_anomaly"`
	RiskLevel string  `json:"risk_level"`
	RiskScore float64 `json:"risk_score"` // 0-100
}

// ClassificationPayload 紧急事件分类评分器的载荷
type ClassificationPayload struct {
	Category                   string `json:"category"` // "normal"、"cardiac_arrest" 等
	Severity                   string `json:"severity"`
	RequiresImmediateAttention bool   `json:"requires_immediate_attention"`
}

// RiskPayload 风险回归评分器的载荷
type RiskPayload struct {
	BaseScore   float64  `json:"base_score"` // 0-1
	RiskLevel   string   `json:"risk_level"`
	RiskFactors []string `json:"risk_factors,omitempty"`
}
