package scorer

import (
	"context"

	"wisefido-health-monitor/internal/models"
	"wisefido-health-monitor/internal/risk"
)

// RiskRegressor 规则版风险回归评分器（内置默认实现）
//
// 基于设备最近历史计算基础风险评分，供融合引擎的风险路径使用。
type RiskRegressor struct {
	enabled bool
}

// NewRiskRegressor 创建风险回归评分器
func NewRiskRegressor() *RiskRegressor {
	return &RiskRegressor{enabled: true}
}

// Kind 返回评分器类型
func (r *RiskRegressor) Kind() Kind { return KindRisk }

// IsAvailable 返回评分器是否可用
func (r *RiskRegressor) IsAvailable() bool { return r.enabled }

// SetAvailable 设置可用状态
func (r *RiskRegressor) SetAvailable(available bool) { r.enabled = available }

// Score 基于历史评估风险
// 历史不含当前读数时把当前读数并入评估窗口
func (r *RiskRegressor) Score(ctx context.Context, reading models.Reading, history []models.Reading) (*models.Signal, error) {
	window := history
	if len(window) == 0 || !window[len(window)-1].Timestamp.Equal(reading.Timestamp) {
		window = append(append([]models.Reading{}, history...), reading)
	}

	score, factors := risk.BaseScore(window)
	level := risk.LevelFor(score)

	return &models.Signal{
		Source:          models.SourceRisk,
		Confidence:      0.75,
		Label:           level,
		Recommendations: riskSignalRecommendations(level),
		Risk: &models.RiskPayload{
			BaseScore:   score,
			RiskLevel:   level,
			RiskFactors: factors,
		},
	}, nil
}

// riskSignalRecommendations 风险信号自带的建议
func riskSignalRecommendations(level string) []string {
	switch level {
	case models.RiskLevelCritical, models.RiskLevelHigh:
		return []string{"Contact healthcare provider"}
	case models.RiskLevelMedium:
		return []string{"Monitor vitals closely"}
	default:
		return []string{"Maintain healthy habits"}
	}
}
