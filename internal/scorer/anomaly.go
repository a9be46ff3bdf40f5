package scorer

import (
	"context"

	"wisefido-health-monitor/internal/models"
)

// AnomalyDetector 规则版异常检测评分器（内置默认实现）
//
// 对读数的生命体征做模式检查，输出是否异常、风险等级和建议。
// 训练好的模型服务可以替换这个实现，契约不变。
type AnomalyDetector struct {
	enabled bool
}

// NewAnomalyDetector 创建异常检测评分器
func NewAnomalyDetector() *AnomalyDetector {
	return &AnomalyDetector{enabled: true}
}

// Kind 返回评分器类型
func (d *AnomalyDetector) Kind() Kind { return KindAnomaly }

// IsAvailable 返回评分器是否可用
func (d *AnomalyDetector) IsAvailable() bool { return d.enabled }

// SetAvailable 设置可用状态（模型加载/卸载时切换）
func (d *AnomalyDetector) SetAvailable(available bool) { d.enabled = available }

// Score 评估一条读数
func (d *AnomalyDetector) Score(ctx context.Context, reading models.Reading, history []models.Reading) (*models.Signal, error) {
	hr := reading.VitalOrDefault(models.VitalHeartRate, 70)
	temp := reading.VitalOrDefault(models.VitalTemperature, 36.8)
	spo2 := reading.VitalOrDefault(models.VitalSpO2, 98)

	prob := anomalyProbability(hr, temp, spo2)
	isAnomaly := prob > 0.5
	riskLevel := assessRiskLevel(hr, temp, spo2, prob)

	return &models.Signal{
		Source:          models.SourceAnomaly,
		Confidence:      prob,
		Label:           riskLevel,
		Recommendations: anomalyRecommendations(riskLevel),
		Anomaly: &models.AnomalyPayload{
			IsAnomaly: isAnomaly,
			RiskLevel: riskLevel,
			RiskScore: prob * 100,
		},
	}, nil
}

// anomalyProbability 异常概率估计
// 每个偏离正常模式的体征贡献一部分概率
func anomalyProbability(hr, temp, spo2 float64) float64 {
	prob := 0.1 // 基线
	if hr > 100 || hr < 50 {
		prob += 0.3
	}
	if temp > 38 || temp < 35 {
		prob += 0.3
	}
	if spo2 < 95 {
		prob += 0.3
	}
	if prob > 1.0 {
		prob = 1.0
	}
	return prob
}

// assessRiskLevel 基于体征和异常概率判定风险等级
func assessRiskLevel(hr, temp, spo2, prob float64) string {
	// 硬极限直接 critical
	if hr > 150 || hr < 40 || temp > 39 || spo2 < 90 {
		return models.RiskLevelCritical
	}
	switch {
	case prob > 0.8:
		return models.RiskLevelHigh
	case prob > 0.6:
		return models.RiskLevelMedium
	case prob > 0.3:
		return models.RiskLevelLow
	default:
		return models.RiskLevelNormal
	}
}

// anomalyRecommendations 按风险等级给出建议
func anomalyRecommendations(riskLevel string) []string {
	switch riskLevel {
	case models.RiskLevelCritical:
		return []string{
			"EMERGENCY: Seek immediate medical attention",
			"Call emergency services (108) immediately",
			"Monitor vital signs continuously",
		}
	case models.RiskLevelHigh:
		return []string{
			"Contact healthcare provider immediately",
			"Monitor symptoms closely",
			"Avoid strenuous activities",
		}
	case models.RiskLevelMedium:
		return []string{
			"Consider consulting a healthcare provider",
			"Monitor vital signs regularly",
			"Stay hydrated and rest",
		}
	case models.RiskLevelLow:
		return []string{
			"Continue normal monitoring",
			"Maintain healthy lifestyle",
			"Stay hydrated",
		}
	default:
		return []string{
			"Vital signs normal",
			"Continue regular health monitoring",
			"Maintain current health routine",
		}
	}
}
