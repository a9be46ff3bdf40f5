// Package risk 提供基础风险评分与多时间窗口的风险外推
//
// 风险随时间窗口按线性系数上调（每 24 小时 +10%），上限 0.95，
// 并按固定分段映射到分类等级。
package risk

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"wisefido-health-monitor/internal/models"
)

// 外推时间窗口（小时），固定集合
var predictionWindows = []int{1, 6, 12, 24}

// 风险评分上限
const maxWindowedRisk = 0.95

// 基础评分使用的最近读数条数
const baseScoreWindow = 10

// Windower 风险窗口外推器
type Windower struct {
	minPoints int // 预报所需的最少历史点数
	logger    *zap.Logger
}

// NewWindower 创建风险外推器
func NewWindower(minPoints int, logger *zap.Logger) *Windower {
	if minPoints <= 0 {
		minPoints = 5
	}
	return &Windower{
		minPoints: minPoints,
		logger:    logger,
	}
}

// Project 对基础风险评分做全部时间窗口的外推
func (w *Windower) Project(baseScore float64) map[string]models.RiskWindowPrediction {
	predictions := make(map[string]models.RiskWindowPrediction, len(predictionWindows))

	for _, window := range predictionWindows {
		// 风险随窗口增大：每 24 小时 +10%
		timeFactor := 1 + float64(window)/24*0.1
		windowed := baseScore * timeFactor
		if windowed > maxWindowedRisk {
			windowed = maxWindowedRisk
		}

		predictions[fmt.Sprintf("%dh", window)] = models.RiskWindowPrediction{
			RiskScore:   windowed,
			RiskLevel:   LevelFor(windowed),
			Probability: windowed * 100,
		}
	}

	return predictions
}

// LevelFor 评分到分类等级的固定分段
func LevelFor(score float64) string {
	switch {
	case score >= 0.8:
		return models.RiskLevelCritical
	case score >= 0.6:
		return models.RiskLevelHigh
	case score >= 0.4:
		return models.RiskLevelMedium
	case score >= 0.2:
		return models.RiskLevelLow
	default:
		return models.RiskLevelMinimal
	}
}

// BaseScore 从最近历史计算基础风险评分和风险因素
// 只看最近 baseScoreWindow 条读数中的异常模式
func BaseScore(readings []models.Reading) (float64, []string) {
	recent := readings
	if len(recent) > baseScoreWindow {
		recent = recent[len(recent)-baseScoreWindow:]
	}

	score := 0.0
	var factors []string

	if anyVitalExceeds(recent, models.VitalHeartRate, 120) {
		factors = append(factors, "elevated_heart_rate")
		score += 0.2
	}
	if anyVitalExceeds(recent, models.VitalTemperature, 38.0) {
		factors = append(factors, "fever_pattern")
		score += 0.3
	}
	if anyVitalExceeds(recent, models.VitalSystolicBP, 160) {
		factors = append(factors, "hypertension_risk")
		score += 0.4
	}
	if anyVitalBelow(recent, models.VitalSpO2, 94) {
		factors = append(factors, "respiratory_concern")
		score += 0.5
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, factors
}

// Forecast 生成完整的风险预报
// 历史点数不足时返回 status=insufficient_data 的结构化结果
func (w *Windower) Forecast(deviceID string, readings []models.Reading) *models.RiskForecast {
	forecast := &models.RiskForecast{
		DeviceID:           deviceID,
		DataPointsAnalyzed: len(readings),
		GeneratedAt:        time.Now(),
	}

	if len(readings) < w.minPoints {
		forecast.Status = models.SummaryStatusInsufficientData
		forecast.Message = fmt.Sprintf("Need at least %d data points for risk prediction", w.minPoints)
		return forecast
	}

	score, factors := BaseScore(readings)

	forecast.Status = models.SummaryStatusOK
	forecast.OverallRiskScore = score
	forecast.RiskLevel = LevelFor(score)
	forecast.TimePredictions = w.Project(score)
	forecast.RiskFactors = factors
	forecast.Recommendations = riskRecommendations(forecast.RiskLevel, factors)
	forecast.PredictionConfidence = 0.75

	w.logger.Debug("Risk forecast generated",
		zap.String("device_id", deviceID),
		zap.Float64("risk_score", score),
		zap.String("risk_level", forecast.RiskLevel),
	)

	return forecast
}

// riskRecommendations 根据风险等级和风险因素生成建议
func riskRecommendations(level string, factors []string) []string {
	var recommendations []string

	switch level {
	case models.RiskLevelCritical, models.RiskLevelHigh:
		recommendations = append(recommendations,
			"Immediate medical attention recommended",
			"Contact emergency services if symptoms worsen",
		)
	case models.RiskLevelMedium:
		recommendations = append(recommendations,
			"Monitor vitals closely",
			"Consider consulting healthcare provider",
		)
	}

	for _, factor := range factors {
		switch factor {
		case "elevated_heart_rate":
			recommendations = append(recommendations, "Reduce physical activity and stress")
		case "fever_pattern":
			recommendations = append(recommendations, "Stay hydrated and monitor temperature")
		case "hypertension_risk":
			recommendations = append(recommendations, "Reduce sodium intake and monitor blood pressure")
		case "respiratory_concern":
			recommendations = append(recommendations, "Ensure adequate ventilation and avoid pollutants")
		}
	}

	return recommendations
}

func anyVitalExceeds(readings []models.Reading, vital string, limit float64) bool {
	for _, r := range readings {
		if v, ok := r.Vital(vital); ok && v > limit {
			return true
		}
	}
	return false
}

func anyVitalBelow(readings []models.Reading, vital string, limit float64) bool {
	for _, r := range readings {
		if v, ok := r.Vital(vital); ok && v < limit {
			return true
		}
	}
	return false
}
