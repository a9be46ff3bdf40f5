// Package trend 提供历史窗口内的统计与趋势分析
//
// 每个体征计算均值/最小/最大/计数与方向趋势，
// 并基于正常范围给出 0-100 的整体健康评分。
package trend

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"wisefido-health-monitor/internal/config"
	"wisefido-health-monitor/internal/models"
)

// 方向分类所需的每体征最少样本数
const minPointsPerVital = 5

// Analyzer 趋势分析器
type Analyzer struct {
	normalRanges map[string]config.VitalBounds
	minPoints    int // 整体汇总所需的最少历史点数
	logger       *zap.Logger
}

// NewAnalyzer 创建趋势分析器
func NewAnalyzer(normalRanges map[string]config.VitalBounds, minPoints int, logger *zap.Logger) *Analyzer {
	if minPoints <= 0 {
		minPoints = 10
	}
	return &Analyzer{
		normalRanges: normalRanges,
		minPoints:    minPoints,
		logger:       logger,
	}
}

// Summarize 汇总一段历史窗口
// 历史点数不足时返回 status=insufficient_data 的结构化结果，不是错误
func (a *Analyzer) Summarize(deviceID string, readings []models.Reading, windowDays int) *models.HealthSummary {
	summary := &models.HealthSummary{
		DeviceID:          deviceID,
		SummaryPeriodDays: windowDays,
		TotalReadings:     len(readings),
		GeneratedAt:       time.Now(),
	}

	if len(readings) < a.minPoints {
		summary.Status = models.SummaryStatusInsufficientData
		summary.Message = fmt.Sprintf("Need at least %d data points for trend analysis", a.minPoints)
		return summary
	}

	summary.Status = models.SummaryStatusOK
	first := readings[0].Timestamp
	last := readings[len(readings)-1].Timestamp
	summary.FirstReading = &first
	summary.LastReading = &last

	// 按体征抽取数值序列（保持时间顺序）
	series := make(map[string][]float64)
	for _, r := range readings {
		for _, vital := range models.VitalNames {
			if v, ok := r.Vital(vital); ok {
				series[vital] = append(series[vital], v)
			}
		}
	}

	// 各体征统计量
	stats := make(map[string]models.VitalStats)
	for vital, values := range series {
		if len(values) == 0 {
			continue
		}
		stats[vital] = calcStats(values)
	}
	summary.VitalSignsSummary = stats

	// 各体征方向趋势
	trends := make(map[string]string)
	for _, vital := range models.VitalNames {
		trends[vital] = classifyDirection(series[vital])
	}
	summary.HealthTrends = trends
	summary.OverallTrajectory = overallTrajectory(trends)

	summary.AlertFrequency = &models.AlertFrequency{
		TotalReadings:   len(readings),
		EstimatedAlerts: len(readings) / 20,
		AlertRatePct:    5.0,
	}

	summary.OverallScore = a.healthScore(stats)

	a.logger.Debug("Health summary generated",
		zap.String("device_id", deviceID),
		zap.Int("readings", len(readings)),
		zap.Float64("overall_score", summary.OverallScore),
	)

	return summary
}

// calcStats 计算一个数值序列的统计量
func calcStats(values []float64) models.VitalStats {
	min, max, sum := values[0], values[0], 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return models.VitalStats{
		Average:       sum / float64(len(values)),
		Minimum:       min,
		Maximum:       max,
		ReadingsCount: len(values),
	}
}

// classifyDirection 方向分类
// 比较序列首四分之一与末四分之一的均值，相对变化超过 ±5% 判定为 increasing/decreasing
// 样本不足 minPointsPerVital 时返回 insufficient_data
func classifyDirection(values []float64) string {
	if len(values) < minPointsPerVital {
		return models.TrendInsufficientData
	}

	quarter := len(values) / 4
	if quarter < 1 {
		quarter = 1
	}

	avgFirst := mean(values[:quarter])
	avgLast := mean(values[len(values)-quarter:])

	switch {
	case avgFirst != 0 && avgLast > avgFirst*1.05:
		return models.TrendIncreasing
	case avgFirst != 0 && avgLast < avgFirst*0.95:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

// overallTrajectory 整体轨迹
// 体征值上升通常是恶化信号，下降趋势视为改善
func overallTrajectory(trends map[string]string) string {
	increasing, decreasing := 0, 0
	for _, direction := range trends {
		switch direction {
		case models.TrendIncreasing:
			increasing++
		case models.TrendDecreasing:
			decreasing++
		}
	}

	switch {
	case increasing > decreasing:
		return models.TrajectoryConcerning
	case decreasing > increasing:
		return models.TrajectoryImproving
	default:
		return models.TrajectoryStable
	}
}

// healthScore 整体健康评分（0-100）
// 均值落在正常范围内得满分，范围外按相对偏离线性衰减，各体征取平均
func (a *Analyzer) healthScore(stats map[string]models.VitalStats) float64 {
	var scores []float64

	for _, vital := range models.VitalNames {
		s, ok := stats[vital]
		if !ok {
			continue
		}
		bounds, ok := a.normalRanges[vital]
		if !ok {
			continue
		}

		avg := s.Average
		if avg >= bounds.Min && avg <= bounds.Max {
			scores = append(scores, 100)
			continue
		}

		var deviation float64
		if avg < bounds.Min {
			deviation = (bounds.Min - avg) / bounds.Min
		} else {
			deviation = (avg - bounds.Max) / bounds.Max
		}

		score := 100 - deviation*100
		if score < 0 {
			score = 0
		}
		scores = append(scores, score)
	}

	if len(scores) == 0 {
		return 50.0 // 无可用数据时的中性评分
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
