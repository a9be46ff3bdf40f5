package fusion

import "wisefido-health-monitor/internal/models"

// 建议列表上限
const maxRecommendations = 10

// mergeRecommendations 按来源优先级合并各路信号的建议
// 阈值告警置顶，之后依次是异常检测、紧急分类、风险信号的建议。
// 去重保留首次出现的位置，总数封顶
func mergeRecommendations(
	alerts []models.ThresholdAlert,
	anomalySignal, classSignal, riskSignal *models.Signal,
) []string {
	var merged []string

	if len(alerts) > 0 {
		merged = append(merged, "IMMEDIATE MEDICAL ATTENTION REQUIRED")
	}
	if anomalySignal != nil {
		merged = append(merged, anomalySignal.Recommendations...)
	}
	if classSignal != nil {
		merged = append(merged, classSignal.Recommendations...)
	}
	if riskSignal != nil {
		merged = append(merged, riskSignal.Recommendations...)
	}

	seen := make(map[string]bool, len(merged))
	deduped := make([]string, 0, len(merged))
	for _, rec := range merged {
		if seen[rec] {
			continue
		}
		seen[rec] = true
		deduped = append(deduped, rec)
		if len(deduped) == maxRecommendations {
			break
		}
	}

	return deduped
}
