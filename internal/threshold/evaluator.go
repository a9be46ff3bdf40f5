// Package threshold 提供生命体征硬阈值检查
//
// 阈值表只编码硬生理极限，不做分级风险，越界一律 critical。
package threshold

import (
	"fmt"

	"wisefido-health-monitor/internal/config"
	"wisefido-health-monitor/internal/models"
)

// Evaluator 阈值评估器（无状态，边界表在构建时注入）
type Evaluator struct {
	order  []string // 评估顺序，构建时固定
	bounds map[string]config.VitalBounds
}

// NewEvaluator 创建阈值评估器
// 评估顺序按 models.VitalNames 固定，只包含边界表中存在的体征
func NewEvaluator(bounds map[string]config.VitalBounds) *Evaluator {
	order := make([]string, 0, len(bounds))
	for _, vital := range models.VitalNames {
		if _, ok := bounds[vital]; ok {
			order = append(order, vital)
		}
	}
	return &Evaluator{
		order:  order,
		bounds: bounds,
	}
}

// Evaluate 检查一条读数的所有越界体征
// 读数中缺失的体征不参与评估，返回顺序与构建时的边界表顺序一致
func (e *Evaluator) Evaluate(reading models.Reading) []models.ThresholdAlert {
	var alerts []models.ThresholdAlert

	for _, vital := range e.order {
		value, ok := reading.Vital(vital)
		if !ok {
			continue
		}

		b := e.bounds[vital]
		switch {
		case value < b.Min:
			alerts = append(alerts, models.ThresholdAlert{
				Type:         models.AlertCriticalLow,
				VitalSign:    vital,
				CurrentValue: value,
				Threshold:    b.Min,
				Severity:     models.SeverityCritical,
				Message:      fmt.Sprintf("%s critically low: %g", vital, value),
			})
		case value > b.Max:
			alerts = append(alerts, models.ThresholdAlert{
				Type:         models.AlertCriticalHigh,
				VitalSign:    vital,
				CurrentValue: value,
				Threshold:    b.Max,
				Severity:     models.SeverityCritical,
				Message:      fmt.Sprintf("%s critically high: %g", vital, value),
			})
		}
	}

	return alerts
}
