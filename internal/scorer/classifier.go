package scorer

import (
	"context"

	"wisefido-health-monitor/internal/models"
)

// 紧急事件类别
const (
	CategoryNormal              = "normal"
	CategoryCardiacArrest       = "cardiac_arrest"
	CategoryStroke              = "stroke"
	CategoryHyperthermia        = "hyperthermia"
	CategoryHypothermia         = "hypothermia"
	CategorySevereHypotension   = "severe_hypotension"
	CategorySevereHypertension  = "severe_hypertension"
	CategoryRespiratoryDistress = "respiratory_distress"
	CategorySeizure             = "seizure"
	CategoryFallDetected        = "fall_detected"
)

// EmergencyClassifier 规则版紧急事件分类评分器（内置默认实现）
//
// 按体征模式匹配紧急事件类别，输出类别、严重程度和处置建议。
type EmergencyClassifier struct {
	enabled bool
}

// NewEmergencyClassifier 创建紧急分类评分器
func NewEmergencyClassifier() *EmergencyClassifier {
	return &EmergencyClassifier{enabled: true}
}

// Kind 返回评分器类型
func (c *EmergencyClassifier) Kind() Kind { return KindClassification }

// IsAvailable 返回评分器是否可用
func (c *EmergencyClassifier) IsAvailable() bool { return c.enabled }

// SetAvailable 设置可用状态
func (c *EmergencyClassifier) SetAvailable(available bool) { c.enabled = available }

// Score 对一条读数分类
func (c *EmergencyClassifier) Score(ctx context.Context, reading models.Reading, history []models.Reading) (*models.Signal, error) {
	category, confidence := classify(reading)
	severity := categorySeverity(category, confidence)

	return &models.Signal{
		Source:          models.SourceClassification,
		Confidence:      confidence,
		Label:           category,
		Recommendations: emergencyActions(category),
		Classification: &models.ClassificationPayload{
			Category:                   category,
			Severity:                   severity,
			RequiresImmediateAttention: category != CategoryNormal && confidence > 0.6,
		},
	}, nil
}

// classify 体征模式到紧急事件类别的匹配
// 规则按特异性从高到低排列，第一条命中即返回
func classify(reading models.Reading) (string, float64) {
	hr := reading.VitalOrDefault(models.VitalHeartRate, 70)
	temp := reading.VitalOrDefault(models.VitalTemperature, 36.8)
	sys := reading.VitalOrDefault(models.VitalSystolicBP, 120)
	dia := reading.VitalOrDefault(models.VitalDiastolicBP, 80)
	spo2 := reading.VitalOrDefault(models.VitalSpO2, 98)
	rr := reading.VitalOrDefault(models.VitalRespiratoryRate, 16)

	fall := reading.FallDetected != nil && *reading.FallDetected

	switch {
	case fall:
		return CategoryFallDetected, 0.9
	case hr > 170 && sys < 90 && spo2 < 92:
		return CategoryCardiacArrest, 0.85
	case temp < 33:
		return CategoryHypothermia, 0.85
	case temp > 40:
		return CategoryHyperthermia, 0.85
	case spo2 < 90 && rr > 26:
		return CategoryRespiratoryDistress, 0.85
	case sys > 190 && dia > 115:
		return CategorySevereHypertension, 0.8
	case sys < 80 && hr > 100:
		return CategorySevereHypotension, 0.8
	case sys > 170 && dia > 105:
		return CategoryStroke, 0.72
	case hr > 125 && temp > 37.5 && sys > 145:
		return CategorySeizure, 0.7
	default:
		return CategoryNormal, 0.9
	}
}

// categorySeverity 类别到严重程度的映射（置信度参与分级）
func categorySeverity(category string, confidence float64) string {
	critical := map[string]bool{
		CategoryCardiacArrest:       true,
		CategoryStroke:              true,
		CategorySevereHypotension:   true,
		CategoryRespiratoryDistress: true,
	}
	high := map[string]bool{
		CategorySevereHypertension: true,
		CategoryHyperthermia:       true,
		CategoryHypothermia:        true,
		CategorySeizure:            true,
	}
	medium := map[string]bool{
		CategoryFallDetected: true,
	}

	switch {
	case critical[category] && confidence > 0.7:
		return models.SeverityCritical
	case critical[category] || (high[category] && confidence > 0.8):
		return models.SeverityHigh
	case high[category] || (medium[category] && confidence > 0.7):
		return models.SeverityMedium
	case category != CategoryNormal:
		return models.SeverityLow
	default:
		return models.SeverityNormal
	}
}

// emergencyActions 每个紧急事件类别的处置建议
func emergencyActions(category string) []string {
	actions := map[string][]string{
		CategoryNormal: {
			"Continue normal monitoring",
			"Maintain healthy lifestyle",
		},
		CategoryCardiacArrest: {
			"CALL 108 IMMEDIATELY",
			"Begin CPR if trained",
			"Use AED if available",
			"Notify nearest hospital",
		},
		CategoryStroke: {
			"CALL 108 IMMEDIATELY",
			"Note time of symptom onset",
			"Keep patient calm and still",
			"Check for FAST symptoms",
		},
		CategoryHyperthermia: {
			"Move to cool environment",
			"Remove excess clothing",
			"Apply cool water to skin",
			"Seek immediate medical attention",
		},
		CategoryHypothermia: {
			"Move to warm environment",
			"Remove wet clothing",
			"Wrap in warm blankets",
			"Seek immediate medical attention",
		},
		CategorySevereHypotension: {
			"Elevate legs",
			"Increase fluid intake if conscious",
			"Call emergency services",
			"Monitor vital signs",
		},
		CategorySevereHypertension: {
			"Keep patient calm",
			"Avoid sudden movements",
			"Call emergency services",
			"Monitor for stroke symptoms",
		},
		CategoryRespiratoryDistress: {
			"Help patient sit upright",
			"Ensure airway is clear",
			"Call emergency services",
			"Use rescue inhaler if available",
		},
		CategorySeizure: {
			"Keep patient safe from injury",
			"Time the seizure",
			"Call 108 if seizure lasts >5 minutes",
			"Stay with patient until recovery",
		},
		CategoryFallDetected: {
			"Check for injuries",
			"Do not move if spinal injury suspected",
			"Call emergency services if needed",
			"Monitor vital signs",
		},
	}

	if a, ok := actions[category]; ok {
		return a
	}
	return []string{"Seek medical attention"}
}
