package fusion

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"wisefido-health-monitor/internal/models"
)

// 阈值越界事件的事件类型
const eventTypeThresholdBreach = "ThresholdBreach"

// BuildHealthEvent 把高严重度的分析结果转为待持久化的健康事件
// 只有 emergency 和 warning 级别产生事件，其余返回 nil
func BuildHealthEvent(tenantID string, result *models.AnalysisResult) *models.HealthEvent {
	var alarmLevel string
	switch result.OverallStatus.Level {
	case models.LevelEmergency:
		alarmLevel = models.EventLevelEmergency
	case models.LevelWarning:
		alarmLevel = models.EventLevelWarning
	default:
		return nil
	}

	eventType := eventTypeThresholdBreach
	if len(result.ImmediateAlerts) == 0 {
		if c := result.EmergencyClassification; c != nil && c.PredictedEmergency != "normal" {
			eventType = c.PredictedEmergency
		} else {
			eventType = "AnomalyPattern"
		}
	}

	trigger := models.EventTriggerData{
		HeartRate:       result.CurrentVitals.HeartRate,
		Temperature:     result.CurrentVitals.Temperature,
		SystolicBP:      result.CurrentVitals.SystolicBP,
		DiastolicBP:     result.CurrentVitals.DiastolicBP,
		SpO2:            result.CurrentVitals.SpO2,
		RespiratoryRate: result.CurrentVitals.RespiratoryRate,
		Level:           result.OverallStatus.Level,
		Severity:        result.OverallStatus.Severity,
		Confidence:      result.OverallStatus.Confidence,
		PrimaryConcern:  result.OverallStatus.PrimaryConcern,
	}
	for _, alert := range result.ImmediateAlerts {
		trigger.Alerts = append(trigger.Alerts, alert.Message)
	}

	triggerJSON, err := json.Marshal(trigger)
	if err != nil {
		triggerJSON = []byte("{}")
	}

	now := time.Now()
	return &models.HealthEvent{
		EventID:     uuid.New().String(),
		TenantID:    tenantID,
		DeviceID:    result.DeviceID,
		EventType:   eventType,
		Category:    "clinical",
		AlarmLevel:  alarmLevel,
		AlarmStatus: "active",
		TriggeredAt: result.AnalysisTimestamp,
		TriggerData: string(triggerJSON),
		Metadata:    "{}",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
