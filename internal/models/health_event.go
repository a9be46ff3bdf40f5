package models

import (
	"time"
)

// 健康事件级别（对应 health_events.alarm_level）
const (
	EventLevelEmergency = "EMERGENCY"
	EventLevelWarning   = "WARNING"
)

// HealthEvent 健康事件（对应 health_events 表）
// 高严重度的分析结果持久化为健康事件，供护理端查询和处理
type HealthEvent struct {
	EventID     string     `json:"event_id" db:"event_id"`
	TenantID    string     `json:"tenant_id" db:"tenant_id"`
	DeviceID    string     `json:"device_id" db:"device_id"`
	EventType   string     `json:"event_type" db:"event_type"` // ThresholdBreach, cardiac_arrest 等
	Category    string     `json:"category" db:"category"`     // clinical
	AlarmLevel  string     `json:"alarm_level" db:"alarm_level"`
	AlarmStatus string     `json:"alarm_status" db:"alarm_status"` // active, acknowledged
	TriggeredAt time.Time  `json:"triggered_at" db:"triggered_at"`
	HandTime    *time.Time `json:"hand_time,omitempty" db:"hand_time"`
	TriggerData string     `json:"trigger_data" db:"trigger_data"` // JSONB
	Handler     *string    `json:"handler,omitempty" db:"handler"`
	Notes       *string    `json:"notes,omitempty" db:"notes"`
	Metadata    string     `json:"metadata" db:"metadata"` // JSONB
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// EventTriggerData 触发快照（JSONB 结构，记录触发时的体征和判定）
type EventTriggerData struct {
	HeartRate       *float64 `json:"heart_rate,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	SystolicBP      *float64 `json:"systolic_bp,omitempty"`
	DiastolicBP     *float64 `json:"diastolic_bp,omitempty"`
	SpO2            *float64 `json:"spo2,omitempty"`
	RespiratoryRate *float64 `json:"respiratory_rate,omitempty"`

	Level          string   `json:"level"`
	Severity       string   `json:"severity"`
	Confidence     float64  `json:"confidence"`
	PrimaryConcern *string  `json:"primary_concern,omitempty"`
	Alerts         []string `json:"alerts,omitempty"` // 阈值告警消息
}
