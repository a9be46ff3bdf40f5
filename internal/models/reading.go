package models

import "time"

// 生命体征名称（与可穿戴设备上报字段一致）
const (
	VitalHeartRate       = "heart_rate"
	VitalTemperature     = "temperature"
	VitalSystolicBP      = "systolic_bp"
	VitalDiastolicBP     = "diastolic_bp"
	VitalSpO2            = "spo2"
	VitalRespiratoryRate = "respiratory_rate"
)

// VitalNames 生命体征名称列表（固定顺序，阈值评估和趋势分析按此顺序迭代）
var VitalNames = []string{
	VitalHeartRate,
	VitalTemperature,
	VitalSystolicBP,
	VitalDiastolicBP,
	VitalSpO2,
	VitalRespiratoryRate,
}

// Reading 一次可穿戴设备上报的生命体征快照（存储后不可变）
type Reading struct {
	HeartRate       *float64 `json:"heart_rate,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	SystolicBP      *float64 `json:"systolic_bp,omitempty"`
	DiastolicBP     *float64 `json:"diastolic_bp,omitempty"`
	SpO2            *float64 `json:"spo2,omitempty"`
	RespiratoryRate *float64 `json:"respiratory_rate,omitempty"`

	// 可选的附加信号
	ActivityLevel   *int  `json:"activity_level,omitempty"`
	StressLevel     *int  `json:"stress_level,omitempty"`
	FallDetected    *bool `json:"fall_detected,omitempty"`
	MedicationTaken *bool `json:"medication_taken,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Vital 按名称读取一个生命体征值
// 第二个返回值为 false 表示该体征在本次上报中缺失
func (r *Reading) Vital(name string) (float64, bool) {
	var v *float64
	switch name {
	case VitalHeartRate:
		v = r.HeartRate
	case VitalTemperature:
		v = r.Temperature
	case VitalSystolicBP:
		v = r.SystolicBP
	case VitalDiastolicBP:
		v = r.DiastolicBP
	case VitalSpO2:
		v = r.SpO2
	case VitalRespiratoryRate:
		v = r.RespiratoryRate
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// VitalOrDefault 按名称读取生命体征值，缺失时返回默认值
func (r *Reading) VitalOrDefault(name string, def float64) float64 {
	if v, ok := r.Vital(name); ok {
		return v
	}
	return def
}
