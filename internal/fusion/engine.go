// Package fusion 实现多信号健康判定融合引擎
//
// 把硬阈值告警和三类评分器信号（异常检测、紧急分类、风险回归）
// 融合为单一综合判定。规则按优先级严格排序，高优先级命中即短路，
// 不做加权平均。评分器缺席只影响对应路径，不影响其余规则。
package fusion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"wisefido-health-monitor/internal/history"
	"wisefido-health-monitor/internal/models"
	"wisefido-health-monitor/internal/risk"
	"wisefido-health-monitor/internal/scorer"
	"wisefido-health-monitor/internal/threshold"
)

// 参与融合判定的信号门槛
const (
	classificationMinConfidence = 0.7 // 分类信号参与判定的最低置信度
	riskScoreThreshold          = 0.6 // 风险基础评分触发 caution 的门槛
)

// 每次分析传给评分器的历史窗口长度
const scorerHistoryWindow = 50

// Engine 融合引擎
// 一次 Analyze 调用完成：历史追加、阈值检查、评分器调用、优先级判定
type Engine struct {
	store     *history.Store
	evaluator *threshold.Evaluator
	scorers   *scorer.Adapter
	windower  *risk.Windower
	logger    *zap.Logger
}

// NewEngine 创建融合引擎
func NewEngine(
	store *history.Store,
	evaluator *threshold.Evaluator,
	scorers *scorer.Adapter,
	windower *risk.Windower,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		store:     store,
		evaluator: evaluator,
		scorers:   scorers,
		windower:  windower,
		logger:    logger,
	}
}

// Analyze 对一条设备读数做完整分析
// 任何内部 panic 都被吸收为 error 级别的判定结果，绝不让单条读数
// 中断整个消费循环
func (e *Engine) Analyze(ctx context.Context, deviceID string, reading models.Reading) (result *models.AnalysisResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Analysis panicked",
				zap.String("device_id", deviceID),
				zap.Any("panic", r),
			)
			result = errorResult(deviceID, reading, fmt.Sprintf("%v", r))
			result.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000
		}
	}()

	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now()
	}

	e.store.Append(deviceID, reading)
	deviceHistory := e.store.Recent(deviceID, scorerHistoryWindow)

	alerts := e.evaluator.Evaluate(reading)

	anomalySignal := e.scorers.Invoke(ctx, scorer.KindAnomaly, reading, deviceHistory)
	classSignal := e.scorers.Invoke(ctx, scorer.KindClassification, reading, deviceHistory)
	riskSignal := e.scorers.Invoke(ctx, scorer.KindRisk, reading, deviceHistory)

	status := e.resolve(alerts, anomalySignal, classSignal, riskSignal)

	result = &models.AnalysisResult{
		DeviceID:                  deviceID,
		CurrentVitals:             reading,
		OverallStatus:             status,
		ImmediateAlerts:           alerts,
		Recommendations:           mergeRecommendations(alerts, anomalySignal, classSignal, riskSignal),
		RequiresEmergencyResponse: requiresEmergencyResponse(status.Severity),
		ConfidenceScore:           status.Confidence,
		AnalysisTimestamp:         time.Now(),
	}

	result.AnomalyDetection = anomalyBreakdown(anomalySignal)
	result.EmergencyClassification = classificationBreakdown(classSignal)
	result.RiskPrediction = e.riskBreakdown(riskSignal)

	result.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000

	e.logResult(result)
	return result
}

// resolve 按严格优先级融合判定
// 规则从高到低：阈值告警 > 紧急分类 > 异常检测 > 风险趋势 > 默认正常
func (e *Engine) resolve(
	alerts []models.ThresholdAlert,
	anomalySignal, classSignal, riskSignal *models.Signal,
) models.OverallStatus {
	// 规则 1：任意硬阈值越界直接判紧急，不看其他信号
	if len(alerts) > 0 {
		concern := alerts[0].Message
		return models.OverallStatus{
			Level:          models.LevelEmergency,
			Severity:       models.SeverityCritical,
			Confidence:     0.95,
			PrimaryConcern: &concern,
			Summary:        fmt.Sprintf("%d vital sign(s) breached critical thresholds", len(alerts)),
		}
	}

	// 规则 2：高置信度的非正常紧急分类
	if classSignal != nil && classSignal.Classification != nil {
		c := classSignal.Classification
		if c.Category != scorer.CategoryNormal && classSignal.Confidence > classificationMinConfidence {
			level := models.LevelWarning
			if c.Severity == models.SeverityCritical {
				level = models.LevelEmergency
			}
			concern := fmt.Sprintf("Potential %s detected", strings.ReplaceAll(c.Category, "_", " "))
			return models.OverallStatus{
				Level:          level,
				Severity:       c.Severity,
				Confidence:     classSignal.Confidence,
				PrimaryConcern: &concern,
				Summary:        fmt.Sprintf("Emergency classifier matched pattern: %s", c.Category),
			}
		}
	}

	// 规则 3：高风险的异常模式
	if anomalySignal != nil && anomalySignal.Anomaly != nil {
		a := anomalySignal.Anomaly
		if a.IsAnomaly && (a.RiskLevel == models.RiskLevelHigh || a.RiskLevel == models.RiskLevelCritical) {
			concern := "Anomalous vital sign pattern detected"
			return models.OverallStatus{
				Level:          models.LevelWarning,
				Severity:       a.RiskLevel,
				Confidence:     anomalySignal.Confidence,
				PrimaryConcern: &concern,
				Summary:        "Vital signs deviate significantly from normal patterns",
			}
		}
	}

	// 规则 4：风险趋势偏高，提示关注（严重程度沿用风险信号的分类等级）
	if riskSignal != nil && riskSignal.Risk != nil && riskSignal.Risk.BaseScore > riskScoreThreshold {
		concern := "Elevated health risk trend"
		return models.OverallStatus{
			Level:          models.LevelCaution,
			Severity:       riskSignal.Risk.RiskLevel,
			Confidence:     riskSignal.Confidence,
			PrimaryConcern: &concern,
			Summary:        fmt.Sprintf("Risk score %.2f exceeds caution threshold", riskSignal.Risk.BaseScore),
		}
	}

	// 规则 5：默认正常
	return models.OverallStatus{
		Level:      models.LevelNormal,
		Severity:   models.SeverityNormal,
		Confidence: 0.8,
		Summary:    "All vital signs within normal parameters",
	}
}

// requiresEmergencyResponse 按严重程度判定是否需要紧急响应
func requiresEmergencyResponse(severity string) bool {
	return severity == models.SeverityCritical || severity == models.SeverityHigh
}

// anomalyBreakdown 异常检测结果分解
func anomalyBreakdown(signal *models.Signal) *models.AnomalyDetectionResult {
	if signal == nil || signal.Anomaly == nil {
		return nil
	}
	return &models.AnomalyDetectionResult{
		IsAnomaly: signal.Anomaly.IsAnomaly,
		RiskScore: signal.Anomaly.RiskScore,
		RiskLevel: signal.Anomaly.RiskLevel,
	}
}

// classificationBreakdown 紧急分类结果分解
func classificationBreakdown(signal *models.Signal) *models.EmergencyClassificationResult {
	if signal == nil || signal.Classification == nil {
		return nil
	}
	return &models.EmergencyClassificationResult{
		PredictedEmergency: signal.Classification.Category,
		Confidence:         signal.Confidence,
		Severity:           signal.Classification.Severity,
	}
}

// riskBreakdown 风险预测结果分解（附带时间窗口外推）
func (e *Engine) riskBreakdown(signal *models.Signal) *models.RiskPredictionResult {
	if signal == nil || signal.Risk == nil {
		return nil
	}
	return &models.RiskPredictionResult{
		OverallRiskScore: signal.Risk.BaseScore,
		RiskLevel:        signal.Risk.RiskLevel,
		TimePredictions:  e.windower.Project(signal.Risk.BaseScore),
		KeyRiskFactors:   signal.Risk.RiskFactors,
	}
}

// errorResult 分析失败时的结构化结果
// 调用方拿到的永远是完整结构，不需要判 nil
func errorResult(deviceID string, reading models.Reading, errMsg string) *models.AnalysisResult {
	concern := "Analysis failed"
	return &models.AnalysisResult{
		DeviceID:      deviceID,
		CurrentVitals: reading,
		OverallStatus: models.OverallStatus{
			Level:          models.LevelError,
			Severity:       models.SeverityUnknown,
			Confidence:     0.0,
			PrimaryConcern: &concern,
			Summary:        "Health analysis could not be completed",
		},
		Recommendations: []string{
			"Contact technical support",
			"Retry health monitoring",
		},
		ConfidenceScore:   0.0,
		AnalysisTimestamp: time.Now(),
		Error:             errMsg,
	}
}

// logResult 按严重程度选择日志级别
func (e *Engine) logResult(result *models.AnalysisResult) {
	fields := []zap.Field{
		zap.String("device_id", result.DeviceID),
		zap.String("level", result.OverallStatus.Level),
		zap.String("severity", result.OverallStatus.Severity),
		zap.Float64("confidence", result.ConfidenceScore),
		zap.Int("alerts", len(result.ImmediateAlerts)),
		zap.Float64("processing_ms", result.ProcessingTimeMs),
	}

	switch result.OverallStatus.Severity {
	case models.SeverityCritical, models.SeverityHigh:
		e.logger.Warn("Health analysis completed", fields...)
	case models.SeverityMedium, models.SeverityLow:
		e.logger.Info("Health analysis completed", fields...)
	default:
		e.logger.Debug("Health analysis completed", fields...)
	}
}
