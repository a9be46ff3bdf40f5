// Package metrics 注册健康监测服务的 Prometheus 指标
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "health_monitor_"

var (
	registerOnce sync.Once

	analysisTotal   *prometheus.CounterVec
	analysisLatency prometheus.Histogram

	scorerFailures *prometheus.CounterVec

	eventsPersisted  *prometheus.CounterVec
	eventsDeduped    prometheus.Counter
	readingsRejected *prometheus.CounterVec
)

// Init 注册全部指标（幂等，多次调用只注册一次）
func Init() {
	registerOnce.Do(func() {
		analysisTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "analyses_total",
				Help: "Total health analyses by verdict level",
			},
			[]string{"level"},
		)
		analysisLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "analysis_latency_seconds",
				Help:    "Health analysis latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)

		scorerFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "scorer_failures_total",
				Help: "Total scorer invocations absorbed as absent, by scorer kind",
			},
			[]string{"scorer"},
		)

		eventsPersisted = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_persisted_total",
				Help: "Total health events written to storage by alarm level",
			},
			[]string{"alarm_level"},
		)
		eventsDeduped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_deduped_total",
				Help: "Total health events suppressed by the dedup window",
			},
		)
		readingsRejected = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_rejected_total",
				Help: "Total device readings rejected before analysis, by reason",
			},
			[]string{"reason"},
		)

		prometheus.MustRegister(
			analysisTotal,
			analysisLatency,
			scorerFailures,
			eventsPersisted,
			eventsDeduped,
			readingsRejected,
		)
	})
}

// ObserveAnalysis 记录一次分析的判定级别和耗时
func ObserveAnalysis(level string, duration time.Duration) {
	if analysisTotal == nil {
		return
	}
	analysisTotal.WithLabelValues(level).Inc()
	analysisLatency.Observe(duration.Seconds())
}

// ScorerFailure 记录一次评分器失败
func ScorerFailure(kind string) {
	if scorerFailures == nil {
		return
	}
	scorerFailures.WithLabelValues(kind).Inc()
}

// EventPersisted 记录一条健康事件落库
func EventPersisted(alarmLevel string) {
	if eventsPersisted == nil {
		return
	}
	eventsPersisted.WithLabelValues(alarmLevel).Inc()
}

// EventDeduped 记录一条被去重窗口抑制的事件
func EventDeduped() {
	if eventsDeduped == nil {
		return
	}
	eventsDeduped.Inc()
}

// ReadingRejected 记录一条被拒绝的设备读数
func ReadingRejected(reason string) {
	if readingsRejected == nil {
		return
	}
	readingsRejected.WithLabelValues(reason).Inc()
}
