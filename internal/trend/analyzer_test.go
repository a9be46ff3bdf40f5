package trend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-health-monitor/internal/config"
	"wisefido-health-monitor/internal/models"
)

func testRanges() map[string]config.VitalBounds {
	return map[string]config.VitalBounds{
		models.VitalHeartRate:   {Min: 60, Max: 100},
		models.VitalTemperature: {Min: 36.1, Max: 37.2},
		models.VitalSpO2:        {Min: 95, Max: 100},
	}
}

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(testRanges(), 10, zap.NewNop())
}

func hrReadings(values ...float64) []models.Reading {
	readings := make([]models.Reading, len(values))
	base := time.Now().Add(-time.Duration(len(values)) * time.Hour)
	for i := range values {
		v := values[i]
		readings[i] = models.Reading{
			HeartRate: &v,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return readings
}

func TestSummarize_InsufficientData(t *testing.T) {
	analyzer := newTestAnalyzer()

	summary := analyzer.Summarize("device-1", hrReadings(70, 72, 71, 70), 7)

	assert.Equal(t, models.SummaryStatusInsufficientData, summary.Status)
	assert.Contains(t, summary.Message, "at least 10")
	assert.Equal(t, 4, summary.TotalReadings)
	assert.Nil(t, summary.VitalSignsSummary)
}

func TestSummarize_Statistics(t *testing.T) {
	analyzer := newTestAnalyzer()

	summary := analyzer.Summarize("device-1",
		hrReadings(60, 70, 80, 70, 70, 70, 70, 70, 70, 70), 7)

	require.Equal(t, models.SummaryStatusOK, summary.Status)
	require.NotNil(t, summary.FirstReading)
	require.NotNil(t, summary.LastReading)

	stats, ok := summary.VitalSignsSummary[models.VitalHeartRate]
	require.True(t, ok)
	assert.Equal(t, 10, stats.ReadingsCount)
	assert.Equal(t, 60.0, stats.Minimum)
	assert.Equal(t, 80.0, stats.Maximum)
	assert.InDelta(t, 70.0, stats.Average, 0.001)
}

func TestSummarize_TrendDirections(t *testing.T) {
	analyzer := newTestAnalyzer()

	tests := []struct {
		name     string
		values   []float64
		expected string
	}{
		{
			name:     "increasing",
			values:   []float64{60, 62, 64, 66, 68, 70, 75, 80, 85, 90},
			expected: models.TrendIncreasing,
		},
		{
			name:     "decreasing",
			values:   []float64{90, 88, 85, 82, 80, 75, 70, 66, 63, 60},
			expected: models.TrendDecreasing,
		},
		{
			name:     "stable",
			values:   []float64{70, 71, 70, 69, 70, 71, 70, 70, 71, 70},
			expected: models.TrendStable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := analyzer.Summarize("device-1", hrReadings(tt.values...), 7)
			require.Equal(t, models.SummaryStatusOK, summary.Status)
			assert.Equal(t, tt.expected, summary.HealthTrends[models.VitalHeartRate])
		})
	}
}

func TestSummarize_SparseVitalInsufficientData(t *testing.T) {
	analyzer := newTestAnalyzer()

	// 心率 10 个点，体温只有 3 个点：体温方向报 insufficient_data
	readings := hrReadings(70, 70, 70, 70, 70, 70, 70, 70, 70, 70)
	for i := 0; i < 3; i++ {
		temp := 36.8
		readings[i].Temperature = &temp
	}

	summary := analyzer.Summarize("device-1", readings, 7)
	require.Equal(t, models.SummaryStatusOK, summary.Status)

	assert.Equal(t, models.TrendStable, summary.HealthTrends[models.VitalHeartRate])
	assert.Equal(t, models.TrendInsufficientData, summary.HealthTrends[models.VitalTemperature])
}

func TestSummarize_HealthScore(t *testing.T) {
	analyzer := newTestAnalyzer()

	// 全部均值落在正常范围内 → 满分
	inRange := hrReadings(70, 72, 75, 71, 70, 73, 72, 70, 74, 71)
	summary := analyzer.Summarize("device-1", inRange, 7)
	assert.InDelta(t, 100.0, summary.OverallScore, 0.001)

	// 均值 120（高于上限 100，偏离 20%）→ 评分 80
	elevated := hrReadings(120, 120, 120, 120, 120, 120, 120, 120, 120, 120)
	summary = analyzer.Summarize("device-1", elevated, 7)
	assert.InDelta(t, 80.0, summary.OverallScore, 0.001)
}

func TestSummarize_OverallTrajectory(t *testing.T) {
	analyzer := newTestAnalyzer()

	// 心率持续上升 → 整体轨迹 concerning
	summary := analyzer.Summarize("device-1",
		hrReadings(60, 65, 70, 75, 80, 85, 90, 95, 100, 105), 7)
	require.Equal(t, models.SummaryStatusOK, summary.Status)
	assert.Equal(t, models.TrajectoryConcerning, summary.OverallTrajectory)
}
