package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wisefido-health-monitor/internal/models"
)

func setupMockHealthEventsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *HealthEventsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewHealthEventsRepository(db, logger)

	return db, mock, repo
}

func TestCreateHealthEvent_Success(t *testing.T) {
	db, mock, repo := setupMockHealthEventsDB(t)
	defer db.Close()

	event := &models.HealthEvent{
		EventID:     uuid.New().String(),
		TenantID:    uuid.New().String(),
		DeviceID:    "dev-001",
		EventType:   "ThresholdBreach",
		Category:    "clinical",
		AlarmLevel:  models.EventLevelEmergency,
		AlarmStatus: "active",
		TriggeredAt: time.Now(),
		TriggerData: `{"heart_rate": 155}`,
		Metadata:    `{}`,
	}

	mock.ExpectExec(`INSERT INTO health_events`).
		WithArgs(
			event.EventID, event.TenantID, event.DeviceID, event.EventType,
			event.Category, event.AlarmLevel, event.AlarmStatus,
			event.TriggeredAt, event.TriggerData, event.Metadata,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateHealthEvent(context.Background(), event)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHealthEvent_MissingTenantID(t *testing.T) {
	db, _, repo := setupMockHealthEventsDB(t)
	defer db.Close()

	event := &models.HealthEvent{DeviceID: "dev-001"}
	err := repo.CreateHealthEvent(context.Background(), event)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "tenant_id is required")
}

func TestGetRecentHealthEvent_Found(t *testing.T) {
	db, mock, repo := setupMockHealthEventsDB(t)
	defer db.Close()

	tenantID := uuid.New().String()
	eventID := uuid.New().String()
	since := time.Now().Add(-5 * time.Minute)
	triggeredAt := time.Now().Add(-2 * time.Minute)

	rows := sqlmock.NewRows([]string{
		"event_id", "tenant_id", "device_id", "event_type", "category",
		"alarm_level", "alarm_status", "triggered_at", "hand_time",
		"trigger_data", "handler", "notes", "metadata", "created_at", "updated_at",
	}).AddRow(
		eventID, tenantID, "dev-001", "ThresholdBreach", "clinical",
		"EMERGENCY", "active", triggeredAt, nil,
		`{"heart_rate": 155}`, nil, nil, `{}`, triggeredAt, triggeredAt,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(tenantID, "dev-001", "ThresholdBreach", since).
		WillReturnRows(rows)

	event, err := repo.GetRecentHealthEvent(context.Background(), tenantID, "dev-001", "ThresholdBreach", since)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, eventID, event.EventID)
	assert.Equal(t, models.EventLevelEmergency, event.AlarmLevel)
	assert.Nil(t, event.HandTime)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecentHealthEvent_NoneFound(t *testing.T) {
	db, mock, repo := setupMockHealthEventsDB(t)
	defer db.Close()

	tenantID := uuid.New().String()
	since := time.Now().Add(-5 * time.Minute)

	mock.ExpectQuery(`SELECT`).
		WithArgs(tenantID, "dev-001", "ThresholdBreach", since).
		WillReturnError(sql.ErrNoRows)

	event, err := repo.GetRecentHealthEvent(context.Background(), tenantID, "dev-001", "ThresholdBreach", since)
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestListHealthEvents_WithFilters(t *testing.T) {
	db, mock, repo := setupMockHealthEventsDB(t)
	defer db.Close()

	tenantID := uuid.New().String()
	deviceID := "dev-001"
	alarmLevel := models.EventLevelWarning
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM health_events`).
		WithArgs(tenantID, deviceID, alarmLevel).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows([]string{
		"event_id", "tenant_id", "device_id", "event_type", "category",
		"alarm_level", "alarm_status", "triggered_at", "hand_time",
		"trigger_data", "handler", "notes", "metadata", "created_at", "updated_at",
	}).AddRow(
		uuid.New().String(), tenantID, deviceID, "hypothermia", "clinical",
		alarmLevel, "active", now, nil,
		`{}`, nil, nil, `{}`, now, now,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(tenantID, deviceID, alarmLevel, 50, 0).
		WillReturnRows(rows)

	filters := HealthEventFilters{
		DeviceID:   &deviceID,
		AlarmLevel: &alarmLevel,
	}
	events, total, err := repo.ListHealthEvents(context.Background(), tenantID, filters, 1, 50)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, "hypothermia", events[0].EventType)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcknowledgeHealthEvent_Success(t *testing.T) {
	db, mock, repo := setupMockHealthEventsDB(t)
	defer db.Close()

	tenantID := uuid.New().String()
	eventID := uuid.New().String()

	mock.ExpectExec(`UPDATE health_events`).
		WithArgs(eventID, tenantID, "nurse-01", "checked on resident").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AcknowledgeHealthEvent(context.Background(), tenantID, eventID, "nurse-01", "checked on resident")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcknowledgeHealthEvent_NotFound(t *testing.T) {
	db, mock, repo := setupMockHealthEventsDB(t)
	defer db.Close()

	tenantID := uuid.New().String()
	eventID := uuid.New().String()

	mock.ExpectExec(`UPDATE health_events`).
		WithArgs(eventID, tenantID, "nurse-01", "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AcknowledgeHealthEvent(context.Background(), tenantID, eventID, "nurse-01", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found or already acknowledged")
}
