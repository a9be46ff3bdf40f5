// Package repository 提供 health_events 表的数据库访问
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"wisefido-health-monitor/internal/models"
)

// HealthEventsRepository 健康事件仓库
type HealthEventsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHealthEventsRepository 创建健康事件仓库
func NewHealthEventsRepository(db *sql.DB, logger *zap.Logger) *HealthEventsRepository {
	return &HealthEventsRepository{
		db:     db,
		logger: logger,
	}
}

// HealthEventFilters 健康事件过滤条件
type HealthEventFilters struct {
	StartTime *time.Time // 开始时间（triggered_at >= StartTime）
	EndTime   *time.Time // 结束时间（triggered_at <= EndTime）

	DeviceID    *string // 设备ID（直接过滤）
	EventType   *string // 事件类型
	AlarmLevel  *string // 事件级别（EMERGENCY / WARNING）
	AlarmStatus *string // 事件状态（active / acknowledged）
}

// CreateHealthEvent 写入一条健康事件
func (r *HealthEventsRepository) CreateHealthEvent(ctx context.Context, event *models.HealthEvent) error {
	if event.TenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if event.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}

	query := `
		INSERT INTO health_events (
			event_id,
			tenant_id,
			device_id,
			event_type,
			category,
			alarm_level,
			alarm_status,
			triggered_at,
			trigger_data,
			metadata,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		event.EventID,
		event.TenantID,
		event.DeviceID,
		event.EventType,
		event.Category,
		event.AlarmLevel,
		event.AlarmStatus,
		event.TriggeredAt,
		event.TriggerData,
		event.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to insert health event: %w", err)
	}

	r.logger.Info("Health event created",
		zap.String("event_id", event.EventID),
		zap.String("device_id", event.DeviceID),
		zap.String("event_type", event.EventType),
		zap.String("alarm_level", event.AlarmLevel),
	)
	return nil
}

// GetRecentHealthEvent 查询设备同类型事件中最近触发的一条
// 用于去重窗口判断，没有记录时返回 (nil, nil)
func (r *HealthEventsRepository) GetRecentHealthEvent(ctx context.Context, tenantID, deviceID, eventType string, since time.Time) (*models.HealthEvent, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT
			event_id,
			tenant_id,
			device_id,
			event_type,
			category,
			alarm_level,
			alarm_status,
			triggered_at,
			hand_time,
			trigger_data,
			handler,
			notes,
			metadata,
			created_at,
			updated_at
		FROM health_events
		WHERE tenant_id = $1
		  AND device_id = $2
		  AND event_type = $3
		  AND triggered_at >= $4
		ORDER BY triggered_at DESC
		LIMIT 1
	`

	event, err := r.scanHealthEvent(r.db.QueryRowContext(ctx, query, tenantID, deviceID, eventType, since))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query recent health event: %w", err)
	}
	return event, nil
}

// ListHealthEvents 分页查询健康事件
// 返回事件列表和符合条件的总数
func (r *HealthEventsRepository) ListHealthEvents(ctx context.Context, tenantID string, filters HealthEventFilters, page, pageSize int) ([]models.HealthEvent, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("tenant_id is required")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	conditions := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}

	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filters.StartTime != nil {
		addCondition("triggered_at >= $%d", *filters.StartTime)
	}
	if filters.EndTime != nil {
		addCondition("triggered_at <= $%d", *filters.EndTime)
	}
	if filters.DeviceID != nil {
		addCondition("device_id = $%d", *filters.DeviceID)
	}
	if filters.EventType != nil {
		addCondition("event_type = $%d", *filters.EventType)
	}
	if filters.AlarmLevel != nil {
		addCondition("alarm_level = $%d", *filters.AlarmLevel)
	}
	if filters.AlarmStatus != nil {
		addCondition("alarm_status = $%d", *filters.AlarmStatus)
	}

	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM health_events WHERE %s`, where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count health events: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT
			event_id,
			tenant_id,
			device_id,
			event_type,
			category,
			alarm_level,
			alarm_status,
			triggered_at,
			hand_time,
			trigger_data,
			handler,
			notes,
			metadata,
			created_at,
			updated_at
		FROM health_events
		WHERE %s
		ORDER BY triggered_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list health events: %w", err)
	}
	defer rows.Close()

	var events []models.HealthEvent
	for rows.Next() {
		event, err := r.scanHealthEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan health event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate health events: %w", err)
	}

	return events, total, nil
}

// AcknowledgeHealthEvent 确认处理一条健康事件
func (r *HealthEventsRepository) AcknowledgeHealthEvent(ctx context.Context, tenantID, eventID, handler, notes string) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if eventID == "" {
		return fmt.Errorf("event_id is required")
	}

	query := `
		UPDATE health_events
		SET alarm_status = 'acknowledged',
		    hand_time = NOW(),
		    handler = $3,
		    notes = $4,
		    updated_at = NOW()
		WHERE event_id = $1
		  AND tenant_id = $2
		  AND alarm_status = 'active'
	`

	result, err := r.db.ExecContext(ctx, query, eventID, tenantID, handler, notes)
	if err != nil {
		return fmt.Errorf("failed to acknowledge health event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("health event not found or already acknowledged: event_id=%s", eventID)
	}

	r.logger.Info("Health event acknowledged",
		zap.String("event_id", eventID),
		zap.String("handler", handler),
	)
	return nil
}

// rowScanner 兼容 *sql.Row 和 *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanHealthEvent 扫描一行健康事件并处理可空字段
func (r *HealthEventsRepository) scanHealthEvent(row rowScanner) (*models.HealthEvent, error) {
	var event models.HealthEvent
	var handTime sql.NullTime
	var handler, notes sql.NullString

	err := row.Scan(
		&event.EventID,
		&event.TenantID,
		&event.DeviceID,
		&event.EventType,
		&event.Category,
		&event.AlarmLevel,
		&event.AlarmStatus,
		&event.TriggeredAt,
		&handTime,
		&event.TriggerData,
		&handler,
		&notes,
		&event.Metadata,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if handTime.Valid {
		event.HandTime = &handTime.Time
	}
	if handler.Valid {
		event.Handler = &handler.String
	}
	if notes.Valid {
		event.Notes = &notes.String
	}
	return &event, nil
}
