// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
)

// ExcursionRepository 参观团仓储
type ExcursionRepository struct {
	db DB
}

// NewExcursionRepository 创建参观团仓储
func NewExcursionRepository(db DB) *ExcursionRepository {
	return &ExcursionRepository{db: db}
}

// Create 创建参观团（不含路线，路线由 ReplaceStops 写入）
func (r *ExcursionRepository) Create(ctx context.Context, e *model.Excursion) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	query := `
		INSERT INTO excursions (
			id, name, start_time, participants_count, guide_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Name, e.StartTime, e.ParticipantsCount, e.GuideID, e.Status, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建参观团失败: %w", err)
	}

	return nil
}

// Update 更新参观团主记录
func (r *ExcursionRepository) Update(ctx context.Context, e *model.Excursion) error {
	e.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE excursions SET
			name = $2, start_time = $3, participants_count = $4,
			guide_id = $5, status = $6, updated_at = $7
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Name, e.StartTime, e.ParticipantsCount, e.GuideID, e.Status, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新参观团失败: %w", err)
	}

	return nil
}

// Delete 删除参观团及其路线
func (r *ExcursionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM route_stops WHERE excursion_id = $1", id); err != nil {
		return fmt.Errorf("删除路线失败: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM excursions WHERE id = $1", id); err != nil {
		return fmt.Errorf("删除参观团失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取参观团（含路线）
func (r *ExcursionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Excursion, error) {
	query := `
		SELECT e.id, e.name, e.start_time, e.participants_count,
			e.guide_id, u.username, e.status, e.created_at, e.updated_at
		FROM excursions e
		JOIN users u ON u.id = e.guide_id
		WHERE e.id = $1
	`

	e, err := r.scanExcursion(r.db.QueryRowContext(ctx, query, id))
	if err != nil || e == nil {
		return e, err
	}

	if err := r.loadStops(ctx, []*model.Excursion{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// List 列出参观团（含路线）
func (r *ExcursionRepository) List(ctx context.Context, filter ListFilter) ([]*model.Excursion, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}
	if filter.GuideID != nil {
		conditions = append(conditions, fmt.Sprintf("e.guide_id = $%d", argNum))
		args = append(args, *filter.GuideID)
		argNum++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("e.start_time >= $%d", argNum))
		args = append(args, filter.From.UTC())
		argNum++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("e.start_time < $%d", argNum))
		args = append(args, filter.To.UTC())
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy := "e.start_time"
	switch filter.OrderBy {
	case "name":
		orderBy = "e.name"
	case "created_at":
		orderBy = "e.created_at"
	}
	if strings.EqualFold(filter.OrderDir, "desc") {
		orderBy += " DESC"
	}
	limitClause := ""
	if filter.Limit > 0 {
		limitClause = fmt.Sprintf("LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	query := fmt.Sprintf(`
		SELECT e.id, e.name, e.start_time, e.participants_count,
			e.guide_id, u.username, e.status, e.created_at, e.updated_at
		FROM excursions e
		JOIN users u ON u.id = e.guide_id
		%s
		ORDER BY %s
		%s
	`, whereClause, orderBy, limitClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询参观团列表失败: %w", err)
	}
	defer rows.Close()

	var excursions []*model.Excursion
	for rows.Next() {
		e, err := r.scanExcursionRow(rows)
		if err != nil {
			return nil, err
		}
		excursions = append(excursions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadStops(ctx, excursions); err != nil {
		return nil, err
	}
	return excursions, nil
}

// ListOccupying 列出占用车间/导游时间的参观团（含路线）
// 冲突检测的快照来源：CANCELLED 一律排除，DRAFT 按配置决定
func (r *ExcursionRepository) ListOccupying(ctx context.Context, countDraft bool) ([]*model.Excursion, error) {
	excluded := []string{string(model.StatusCancelled)}
	if !countDraft {
		excluded = append(excluded, string(model.StatusDraft))
	}

	query := `
		SELECT e.id, e.name, e.start_time, e.participants_count,
			e.guide_id, u.username, e.status, e.created_at, e.updated_at
		FROM excursions e
		JOIN users u ON u.id = e.guide_id
		WHERE e.status <> ALL($1)
		ORDER BY e.start_time
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(excluded))
	if err != nil {
		return nil, fmt.Errorf("查询占用中的参观团失败: %w", err)
	}
	defer rows.Close()

	var excursions []*model.Excursion
	for rows.Next() {
		e, err := r.scanExcursionRow(rows)
		if err != nil {
			return nil, err
		}
		excursions = append(excursions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadStops(ctx, excursions); err != nil {
		return nil, err
	}
	return excursions, nil
}

// ListByStatus 按状态列出参观团（含路线）
func (r *ExcursionRepository) ListByStatus(ctx context.Context, status model.ExcursionStatus) ([]*model.Excursion, error) {
	return r.List(ctx, ListFilter{Status: string(status)})
}

// ReplaceStops 整体替换参观团的路线
// 路线没有独立生命周期：每次更新都是删除旧站点、写入新站点
func (r *ExcursionRepository) ReplaceStops(ctx context.Context, excursionID uuid.UUID, stops []model.RouteStop) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM route_stops WHERE excursion_id = $1", excursionID); err != nil {
		return fmt.Errorf("清除旧路线失败: %w", err)
	}

	query := `
		INSERT INTO route_stops (
			id, excursion_id, workshop_id, order_number, start_time, duration_minutes
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	for i := range stops {
		stop := &stops[i]
		if stop.ID == uuid.Nil {
			stop.ID = uuid.New()
		}
		stop.ExcursionID = excursionID

		_, err := r.db.ExecContext(ctx, query,
			stop.ID, stop.ExcursionID, stop.WorkshopID,
			stop.OrderNumber, stop.StartTime, stop.DurationMinutes,
		)
		if err != nil {
			return fmt.Errorf("写入路线站点失败: %w", err)
		}
	}

	return nil
}

// loadStops 批量加载路线站点并挂到对应参观团
func (r *ExcursionRepository) loadStops(ctx context.Context, excursions []*model.Excursion) error {
	if len(excursions) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(excursions))
	byID := make(map[uuid.UUID]*model.Excursion, len(excursions))
	for _, e := range excursions {
		ids = append(ids, e.ID)
		byID[e.ID] = e
	}

	query := `
		SELECT s.id, s.excursion_id, s.workshop_id, w.name, s.order_number, s.start_time, s.duration_minutes
		FROM route_stops s
		JOIN workshops w ON w.id = s.workshop_id
		WHERE s.excursion_id = ANY($1)
		ORDER BY s.excursion_id, s.order_number
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("查询路线站点失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stop model.RouteStop
		if err := rows.Scan(
			&stop.ID, &stop.ExcursionID, &stop.WorkshopID, &stop.WorkshopName,
			&stop.OrderNumber, &stop.StartTime, &stop.DurationMinutes,
		); err != nil {
			return fmt.Errorf("扫描路线站点失败: %w", err)
		}
		stop.StartTime = stop.StartTime.UTC()
		if e, ok := byID[stop.ExcursionID]; ok {
			e.Stops = append(e.Stops, stop)
		}
	}

	return rows.Err()
}

// scanExcursion 扫描单行参观团
func (r *ExcursionRepository) scanExcursion(row *sql.Row) (*model.Excursion, error) {
	e := &model.Excursion{}
	err := row.Scan(
		&e.ID, &e.Name, &e.StartTime, &e.ParticipantsCount,
		&e.GuideID, &e.GuideName, &e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描参观团记录失败: %w", err)
	}
	e.StartTime = e.StartTime.UTC()
	return e, nil
}

// scanExcursionRow 从多行结果扫描
func (r *ExcursionRepository) scanExcursionRow(rows *sql.Rows) (*model.Excursion, error) {
	e := &model.Excursion{}
	err := rows.Scan(
		&e.ID, &e.Name, &e.StartTime, &e.ParticipantsCount,
		&e.GuideID, &e.GuideName, &e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描参观团记录失败: %w", err)
	}
	e.StartTime = e.StartTime.UTC()
	return e, nil
}
