// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
)

// WorkshopRepository 车间仓储
type WorkshopRepository struct {
	db DB
}

// NewWorkshopRepository 创建车间仓储
func NewWorkshopRepository(db DB) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

// Create 创建车间
func (r *WorkshopRepository) Create(ctx context.Context, w *model.Workshop) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now

	query := `
		INSERT INTO workshops (
			id, name, description, capacity, visit_duration_minutes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		w.ID, w.Name, w.Description, w.Capacity, w.VisitDurationMinutes, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建车间失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取车间
func (r *WorkshopRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Workshop, error) {
	query := `
		SELECT id, name, description, capacity, visit_duration_minutes, created_at, updated_at
		FROM workshops
		WHERE id = $1
	`

	return r.scanWorkshop(r.db.QueryRowContext(ctx, query, id))
}

// List 列出全部车间（按名称升序）
func (r *WorkshopRepository) List(ctx context.Context) ([]*model.Workshop, error) {
	query := `
		SELECT id, name, description, capacity, visit_duration_minutes, created_at, updated_at
		FROM workshops
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询车间列表失败: %w", err)
	}
	defer rows.Close()

	var workshops []*model.Workshop
	for rows.Next() {
		w, err := r.scanWorkshopRow(rows)
		if err != nil {
			return nil, err
		}
		workshops = append(workshops, w)
	}

	return workshops, rows.Err()
}

// Update 更新车间
func (r *WorkshopRepository) Update(ctx context.Context, w *model.Workshop) error {
	w.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE workshops SET
			name = $2, description = $3, capacity = $4, visit_duration_minutes = $5, updated_at = $6
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		w.ID, w.Name, w.Description, w.Capacity, w.VisitDurationMinutes, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新车间失败: %w", err)
	}

	return nil
}

// Delete 删除车间
func (r *WorkshopRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM workshops WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("删除车间失败: %w", err)
	}
	return nil
}

// scanWorkshop 扫描单行车间
func (r *WorkshopRepository) scanWorkshop(row *sql.Row) (*model.Workshop, error) {
	w := &model.Workshop{}
	err := row.Scan(
		&w.ID, &w.Name, &w.Description, &w.Capacity, &w.VisitDurationMinutes,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描车间记录失败: %w", err)
	}
	return w, nil
}

// scanWorkshopRow 从多行结果扫描
func (r *WorkshopRepository) scanWorkshopRow(rows *sql.Rows) (*model.Workshop, error) {
	w := &model.Workshop{}
	err := rows.Scan(
		&w.ID, &w.Name, &w.Description, &w.Capacity, &w.VisitDurationMinutes,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描车间记录失败: %w", err)
	}
	return w, nil
}
