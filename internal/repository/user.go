// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
)

// UserRepository 用户仓储
// 调度引擎只关心导游角色的只读查询
type UserRepository struct {
	db DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID 根据ID获取用户
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, username, full_name, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	u := &model.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Username, &u.FullName, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描用户记录失败: %w", err)
	}
	return u, nil
}

// ListGuides 列出全部导游
func (r *UserRepository) ListGuides(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT id, username, full_name, role, created_at, updated_at
		FROM users
		WHERE role = 'guide'
		ORDER BY username
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询导游列表失败: %w", err)
	}
	defer rows.Close()

	var guides []*model.User
	for rows.Next() {
		u := &model.User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("扫描用户记录失败: %w", err)
		}
		guides = append(guides, u)
	}
	return guides, rows.Err()
}
