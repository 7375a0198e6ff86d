// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DB 数据库接口
// *sql.DB 与 *sql.Tx 均满足该接口，仓储因此可以运行在事务内外
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ListFilter 列表查询过滤器
type ListFilter struct {
	Status   string     `json:"status,omitempty"`
	GuideID  *uuid.UUID `json:"guide_id,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Offset   int        `json:"offset"`
	Limit    int        `json:"limit"`
	OrderBy  string     `json:"order_by,omitempty"`
	OrderDir string     `json:"order_dir,omitempty"` // asc/desc
}

// DefaultListFilter 返回默认过滤器
func DefaultListFilter() ListFilter {
	return ListFilter{
		Offset:   0,
		Limit:    50,
		OrderBy:  "start_time",
		OrderDir: "asc",
	}
}

// WithStatus 设置状态过滤
func (f ListFilter) WithStatus(status string) ListFilter {
	f.Status = status
	return f
}

// WithGuide 设置导游过滤
func (f ListFilter) WithGuide(guideID uuid.UUID) ListFilter {
	f.GuideID = &guideID
	return f
}

// WithTimeRange 设置时间范围
func (f ListFilter) WithTimeRange(from, to time.Time) ListFilter {
	f.From = &from
	f.To = &to
	return f
}

// Scanner 行扫描接口
type Scanner interface {
	Scan(dest ...interface{}) error
}
