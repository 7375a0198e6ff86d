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

// TicketRepository 金券仓储
type TicketRepository struct {
	db DB
}

// NewTicketRepository 创建金券仓储
func NewTicketRepository(db DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `
	id, ticket_number, status, excursion_id,
	holder_name, holder_email, holder_phone,
	generated_at, booked_at, used_at, expires_at
`

// Create 创建金券
func (r *TicketRepository) Create(ctx context.Context, t *model.GoldenTicket) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.GeneratedAt.IsZero() {
		t.GeneratedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO golden_tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.TicketNumber, t.Status, t.ExcursionID,
		t.HolderName, t.HolderEmail, t.HolderPhone,
		t.GeneratedAt, t.BookedAt, t.UsedAt, t.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("创建金券失败: %w", err)
	}

	return nil
}

// Update 更新金券
func (r *TicketRepository) Update(ctx context.Context, t *model.GoldenTicket) error {
	query := `
		UPDATE golden_tickets SET
			status = $2, excursion_id = $3,
			holder_name = $4, holder_email = $5, holder_phone = $6,
			booked_at = $7, used_at = $8, expires_at = $9
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Status, t.ExcursionID,
		t.HolderName, t.HolderEmail, t.HolderPhone,
		t.BookedAt, t.UsedAt, t.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("更新金券失败: %w", err)
	}

	return nil
}

// Delete 删除金券
func (r *TicketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM golden_tickets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("删除金券失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取金券
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.GoldenTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM golden_tickets WHERE id = $1`
	return r.scanTicket(r.db.QueryRowContext(ctx, query, id))
}

// GetByNumber 根据票号获取金券
func (r *TicketRepository) GetByNumber(ctx context.Context, ticketNumber string) (*model.GoldenTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM golden_tickets WHERE ticket_number = $1`
	return r.scanTicket(r.db.QueryRowContext(ctx, query, ticketNumber))
}

// NumberExists 检查票号是否已存在
func (r *TicketRepository) NumberExists(ctx context.Context, ticketNumber string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM golden_tickets WHERE ticket_number = $1", ticketNumber,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("查询票号失败: %w", err)
	}
	return count > 0, nil
}

// List 列出全部金券（按生成时间倒序）
func (r *TicketRepository) List(ctx context.Context) ([]*model.GoldenTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM golden_tickets ORDER BY generated_at DESC`
	return r.queryTickets(ctx, query)
}

// CountBookedByExcursion 统计预订到某参观团的金券数量
func (r *TicketRepository) CountBookedByExcursion(ctx context.Context, excursionID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM golden_tickets WHERE excursion_id = $1 AND status = $2",
		excursionID, model.TicketBooked,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("统计已预订金券失败: %w", err)
	}
	return count, nil
}

// ListForStartedExcursions 列出参观已开始但仍为 BOOKED 的金券
func (r *TicketRepository) ListForStartedExcursions(ctx context.Context, now time.Time) ([]*model.GoldenTicket, error) {
	query := `
		SELECT t.id, t.ticket_number, t.status, t.excursion_id,
			t.holder_name, t.holder_email, t.holder_phone,
			t.generated_at, t.booked_at, t.used_at, t.expires_at
		FROM golden_tickets t
		JOIN excursions e ON e.id = t.excursion_id
		WHERE t.status = $1 AND e.start_time <= $2
	`
	return r.queryTickets(ctx, query, model.TicketBooked, now.UTC())
}

// ListExpired 列出已过期但状态仍为 ACTIVE 的金券
func (r *TicketRepository) ListExpired(ctx context.Context, now time.Time) ([]*model.GoldenTicket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM golden_tickets
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at < $2
	`
	return r.queryTickets(ctx, query, model.TicketActive, now.UTC())
}

// CountByStatus 按状态统计金券数量
func (r *TicketRepository) CountByStatus(ctx context.Context) (map[model.TicketStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM golden_tickets GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("统计金券失败: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.TicketStatus]int)
	for rows.Next() {
		var status model.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("扫描金券统计失败: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// queryTickets 执行金券查询并扫描结果
func (r *TicketRepository) queryTickets(ctx context.Context, query string, args ...interface{}) ([]*model.GoldenTicket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询金券失败: %w", err)
	}
	defer rows.Close()

	var tickets []*model.GoldenTicket
	for rows.Next() {
		t := &model.GoldenTicket{}
		if err := rows.Scan(
			&t.ID, &t.TicketNumber, &t.Status, &t.ExcursionID,
			&t.HolderName, &t.HolderEmail, &t.HolderPhone,
			&t.GeneratedAt, &t.BookedAt, &t.UsedAt, &t.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("扫描金券记录失败: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// scanTicket 扫描单行金券
func (r *TicketRepository) scanTicket(row *sql.Row) (*model.GoldenTicket, error) {
	t := &model.GoldenTicket{}
	err := row.Scan(
		&t.ID, &t.TicketNumber, &t.Status, &t.ExcursionID,
		&t.HolderName, &t.HolderEmail, &t.HolderPhone,
		&t.GeneratedAt, &t.BookedAt, &t.UsedAt, &t.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描金券记录失败: %w", err)
	}
	return t, nil
}
