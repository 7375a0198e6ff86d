// Package service 提供参观团与金券的业务编排
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/internal/database"
	"github.com/danielsheh02/willy-wonka-factory/internal/metrics"
	"github.com/danielsheh02/willy-wonka-factory/internal/repository"
	apperrors "github.com/danielsheh02/willy-wonka-factory/pkg/errors"
	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
)

// Store 编排层对持久化的全部依赖
// 以接口形式声明，测试可以用内存实现替换
type Store interface {
	// 参观团
	GetExcursion(ctx context.Context, id uuid.UUID) (*model.Excursion, error)
	ListExcursions(ctx context.Context, filter repository.ListFilter) ([]*model.Excursion, error)
	ListOccupying(ctx context.Context, countDraft bool) ([]*model.Excursion, error)
	ListExcursionsByStatus(ctx context.Context, status model.ExcursionStatus) ([]*model.Excursion, error)
	CreateExcursion(ctx context.Context, e *model.Excursion) error
	UpdateExcursion(ctx context.Context, e *model.Excursion) error
	DeleteExcursion(ctx context.Context, id uuid.UUID) error
	ReplaceStops(ctx context.Context, excursionID uuid.UUID, stops []model.RouteStop) error

	// 车间与用户
	ListWorkshops(ctx context.Context) ([]*model.Workshop, error)
	GetWorkshop(ctx context.Context, id uuid.UUID) (*model.Workshop, error)
	CreateWorkshop(ctx context.Context, w *model.Workshop) error
	UpdateWorkshop(ctx context.Context, w *model.Workshop) error
	DeleteWorkshop(ctx context.Context, id uuid.UUID) error
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListGuides(ctx context.Context) ([]*model.User, error)

	// 金券
	GetTicket(ctx context.Context, id uuid.UUID) (*model.GoldenTicket, error)
	GetTicketByNumber(ctx context.Context, number string) (*model.GoldenTicket, error)
	TicketNumberExists(ctx context.Context, number string) (bool, error)
	ListTickets(ctx context.Context) ([]*model.GoldenTicket, error)
	CreateTicket(ctx context.Context, t *model.GoldenTicket) error
	UpdateTicket(ctx context.Context, t *model.GoldenTicket) error
	DeleteTicket(ctx context.Context, id uuid.UUID) error
	CountBookedByExcursion(ctx context.Context, excursionID uuid.UUID) (int, error)
	ListTicketsForStartedExcursions(ctx context.Context, now time.Time) ([]*model.GoldenTicket, error)
	ListExpiredTickets(ctx context.Context, now time.Time) ([]*model.GoldenTicket, error)
	CountTicketsByStatus(ctx context.Context) (map[model.TicketStatus]int, error)
}

// TxRunner 事务运行器
// Serializable 把"读冲突—写路线"整体包进可串行化事务：
// 事务在冲突扫描前获取，写入（或中止）后才释放
type TxRunner interface {
	Serializable(ctx context.Context, fn func(store Store) error) error
}

// SQLStore 基于 Postgres 仓储的 Store 实现
type SQLStore struct {
	excursions *repository.ExcursionRepository
	workshops  *repository.WorkshopRepository
	users      *repository.UserRepository
	tickets    *repository.TicketRepository
}

// NewSQLStore 在指定查询接口（连接或事务）上创建 Store
func NewSQLStore(q repository.DB) *SQLStore {
	return &SQLStore{
		excursions: repository.NewExcursionRepository(q),
		workshops:  repository.NewWorkshopRepository(q),
		users:      repository.NewUserRepository(q),
		tickets:    repository.NewTicketRepository(q),
	}
}

func (s *SQLStore) GetExcursion(ctx context.Context, id uuid.UUID) (*model.Excursion, error) {
	return s.excursions.GetByID(ctx, id)
}

func (s *SQLStore) ListExcursions(ctx context.Context, filter repository.ListFilter) ([]*model.Excursion, error) {
	return s.excursions.List(ctx, filter)
}

func (s *SQLStore) ListOccupying(ctx context.Context, countDraft bool) ([]*model.Excursion, error) {
	return s.excursions.ListOccupying(ctx, countDraft)
}

func (s *SQLStore) ListExcursionsByStatus(ctx context.Context, status model.ExcursionStatus) ([]*model.Excursion, error) {
	return s.excursions.ListByStatus(ctx, status)
}

func (s *SQLStore) CreateExcursion(ctx context.Context, e *model.Excursion) error {
	return s.excursions.Create(ctx, e)
}

func (s *SQLStore) UpdateExcursion(ctx context.Context, e *model.Excursion) error {
	return s.excursions.Update(ctx, e)
}

func (s *SQLStore) DeleteExcursion(ctx context.Context, id uuid.UUID) error {
	return s.excursions.Delete(ctx, id)
}

func (s *SQLStore) ReplaceStops(ctx context.Context, excursionID uuid.UUID, stops []model.RouteStop) error {
	return s.excursions.ReplaceStops(ctx, excursionID, stops)
}

func (s *SQLStore) ListWorkshops(ctx context.Context) ([]*model.Workshop, error) {
	return s.workshops.List(ctx)
}

func (s *SQLStore) GetWorkshop(ctx context.Context, id uuid.UUID) (*model.Workshop, error) {
	return s.workshops.GetByID(ctx, id)
}

func (s *SQLStore) CreateWorkshop(ctx context.Context, w *model.Workshop) error {
	return s.workshops.Create(ctx, w)
}

func (s *SQLStore) UpdateWorkshop(ctx context.Context, w *model.Workshop) error {
	return s.workshops.Update(ctx, w)
}

func (s *SQLStore) DeleteWorkshop(ctx context.Context, id uuid.UUID) error {
	return s.workshops.Delete(ctx, id)
}

func (s *SQLStore) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *SQLStore) ListGuides(ctx context.Context) ([]*model.User, error) {
	return s.users.ListGuides(ctx)
}

func (s *SQLStore) GetTicket(ctx context.Context, id uuid.UUID) (*model.GoldenTicket, error) {
	return s.tickets.GetByID(ctx, id)
}

func (s *SQLStore) GetTicketByNumber(ctx context.Context, number string) (*model.GoldenTicket, error) {
	return s.tickets.GetByNumber(ctx, number)
}

func (s *SQLStore) TicketNumberExists(ctx context.Context, number string) (bool, error) {
	return s.tickets.NumberExists(ctx, number)
}

func (s *SQLStore) ListTickets(ctx context.Context) ([]*model.GoldenTicket, error) {
	return s.tickets.List(ctx)
}

func (s *SQLStore) CreateTicket(ctx context.Context, t *model.GoldenTicket) error {
	return s.tickets.Create(ctx, t)
}

func (s *SQLStore) UpdateTicket(ctx context.Context, t *model.GoldenTicket) error {
	return s.tickets.Update(ctx, t)
}

func (s *SQLStore) DeleteTicket(ctx context.Context, id uuid.UUID) error {
	return s.tickets.Delete(ctx, id)
}

func (s *SQLStore) CountBookedByExcursion(ctx context.Context, excursionID uuid.UUID) (int, error) {
	return s.tickets.CountBookedByExcursion(ctx, excursionID)
}

func (s *SQLStore) ListTicketsForStartedExcursions(ctx context.Context, now time.Time) ([]*model.GoldenTicket, error) {
	return s.tickets.ListForStartedExcursions(ctx, now)
}

func (s *SQLStore) ListExpiredTickets(ctx context.Context, now time.Time) ([]*model.GoldenTicket, error) {
	return s.tickets.ListExpired(ctx, now)
}

func (s *SQLStore) CountTicketsByStatus(ctx context.Context) (map[model.TicketStatus]int, error) {
	return s.tickets.CountByStatus(ctx)
}

// SQLTxRunner 基于数据库连接的事务运行器
type SQLTxRunner struct {
	db *database.DB
}

// NewSQLTxRunner 创建事务运行器
func NewSQLTxRunner(db *database.DB) *SQLTxRunner {
	return &SQLTxRunner{db: db}
}

// Serializable 在可串行化事务内执行 fn
func (r *SQLTxRunner) Serializable(ctx context.Context, fn func(store Store) error) error {
	err := r.db.SerializableTransaction(ctx, func(tx *sql.Tx) error {
		return fn(NewSQLStore(tx))
	})
	if apperrors.Is(err, apperrors.CodeConcurrencyConflict) {
		metrics.RecordSerializationFailure("serializable_tx")
	}
	return err
}
