package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/internal/config"
	"github.com/danielsheh02/willy-wonka-factory/internal/metrics"
	apperrors "github.com/danielsheh02/willy-wonka-factory/pkg/errors"
	"github.com/danielsheh02/willy-wonka-factory/pkg/logger"
	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
	"github.com/danielsheh02/willy-wonka-factory/pkg/timeutil"
)

const (
	// 金券号码字符集，去掉了易混淆的 0/O/1/I
	ticketCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	ticketLength  = 8

	maxTicketsPerBatch   = 1000
	maxNumberGenAttempts = 100
)

// CodeSource 金券号码随机源
// 测试可注入固定序列
type CodeSource interface {
	Code(length int) (string, error)
}

type cryptoCodeSource struct{}

func (cryptoCodeSource) Code(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(ticketCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = ticketCharset[n.Int64()]
	}
	return string(buf), nil
}

// TicketService 金券服务：生成、预订、核销与后台回收
type TicketService struct {
	tx    TxRunner
	store Store
	cfg   config.TicketConfig
	codes CodeSource
}

// NewTicketService 创建金券服务
func NewTicketService(tx TxRunner, store Store, cfg config.TicketConfig) *TicketService {
	return &TicketService{
		tx:    tx,
		store: store,
		cfg:   cfg,
		codes: cryptoCodeSource{},
	}
}

// WithCodeSource 替换号码随机源
func (s *TicketService) WithCodeSource(src CodeSource) *TicketService {
	s.codes = src
	return s
}

// GenerateRequest 批量生成金券的请求
type GenerateRequest struct {
	Count         int `json:"count" validate:"required,min=1,max=1000"`
	ExpiresInDays int `json:"expires_in_days,omitempty" validate:"omitempty,min=1"`
}

// Generate 批量生成金券
// 单批最多 1000 张；号码全局唯一，重试上限 100 次
func (s *TicketService) Generate(ctx context.Context, req GenerateRequest) ([]*model.GoldenTicket, error) {
	if req.Count <= 0 || req.Count > maxTicketsPerBatch {
		return nil, apperrors.InvalidInput("count",
			fmt.Sprintf("单批生成数量必须在 1 到 %d 之间", maxTicketsPerBatch))
	}
	now := timeutil.NowUTC()
	var expiresAt *time.Time
	if req.ExpiresInDays > 0 {
		t := now.AddDate(0, 0, req.ExpiresInDays)
		expiresAt = &t
	}

	tickets := make([]*model.GoldenTicket, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		number, err := s.uniqueNumber(ctx)
		if err != nil {
			return nil, err
		}
		ticket := &model.GoldenTicket{
			ID:           uuid.New(),
			TicketNumber: number,
			Status:       model.TicketActive,
			GeneratedAt:  now,
			ExpiresAt:    expiresAt,
		}
		if err := s.store.CreateTicket(ctx, ticket); err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	logger.Info().Int("count", len(tickets)).Msg("金券批量生成完成")
	return tickets, nil
}

func (s *TicketService) uniqueNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxNumberGenAttempts; attempt++ {
		number, err := s.codes.Code(ticketLength)
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.CodeInternal, "生成金券号码失败")
		}
		exists, err := s.store.TicketNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", apperrors.New(apperrors.CodeInternal,
		fmt.Sprintf("连续 %d 次未能生成唯一金券号码", maxNumberGenAttempts))
}

// BookRequest 预订金券的请求
type BookRequest struct {
	TicketNumber string    `json:"ticket_number" validate:"required"`
	ExcursionID  uuid.UUID `json:"excursion_id" validate:"required"`
	HolderName   string    `json:"holder_name" validate:"required"`
	HolderEmail  string    `json:"holder_email,omitempty" validate:"omitempty,email"`
	HolderPhone  string    `json:"holder_phone,omitempty"`
}

// Book 将金券预订到参观团
//
// 名额校验与写入在同一可串行化事务内完成：
// 已订数量必须小于参观人数；改签同一参观团时扣除自己占用的名额；
// 参观团开始后不再接受预订
func (s *TicketService) Book(ctx context.Context, req BookRequest) (*model.GoldenTicket, error) {
	now := timeutil.NowUTC()
	var booked *model.GoldenTicket

	err := s.tx.Serializable(ctx, func(store Store) error {
		ticket, err := store.GetTicketByNumber(ctx, req.TicketNumber)
		if err != nil {
			return err
		}
		if ticket == nil {
			return apperrors.NotFound("金券", req.TicketNumber)
		}
		if !ticket.IsBookable() {
			return apperrors.New(apperrors.CodeTicketNotBookable,
				fmt.Sprintf("金券 '%s' 当前状态为 %s，不可预订", ticket.TicketNumber, ticket.Status))
		}
		if ticket.IsExpiredAt(now) {
			return apperrors.New(apperrors.CodeTicketNotBookable,
				fmt.Sprintf("金券 '%s' 已过期", ticket.TicketNumber))
		}

		excursion, err := store.GetExcursion(ctx, req.ExcursionID)
		if err != nil {
			return err
		}
		if excursion == nil {
			return apperrors.NotFound("参观团", req.ExcursionID.String())
		}
		if excursion.Status == model.StatusCancelled || excursion.Status == model.StatusCompleted {
			return apperrors.New(apperrors.CodeTicketNotBookable,
				fmt.Sprintf("参观团 '%s' 状态为 %s，不可预订", excursion.Name, excursion.Status))
		}
		if !excursion.StartTime.After(now) {
			return apperrors.New(apperrors.CodeTicketNotBookable,
				fmt.Sprintf("参观团 '%s' 已开始，不可预订", excursion.Name))
		}

		bookedCount, err := store.CountBookedByExcursion(ctx, req.ExcursionID)
		if err != nil {
			return err
		}
		// 改签同一参观团时自己已占一个名额
		if ticket.Status == model.TicketBooked && ticket.ExcursionID != nil && *ticket.ExcursionID == req.ExcursionID {
			bookedCount--
		}
		if bookedCount >= excursion.ParticipantsCount {
			return apperrors.New(apperrors.CodeNoSeatsAvailable,
				fmt.Sprintf("参观团 '%s' 名额已满 (%d/%d)", excursion.Name, bookedCount, excursion.ParticipantsCount))
		}

		excursionID := req.ExcursionID
		ticket.Status = model.TicketBooked
		ticket.ExcursionID = &excursionID
		ticket.HolderName = req.HolderName
		ticket.HolderEmail = req.HolderEmail
		ticket.HolderPhone = req.HolderPhone
		ticket.BookedAt = &now
		if err := store.UpdateTicket(ctx, ticket); err != nil {
			return err
		}
		booked = ticket
		return nil
	})
	if err != nil {
		metrics.RecordTicketBooking("failure")
		return nil, err
	}
	metrics.RecordTicketBooking("success")
	logger.Info().
		Str("ticket_number", booked.TicketNumber).
		Str("excursion_id", req.ExcursionID.String()).
		Msg("金券预订成功")
	return booked, nil
}

// CancelBooking 取消预订，金券回到 ACTIVE
// 参观团开始后不允许取消
func (s *TicketService) CancelBooking(ctx context.Context, ticketNumber string) (*model.GoldenTicket, error) {
	now := timeutil.NowUTC()
	var cancelled *model.GoldenTicket

	err := s.tx.Serializable(ctx, func(store Store) error {
		ticket, err := store.GetTicketByNumber(ctx, ticketNumber)
		if err != nil {
			return err
		}
		if ticket == nil {
			return apperrors.NotFound("金券", ticketNumber)
		}
		if ticket.Status != model.TicketBooked {
			return apperrors.New(apperrors.CodeTicketNotBookable,
				fmt.Sprintf("金券 '%s' 未处于预订状态", ticketNumber))
		}
		if ticket.ExcursionID != nil {
			excursion, err := store.GetExcursion(ctx, *ticket.ExcursionID)
			if err != nil {
				return err
			}
			if excursion != nil && !excursion.StartTime.After(now) {
				return apperrors.New(apperrors.CodeTicketNotBookable,
					fmt.Sprintf("参观团 '%s' 已开始，不可取消预订", excursion.Name))
			}
		}

		ticket.Status = model.TicketActive
		ticket.ExcursionID = nil
		ticket.HolderName = ""
		ticket.HolderEmail = ""
		ticket.HolderPhone = ""
		ticket.BookedAt = nil
		if err := store.UpdateTicket(ctx, ticket); err != nil {
			return err
		}
		cancelled = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// ValidationResult 金券核验结果
type ValidationResult struct {
	Valid   bool                `json:"valid"`
	Message string              `json:"message"`
	Ticket  *model.GoldenTicket `json:"ticket,omitempty"`
}

// Validate 核验金券：存在且已预订未过期即为有效
func (s *TicketService) Validate(ctx context.Context, ticketNumber string) (*ValidationResult, error) {
	ticket, err := s.store.GetTicketByNumber(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return &ValidationResult{Valid: false, Message: "金券不存在"}, nil
	}
	now := timeutil.NowUTC()
	switch {
	case ticket.IsExpiredAt(now):
		return &ValidationResult{Valid: false, Message: "金券已过期", Ticket: ticket}, nil
	case ticket.Status == model.TicketBooked:
		return &ValidationResult{Valid: true, Message: "金券有效", Ticket: ticket}, nil
	case ticket.Status == model.TicketActive:
		return &ValidationResult{Valid: true, Message: "金券有效，尚未预订", Ticket: ticket}, nil
	default:
		return &ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("金券状态为 %s，不可使用", ticket.Status),
			Ticket:  ticket,
		}, nil
	}
}

// Get 按 ID 查询金券
func (s *TicketService) Get(ctx context.Context, id uuid.UUID) (*model.GoldenTicket, error) {
	ticket, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, apperrors.NotFound("金券", id.String())
	}
	return ticket, nil
}

// List 查询全部金券
func (s *TicketService) List(ctx context.Context) ([]*model.GoldenTicket, error) {
	return s.store.ListTickets(ctx)
}

// Delete 删除金券
func (s *TicketService) Delete(ctx context.Context, id uuid.UUID) error {
	ticket, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return err
	}
	if ticket == nil {
		return apperrors.NotFound("金券", id.String())
	}
	return s.store.DeleteTicket(ctx, id)
}

// DeactivateForStarted 将已开始参观团的 BOOKED 金券标记为 USED
// 由后台时钟周期性调用
func (s *TicketService) DeactivateForStarted(ctx context.Context, now time.Time) (int, error) {
	now = timeutil.ToUTC(now)
	tickets, err := s.store.ListTicketsForStartedExcursions(ctx, now)
	if err != nil {
		return 0, err
	}
	used := 0
	for _, t := range tickets {
		t.Status = model.TicketUsed
		t.UsedAt = &now
		if err := s.store.UpdateTicket(ctx, t); err != nil {
			return used, err
		}
		used++
	}
	if used > 0 {
		logger.Info().Int("count", used).Msg("已开始参观团的金券已核销")
	}
	return used, nil
}

// DeactivateExpired 将过期的 ACTIVE 金券标记为 EXPIRED
func (s *TicketService) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	now = timeutil.ToUTC(now)
	tickets, err := s.store.ListExpiredTickets(ctx, now)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, t := range tickets {
		t.Status = model.TicketExpired
		if err := s.store.UpdateTicket(ctx, t); err != nil {
			return expired, err
		}
		expired++
	}
	if expired > 0 {
		logger.Info().Int("count", expired).Msg("过期金券已回收")
	}
	return expired, nil
}
