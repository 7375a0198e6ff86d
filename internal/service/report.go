package service

import (
	"context"
	"time"

	"github.com/danielsheh02/willy-wonka-factory/internal/repository"
	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
	"github.com/danielsheh02/willy-wonka-factory/pkg/stats"
)

// ReportService 统计报表服务
type ReportService struct {
	store       Store
	utilization *stats.UtilizationAnalyzer
	attendance  *stats.AttendanceAnalyzer
}

// NewReportService 创建报表服务
func NewReportService(store Store) *ReportService {
	return &ReportService{
		store:       store,
		utilization: stats.NewUtilizationAnalyzer(),
		attendance:  stats.NewAttendanceAnalyzer(),
	}
}

// StatisticsReport 工厂参观统计报表
type StatisticsReport struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Utilization *stats.UtilizationMetrics `json:"utilization"`
	Attendance  *stats.AttendanceMetrics  `json:"attendance"`
}

// Statistics 生成统计报表
// from/to 为空时统计全部参观团
func (s *ReportService) Statistics(ctx context.Context, from, to *time.Time) (*StatisticsReport, error) {
	workshops, err := s.store.ListWorkshops(ctx)
	if err != nil {
		return nil, err
	}
	filter := repository.DefaultListFilter()
	filter.From = from
	filter.To = to
	filter.Limit = 0
	excursions, err := s.store.ListExcursions(ctx, filter)
	if err != nil {
		return nil, err
	}

	bookedByExcursion := make(map[string]int, len(excursions))
	for _, e := range excursions {
		if e.Status == model.StatusCancelled || e.Status == model.StatusCompleted {
			continue
		}
		count, err := s.store.CountBookedByExcursion(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		bookedByExcursion[e.ID.String()] = count
	}
	ticketsByStatus, err := s.store.CountTicketsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	// 利用率只统计占用时间的参观团
	var occupying []*model.Excursion
	for _, e := range excursions {
		if e.Occupies(true) {
			occupying = append(occupying, e)
		}
	}

	return &StatisticsReport{
		GeneratedAt: time.Now().UTC(),
		Utilization: s.utilization.Analyze(workshops, occupying),
		Attendance:  s.attendance.Analyze(excursions, bookedByExcursion, ticketsByStatus),
	}, nil
}
