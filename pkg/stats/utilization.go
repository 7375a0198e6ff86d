// Package stats 提供参观排期的统计分析功能
package stats

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
)

// UtilizationMetrics 车间利用率指标
type UtilizationMetrics struct {
	// 整体情况
	TotalWorkshops   int     `json:"total_workshops"`   // 车间总数
	VisitedWorkshops int     `json:"visited_workshops"` // 被路线覆盖的车间数
	OverallCoverage  float64 `json:"overall_coverage"`  // 车间覆盖率 (%)

	// 按车间统计
	Workshops map[string]WorkshopUsage `json:"workshops"` // 车间 ID -> 使用情况

	// 按日期统计
	DailyVisits map[string]DayVisits `json:"daily_visits"` // 每日参观情况

	// 问题识别
	IdleWorkshops []IdleWorkshop `json:"idle_workshops"` // 无任何参观的车间
}

// WorkshopUsage 单个车间的使用情况
type WorkshopUsage struct {
	WorkshopID  string  `json:"workshop_id"`
	Name        string  `json:"name"`
	VisitCount  int     `json:"visit_count"`  // 站点数
	BusyMinutes int     `json:"busy_minutes"` // 被占用总分钟数
	BusyHours   float64 `json:"busy_hours"`
}

// DayVisits 每日参观情况
type DayVisits struct {
	Date           string `json:"date"`
	ExcursionCount int    `json:"excursion_count"`
	StopCount      int    `json:"stop_count"`
	Participants   int    `json:"participants"`
}

// IdleWorkshop 无参观的车间
type IdleWorkshop struct {
	WorkshopID string `json:"workshop_id"`
	Name       string `json:"name"`
}

// UtilizationAnalyzer 车间利用率分析器
type UtilizationAnalyzer struct{}

// NewUtilizationAnalyzer 创建利用率分析器
func NewUtilizationAnalyzer() *UtilizationAnalyzer {
	return &UtilizationAnalyzer{}
}

// Analyze 统计车间利用率
// 只计入占用时间的参观团（CANCELLED 不计，DRAFT 取决于调用方传入的列表）
func (a *UtilizationAnalyzer) Analyze(workshops []*model.Workshop, excursions []*model.Excursion) *UtilizationMetrics {
	metrics := &UtilizationMetrics{
		TotalWorkshops: len(workshops),
		Workshops:      make(map[string]WorkshopUsage),
		DailyVisits:    make(map[string]DayVisits),
	}

	usage := make(map[uuid.UUID]*WorkshopUsage)
	for _, w := range workshops {
		usage[w.ID] = &WorkshopUsage{
			WorkshopID: w.ID.String(),
			Name:       w.Name,
		}
	}

	for _, e := range excursions {
		date := e.StartTime.Format("2006-01-02")
		day := metrics.DailyVisits[date]
		day.Date = date
		day.ExcursionCount++
		day.StopCount += len(e.Stops)
		day.Participants += e.ParticipantsCount
		metrics.DailyVisits[date] = day

		for i := range e.Stops {
			stop := &e.Stops[i]
			u, ok := usage[stop.WorkshopID]
			if !ok {
				// 站点引用了已删除的车间，仍计入
				u = &WorkshopUsage{WorkshopID: stop.WorkshopID.String(), Name: stop.WorkshopName}
				usage[stop.WorkshopID] = u
			}
			u.VisitCount++
			u.BusyMinutes += stop.DurationMinutes
		}
	}

	visited := 0
	for _, w := range workshops {
		u := usage[w.ID]
		u.BusyHours = float64(u.BusyMinutes) / 60
		metrics.Workshops[w.ID.String()] = *u
		if u.VisitCount > 0 {
			visited++
		} else {
			metrics.IdleWorkshops = append(metrics.IdleWorkshops, IdleWorkshop{
				WorkshopID: w.ID.String(),
				Name:       w.Name,
			})
		}
	}
	metrics.VisitedWorkshops = visited
	if len(workshops) > 0 {
		metrics.OverallCoverage = float64(visited) / float64(len(workshops)) * 100
	}
	return metrics
}

// AnalyzeTimeRange 统计指定时间范围内的车间利用率
func (a *UtilizationAnalyzer) AnalyzeTimeRange(workshops []*model.Workshop, excursions []*model.Excursion, start, end time.Time) *UtilizationMetrics {
	var filtered []*model.Excursion
	for _, e := range excursions {
		if e.StartTime.Before(end) && e.EndTime().After(start) {
			filtered = append(filtered, e)
		}
	}
	return a.Analyze(workshops, filtered)
}
