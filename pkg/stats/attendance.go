package stats

import (
	"sort"

	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
)

// AttendanceMetrics 参观团上座与导游负载指标
type AttendanceMetrics struct {
	TotalExcursions int            `json:"total_excursions"`
	ByStatus        map[string]int `json:"by_status"` // 各状态参观团数量

	TotalSeats  int     `json:"total_seats"`  // 可售名额总数（未结束的参观团）
	BookedSeats int     `json:"booked_seats"` // 已订名额总数
	FillRate    float64 `json:"fill_rate"`    // 上座率 (%)

	Tickets map[string]int `json:"tickets"` // 各状态金券数量

	GuideLoads []GuideLoad `json:"guide_loads"` // 按参观团数降序
}

// GuideLoad 单个导游的负载
type GuideLoad struct {
	GuideID        string  `json:"guide_id"`
	GuideName      string  `json:"guide_name,omitempty"`
	ExcursionCount int     `json:"excursion_count"`
	TotalMinutes   int     `json:"total_minutes"`
	TotalHours     float64 `json:"total_hours"`
}

// AttendanceAnalyzer 上座率与导游负载分析器
type AttendanceAnalyzer struct{}

// NewAttendanceAnalyzer 创建上座率分析器
func NewAttendanceAnalyzer() *AttendanceAnalyzer {
	return &AttendanceAnalyzer{}
}

// Analyze 统计参观团上座率、金券分布与导游负载
// bookedByExcursion 为每个参观团的已订金券数，ticketsByStatus 为各状态金券总量
func (a *AttendanceAnalyzer) Analyze(
	excursions []*model.Excursion,
	bookedByExcursion map[string]int,
	ticketsByStatus map[model.TicketStatus]int,
) *AttendanceMetrics {
	metrics := &AttendanceMetrics{
		TotalExcursions: len(excursions),
		ByStatus:        make(map[string]int),
		Tickets:         make(map[string]int),
	}
	for status, count := range ticketsByStatus {
		metrics.Tickets[string(status)] = count
	}

	loads := make(map[string]*GuideLoad)
	for _, e := range excursions {
		metrics.ByStatus[string(e.Status)]++

		if e.Status != model.StatusCancelled && e.Status != model.StatusCompleted {
			metrics.TotalSeats += e.ParticipantsCount
			metrics.BookedSeats += bookedByExcursion[e.ID.String()]
		}

		guideID := e.GuideID.String()
		load, ok := loads[guideID]
		if !ok {
			load = &GuideLoad{GuideID: guideID, GuideName: e.GuideName}
			loads[guideID] = load
		}
		load.ExcursionCount++
		for i := range e.Stops {
			load.TotalMinutes += e.Stops[i].DurationMinutes
		}
	}

	if metrics.TotalSeats > 0 {
		metrics.FillRate = float64(metrics.BookedSeats) / float64(metrics.TotalSeats) * 100
	}

	for _, load := range loads {
		load.TotalHours = float64(load.TotalMinutes) / 60
		metrics.GuideLoads = append(metrics.GuideLoads, *load)
	}
	sort.Slice(metrics.GuideLoads, func(i, j int) bool {
		if metrics.GuideLoads[i].ExcursionCount != metrics.GuideLoads[j].ExcursionCount {
			return metrics.GuideLoads[i].ExcursionCount > metrics.GuideLoads[j].ExcursionCount
		}
		return metrics.GuideLoads[i].GuideID < metrics.GuideLoads[j].GuideID
	})
	return metrics
}
