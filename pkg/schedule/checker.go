// Package schedule 提供参观路线的可用性检查与自动构建引擎
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
	"github.com/danielsheh02/willy-wonka-factory/pkg/timeutil"
)

// StopRequest 手动路线中的一个站点
type StopRequest struct {
	WorkshopID      uuid.UUID `json:"workshop_id"`
	OrderNumber     int       `json:"order_number"`
	DurationMinutes int       `json:"duration_minutes,omitempty"` // 0 = 取车间默认参观时长
}

// CheckRequest 手动路线的可用性检查请求
type CheckRequest struct {
	ExcursionID       uuid.UUID // 编辑时排除自身；新建时为 uuid.Nil
	StartTime         time.Time
	ParticipantsCount int
	GuideID           uuid.UUID
	Stops             []StopRequest
}

// Checker 手动路线可用性检查器
//
// 检查完整路线链条并汇总全部冲突，而不是遇到第一个就返回：
// 调用方一次往返就能看到所有问题
type Checker struct {
	snap *Snapshot
	cfg  *Config
}

// NewChecker 创建可用性检查器
func NewChecker(snap *Snapshot, cfg *Config) *Checker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Checker{snap: snap, cfg: cfg}
}

// Check 检查手动路线的可用性，返回汇总报告
func (c *Checker) Check(req CheckRequest) *AvailabilityReport {
	report := &AvailabilityReport{Conflicts: []Conflict{}}

	if len(req.Stops) == 0 {
		report.Message = "路线为空"
		return report
	}

	stops := make([]StopRequest, len(req.Stops))
	copy(stops, req.Stops)
	sort.Slice(stops, func(i, j int) bool {
		return stops[i].OrderNumber < stops[j].OrderNumber
	})

	index := NewIndex(c.snap, c.cfg)
	start := req.StartTime.UTC()

	// 先推导各站点的时间，得到整团的结束时刻
	type plannedStop struct {
		req      StopRequest
		workshop *model.Workshop
		window   model.TimeRange
	}
	planned := make([]plannedStop, 0, len(stops))

	cursor := start
	for _, s := range stops {
		w := c.snap.WorkshopByID(s.WorkshopID)
		if w == nil {
			report.Conflicts = append(report.Conflicts, Conflict{
				Type:       ConflictWorkshopNotFound,
				Message:    fmt.Sprintf("车间 '%s' 不存在", s.WorkshopID),
				WorkshopID: s.WorkshopID,
			})
			continue
		}
		duration := s.DurationMinutes
		if duration <= 0 {
			duration = c.visitDuration(w)
		}
		end := timeutil.AddMinutes(cursor, duration)
		planned = append(planned, plannedStop{
			req:      s,
			workshop: w,
			window:   model.TimeRange{Start: cursor, End: end},
		})
		cursor = end
	}

	// 导游在整个参观时间段内必须空闲
	if req.GuideID != uuid.Nil && cursor.After(start) {
		guide := NewGuideChecker(c.snap, c.cfg)
		report.Conflicts = append(report.Conflicts,
			guide.FindConflicts(req.GuideID, start, cursor, req.ExcursionID)...)
	}

	// 逐站点检查容量与车间占用
	for _, p := range planned {
		if conflict := ValidateCapacity(req.ParticipantsCount, p.workshop); conflict != nil {
			report.Conflicts = append(report.Conflicts, *conflict)
		}
		report.Conflicts = append(report.Conflicts,
			index.FindConflicts(p.workshop.ID, p.window.Start, p.window.End, req.ExcursionID)...)
	}

	report.Available = len(report.Conflicts) == 0
	if report.Available {
		report.Message = "路线可用"
	} else {
		report.Message = fmt.Sprintf("路线不可用: 发现 %d 处冲突", len(report.Conflicts))
	}
	return report
}

// BuildStops 根据检查请求推导出持久化用的路线站点
// 只应在 Check 返回可用后调用
func (c *Checker) BuildStops(req CheckRequest) []model.RouteStop {
	stops := make([]StopRequest, len(req.Stops))
	copy(stops, req.Stops)
	sort.Slice(stops, func(i, j int) bool {
		return stops[i].OrderNumber < stops[j].OrderNumber
	})

	result := make([]model.RouteStop, 0, len(stops))
	cursor := req.StartTime.UTC()
	for i, s := range stops {
		w := c.snap.WorkshopByID(s.WorkshopID)
		if w == nil {
			continue
		}
		duration := s.DurationMinutes
		if duration <= 0 {
			duration = c.visitDuration(w)
		}
		result = append(result, model.RouteStop{
			ID:              uuid.New(),
			ExcursionID:     req.ExcursionID,
			WorkshopID:      w.ID,
			WorkshopName:    w.Name,
			OrderNumber:     i + 1,
			StartTime:       cursor,
			DurationMinutes: duration,
		})
		cursor = timeutil.AddMinutes(cursor, duration)
	}
	return result
}

// visitDuration 车间参观时长：车间配置优先，封顶在最大值
func (c *Checker) visitDuration(w *model.Workshop) int {
	d := w.VisitDurationMinutes
	if d <= 0 {
		d = c.cfg.DefaultVisitMinutes
	}
	if d > c.cfg.MaxVisitMinutes {
		d = c.cfg.MaxVisitMinutes
	}
	return d
}
