// Package model 定义工厂参观调度引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// ExcursionStatus 参观团状态
type ExcursionStatus string

const (
	StatusDraft      ExcursionStatus = "DRAFT"       // 草稿
	StatusConfirmed  ExcursionStatus = "CONFIRMED"   // 已确认
	StatusInProgress ExcursionStatus = "IN_PROGRESS" // 进行中
	StatusCompleted  ExcursionStatus = "COMPLETED"   // 已完成
	StatusCancelled  ExcursionStatus = "CANCELLED"   // 已取消
)

// AllStatuses 返回全部参观团状态
func AllStatuses() []ExcursionStatus {
	return []ExcursionStatus{
		StatusDraft, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled,
	}
}

// IsValidStatus 检查状态是否合法
func IsValidStatus(s ExcursionStatus) bool {
	switch s {
	case StatusDraft, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// statusTransitions 状态机：DRAFT→CONFIRMED→IN_PROGRESS→COMPLETED，
// CANCELLED 只能从 DRAFT 或 CONFIRMED 到达
var statusTransitions = map[ExcursionStatus][]ExcursionStatus{
	StatusDraft:      {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition 检查状态迁移是否允许
func CanTransition(from, to ExcursionStatus) bool {
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RouteStop 路线站点：参观团在某个车间的一次停留
type RouteStop struct {
	ID              uuid.UUID `json:"id" db:"id"`
	ExcursionID     uuid.UUID `json:"excursion_id" db:"excursion_id"`
	WorkshopID      uuid.UUID `json:"workshop_id" db:"workshop_id"`
	WorkshopName    string    `json:"workshop_name,omitempty" db:"-"`
	OrderNumber     int       `json:"order_number" db:"order_number"`
	StartTime       time.Time `json:"start_time" db:"start_time"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
}

// EndTime 返回站点结束时间
func (s *RouteStop) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Window 返回站点占用的时间范围
func (s *RouteStop) Window() TimeRange {
	return TimeRange{Start: s.StartTime, End: s.EndTime()}
}

// Excursion 参观团
// 路线站点完全归属于参观团，更新时整体替换
type Excursion struct {
	BaseModel
	Name              string          `json:"name" db:"name"`
	StartTime         time.Time       `json:"start_time" db:"start_time"`
	ParticipantsCount int             `json:"participants_count" db:"participants_count"`
	GuideID           uuid.UUID       `json:"guide_id" db:"guide_id"`
	GuideName         string          `json:"guide_name,omitempty" db:"-"`
	Status            ExcursionStatus `json:"status" db:"status"`
	Stops             []RouteStop     `json:"routes" db:"-"`
}

// EndTime 返回参观团结束时间 = 开始时间 + 各站点时长之和
func (e *Excursion) EndTime() time.Time {
	end := e.StartTime
	for i := range e.Stops {
		if stopEnd := e.Stops[i].EndTime(); stopEnd.After(end) {
			end = stopEnd
		}
	}
	return end
}

// Window 返回参观团占用的时间范围
func (e *Excursion) Window() TimeRange {
	return TimeRange{Start: e.StartTime, End: e.EndTime()}
}

// Occupies 检查参观团在冲突检测中是否占用车间/导游时间
// CANCELLED 一律不占用；DRAFT 是否占用由配置决定
func (e *Excursion) Occupies(countDraft bool) bool {
	switch e.Status {
	case StatusCancelled:
		return false
	case StatusDraft:
		return countDraft
	default:
		return true
	}
}
