// Package schedule 提供参观路线的可用性检查与自动构建引擎
//
// 引擎在一个不可变的 Snapshot 上运行：编排层在事务内加载快照，
// 引擎本身不访问存储，只做纯计算
package schedule

import (
	"sort"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictWorkshopBusy     ConflictType = "workshop_busy"      // 车间时间被占用
	ConflictGuideBusy        ConflictType = "guide_busy"         // 导游已被分配
	ConflictCapacity         ConflictType = "capacity_exceeded"  // 超过车间容量
	ConflictWorkshopNotFound ConflictType = "workshop_not_found" // 车间不存在
)

// Conflict 冲突信息
type Conflict struct {
	Type          ConflictType     `json:"type"`
	Message       string           `json:"message"`
	WorkshopID    uuid.UUID        `json:"workshop_id,omitempty"`
	WorkshopName  string           `json:"workshop_name,omitempty"`
	ExcursionID   uuid.UUID        `json:"excursion_id,omitempty"`
	ExcursionName string           `json:"excursion_name,omitempty"`
	Window        *model.TimeRange `json:"window,omitempty"`
}

// AvailabilityReport 可用性检查报告（瞬态，不持久化）
type AvailabilityReport struct {
	Available bool       `json:"available"`
	Message   string     `json:"message"`
	Conflicts []Conflict `json:"conflicts"`
}

// Config 引擎配置
type Config struct {
	DefaultVisitMinutes int  // 车间未配置时的默认参观时长
	MinVisitMinutes     int  // 单个站点最短时长
	MaxVisitMinutes     int  // 单个站点最长时长（也是空闲窗口的封顶值）
	MaxRouteMinutes     int  // 整条路线的最大时长
	CountDraft          bool // DRAFT 状态的参观团是否占用时间
}

// DefaultConfig 返回默认配置
// DRAFT 默认参与冲突检测，避免确认时才暴露冲突
func DefaultConfig() *Config {
	return &Config{
		DefaultVisitMinutes: 15,
		MinVisitMinutes:     5,
		MaxVisitMinutes:     120,
		MaxRouteMinutes:     8 * 60,
		CountDraft:          true,
	}
}

// Snapshot 调度状态快照：全部车间与全部占用时间的参观团（含路线）
type Snapshot struct {
	Workshops  []*model.Workshop
	Excursions []*model.Excursion

	workshopByID map[uuid.UUID]*model.Workshop
}

// NewSnapshot 创建快照
func NewSnapshot(workshops []*model.Workshop, excursions []*model.Excursion) *Snapshot {
	s := &Snapshot{
		Workshops:    workshops,
		Excursions:   excursions,
		workshopByID: make(map[uuid.UUID]*model.Workshop, len(workshops)),
	}
	for _, w := range workshops {
		s.workshopByID[w.ID] = w
	}
	return s
}

// WorkshopByID 按ID查找车间
func (s *Snapshot) WorkshopByID(id uuid.UUID) *model.Workshop {
	return s.workshopByID[id]
}

// SortedWorkshops 返回按ID升序排列的车间副本
// 稳定的候选顺序保证路线构建的确定性
func (s *Snapshot) SortedWorkshops() []*model.Workshop {
	sorted := make([]*model.Workshop, len(s.Workshops))
	copy(sorted, s.Workshops)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.String() < sorted[j].ID.String()
	})
	return sorted
}
