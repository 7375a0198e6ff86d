// Package model 定义工厂参观调度引擎的核心数据模型
package model

// DefaultVisitMinutes 未配置时的默认参观时长（分钟）
const DefaultVisitMinutes = 15

// Workshop 车间
// 调度引擎只读取车间信息，从不修改
type Workshop struct {
	BaseModel
	Name                 string `json:"name" db:"name"`
	Description          string `json:"description,omitempty" db:"description"`
	Capacity             *int   `json:"capacity,omitempty" db:"capacity"` // nil = 不限人数
	VisitDurationMinutes int    `json:"visit_duration_minutes" db:"visit_duration_minutes"`
}

// VisitDuration 返回参观时长（分钟），未设置时取默认值
func (w *Workshop) VisitDuration() int {
	if w.VisitDurationMinutes <= 0 {
		return DefaultVisitMinutes
	}
	return w.VisitDurationMinutes
}

// FitsGroup 检查车间容量是否容纳指定人数的团队
func (w *Workshop) FitsGroup(participants int) bool {
	return w.Capacity == nil || *w.Capacity >= participants
}
