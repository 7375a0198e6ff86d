// Package model 定义工厂参观调度引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now().UTC()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TimeRange 时间范围（半开区间 [Start, End)）
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Overlaps 检查两个时间范围是否重叠
// 端点相接（一个结束恰好是另一个开始）不算重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Contains 检查时间范围是否包含某个时间点
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// User 用户（本引擎只关心导游角色）
type User struct {
	BaseModel
	Username string `json:"username" db:"username"`
	FullName string `json:"full_name,omitempty" db:"full_name"`
	Role     string `json:"role" db:"role"` // admin/guide/foreman
}

// IsGuide 检查用户是否为导游
func (u *User) IsGuide() bool {
	return u.Role == "guide"
}
