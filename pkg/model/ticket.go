// Package model 定义工厂参观调度引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus 金券状态
type TicketStatus string

const (
	TicketActive    TicketStatus = "ACTIVE"    // 有效，未使用
	TicketBooked    TicketStatus = "BOOKED"    // 已预订某次参观
	TicketUsed      TicketStatus = "USED"      // 参观已开始，金券已使用
	TicketExpired   TicketStatus = "EXPIRED"   // 已过期
	TicketCancelled TicketStatus = "CANCELLED" // 已作废
)

// GoldenTicket 金券
// 由外部生成器创建（ACTIVE），预订后占用参观团一个名额
type GoldenTicket struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	TicketNumber string       `json:"ticket_number" db:"ticket_number"` // 唯一短号，例如 GW4A7K2M
	Status       TicketStatus `json:"status" db:"status"`
	ExcursionID  *uuid.UUID   `json:"excursion_id,omitempty" db:"excursion_id"`
	HolderName   string       `json:"holder_name,omitempty" db:"holder_name"`
	HolderEmail  string       `json:"holder_email,omitempty" db:"holder_email"`
	HolderPhone  string       `json:"holder_phone,omitempty" db:"holder_phone"`
	GeneratedAt  time.Time    `json:"generated_at" db:"generated_at"`
	BookedAt     *time.Time   `json:"booked_at,omitempty" db:"booked_at"`
	UsedAt       *time.Time   `json:"used_at,omitempty" db:"used_at"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty" db:"expires_at"`
}

// IsBookable 检查金券当前是否可预订（ACTIVE 或改签 BOOKED）
func (t *GoldenTicket) IsBookable() bool {
	return t.Status == TicketActive || t.Status == TicketBooked
}

// IsExpiredAt 检查金券在指定时刻是否已过期
func (t *GoldenTicket) IsExpiredAt(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
