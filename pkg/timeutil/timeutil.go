// Package timeutil 提供 UTC 时间与区间运算
// 引擎内部只使用 UTC；本地时区的转换属于前端职责
package timeutil

import "time"

// NowUTC 返回当前 UTC 时间
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ToUTC 把任意时间归一化到 UTC
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// AddMinutes 在指定时刻上增加分钟数
func AddMinutes(t time.Time, minutes int) time.Time {
	return t.Add(time.Duration(minutes) * time.Minute)
}

// Overlaps 检查两个半开区间 [startA, endA) 与 [startB, endB) 是否相交
// 端点相接（endA == startB）不算重叠
func Overlaps(startA, endA, startB, endB time.Time) bool {
	a0, a1 := startA.UTC(), endA.UTC()
	b0, b1 := startB.UTC(), endB.UTC()
	return a0.Before(b1) && b0.Before(a1)
}

// MinutesBetween 返回两个时刻之间的整分钟数（向下取整）
func MinutesBetween(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}
