package timeutil

import (
	"testing"
	"time"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		startA   time.Time
		endA     time.Time
		startB   time.Time
		endB     time.Time
		expected bool
	}{
		{
			name:   "完全重叠",
			startA: base, endA: base.Add(time.Hour),
			startB: base, endB: base.Add(time.Hour),
			expected: true,
		},
		{
			name:   "部分重叠",
			startA: base, endA: base.Add(time.Hour),
			startB: base.Add(30 * time.Minute), endB: base.Add(90 * time.Minute),
			expected: true,
		},
		{
			name:   "包含关系",
			startA: base, endA: base.Add(2 * time.Hour),
			startB: base.Add(30 * time.Minute), endB: base.Add(time.Hour),
			expected: true,
		},
		{
			name:   "端点相接不算重叠",
			startA: base, endA: base.Add(time.Hour),
			startB: base.Add(time.Hour), endB: base.Add(2 * time.Hour),
			expected: false,
		},
		{
			name:   "完全分离",
			startA: base, endA: base.Add(time.Hour),
			startB: base.Add(3 * time.Hour), endB: base.Add(4 * time.Hour),
			expected: false,
		},
		{
			name:   "不同时区归一化后重叠",
			startA: base, endA: base.Add(time.Hour),
			startB: base.Add(30 * time.Minute).In(time.FixedZone("CST", 8*3600)),
			endB:   base.Add(90 * time.Minute).In(time.FixedZone("CST", 8*3600)),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Overlaps(tt.startA, tt.endA, tt.startB, tt.endB)
			if result != tt.expected {
				t.Errorf("Overlaps() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestAddMinutes(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	result := AddMinutes(base, 45)
	expected := time.Date(2026, 3, 1, 10, 45, 0, 0, time.UTC)
	if !result.Equal(expected) {
		t.Errorf("AddMinutes() = %v, expected %v", result, expected)
	}

	// 负数分钟应向前回退
	back := AddMinutes(base, -15)
	if !back.Equal(time.Date(2026, 3, 1, 9, 45, 0, 0, time.UTC)) {
		t.Errorf("AddMinutes(-15) = %v, expected 09:45", back)
	}
}

func TestMinutesBetween(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from     time.Time
		to       time.Time
		expected int
	}{
		{"整小时", base, base.Add(time.Hour), 60},
		{"零分钟", base, base, 0},
		{"不足一分钟向下取整", base, base.Add(90 * time.Second), 1},
		{"反向为负", base.Add(30 * time.Minute), base, -30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := MinutesBetween(tt.from, tt.to); result != tt.expected {
				t.Errorf("MinutesBetween() = %d, expected %d", result, tt.expected)
			}
		})
	}
}

func TestToUTC(t *testing.T) {
	cst := time.FixedZone("CST", 8*3600)
	local := time.Date(2026, 3, 1, 18, 0, 0, 0, cst)

	result := ToUTC(local)
	if result.Location() != time.UTC {
		t.Error("ToUTC should return UTC location")
	}
	if !result.Equal(local) {
		t.Error("ToUTC should preserve the instant")
	}
	if result.Hour() != 10 {
		t.Errorf("Expected hour 10 in UTC, got %d", result.Hour())
	}
}
