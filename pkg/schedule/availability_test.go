package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
)

var (
	testWorkshopA = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testWorkshopB = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testWorkshopC = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	testGuide1    = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	testGuide2    = uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
)

func testBase() time.Time {
	return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
}

func makeWorkshop(id uuid.UUID, name string, capacity *int, visitMinutes int) *model.Workshop {
	w := &model.Workshop{
		Name:                 name,
		Capacity:             capacity,
		VisitDurationMinutes: visitMinutes,
	}
	w.ID = id
	return w
}

func makeExcursion(name string, guideID uuid.UUID, status model.ExcursionStatus, start time.Time, stops ...model.RouteStop) *model.Excursion {
	e := &model.Excursion{
		Name:      name,
		StartTime: start,
		GuideID:   guideID,
		Status:    status,
		Stops:     stops,
	}
	e.ID = uuid.New()
	return e
}

func makeStop(workshopID uuid.UUID, start time.Time, minutes int) model.RouteStop {
	return model.RouteStop{
		ID:              uuid.New(),
		WorkshopID:      workshopID,
		StartTime:       start,
		DurationMinutes: minutes,
	}
}

func TestIndex_FindConflicts(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
	}
	existing := makeExcursion("糖果厂之旅", testGuide1, model.StatusConfirmed, base,
		makeStop(testWorkshopA, base, 60))
	snap := NewSnapshot(workshops, []*model.Excursion{existing})
	index := NewIndex(snap, DefaultConfig())

	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		exclude   uuid.UUID
		conflicts int
	}{
		{
			name:  "时间重叠产生冲突",
			start: base.Add(30 * time.Minute), end: base.Add(90 * time.Minute),
			conflicts: 1,
		},
		{
			name:  "端点相接不冲突",
			start: base.Add(60 * time.Minute), end: base.Add(120 * time.Minute),
			conflicts: 0,
		},
		{
			name:  "完全分离不冲突",
			start: base.Add(3 * time.Hour), end: base.Add(4 * time.Hour),
			conflicts: 0,
		},
		{
			name:  "排除自身后无冲突",
			start: base, end: base.Add(time.Hour),
			exclude:   existing.ID,
			conflicts: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflicts := index.FindConflicts(testWorkshopA, tt.start, tt.end, tt.exclude)
			if len(conflicts) != tt.conflicts {
				t.Errorf("Expected %d conflicts, got %d", tt.conflicts, len(conflicts))
			}
			for _, c := range conflicts {
				if c.Type != ConflictWorkshopBusy {
					t.Errorf("Expected conflict type %s, got %s", ConflictWorkshopBusy, c.Type)
				}
			}
		})
	}
}

func TestIndex_FindConflicts_StatusFiltering(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
	}

	tests := []struct {
		name       string
		status     model.ExcursionStatus
		countDraft bool
		conflicts  int
	}{
		{"已确认的占用", model.StatusConfirmed, true, 1},
		{"已取消的不占用", model.StatusCancelled, true, 0},
		{"草稿按配置占用", model.StatusDraft, true, 1},
		{"草稿按配置不占用", model.StatusDraft, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := makeExcursion("其他团", testGuide1, tt.status, base,
				makeStop(testWorkshopA, base, 60))
			snap := NewSnapshot(workshops, []*model.Excursion{existing})
			cfg := DefaultConfig()
			cfg.CountDraft = tt.countDraft
			index := NewIndex(snap, cfg)

			conflicts := index.FindConflicts(testWorkshopA, base, base.Add(time.Hour), uuid.Nil)
			if len(conflicts) != tt.conflicts {
				t.Errorf("Expected %d conflicts, got %d", tt.conflicts, len(conflicts))
			}
		})
	}
}

func TestIndex_FindFreeWindow(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
	}
	// 占用 10:30-11:00 与 11:30-12:00
	existing := makeExcursion("糖果厂之旅", testGuide1, model.StatusConfirmed, base,
		makeStop(testWorkshopA, base.Add(30*time.Minute), 30),
		makeStop(testWorkshopA, base.Add(90*time.Minute), 30))
	snap := NewSnapshot(workshops, []*model.Excursion{existing})
	index := NewIndex(snap, DefaultConfig())

	tests := []struct {
		name          string
		notBefore     time.Time
		expectedStart time.Time
		expectedMins  int
	}{
		{
			name:          "预订前的空档",
			notBefore:     base,
			expectedStart: base,
			expectedMins:  30,
		},
		{
			name:          "落在占用中跳到占用结束",
			notBefore:     base.Add(40 * time.Minute),
			expectedStart: base.Add(60 * time.Minute),
			expectedMins:  30,
		},
		{
			name:          "最后预订之后窗口按最大时长封顶",
			notBefore:     base.Add(2 * time.Hour),
			expectedStart: base.Add(2 * time.Hour),
			expectedMins:  DefaultConfig().MaxVisitMinutes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, minutes := index.FindFreeWindow(testWorkshopA, tt.notBefore, uuid.Nil)
			if !start.Equal(tt.expectedStart) {
				t.Errorf("FindFreeWindow() start = %v, expected %v", start, tt.expectedStart)
			}
			if minutes != tt.expectedMins {
				t.Errorf("FindFreeWindow() minutes = %d, expected %d", minutes, tt.expectedMins)
			}
		})
	}
}

func TestIndex_FindFreeWindow_EmptySchedule(t *testing.T) {
	base := testBase()
	snap := NewSnapshot([]*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
	}, nil)
	index := NewIndex(snap, DefaultConfig())

	start, minutes := index.FindFreeWindow(testWorkshopA, base, uuid.Nil)
	if !start.Equal(base) {
		t.Errorf("Expected window at %v, got %v", base, start)
	}
	if minutes != DefaultConfig().MaxVisitMinutes {
		t.Errorf("Expected %d minutes, got %d", DefaultConfig().MaxVisitMinutes, minutes)
	}
}
