package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
)

func TestChecker_Check_EmptyRoute(t *testing.T) {
	snap := NewSnapshot(nil, nil)
	checker := NewChecker(snap, DefaultConfig())

	report := checker.Check(CheckRequest{StartTime: testBase()})
	if report.Available {
		t.Error("Empty route should not be available")
	}
	if report.Message != "路线为空" {
		t.Errorf("Expected message '路线为空', got %q", report.Message)
	}
}

func TestChecker_Check_AvailableRoute(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
		makeWorkshop(testWorkshopB, "糖果车间", nil, 45),
	}
	snap := NewSnapshot(workshops, nil)
	checker := NewChecker(snap, DefaultConfig())

	report := checker.Check(CheckRequest{
		StartTime:         base,
		ParticipantsCount: 10,
		GuideID:           testGuide1,
		Stops: []StopRequest{
			{WorkshopID: testWorkshopA, OrderNumber: 1},
			{WorkshopID: testWorkshopB, OrderNumber: 2},
		},
	})
	if !report.Available {
		t.Fatalf("Expected available route, got conflicts: %v", report.Conflicts)
	}
	if len(report.Conflicts) != 0 {
		t.Errorf("Expected 0 conflicts, got %d", len(report.Conflicts))
	}
}

func TestChecker_Check_WorkshopOccupied(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
	}
	// 同一车间同一时段只能接待一个参观团
	existing := makeExcursion("先到的团", testGuide2, model.StatusConfirmed, base,
		makeStop(testWorkshopA, base, 30))
	snap := NewSnapshot(workshops, []*model.Excursion{existing})
	checker := NewChecker(snap, DefaultConfig())

	report := checker.Check(CheckRequest{
		StartTime:         base,
		ParticipantsCount: 5,
		GuideID:           testGuide1,
		Stops:             []StopRequest{{WorkshopID: testWorkshopA, OrderNumber: 1}},
	})
	if report.Available {
		t.Fatal("Overlapping workshop booking should not be available")
	}
	if len(report.Conflicts) != 1 {
		t.Fatalf("Expected 1 conflict, got %d", len(report.Conflicts))
	}
	if report.Conflicts[0].Type != ConflictWorkshopBusy {
		t.Errorf("Expected %s, got %s", ConflictWorkshopBusy, report.Conflicts[0].Type)
	}
}

func TestChecker_Check_BackToBackBookings(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
	}
	// 已有预订 10:00-10:30，新团恰好从 10:30 开始，端点相接不冲突
	existing := makeExcursion("先到的团", testGuide2, model.StatusConfirmed, base,
		makeStop(testWorkshopA, base, 30))
	snap := NewSnapshot(workshops, []*model.Excursion{existing})
	checker := NewChecker(snap, DefaultConfig())

	report := checker.Check(CheckRequest{
		StartTime:         base.Add(30 * time.Minute),
		ParticipantsCount: 5,
		GuideID:           testGuide1,
		Stops:             []StopRequest{{WorkshopID: testWorkshopA, OrderNumber: 1}},
	})
	if !report.Available {
		t.Errorf("Back-to-back bookings should be available, got conflicts: %v", report.Conflicts)
	}
}

func TestChecker_Check_GuideBusy(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
		makeWorkshop(testWorkshopB, "糖果车间", nil, 30),
	}
	// 导游1在同一时段已带领另一个团（不同车间）
	existing := makeExcursion("导游已排的团", testGuide1, model.StatusConfirmed, base,
		makeStop(testWorkshopB, base, 60))
	snap := NewSnapshot(workshops, []*model.Excursion{existing})
	checker := NewChecker(snap, DefaultConfig())

	report := checker.Check(CheckRequest{
		StartTime:         base,
		ParticipantsCount: 5,
		GuideID:           testGuide1,
		Stops:             []StopRequest{{WorkshopID: testWorkshopA, OrderNumber: 1}},
	})
	if report.Available {
		t.Fatal("Route with busy guide should not be available")
	}
	found := false
	for _, c := range report.Conflicts {
		if c.Type == ConflictGuideBusy {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a %s conflict, got %v", ConflictGuideBusy, report.Conflicts)
	}
}

func TestChecker_Check_AggregatesAllConflicts(t *testing.T) {
	base := testBase()
	cap5 := 5
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "小车间", &cap5, 30),
		makeWorkshop(testWorkshopB, "糖果车间", nil, 30),
	}
	// 车间B被占用，导游也被占用，车间A容量不足：一次检查报出全部问题
	existing := makeExcursion("先到的团", testGuide1, model.StatusConfirmed, base,
		makeStop(testWorkshopB, base.Add(30*time.Minute), 30))
	snap := NewSnapshot(workshops, []*model.Excursion{existing})
	checker := NewChecker(snap, DefaultConfig())

	report := checker.Check(CheckRequest{
		StartTime:         base,
		ParticipantsCount: 10,
		GuideID:           testGuide1,
		Stops: []StopRequest{
			{WorkshopID: testWorkshopA, OrderNumber: 1},
			{WorkshopID: testWorkshopB, OrderNumber: 2},
		},
	})
	if report.Available {
		t.Fatal("Route should not be available")
	}

	types := map[ConflictType]int{}
	for _, c := range report.Conflicts {
		types[c.Type]++
	}
	if types[ConflictCapacity] == 0 {
		t.Error("Expected a capacity conflict")
	}
	if types[ConflictWorkshopBusy] == 0 {
		t.Error("Expected a workshop busy conflict")
	}
	if types[ConflictGuideBusy] == 0 {
		t.Error("Expected a guide busy conflict")
	}
}

func TestChecker_Check_UnknownWorkshop(t *testing.T) {
	snap := NewSnapshot(nil, nil)
	checker := NewChecker(snap, DefaultConfig())

	report := checker.Check(CheckRequest{
		StartTime:         testBase(),
		ParticipantsCount: 5,
		Stops:             []StopRequest{{WorkshopID: uuid.New(), OrderNumber: 1}},
	})
	if report.Available {
		t.Fatal("Route through unknown workshop should not be available")
	}
	if len(report.Conflicts) != 1 || report.Conflicts[0].Type != ConflictWorkshopNotFound {
		t.Errorf("Expected one %s conflict, got %v", ConflictWorkshopNotFound, report.Conflicts)
	}
}

func TestChecker_Check_ExcludesSelfWhenEditing(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
	}
	own := makeExcursion("待编辑的团", testGuide1, model.StatusConfirmed, base,
		makeStop(testWorkshopA, base, 30))
	snap := NewSnapshot(workshops, []*model.Excursion{own})
	checker := NewChecker(snap, DefaultConfig())

	// 编辑自身：原有预订不应算作冲突
	report := checker.Check(CheckRequest{
		ExcursionID:       own.ID,
		StartTime:         base,
		ParticipantsCount: 5,
		GuideID:           testGuide1,
		Stops:             []StopRequest{{WorkshopID: testWorkshopA, OrderNumber: 1}},
	})
	if !report.Available {
		t.Errorf("Editing own excursion should not conflict with itself, got: %v", report.Conflicts)
	}
}

func TestChecker_BuildStops(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
		makeWorkshop(testWorkshopB, "糖果车间", nil, 45),
	}
	snap := NewSnapshot(workshops, nil)
	checker := NewChecker(snap, DefaultConfig())

	// 乱序提交，按 OrderNumber 排序后推导时间
	stops := checker.BuildStops(CheckRequest{
		StartTime:         base,
		ParticipantsCount: 5,
		Stops: []StopRequest{
			{WorkshopID: testWorkshopB, OrderNumber: 2},
			{WorkshopID: testWorkshopA, OrderNumber: 1, DurationMinutes: 20},
		},
	})
	if len(stops) != 2 {
		t.Fatalf("Expected 2 stops, got %d", len(stops))
	}
	if stops[0].WorkshopID != testWorkshopA {
		t.Errorf("Expected workshop A first, got %s", stops[0].WorkshopID)
	}
	if stops[0].DurationMinutes != 20 {
		t.Errorf("Expected explicit duration 20, got %d", stops[0].DurationMinutes)
	}
	if !stops[0].StartTime.Equal(base) {
		t.Errorf("First stop should start at %v, got %v", base, stops[0].StartTime)
	}
	if !stops[1].StartTime.Equal(base.Add(20 * time.Minute)) {
		t.Errorf("Second stop should start at %v, got %v", base.Add(20*time.Minute), stops[1].StartTime)
	}
	if stops[1].DurationMinutes != 45 {
		t.Errorf("Expected workshop default duration 45, got %d", stops[1].DurationMinutes)
	}
	if stops[0].OrderNumber != 1 || stops[1].OrderNumber != 2 {
		t.Errorf("Order numbers should be renumbered sequentially, got %d, %d",
			stops[0].OrderNumber, stops[1].OrderNumber)
	}
}

func TestGuideChecker_IsGuideFree(t *testing.T) {
	base := testBase()
	existing := makeExcursion("已排的团", testGuide1, model.StatusConfirmed, base,
		makeStop(testWorkshopA, base, 60))
	snap := NewSnapshot(nil, []*model.Excursion{existing})
	guide := NewGuideChecker(snap, DefaultConfig())

	tests := []struct {
		name     string
		guideID  uuid.UUID
		start    time.Time
		end      time.Time
		expected bool
	}{
		{"时段重叠不空闲", testGuide1, base.Add(30 * time.Minute), base.Add(90 * time.Minute), false},
		{"端点相接空闲", testGuide1, base.Add(60 * time.Minute), base.Add(2 * time.Hour), true},
		{"另一名导游空闲", testGuide2, base, base.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := guide.IsGuideFree(tt.guideID, tt.start, tt.end, uuid.Nil); result != tt.expected {
				t.Errorf("IsGuideFree() = %v, expected %v", result, tt.expected)
			}
		})
	}
}
