package schedule

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/danielsheh02/willy-wonka-factory/pkg/errors"
	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
)

func TestBuilder_Build_EmptyFactory(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
		makeWorkshop(testWorkshopB, "糖果车间", nil, 45),
		makeWorkshop(testWorkshopC, "包装车间", nil, 20),
	}
	snap := NewSnapshot(workshops, nil)
	builder := NewBuilder(snap, DefaultConfig())

	stops, err := builder.Build(context.Background(), BuildRequest{
		Name:              "午前团",
		StartTime:         base,
		ParticipantsCount: 10,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(stops) != 3 {
		t.Fatalf("Expected 3 stops, got %d", len(stops))
	}

	// 候选按ID升序，站点严格首尾相接
	if stops[0].WorkshopID != testWorkshopA {
		t.Errorf("Expected first stop at workshop A, got %s", stops[0].WorkshopID)
	}
	if !stops[0].StartTime.Equal(base) {
		t.Errorf("First stop should start at %v, got %v", base, stops[0].StartTime)
	}
	for i := 1; i < len(stops); i++ {
		if !stops[i].StartTime.Equal(stops[i-1].EndTime()) {
			t.Errorf("Stop %d should start when stop %d ends", i+1, i)
		}
		if stops[i].OrderNumber != i+1 {
			t.Errorf("Expected order number %d, got %d", i+1, stops[i].OrderNumber)
		}
	}
}

func TestBuilder_Build_Deterministic(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopC, "包装车间", nil, 20),
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
		makeWorkshop(testWorkshopB, "糖果车间", nil, 45),
	}
	snap := NewSnapshot(workshops, nil)
	req := BuildRequest{Name: "确定性团", StartTime: base, ParticipantsCount: 5}

	first, err := NewBuilder(snap, DefaultConfig()).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		again, err := NewBuilder(snap, DefaultConfig()).Build(context.Background(), req)
		if err != nil {
			t.Fatalf("Build run %d failed: %v", i+2, err)
		}
		if len(again) != len(first) {
			t.Fatalf("Run %d produced %d stops, expected %d", i+2, len(again), len(first))
		}
		for j := range again {
			if again[j].WorkshopID != first[j].WorkshopID {
				t.Errorf("Run %d stop %d workshop differs", i+2, j+1)
			}
			if !again[j].StartTime.Equal(first[j].StartTime) {
				t.Errorf("Run %d stop %d start time differs", i+2, j+1)
			}
			if again[j].DurationMinutes != first[j].DurationMinutes {
				t.Errorf("Run %d stop %d duration differs", i+2, j+1)
			}
		}
	}
}

func TestBuilder_Build_SkipsBusyWorkshop(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
		makeWorkshop(testWorkshopB, "糖果车间", nil, 30),
	}
	// 车间A在起始时刻被占用，贪心构建器必须跳过它
	existing := makeExcursion("先到的团", testGuide2, model.StatusConfirmed, base,
		makeStop(testWorkshopA, base, 60))
	snap := NewSnapshot(workshops, []*model.Excursion{existing})
	builder := NewBuilder(snap, DefaultConfig())

	stops, err := builder.Build(context.Background(), BuildRequest{
		Name:              "后到的团",
		StartTime:         base,
		ParticipantsCount: 8,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for _, s := range stops {
		if s.WorkshopID == testWorkshopA {
			t.Errorf("Busy workshop A should be skipped, but got a stop at %v", s.StartTime)
		}
	}
	if len(stops) != 1 {
		t.Errorf("Expected 1 stop, got %d", len(stops))
	}
}

func TestBuilder_Build_CapacityFiltering(t *testing.T) {
	base := testBase()
	cap5 := 5
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "小车间", &cap5, 30),
		makeWorkshop(testWorkshopB, "大车间", nil, 30),
	}
	snap := NewSnapshot(workshops, nil)
	builder := NewBuilder(snap, DefaultConfig())

	stops, err := builder.Build(context.Background(), BuildRequest{
		Name:              "大团",
		StartTime:         base,
		ParticipantsCount: 20,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(stops) != 1 {
		t.Fatalf("Expected 1 stop, got %d", len(stops))
	}
	if stops[0].WorkshopID != testWorkshopB {
		t.Errorf("Expected stop at workshop B, got %s", stops[0].WorkshopID)
	}
}

func TestBuilder_Build_NoFeasibleSolution(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
		makeWorkshop(testWorkshopB, "糖果车间", nil, 30),
	}
	snap := NewSnapshot(workshops, nil)
	builder := NewBuilder(snap, DefaultConfig())

	_, err := builder.Build(context.Background(), BuildRequest{
		Name:                 "贪心的团",
		StartTime:            base,
		ParticipantsCount:    10,
		MinRequiredWorkshops: 3,
	})
	if err == nil {
		t.Fatal("Expected error when required workshops exceed available")
	}
	if !apperrors.Is(err, apperrors.CodeNoFeasibleSolution) {
		t.Errorf("Expected CodeNoFeasibleSolution, got %v", err)
	}
}

func TestBuilder_Build_RouteLengthCap(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 60),
		makeWorkshop(testWorkshopB, "糖果车间", nil, 60),
		makeWorkshop(testWorkshopC, "包装车间", nil, 60),
	}
	snap := NewSnapshot(workshops, nil)
	cfg := DefaultConfig()
	cfg.MaxRouteMinutes = 120
	builder := NewBuilder(snap, cfg)

	stops, err := builder.Build(context.Background(), BuildRequest{
		Name:              "限时团",
		StartTime:         base,
		ParticipantsCount: 6,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(stops) != 2 {
		t.Errorf("Expected 2 stops within route cap, got %d", len(stops))
	}
	last := stops[len(stops)-1]
	if last.EndTime().After(base.Add(2 * time.Hour)) {
		t.Errorf("Route should end by %v, got %v", base.Add(2*time.Hour), last.EndTime())
	}
}

func TestBuilder_Build_ExcludesOwnBookings(t *testing.T) {
	base := testBase()
	workshops := []*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
	}
	own := makeExcursion("待编辑的团", testGuide1, model.StatusConfirmed, base,
		makeStop(testWorkshopA, base, 30))
	snap := NewSnapshot(workshops, []*model.Excursion{own})
	builder := NewBuilder(snap, DefaultConfig())

	// 排除自身预订后，车间A在起始时刻视为空闲
	stops, err := builder.Build(context.Background(), BuildRequest{
		ExcursionID:       own.ID,
		Name:              own.Name,
		StartTime:         base,
		ParticipantsCount: 10,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(stops) != 1 || stops[0].WorkshopID != testWorkshopA {
		t.Errorf("Expected rebuilt route to reuse workshop A, got %d stops", len(stops))
	}
	if stops[0].ExcursionID != own.ID {
		t.Errorf("Expected stops to carry excursion ID %s, got %s", own.ID, stops[0].ExcursionID)
	}
}

func TestBuilder_Build_ContextCancelled(t *testing.T) {
	base := testBase()
	snap := NewSnapshot([]*model.Workshop{
		makeWorkshop(testWorkshopA, "巧克力车间", nil, 30),
	}, nil)
	builder := NewBuilder(snap, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := builder.Build(ctx, BuildRequest{
		Name:              "取消的团",
		StartTime:         base,
		ParticipantsCount: 5,
	})
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
