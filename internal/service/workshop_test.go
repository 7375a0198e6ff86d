package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/danielsheh02/willy-wonka-factory/pkg/errors"
)

func newWorkshopEnv() (*WorkshopService, *fakeStore) {
	store := newFakeStore()
	return NewWorkshopService(store, testExcursionConfig()), store
}

func TestWorkshopService_Create(t *testing.T) {
	svc, store := newWorkshopEnv()
	cap30 := 30

	created, err := svc.Create(context.Background(), WorkshopInput{
		Name:                 "巧克力车间",
		Description:          "巧克力瀑布所在地",
		Capacity:             &cap30,
		VisitDurationMinutes: 45,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "巧克力车间" {
		t.Errorf("Expected name 巧克力车间, got %s", created.Name)
	}
	if store.workshops[created.ID] == nil {
		t.Error("Workshop should be persisted")
	}
}

func TestWorkshopService_Create_Validation(t *testing.T) {
	svc, _ := newWorkshopEnv()
	zero := 0

	tests := []struct {
		name  string
		input WorkshopInput
	}{
		{"名称为空", WorkshopInput{}},
		{"容量为零", WorkshopInput{Name: "车间", Capacity: &zero}},
		{"时长低于下限", WorkshopInput{Name: "车间", VisitDurationMinutes: 1}},
		{"时长高于上限", WorkshopInput{Name: "车间", VisitDurationMinutes: 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.input)
			if !apperrors.Is(err, apperrors.CodeInvalidInput) {
				t.Errorf("Expected CodeInvalidInput, got %v", err)
			}
		})
	}
}

func TestWorkshopService_Update(t *testing.T) {
	svc, _ := newWorkshopEnv()

	created, err := svc.Create(context.Background(), WorkshopInput{Name: "旧名字"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := svc.Update(context.Background(), created.ID, WorkshopInput{
		Name:                 "新名字",
		VisitDurationMinutes: 20,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "新名字" {
		t.Errorf("Expected updated name, got %s", updated.Name)
	}
	if updated.VisitDurationMinutes != 20 {
		t.Errorf("Expected duration 20, got %d", updated.VisitDurationMinutes)
	}

	if _, err := svc.Update(context.Background(), uuid.New(), WorkshopInput{Name: "任意"}); !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Errorf("Expected CodeNotFound for unknown workshop, got %v", err)
	}
}

func TestWorkshopService_GetDelete_NotFound(t *testing.T) {
	svc, _ := newWorkshopEnv()

	if _, err := svc.Get(context.Background(), uuid.New()); !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Errorf("Get: expected CodeNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), uuid.New()); !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Errorf("Delete: expected CodeNotFound, got %v", err)
	}
}
