package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/internal/repository"
	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
)

// fakeStore 内存版 Store，供编排层测试使用
type fakeStore struct {
	excursions map[uuid.UUID]*model.Excursion
	workshops  map[uuid.UUID]*model.Workshop
	users      map[uuid.UUID]*model.User
	tickets    map[uuid.UUID]*model.GoldenTicket
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		excursions: make(map[uuid.UUID]*model.Excursion),
		workshops:  make(map[uuid.UUID]*model.Workshop),
		users:      make(map[uuid.UUID]*model.User),
		tickets:    make(map[uuid.UUID]*model.GoldenTicket),
	}
}

func (f *fakeStore) GetExcursion(_ context.Context, id uuid.UUID) (*model.Excursion, error) {
	return f.excursions[id], nil
}

func (f *fakeStore) ListExcursions(_ context.Context, filter repository.ListFilter) ([]*model.Excursion, error) {
	var result []*model.Excursion
	for _, e := range f.excursions {
		if filter.Status != "" && string(e.Status) != filter.Status {
			continue
		}
		if filter.GuideID != nil && e.GuideID != *filter.GuideID {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (f *fakeStore) ListOccupying(_ context.Context, countDraft bool) ([]*model.Excursion, error) {
	var result []*model.Excursion
	for _, e := range f.excursions {
		if e.Occupies(countDraft) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (f *fakeStore) ListExcursionsByStatus(_ context.Context, status model.ExcursionStatus) ([]*model.Excursion, error) {
	var result []*model.Excursion
	for _, e := range f.excursions {
		if e.Status == status {
			result = append(result, e)
		}
	}
	return result, nil
}

func (f *fakeStore) CreateExcursion(_ context.Context, e *model.Excursion) error {
	f.excursions[e.ID] = e
	return nil
}

func (f *fakeStore) UpdateExcursion(_ context.Context, e *model.Excursion) error {
	f.excursions[e.ID] = e
	return nil
}

func (f *fakeStore) DeleteExcursion(_ context.Context, id uuid.UUID) error {
	delete(f.excursions, id)
	return nil
}

func (f *fakeStore) ReplaceStops(_ context.Context, excursionID uuid.UUID, stops []model.RouteStop) error {
	if e, ok := f.excursions[excursionID]; ok {
		e.Stops = stops
	}
	return nil
}

func (f *fakeStore) ListWorkshops(_ context.Context) ([]*model.Workshop, error) {
	var result []*model.Workshop
	for _, w := range f.workshops {
		result = append(result, w)
	}
	return result, nil
}

func (f *fakeStore) GetWorkshop(_ context.Context, id uuid.UUID) (*model.Workshop, error) {
	return f.workshops[id], nil
}

func (f *fakeStore) CreateWorkshop(_ context.Context, w *model.Workshop) error {
	f.workshops[w.ID] = w
	return nil
}

func (f *fakeStore) UpdateWorkshop(_ context.Context, w *model.Workshop) error {
	f.workshops[w.ID] = w
	return nil
}

func (f *fakeStore) DeleteWorkshop(_ context.Context, id uuid.UUID) error {
	delete(f.workshops, id)
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	return f.users[id], nil
}

func (f *fakeStore) ListGuides(_ context.Context) ([]*model.User, error) {
	var result []*model.User
	for _, u := range f.users {
		if u.IsGuide() {
			result = append(result, u)
		}
	}
	return result, nil
}

func (f *fakeStore) GetTicket(_ context.Context, id uuid.UUID) (*model.GoldenTicket, error) {
	return f.tickets[id], nil
}

func (f *fakeStore) GetTicketByNumber(_ context.Context, number string) (*model.GoldenTicket, error) {
	for _, t := range f.tickets {
		if t.TicketNumber == number {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) TicketNumberExists(_ context.Context, number string) (bool, error) {
	t, _ := f.GetTicketByNumber(context.Background(), number)
	return t != nil, nil
}

func (f *fakeStore) ListTickets(_ context.Context) ([]*model.GoldenTicket, error) {
	var result []*model.GoldenTicket
	for _, t := range f.tickets {
		result = append(result, t)
	}
	return result, nil
}

func (f *fakeStore) CreateTicket(_ context.Context, t *model.GoldenTicket) error {
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeStore) UpdateTicket(_ context.Context, t *model.GoldenTicket) error {
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeStore) DeleteTicket(_ context.Context, id uuid.UUID) error {
	delete(f.tickets, id)
	return nil
}

func (f *fakeStore) CountBookedByExcursion(_ context.Context, excursionID uuid.UUID) (int, error) {
	count := 0
	for _, t := range f.tickets {
		if t.Status == model.TicketBooked && t.ExcursionID != nil && *t.ExcursionID == excursionID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListTicketsForStartedExcursions(_ context.Context, now time.Time) ([]*model.GoldenTicket, error) {
	var result []*model.GoldenTicket
	for _, t := range f.tickets {
		if t.Status != model.TicketBooked || t.ExcursionID == nil {
			continue
		}
		e := f.excursions[*t.ExcursionID]
		if e != nil && !e.StartTime.After(now) {
			result = append(result, t)
		}
	}
	return result, nil
}

func (f *fakeStore) ListExpiredTickets(_ context.Context, now time.Time) ([]*model.GoldenTicket, error) {
	var result []*model.GoldenTicket
	for _, t := range f.tickets {
		if t.Status == model.TicketActive && t.IsExpiredAt(now) {
			result = append(result, t)
		}
	}
	return result, nil
}

func (f *fakeStore) CountTicketsByStatus(_ context.Context) (map[model.TicketStatus]int, error) {
	counts := make(map[model.TicketStatus]int)
	for _, t := range f.tickets {
		counts[t.Status]++
	}
	return counts, nil
}

// fakeTxRunner 直接在同一个 fakeStore 上执行，不提供真正的回滚；
// 原子性测试依赖"冲突检查先于写入"的编排顺序
type fakeTxRunner struct {
	store *fakeStore
	calls int
}

func (r *fakeTxRunner) Serializable(_ context.Context, fn func(store Store) error) error {
	r.calls++
	return fn(r.store)
}
