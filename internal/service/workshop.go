package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/internal/config"
	apperrors "github.com/danielsheh02/willy-wonka-factory/pkg/errors"
	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
	"github.com/danielsheh02/willy-wonka-factory/pkg/timeutil"
)

// WorkshopService 车间管理服务
type WorkshopService struct {
	store Store
	cfg   config.ExcursionConfig
}

// NewWorkshopService 创建车间服务
func NewWorkshopService(store Store, cfg config.ExcursionConfig) *WorkshopService {
	return &WorkshopService{store: store, cfg: cfg}
}

// WorkshopInput 创建/更新车间的请求
type WorkshopInput struct {
	Name                 string `json:"name" validate:"required"`
	Description          string `json:"description,omitempty"`
	Capacity             *int   `json:"capacity,omitempty" validate:"omitempty,min=1"`
	VisitDurationMinutes int    `json:"visit_duration_minutes,omitempty"`
}

func (s *WorkshopService) validateInput(in WorkshopInput) error {
	if in.Name == "" {
		return apperrors.InvalidInput("name", "名称不能为空")
	}
	if in.Capacity != nil && *in.Capacity <= 0 {
		return apperrors.InvalidInput("capacity", "容量必须大于零")
	}
	if in.VisitDurationMinutes != 0 &&
		(in.VisitDurationMinutes < s.cfg.MinVisitMinutes || in.VisitDurationMinutes > s.cfg.MaxVisitMinutes) {
		return apperrors.InvalidInput("visit_duration_minutes",
			fmt.Sprintf("参观时长必须在 %d 到 %d 分钟之间", s.cfg.MinVisitMinutes, s.cfg.MaxVisitMinutes))
	}
	return nil
}

// Create 创建车间
func (s *WorkshopService) Create(ctx context.Context, in WorkshopInput) (*model.Workshop, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	workshop := &model.Workshop{
		BaseModel:            model.NewBaseModel(),
		Name:                 in.Name,
		Description:          in.Description,
		Capacity:             in.Capacity,
		VisitDurationMinutes: in.VisitDurationMinutes,
	}
	if err := s.store.CreateWorkshop(ctx, workshop); err != nil {
		return nil, err
	}
	return workshop, nil
}

// Get 按 ID 查询车间
func (s *WorkshopService) Get(ctx context.Context, id uuid.UUID) (*model.Workshop, error) {
	workshop, err := s.store.GetWorkshop(ctx, id)
	if err != nil {
		return nil, err
	}
	if workshop == nil {
		return nil, apperrors.NotFound("车间", id.String())
	}
	return workshop, nil
}

// List 查询全部车间
func (s *WorkshopService) List(ctx context.Context) ([]*model.Workshop, error) {
	return s.store.ListWorkshops(ctx)
}

// Update 更新车间
func (s *WorkshopService) Update(ctx context.Context, id uuid.UUID, in WorkshopInput) (*model.Workshop, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	workshop, err := s.store.GetWorkshop(ctx, id)
	if err != nil {
		return nil, err
	}
	if workshop == nil {
		return nil, apperrors.NotFound("车间", id.String())
	}
	workshop.Name = in.Name
	workshop.Description = in.Description
	workshop.Capacity = in.Capacity
	workshop.VisitDurationMinutes = in.VisitDurationMinutes
	workshop.UpdatedAt = timeutil.NowUTC()
	if err := s.store.UpdateWorkshop(ctx, workshop); err != nil {
		return nil, err
	}
	return workshop, nil
}

// Delete 删除车间
// 站点表的外键会阻止删除仍被路线引用的车间
func (s *WorkshopService) Delete(ctx context.Context, id uuid.UUID) error {
	workshop, err := s.store.GetWorkshop(ctx, id)
	if err != nil {
		return err
	}
	if workshop == nil {
		return apperrors.NotFound("车间", id.String())
	}
	return s.store.DeleteWorkshop(ctx, id)
}
