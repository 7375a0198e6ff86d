package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/internal/config"
	"github.com/danielsheh02/willy-wonka-factory/internal/metrics"
	"github.com/danielsheh02/willy-wonka-factory/internal/repository"
	apperrors "github.com/danielsheh02/willy-wonka-factory/pkg/errors"
	"github.com/danielsheh02/willy-wonka-factory/pkg/logger"
	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
	"github.com/danielsheh02/willy-wonka-factory/pkg/schedule"
	"github.com/danielsheh02/willy-wonka-factory/pkg/timeutil"
)

// ExcursionService 参观团编排服务
//
// 所有"读冲突—写路线"的操作都在单个可串行化事务内完成：
// 加载快照、构建或检查路线、写入参观团与站点。任何一步失败整体回滚，
// 并发写入者的串行化失败被映射为 CONCURRENCY_CONFLICT，由调用方决定是否重试
type ExcursionService struct {
	tx    TxRunner
	store Store
	cfg   config.ExcursionConfig
	log   *logger.ScheduleLogger
}

// NewExcursionService 创建参观团服务
func NewExcursionService(tx TxRunner, store Store, cfg config.ExcursionConfig) *ExcursionService {
	return &ExcursionService{
		tx:    tx,
		store: store,
		cfg:   cfg,
		log:   logger.NewScheduleLogger(),
	}
}

// ExcursionInput 创建/更新参观团的请求
type ExcursionInput struct {
	Name              string
	StartTime         time.Time
	ParticipantsCount int
	GuideID           uuid.UUID
	Status            model.ExcursionStatus // 空 = 新建时 DRAFT，更新时保持不变

	// AutoGenerateRoute 为真时忽略 Stops，由贪心构建器生成路线；
	// 为假时 Stops 为手动路线，先做完整可用性检查再落库
	AutoGenerateRoute    bool
	MinRequiredWorkshops int
	Stops                []schedule.StopRequest
}

func (s *ExcursionService) scheduleConfig() *schedule.Config {
	return &schedule.Config{
		DefaultVisitMinutes: s.cfg.DefaultVisitMinutes,
		MinVisitMinutes:     s.cfg.MinVisitMinutes,
		MaxVisitMinutes:     s.cfg.MaxVisitMinutes,
		MaxRouteMinutes:     s.cfg.MaxRouteHours * 60,
		CountDraft:          s.cfg.CountDraft,
	}
}

func (s *ExcursionService) validateInput(in *ExcursionInput) error {
	if in.Name == "" {
		return apperrors.InvalidInput("name", "名称不能为空")
	}
	if in.ParticipantsCount <= 0 {
		return apperrors.InvalidInput("participants_count", "参观人数必须大于零")
	}
	if in.StartTime.IsZero() {
		return apperrors.InvalidInput("start_time", "开始时间不能为空")
	}
	if in.GuideID == uuid.Nil {
		return apperrors.InvalidInput("guide_id", "必须指定导游")
	}
	in.StartTime = timeutil.ToUTC(in.StartTime)
	return nil
}

// 在事务内加载车间与占用中参观团的一致性快照
func (s *ExcursionService) loadSnapshot(ctx context.Context, store Store) (*schedule.Snapshot, error) {
	workshops, err := store.ListWorkshops(ctx)
	if err != nil {
		return nil, err
	}
	excursions, err := store.ListOccupying(ctx, s.cfg.CountDraft)
	if err != nil {
		return nil, err
	}
	return schedule.NewSnapshot(workshops, excursions), nil
}

func (s *ExcursionService) checkGuide(ctx context.Context, store Store, guideID uuid.UUID) error {
	guide, err := store.GetUser(ctx, guideID)
	if err != nil {
		return err
	}
	if guide == nil {
		return apperrors.NotFound("导游", guideID.String())
	}
	if !guide.IsGuide() {
		return apperrors.InvalidInput("guide_id", fmt.Sprintf("用户 '%s' 不是导游", guide.Username))
	}
	return nil
}

// resolveStops 在快照上解析路线：自动构建或检查手动路线
// excludeID 为编辑中的参观团 ID，排除其自身已有占用
func (s *ExcursionService) resolveStops(ctx context.Context, snap *schedule.Snapshot, in *ExcursionInput, excludeID uuid.UUID) ([]model.RouteStop, error) {
	cfg := s.scheduleConfig()
	started := time.Now()

	if in.AutoGenerateRoute {
		builder := schedule.NewBuilder(snap, cfg)
		stops, err := builder.Build(ctx, schedule.BuildRequest{
			ExcursionID:          excludeID,
			Name:                 in.Name,
			StartTime:            in.StartTime,
			ParticipantsCount:    in.ParticipantsCount,
			MinRequiredWorkshops: in.MinRequiredWorkshops,
		})
		if err != nil {
			metrics.RecordRouteBuild("auto", false, time.Since(started))
			return nil, err
		}
		// 构建器只保证车间无冲突，导游占用单独校验
		routeEnd := in.StartTime
		for i := range stops {
			if end := stops[i].EndTime(); end.After(routeEnd) {
				routeEnd = end
			}
		}
		guide := schedule.NewGuideChecker(snap, cfg)
		if conflicts := guide.FindConflicts(in.GuideID, in.StartTime, routeEnd, excludeID); len(conflicts) > 0 {
			s.log.Conflict(string(conflicts[0].Type), conflicts[0].Message)
			metrics.RecordConflict(string(conflicts[0].Type))
			metrics.RecordRouteBuild("auto", false, time.Since(started))
			return nil, apperrors.ScheduleConflict(conflicts[0].Message).WithField("conflicts", conflicts)
		}
		metrics.RecordRouteBuild("auto", true, time.Since(started))
		return stops, nil
	}

	if len(in.Stops) == 0 {
		return nil, apperrors.InvalidInput("routes", "手动路线不能为空")
	}
	checker := schedule.NewChecker(snap, cfg)
	req := schedule.CheckRequest{
		ExcursionID:       excludeID,
		StartTime:         in.StartTime,
		ParticipantsCount: in.ParticipantsCount,
		GuideID:           in.GuideID,
		Stops:             in.Stops,
	}
	report := checker.Check(req)
	if !report.Available {
		for i := range report.Conflicts {
			s.log.Conflict(string(report.Conflicts[i].Type), report.Conflicts[i].Message)
			metrics.RecordConflict(string(report.Conflicts[i].Type))
		}
		metrics.RecordRouteBuild("manual", false, time.Since(started))
		return nil, apperrors.ScheduleConflict(report.Message).WithField("conflicts", report.Conflicts)
	}
	metrics.RecordRouteBuild("manual", true, time.Since(started))
	return checker.BuildStops(req), nil
}

// Create 创建参观团，自动生成或检查路线，整体写入
func (s *ExcursionService) Create(ctx context.Context, in ExcursionInput) (*model.Excursion, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = model.StatusDraft
	}
	if !model.IsValidStatus(status) {
		return nil, apperrors.InvalidInput("status", fmt.Sprintf("未知状态 '%s'", status))
	}

	var created *model.Excursion
	err := s.tx.Serializable(ctx, func(store Store) error {
		if err := s.checkGuide(ctx, store, in.GuideID); err != nil {
			return err
		}
		snap, err := s.loadSnapshot(ctx, store)
		if err != nil {
			return err
		}
		s.log.StartBuild(in.Name, in.ParticipantsCount, len(snap.Workshops))
		started := time.Now()

		excursion := &model.Excursion{
			BaseModel:         model.NewBaseModel(),
			Name:              in.Name,
			StartTime:         in.StartTime,
			ParticipantsCount: in.ParticipantsCount,
			GuideID:           in.GuideID,
			Status:            status,
		}
		stops, err := s.resolveStops(ctx, snap, &in, excursion.ID)
		if err != nil {
			return err
		}
		if err := store.CreateExcursion(ctx, excursion); err != nil {
			return err
		}
		if err := store.ReplaceStops(ctx, excursion.ID, stops); err != nil {
			return err
		}
		excursion.Stops = stops
		created = excursion
		s.log.BuildComplete(in.Name, len(stops), time.Since(started))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update 更新参观团并整体替换路线
// 冲突检测排除参观团自身的既有占用，状态变更必须符合迁移规则
func (s *ExcursionService) Update(ctx context.Context, id uuid.UUID, in ExcursionInput) (*model.Excursion, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}

	var updated *model.Excursion
	err := s.tx.Serializable(ctx, func(store Store) error {
		existing, err := store.GetExcursion(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperrors.NotFound("参观团", id.String())
		}
		status := in.Status
		if status == "" {
			status = existing.Status
		}
		if !model.IsValidStatus(status) {
			return apperrors.InvalidInput("status", fmt.Sprintf("未知状态 '%s'", status))
		}
		if !model.CanTransition(existing.Status, status) {
			return apperrors.InvalidTransition(string(existing.Status), string(status))
		}
		if err := s.checkGuide(ctx, store, in.GuideID); err != nil {
			return err
		}
		snap, err := s.loadSnapshot(ctx, store)
		if err != nil {
			return err
		}
		stops, err := s.resolveStops(ctx, snap, &in, id)
		if err != nil {
			return err
		}

		existing.Name = in.Name
		existing.StartTime = in.StartTime
		existing.ParticipantsCount = in.ParticipantsCount
		existing.GuideID = in.GuideID
		existing.Status = status
		existing.UpdatedAt = timeutil.NowUTC()
		if err := store.UpdateExcursion(ctx, existing); err != nil {
			return err
		}
		if err := store.ReplaceStops(ctx, id, stops); err != nil {
			return err
		}
		existing.Stops = stops
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CheckAvailability 检查手动路线的可用性，汇总全部冲突但不写入任何数据
func (s *ExcursionService) CheckAvailability(ctx context.Context, in ExcursionInput) (*schedule.AvailabilityReport, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}
	if len(in.Stops) == 0 {
		return &schedule.AvailabilityReport{
			Available: false,
			Message:   "路线为空",
			Conflicts: []schedule.Conflict{},
		}, nil
	}
	snap, err := s.loadSnapshot(ctx, s.store)
	if err != nil {
		return nil, err
	}
	checker := schedule.NewChecker(snap, s.scheduleConfig())
	return checker.Check(schedule.CheckRequest{
		ExcursionID:       uuid.Nil,
		StartTime:         in.StartTime,
		ParticipantsCount: in.ParticipantsCount,
		GuideID:           in.GuideID,
		Stops:             in.Stops,
	}), nil
}

// CheckAvailabilityFor 对既有参观团的新路线做可用性检查，排除其自身占用
func (s *ExcursionService) CheckAvailabilityFor(ctx context.Context, id uuid.UUID, in ExcursionInput) (*schedule.AvailabilityReport, error) {
	if err := s.validateInput(&in); err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, s.store)
	if err != nil {
		return nil, err
	}
	checker := schedule.NewChecker(snap, s.scheduleConfig())
	return checker.Check(schedule.CheckRequest{
		ExcursionID:       id,
		StartTime:         in.StartTime,
		ParticipantsCount: in.ParticipantsCount,
		GuideID:           in.GuideID,
		Stops:             in.Stops,
	}), nil
}

// Get 按 ID 查询参观团（含路线与导游名）
func (s *ExcursionService) Get(ctx context.Context, id uuid.UUID) (*model.Excursion, error) {
	excursion, err := s.store.GetExcursion(ctx, id)
	if err != nil {
		return nil, err
	}
	if excursion == nil {
		return nil, apperrors.NotFound("参观团", id.String())
	}
	return excursion, nil
}

// List 按过滤条件查询参观团列表
func (s *ExcursionService) List(ctx context.Context, filter repository.ListFilter) ([]*model.Excursion, error) {
	return s.store.ListExcursions(ctx, filter)
}

// ListGuides 查询全部导游
func (s *ExcursionService) ListGuides(ctx context.Context) ([]*model.User, error) {
	return s.store.ListGuides(ctx)
}

// Delete 删除参观团及其全部站点
func (s *ExcursionService) Delete(ctx context.Context, id uuid.UUID) error {
	excursion, err := s.store.GetExcursion(ctx, id)
	if err != nil {
		return err
	}
	if excursion == nil {
		return apperrors.NotFound("参观团", id.String())
	}
	return s.store.DeleteExcursion(ctx, id)
}

// AdvanceStatuses 推进参观团状态：
// 到点的 CONFIRMED 变为 IN_PROGRESS，结束的 IN_PROGRESS 变为 COMPLETED。
// 由后台时钟周期性调用
func (s *ExcursionService) AdvanceStatuses(ctx context.Context, now time.Time) (int, error) {
	now = timeutil.ToUTC(now)
	advanced := 0

	confirmed, err := s.store.ListExcursionsByStatus(ctx, model.StatusConfirmed)
	if err != nil {
		return 0, err
	}
	for _, e := range confirmed {
		if e.StartTime.After(now) {
			continue
		}
		e.Status = model.StatusInProgress
		e.UpdatedAt = now
		if err := s.store.UpdateExcursion(ctx, e); err != nil {
			return advanced, err
		}
		advanced++
	}

	inProgress, err := s.store.ListExcursionsByStatus(ctx, model.StatusInProgress)
	if err != nil {
		return advanced, err
	}
	for _, e := range inProgress {
		if e.EndTime().After(now) {
			continue
		}
		e.Status = model.StatusCompleted
		e.UpdatedAt = now
		if err := s.store.UpdateExcursion(ctx, e); err != nil {
			return advanced, err
		}
		advanced++
	}

	if advanced > 0 {
		logger.Info().Int("count", advanced).Msg("参观团状态已推进")
	}
	return advanced, nil
}
