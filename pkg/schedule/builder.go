// Package schedule 提供参观路线的可用性检查与自动构建引擎
package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/pkg/errors"
	"github.com/danielsheh02/willy-wonka-factory/pkg/logger"
	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
	"github.com/danielsheh02/willy-wonka-factory/pkg/timeutil"
)

// Builder 自动路线构建器
//
// 单遍贪心算法：候选车间按ID升序逐个尝试，能在游标时刻放下就放下，
// 不回溯。牺牲全局最优换取确定性和 O(W log W) 的成本——参观并不要求
// 覆盖全部车间
type Builder struct {
	snap *Snapshot
	cfg  *Config
	log  *logger.ScheduleLogger
}

// NewBuilder 创建路线构建器
func NewBuilder(snap *Snapshot, cfg *Config) *Builder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Builder{
		snap: snap,
		cfg:  cfg,
		log:  logger.NewScheduleLogger(),
	}
}

// BuildRequest 路线构建请求
type BuildRequest struct {
	ExcursionID          uuid.UUID // 编辑时排除自身的已有预订；新建时为 uuid.Nil
	Name                 string
	StartTime            time.Time
	ParticipantsCount    int
	MinRequiredWorkshops int // 0 = 尽可能多，但至少一个
}

// Build 构建无冲突的顺序路线
//
// 对固定的输入和快照，输出完全确定：同样的车间、同样的顺序、同样的时长。
// 无法满足最少车间数要求时整体失败，不产生部分路线
func (b *Builder) Build(ctx context.Context, req BuildRequest) ([]model.RouteStop, error) {
	started := time.Now()
	candidates := b.snap.SortedWorkshops()
	b.log.StartBuild(req.Name, req.ParticipantsCount, len(candidates))

	index := NewIndex(b.snap, b.cfg)

	cursor := req.StartTime.UTC()
	routeEnd := timeutil.AddMinutes(cursor, b.cfg.MaxRouteMinutes)

	var stops []model.RouteStop
	orderNumber := 1

	for _, w := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if c := ValidateCapacity(req.ParticipantsCount, w); c != nil {
			b.log.Conflict(string(c.Type), c.Message)
			continue
		}

		winStart, winMinutes := index.FindFreeWindow(w.ID, cursor, req.ExcursionID)

		// 路线站点严格首尾相接，车间必须恰好在游标时刻空闲
		if !winStart.Equal(cursor) {
			continue
		}

		duration := b.visitDuration(w)
		if duration > winMinutes {
			duration = winMinutes
		}
		if duration < b.cfg.MinVisitMinutes {
			continue
		}
		if timeutil.AddMinutes(cursor, duration).After(routeEnd) {
			break
		}

		stops = append(stops, model.RouteStop{
			ID:              uuid.New(),
			ExcursionID:     req.ExcursionID,
			WorkshopID:      w.ID,
			WorkshopName:    w.Name,
			OrderNumber:     orderNumber,
			StartTime:       cursor,
			DurationMinutes: duration,
		})
		orderNumber++
		cursor = timeutil.AddMinutes(cursor, duration)
	}

	required := req.MinRequiredWorkshops
	if required <= 0 {
		// 未指定最少车间数时，接受任何非空路线
		required = 1
	}
	if len(stops) < required {
		b.log.Conflict("no_feasible_route", req.Name)
		return nil, errors.NoFeasibleSolution(len(stops), required)
	}

	b.log.BuildComplete(req.Name, len(stops), time.Since(started))
	return stops, nil
}

// visitDuration 车间参观时长：车间自身配置优先，封顶在配置的最大值
func (b *Builder) visitDuration(w *model.Workshop) int {
	d := w.VisitDurationMinutes
	if d <= 0 {
		d = b.cfg.DefaultVisitMinutes
	}
	if d > b.cfg.MaxVisitMinutes {
		d = b.cfg.MaxVisitMinutes
	}
	return d
}
