// Package schedule 提供参观路线的可用性检查与自动构建引擎
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
	"github.com/danielsheh02/willy-wonka-factory/pkg/timeutil"
)

// Index 车间占用索引：在快照上回答某个车间在某段时间是否空闲
type Index struct {
	snap *Snapshot
	cfg  *Config
}

// NewIndex 创建车间占用索引
func NewIndex(snap *Snapshot, cfg *Config) *Index {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Index{snap: snap, cfg: cfg}
}

// FindConflicts 查找车间在 [start, end) 内与现有路线站点的冲突
// excludeExcursionID 用于编辑场景，排除参观团自身已有的站点
func (idx *Index) FindConflicts(workshopID uuid.UUID, start, end time.Time, excludeExcursionID uuid.UUID) []Conflict {
	var conflicts []Conflict

	w := idx.snap.WorkshopByID(workshopID)
	for _, e := range idx.snap.Excursions {
		if !e.Occupies(idx.cfg.CountDraft) {
			continue
		}
		if excludeExcursionID != uuid.Nil && e.ID == excludeExcursionID {
			continue
		}
		for i := range e.Stops {
			stop := &e.Stops[i]
			if stop.WorkshopID != workshopID {
				continue
			}
			if !timeutil.Overlaps(start, end, stop.StartTime, stop.EndTime()) {
				continue
			}
			win := stop.Window()
			name := ""
			if w != nil {
				name = w.Name
			}
			conflicts = append(conflicts, Conflict{
				Type: ConflictWorkshopBusy,
				Message: fmt.Sprintf("车间 '%s' 在 %s - %s 已被参观团 '%s' 占用",
					name,
					win.Start.Format("15:04"), win.End.Format("15:04"),
					e.Name),
				WorkshopID:    workshopID,
				WorkshopName:  name,
				ExcursionID:   e.ID,
				ExcursionName: e.Name,
				Window:        &win,
			})
		}
	}

	return conflicts
}

// FindFreeWindow 查找车间在 notBefore 或之后的第一个空闲窗口
// 返回窗口起点与可用分钟数；后面没有任何预订时窗口按配置的最大参观时长封顶
func (idx *Index) FindFreeWindow(workshopID uuid.UUID, notBefore time.Time, excludeExcursionID uuid.UUID) (time.Time, int) {
	busy := idx.busyWindows(workshopID, excludeExcursionID)

	cursor := notBefore.UTC()
	for _, win := range busy {
		if !win.End.After(cursor) {
			continue
		}
		if !win.Start.After(cursor) {
			// 当前时刻被占用，跳到该预订结束
			cursor = win.End
			continue
		}
		gap := timeutil.MinutesBetween(cursor, win.Start)
		if gap <= 0 {
			cursor = win.End
			continue
		}
		if gap > idx.cfg.MaxVisitMinutes {
			gap = idx.cfg.MaxVisitMinutes
		}
		return cursor, gap
	}

	// 此后没有预订，窗口无界，按最大参观时长封顶
	return cursor, idx.cfg.MaxVisitMinutes
}

// busyWindows 收集车间全部被占用的时间段，按起点升序
func (idx *Index) busyWindows(workshopID uuid.UUID, excludeExcursionID uuid.UUID) []model.TimeRange {
	var busy []model.TimeRange
	for _, e := range idx.snap.Excursions {
		if !e.Occupies(idx.cfg.CountDraft) {
			continue
		}
		if excludeExcursionID != uuid.Nil && e.ID == excludeExcursionID {
			continue
		}
		for i := range e.Stops {
			if e.Stops[i].WorkshopID == workshopID {
				busy = append(busy, e.Stops[i].Window())
			}
		}
	}
	sort.Slice(busy, func(i, j int) bool {
		return busy[i].Start.Before(busy[j].Start)
	})
	return busy
}
