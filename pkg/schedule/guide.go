// Package schedule 提供参观路线的可用性检查与自动构建引擎
package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielsheh02/willy-wonka-factory/pkg/timeutil"
)

// GuideChecker 导游占用检查器
// 一名导游同一时间只能带一个参观团；导游之间可以互换，没有技能匹配
type GuideChecker struct {
	snap *Snapshot
	cfg  *Config
}

// NewGuideChecker 创建导游占用检查器
func NewGuideChecker(snap *Snapshot, cfg *Config) *GuideChecker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &GuideChecker{snap: snap, cfg: cfg}
}

// FindConflicts 查找导游在 [start, end) 内已有的参观团冲突
func (g *GuideChecker) FindConflicts(guideID uuid.UUID, start, end time.Time, excludeExcursionID uuid.UUID) []Conflict {
	var conflicts []Conflict

	for _, e := range g.snap.Excursions {
		if e.GuideID != guideID {
			continue
		}
		if !e.Occupies(g.cfg.CountDraft) {
			continue
		}
		if excludeExcursionID != uuid.Nil && e.ID == excludeExcursionID {
			continue
		}
		win := e.Window()
		if win.Duration() <= 0 {
			continue
		}
		if !timeutil.Overlaps(start, end, win.Start, win.End) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type: ConflictGuideBusy,
			Message: fmt.Sprintf("导游在 %s - %s 已带领参观团 '%s'",
				win.Start.Format("15:04"), win.End.Format("15:04"), e.Name),
			ExcursionID:   e.ID,
			ExcursionName: e.Name,
			Window:        &win,
		})
	}

	return conflicts
}

// IsGuideFree 检查导游在 [start, end) 内是否空闲
func (g *GuideChecker) IsGuideFree(guideID uuid.UUID, start, end time.Time, excludeExcursionID uuid.UUID) bool {
	return len(g.FindConflicts(guideID, start, end, excludeExcursionID)) == 0
}
