// Package schedule 提供参观路线的可用性检查与自动构建引擎
package schedule

import (
	"fmt"

	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
)

// ValidateCapacity 检查团队人数是否超出车间容量
// 容量为 nil 表示不限人数；通过时返回 nil，否则返回一条容量冲突
func ValidateCapacity(participants int, w *model.Workshop) *Conflict {
	if w.Capacity == nil || participants <= *w.Capacity {
		return nil
	}
	return &Conflict{
		Type: ConflictCapacity,
		Message: fmt.Sprintf("车间 '%s' 容量为 %d 人，无法容纳 %d 人的团队",
			w.Name, *w.Capacity, participants),
		WorkshopID:   w.ID,
		WorkshopName: w.Name,
	}
}
