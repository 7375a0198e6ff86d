package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/danielsheh02/willy-wonka-factory/internal/service"
)

// GuideHandler 导游查询处理器
type GuideHandler struct {
	svc *service.ExcursionService
}

// NewGuideHandler 创建导游查询处理器
func NewGuideHandler(svc *service.ExcursionService) *GuideHandler {
	return &GuideHandler{svc: svc}
}

// List 查询全部导游
func (h *GuideHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	guides, err := h.svc.ListGuides(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": guides,
		"count": len(guides),
	})
}
