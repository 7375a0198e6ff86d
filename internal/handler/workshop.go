package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/danielsheh02/willy-wonka-factory/internal/service"
)

// WorkshopHandler 车间处理器
type WorkshopHandler struct {
	svc *service.WorkshopService
}

// NewWorkshopHandler 创建车间处理器
func NewWorkshopHandler(svc *service.WorkshopService) *WorkshopHandler {
	return &WorkshopHandler{svc: svc}
}

// Create 创建车间
func (h *WorkshopHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.WorkshopInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	workshop, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, workshop)
}

// Get 查询单个车间
func (h *WorkshopHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathUUID(ps, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	workshop, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, workshop)
}

// List 查询全部车间
func (h *WorkshopHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	workshops, err := h.svc.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": workshops,
		"count": len(workshops),
	})
}

// Update 更新车间
func (h *WorkshopHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathUUID(ps, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req service.WorkshopInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	workshop, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, workshop)
}

// Delete 删除车间
func (h *WorkshopHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathUUID(ps, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
