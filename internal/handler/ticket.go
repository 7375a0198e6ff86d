package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/danielsheh02/willy-wonka-factory/internal/service"
)

// TicketHandler 金券处理器
type TicketHandler struct {
	svc *service.TicketService
}

// NewTicketHandler 创建金券处理器
func NewTicketHandler(svc *service.TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

// Generate 批量生成金券
func (h *TicketHandler) Generate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	tickets, err := h.svc.Generate(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"items": tickets,
		"count": len(tickets),
	})
}

// Book 预订金券
func (h *TicketHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.BookRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	ticket, err := h.svc.Book(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

// CancelRequest 取消预订请求
type CancelRequest struct {
	TicketNumber string `json:"ticket_number" validate:"required"`
}

// CancelBooking 取消预订
func (h *TicketHandler) CancelBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req CancelRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	ticket, err := h.svc.CancelBooking(r.Context(), req.TicketNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

// Validate 核验金券
func (h *TicketHandler) Validate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.svc.Validate(r.Context(), ps.ByName("number"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Get 按 ID 查询金券
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathUUID(ps, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	ticket, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

// List 查询全部金券
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tickets, err := h.svc.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": tickets,
		"count": len(tickets),
	})
}

// Delete 删除金券
func (h *TicketHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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
