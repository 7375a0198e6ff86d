package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/danielsheh02/willy-wonka-factory/internal/repository"
	"github.com/danielsheh02/willy-wonka-factory/internal/service"
	apperrors "github.com/danielsheh02/willy-wonka-factory/pkg/errors"
	"github.com/danielsheh02/willy-wonka-factory/pkg/model"
	"github.com/danielsheh02/willy-wonka-factory/pkg/schedule"
)

// ExcursionHandler 参观团处理器
type ExcursionHandler struct {
	svc *service.ExcursionService
}

// NewExcursionHandler 创建参观团处理器
func NewExcursionHandler(svc *service.ExcursionService) *ExcursionHandler {
	return &ExcursionHandler{svc: svc}
}

// StopInput 路线站点输入
type StopInput struct {
	WorkshopID      string `json:"workshop_id" validate:"required,uuid"`
	OrderNumber     int    `json:"order_number" validate:"min=0"`
	DurationMinutes int    `json:"duration_minutes,omitempty" validate:"omitempty,min=1"`
}

// ExcursionRequest 创建/更新参观团请求
type ExcursionRequest struct {
	Name              string `json:"name" validate:"required"`
	StartTime         string `json:"start_time" validate:"required"` // RFC3339
	ParticipantsCount int    `json:"participants_count" validate:"required,min=1"`
	GuideID           string `json:"guide_id" validate:"required,uuid"`
	Status            string `json:"status,omitempty"`

	AutoGenerateRoute    bool        `json:"auto_generate_route,omitempty"`
	MinRequiredWorkshops int         `json:"min_required_workshops,omitempty" validate:"omitempty,min=1"`
	Routes               []StopInput `json:"routes,omitempty" validate:"dive"`
}

func (req *ExcursionRequest) toInput() (service.ExcursionInput, error) {
	startTime, err := parseRFC3339("start_time", req.StartTime)
	if err != nil {
		return service.ExcursionInput{}, err
	}
	guideID, err := uuid.Parse(req.GuideID)
	if err != nil {
		return service.ExcursionInput{}, apperrors.InvalidInput("guide_id", "无效的UUID格式")
	}
	stops := make([]schedule.StopRequest, 0, len(req.Routes))
	for _, s := range req.Routes {
		workshopID, err := uuid.Parse(s.WorkshopID)
		if err != nil {
			return service.ExcursionInput{}, apperrors.InvalidInput("workshop_id", "无效的UUID格式: "+s.WorkshopID)
		}
		stops = append(stops, schedule.StopRequest{
			WorkshopID:      workshopID,
			OrderNumber:     s.OrderNumber,
			DurationMinutes: s.DurationMinutes,
		})
	}
	return service.ExcursionInput{
		Name:                 req.Name,
		StartTime:            startTime,
		ParticipantsCount:    req.ParticipantsCount,
		GuideID:              guideID,
		Status:               model.ExcursionStatus(req.Status),
		AutoGenerateRoute:    req.AutoGenerateRoute,
		MinRequiredWorkshops: req.MinRequiredWorkshops,
		Stops:                stops,
	}, nil
}

// Create 创建参观团
func (h *ExcursionHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req ExcursionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, err)
		return
	}
	excursion, err := h.svc.Create(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, excursion)
}

// Update 更新参观团
func (h *ExcursionHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathUUID(ps, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req ExcursionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, err)
		return
	}
	excursion, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, excursion)
}

// Get 查询单个参观团
func (h *ExcursionHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathUUID(ps, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	excursion, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, excursion)
}

// List 查询参观团列表
// 支持 status/guide_id/from/to/limit/offset 查询参数
func (h *ExcursionHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter := repository.DefaultListFilter()
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		filter.Status = status
	}
	if raw := q.Get("guide_id"); raw != "" {
		guideID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, apperrors.InvalidInput("guide_id", "无效的UUID格式"))
			return
		}
		filter.GuideID = &guideID
	}
	if raw := q.Get("from"); raw != "" {
		from, err := parseRFC3339("from", raw)
		if err != nil {
			respondError(w, err)
			return
		}
		filter.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := parseRFC3339("to", raw)
		if err != nil {
			respondError(w, err)
			return
		}
		filter.To = &to
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, apperrors.InvalidInput("limit", "必须是非负整数"))
			return
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			respondError(w, apperrors.InvalidInput("offset", "必须是非负整数"))
			return
		}
		filter.Offset = offset
	}

	excursions, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": excursions,
		"count": len(excursions),
	})
}

// Delete 删除参观团
func (h *ExcursionHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

// CheckRequest 可用性检查请求
// excursion_id 非空时表示编辑既有参观团，冲突检测排除其自身占用
type CheckRequest struct {
	ExcursionRequest
	ExcursionID string `json:"excursion_id,omitempty" validate:"omitempty,uuid"`
}

// CheckAvailability 检查手动路线可用性，汇总全部冲突
func (h *ExcursionHandler) CheckAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req CheckRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, err)
		return
	}

	var report *schedule.AvailabilityReport
	if req.ExcursionID != "" {
		id, parseErr := uuid.Parse(req.ExcursionID)
		if parseErr != nil {
			respondError(w, apperrors.InvalidInput("excursion_id", "无效的UUID格式"))
			return
		}
		report, err = h.svc.CheckAvailabilityFor(r.Context(), id, in)
	} else {
		report, err = h.svc.CheckAvailability(r.Context(), in)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
