package handler

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/danielsheh02/willy-wonka-factory/internal/service"
)

// ReportHandler 统计报表处理器
type ReportHandler struct {
	svc *service.ReportService
}

// NewReportHandler 创建报表处理器
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Statistics 生成统计报表
// 支持 from/to 查询参数限定时间范围
func (h *ReportHandler) Statistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var from, to *time.Time
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		t, err := parseRFC3339("from", raw)
		if err != nil {
			respondError(w, err)
			return
		}
		from = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := parseRFC3339("to", raw)
		if err != nil {
			respondError(w, err)
			return
		}
		to = &t
	}

	report, err := h.svc.Statistics(r.Context(), from, to)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
