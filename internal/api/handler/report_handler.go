package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kids_math/internal/app/service"
	"kids_math/internal/common"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(rs *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.summary)
}

func (h *ReportHandler) summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	report, err := h.reportService.Summary(r.Context(), userID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, report)
}
