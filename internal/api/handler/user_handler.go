package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kids_math/internal/app/service"
	"kids_math/internal/common"
	"kids_math/internal/domain/model"
)

type UserHandler struct {
	progressService *service.ProgressService
}

func NewUserHandler(ps *service.ProgressService) *UserHandler {
	return &UserHandler{progressService: ps}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/user", h.getUser)
	r.Get("/progress", h.listProgress)
	r.Get("/progress/{type}", h.getProgress)
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.progressService.GetUser(r.Context(), userID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) listProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	progress, err := h.progressService.ListProgress(r.Context(), userID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, progress)
}

func (h *UserHandler) getProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	t, valid := model.ParseExerciseType(chi.URLParam(r, "type"))
	if !valid {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid exercise type")
		return
	}
	progress, err := h.progressService.GetProgress(r.Context(), userID, t)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, progress)
}
