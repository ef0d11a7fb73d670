package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kids_math/internal/app/service"
	"kids_math/internal/common"
	"kids_math/internal/domain/model"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(ss *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: ss}
}

func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listSessions) // GET /api/v1/sessions?type=addition&limit=20
}

func (h *SessionHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, ok := intQuery(w, r, "limit")
	if !ok {
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	var t *model.ExerciseType
	if raw := r.URL.Query().Get("type"); raw != "" {
		parsed, valid := model.ParseExerciseType(raw)
		if !valid {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid exercise type")
			return
		}
		t = &parsed
	}

	sessions, err := h.sessionService.ListRecent(r.Context(), userID, t, n)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sessions)
}
