package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kids_math/internal/app/service"
	"kids_math/internal/common"
	"kids_math/internal/domain/model"
)

type ExerciseHandler struct {
	exerciseService *service.ExerciseService
}

func NewExerciseHandler(es *service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: es}
}

func (h *ExerciseHandler) RegisterRoutes(r chi.Router) {
	r.Post("/submit", h.submit)              // POST /api/v1/exercises/submit
	r.Get("/catalog/{id}", h.getCatalogItem) // GET /api/v1/exercises/catalog/5
	r.Get("/{type}/random", h.random)        // GET /api/v1/exercises/addition/random?difficulty=2
	r.Get("/{type}", h.listCatalog)          // GET /api/v1/exercises/shapes?difficulty=1
}

func (h *ExerciseHandler) random(w http.ResponseWriter, r *http.Request) {
	difficulty, ok := intQuery(w, r, "difficulty")
	if !ok {
		return
	}
	d := model.MinDifficulty
	if difficulty != nil {
		d = *difficulty
	}

	ex, err := h.exerciseService.GenerateRandom(r.Context(), chi.URLParam(r, "type"), d)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, ex)
}

func (h *ExerciseHandler) listCatalog(w http.ResponseWriter, r *http.Request) {
	difficulty, ok := intQuery(w, r, "difficulty")
	if !ok {
		return
	}
	list, err := h.exerciseService.ListCatalog(r.Context(), chi.URLParam(r, "type"), difficulty)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, list)
}

func (h *ExerciseHandler) getCatalogItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid exercise id")
		return
	}
	ex, err := h.exerciseService.GetCatalogExercise(r.Context(), id)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, ex)
}

func (h *ExerciseHandler) submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	req, ok := decodeJSON[service.SubmitRequest](w, r)
	if !ok {
		return
	}

	res, err := h.exerciseService.Submit(r.Context(), userID, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}
