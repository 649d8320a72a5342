package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pivotapp/pivot/internal/ctxkeys"
	"github.com/pivotapp/pivot/internal/httperr"
	"github.com/pivotapp/pivot/internal/model"
	"github.com/pivotapp/pivot/internal/repository"
	"github.com/pivotapp/pivot/internal/service"
)

type habitHandler struct {
	habitService *service.HabitService
}

func NewHabitHandler(habitService *service.HabitService) *habitHandler {
	return &habitHandler{habitService: habitService}
}

func (h *habitHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	habits, err := h.habitService.ListForUser(user.ID)
	if err != nil {
		slog.Error("failed to list habits", "error", err, "user_id", user.ID)
		httperr.Write(w, r, err)
		return
	}
	if habits == nil {
		habits = []*model.Habit{}
	}

	writeJSON(w, http.StatusOK, habits)
}

// Get returns a single habit by id. Habit ids act as public
// identifiers; no ownership check, matching urge logging.
func (h *habitHandler) Get(w http.ResponseWriter, r *http.Request) {
	habit, err := h.habitService.ByID(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrHabitNotFound) {
			httperr.Write(w, r, httperr.NotFound("Habit not found"))
			return
		}
		slog.Error("failed to get habit", "error", err, "habit_id", r.PathValue("id"))
		httperr.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, habit)
}

type createHabitRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// Accepted for wire compatibility, never trusted; the owner comes
	// from the session.
	UserID *string `json:"userId,omitempty"`
}

// Create returns the habit named in the request, creating it on first
// reference. The owner is always derived from the bearer token: custom
// habits belong to the caller, standard habits to nobody.
func (h *habitHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req createHabitRequest
	err := decodeJSON(r, &req)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	var owner *string
	if req.Type == model.HabitTypeCustom {
		owner = &user.ID
	}

	habit, err := h.habitService.FindOrCreate(owner, req.Name, req.Type)
	if err != nil {
		if errors.Is(err, service.ErrHabitNameRequired) || errors.Is(err, service.ErrInvalidHabitType) {
			httperr.Write(w, r, httperr.BadRequest(err.Error()))
			return
		}
		slog.Error("failed to create habit", "error", err, "user_id", user.ID)
		httperr.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, habit)
}
