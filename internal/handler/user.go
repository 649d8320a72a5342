package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pivotapp/pivot/internal/ctxkeys"
	"github.com/pivotapp/pivot/internal/httperr"
	"github.com/pivotapp/pivot/internal/repository"
	"github.com/pivotapp/pivot/internal/service"
)

type userHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *userHandler {
	return &userHandler{userService: userService}
}

func (h *userHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	// Re-read so the response reflects the stored record, not the token
	current, err := h.userService.ByID(user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			httperr.Write(w, r, httperr.NotFound("User not found"))
			return
		}
		slog.Error("failed to get user", "error", err, "user_id", user.ID)
		httperr.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, current.View())
}

type updateUserRequest struct {
	Name *string `json:"name"`
}

func (h *userHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req updateUserRequest
	err := decodeJSON(r, &req)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	if req.Name == nil {
		// Nothing to update; return the current record unchanged
		h.Me(w, r)
		return
	}

	updated, err := h.userService.UpdateName(user.ID, *req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			httperr.Write(w, r, httperr.NotFound("User not found"))
			return
		}
		if errors.Is(err, service.ErrNameInvalid) {
			httperr.Write(w, r, httperr.BadRequest(err.Error()))
			return
		}
		slog.Error("failed to update user", "error", err, "user_id", user.ID)
		httperr.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated.View())
}
