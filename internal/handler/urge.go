package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pivotapp/pivot/internal/ctxkeys"
	"github.com/pivotapp/pivot/internal/httperr"
	"github.com/pivotapp/pivot/internal/repository"
	"github.com/pivotapp/pivot/internal/service"
)

type urgeHandler struct {
	urgeService *service.UrgeService
}

func NewUrgeHandler(urgeService *service.UrgeService) *urgeHandler {
	return &urgeHandler{urgeService: urgeService}
}

type createUrgeRequest struct {
	Outcome string  `json:"outcome"`
	HabitID string  `json:"habitId"`
	Trigger *string `json:"trigger,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

func (h *urgeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req createUrgeRequest
	err := decodeJSON(r, &req)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	urge, err := h.urgeService.LogUrge(user.ID, req.Outcome, req.HabitID, req.Trigger, req.Notes)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOutcome) || errors.Is(err, service.ErrHabitRequired) {
			httperr.Write(w, r, httperr.BadRequest(err.Error()))
			return
		}
		slog.Error("failed to log urge", "error", err, "user_id", user.ID)
		httperr.Write(w, r, httperr.BadRequest("Failed to log urge"))
		return
	}

	writeJSON(w, http.StatusCreated, urge)
}

func (h *urgeHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	result, err := h.urgeService.ListUrges(user.ID, limit, offset)
	if err != nil {
		slog.Error("failed to list urges", "error", err, "user_id", user.ID)
		httperr.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *urgeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	stats, err := h.urgeService.Stats(user.ID)
	if err != nil {
		slog.Error("failed to get urge stats", "error", err, "user_id", user.ID)
		httperr.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *urgeHandler) StatsByHabit(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	stats, err := h.urgeService.StatsByHabit(user.ID)
	if err != nil {
		slog.Error("failed to get urge stats by habit", "error", err, "user_id", user.ID)
		httperr.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *urgeHandler) TimeSeries(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	date := r.URL.Query().Get("date")
	bucket := r.URL.Query().Get("bucket")
	if bucket == "" {
		bucket = repository.BucketHour
	}
	days := queryInt(r, "days", 30)

	series, err := h.urgeService.TimeSeries(user.ID, bucket, days, date)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBucket) {
			httperr.Write(w, r, httperr.BadRequest(err.Error()))
			return
		}
		slog.Error("failed to get urge time series", "error", err, "user_id", user.ID)
		httperr.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, series)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
