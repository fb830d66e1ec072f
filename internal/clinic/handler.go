package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

// ScheduleStore is the persistence the admin handler needs.
type ScheduleStore interface {
	Get(ctx context.Context, clinicID string) (*Schedule, error)
	Set(ctx context.Context, schedule *Schedule) error
	AddClosure(ctx context.Context, clinicID string, closure Closure) (*Schedule, error)
}

// Handler provides HTTP endpoints for schedule management.
type Handler struct {
	store  ScheduleStore
	logger *logging.Logger
}

// NewHandler creates a new clinic schedule HTTP handler.
func NewHandler(store ScheduleStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Routes returns a chi router with clinic admin routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{clinicID}/schedule", h.GetSchedule)
	r.Put("/{clinicID}/schedule", h.UpdateSchedule)
	r.Post("/{clinicID}/closures", h.AddClosure)
	return r
}

// GetSchedule returns the schedule for a clinic.
// GET /admin/clinic/{clinicID}/schedule
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	clinicID := chi.URLParam(r, "clinicID")
	if clinicID == "" {
		http.Error(w, `{"error": "clinic_id required"}`, http.StatusBadRequest)
		return
	}

	schedule, err := h.store.Get(r.Context(), clinicID)
	if err != nil {
		h.logger.Error("failed to get clinic schedule", "clinic_id", clinicID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, schedule)
}

// UpdateScheduleRequest is the request body for replacing opening hours.
type UpdateScheduleRequest struct {
	Name        string       `json:"name,omitempty"`
	Timezone    string       `json:"timezone,omitempty"`
	SlotMinutes *int         `json:"slot_minutes,omitempty"`
	Hours       *WeeklyHours `json:"hours,omitempty"`
	Closures    []Closure    `json:"closures,omitempty"`
}

// UpdateSchedule applies a partial update to the clinic schedule.
// PUT /admin/clinic/{clinicID}/schedule
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	clinicID := chi.URLParam(r, "clinicID")
	if clinicID == "" {
		http.Error(w, `{"error": "clinic_id required"}`, http.StatusBadRequest)
		return
	}

	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	schedule, err := h.store.Get(r.Context(), clinicID)
	if err != nil {
		h.logger.Error("failed to load clinic schedule", "clinic_id", clinicID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if req.Name != "" {
		schedule.Name = req.Name
	}
	if req.Timezone != "" {
		schedule.Timezone = req.Timezone
	}
	if req.SlotMinutes != nil {
		schedule.SlotMinutes = *req.SlotMinutes
	}
	if req.Hours != nil {
		schedule.Hours = *req.Hours
	}
	if req.Closures != nil {
		schedule.Closures = req.Closures
	}

	if err := h.store.Set(r.Context(), schedule); err != nil {
		if isValidationError(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to save clinic schedule", "clinic_id", clinicID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("clinic schedule updated", "clinic_id", clinicID, "closures", len(schedule.Closures))
	h.writeJSON(w, schedule)
}

// AddClosure marks a single date as closed.
// POST /admin/clinic/{clinicID}/closures
func (h *Handler) AddClosure(w http.ResponseWriter, r *http.Request) {
	clinicID := chi.URLParam(r, "clinicID")
	var closure Closure
	if err := json.NewDecoder(r.Body).Decode(&closure); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	schedule, err := h.store.AddClosure(r.Context(), clinicID, closure)
	if err != nil {
		if isValidationError(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to add closure", "clinic_id", clinicID, "date", closure.Date, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("clinic closure added", "clinic_id", clinicID, "date", closure.Date)
	h.writeJSONStatus(w, http.StatusCreated, schedule)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	h.writeJSONStatus(w, http.StatusOK, v)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInterval) || errors.Is(err, ErrInvalidClosure) || errors.Is(err, errInvalidTimezone)
}
