package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

// Handler exposes the appointment book to practice staff.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a new appointments handler
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Routes returns the admin appointment routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Book)
	r.Get("/search", h.Search)
	r.Get("/history/{phone}", h.History)
	r.Get("/patients/{phone}", h.GetPatient)
	r.Get("/day/{date}", h.DayPlan)
	r.Get("/week/{date}", h.WeekOverview)
	r.Get("/stats", h.Statistics)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/cancel", h.Cancel)
	return r
}

// Book handles POST /admin/appointments
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	appt, err := h.store.Book(r.Context(), req)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Query        string        `json:"query"`
	Appointments []Appointment `json:"appointments"`
	Count        int           `json:"count"`
}

// Search handles GET /admin/appointments/search?q=&from=&to=&period=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		list []Appointment
		err  error
	)
	if period := q.Get("period"); period != "" {
		list, err = h.store.SearchPeriod(r.Context(), q.Get("q"), period)
	} else {
		list, err = h.store.Search(r.Context(), q.Get("q"), q.Get("from"), q.Get("to"))
	}
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if list == nil {
		list = []Appointment{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q.Get("q"), Appointments: list, Count: len(list)})
}

// History handles GET /admin/appointments/history/{phone}
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.History(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if list == nil {
		list = []Appointment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetPatient handles GET /admin/appointments/patients/{phone}
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Patient(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DayPlan handles GET /admin/appointments/day/{date}
func (h *Handler) DayPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.store.DayPlan(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// WeekOverview handles GET /admin/appointments/week/{date}
func (h *Handler) WeekOverview(w http.ResponseWriter, r *http.Request) {
	days, err := h.store.WeekOverview(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// Statistics handles GET /admin/appointments/stats?period=
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Statistics(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Get handles GET /admin/appointments/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	appt, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// CancelRequest is the body of a cancellation.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// CancelResponse reports whether the call changed anything.
type CancelResponse struct {
	ID        int64 `json:"id"`
	Cancelled bool  `json:"cancelled"`
}

// Cancel handles POST /admin/appointments/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	var req CancelRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	ok, err := h.store.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CancelResponse{ID: id, Cancelled: ok})
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("appointment request failed", "error", err)
		writeJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}
	body := map[string]string{"error": err.Error()}
	if kind := KindOf(err); kind != kindNone {
		body["kind"] = string(kind)
	}
	writeJSON(w, status, body)
}

// StatusCode maps a store error onto an HTTP status.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindSlotTaken:
		return http.StatusConflict
	case KindPastDate, KindOutsideHours:
		return http.StatusUnprocessableEntity
	case KindInvalidFormat, KindPatientFieldMissing:
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPatientNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
