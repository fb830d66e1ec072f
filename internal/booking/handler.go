package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/sofia-scheduler/internal/appointments"
	"github.com/wolfman30/sofia-scheduler/internal/resolver"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

// Handler exposes the orchestrator as tool endpoints for the voice agent.
type Handler struct {
	orchestrator  *Orchestrator
	sessions      SessionStore
	defaultLocale string
	logger        *logging.Logger
}

// NewHandler creates the tool handler.
func NewHandler(orchestrator *Orchestrator, sessions SessionStore, defaultLocale string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		orchestrator:  orchestrator,
		sessions:      sessions,
		defaultLocale: resolver.NormalizeLocale(defaultLocale),
		logger:        logger,
	}
}

// Routes returns the tool routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sessions", h.StartSession)
	r.Get("/sessions/{sessionID}", h.GetSession)
	r.Post("/sessions/{sessionID}/utterance", h.Utterance)
	r.Post("/sessions/{sessionID}/book", h.Book)
	r.Post("/sessions/{sessionID}/cancel", h.Cancel)
	r.Post("/sessions/{sessionID}/next-available", h.SessionNextAvailable)
	r.Get("/next-available", h.NextAvailable)
	r.Get("/date-info", h.DateInfo)
	r.Post("/resolve", h.Resolve)
	return r
}

// Reply is what every conversational tool returns.
type Reply struct {
	SessionID    string                    `json:"session_id"`
	Reply        string                    `json:"reply"`
	State        State                     `json:"state"`
	Alternatives []appointments.Slot       `json:"alternatives,omitempty"`
	Appointment  *appointments.Appointment `json:"appointment,omitempty"`
}

// StartSessionRequest opens a conversation.
type StartSessionRequest struct {
	Locale string `json:"locale"`
	Text   string `json:"text,omitempty"`
}

// StartSession handles POST /tools/sessions. An optional first utterance is
// processed right away.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	locale := req.Locale
	if locale == "" {
		locale = h.defaultLocale
	}
	sess := h.orchestrator.Start(uuid.New().String(), locale)

	reply := messagesFor(sess.Locale).askReason
	if req.Text != "" {
		var err error
		reply, err = h.orchestrator.HandleUtterance(r.Context(), sess, req.Text)
		if err != nil {
			h.writeError(w, err)
			return
		}
	}
	h.saveAndReply(w, r, http.StatusCreated, sess, reply)
}

// GetSession handles GET /tools/sessions/{sessionID}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// UtteranceRequest carries one transcribed caller turn.
type UtteranceRequest struct {
	Text string `json:"text"`
}

// Utterance handles POST /tools/sessions/{sessionID}/utterance
func (h *Handler) Utterance(w http.ResponseWriter, r *http.Request) {
	var req UtteranceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sess, ok := h.load(w, r)
	if !ok {
		return
	}
	reply, err := h.orchestrator.HandleUtterance(r.Context(), sess, req.Text)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.saveAndReply(w, r, http.StatusOK, sess, reply)
}

// Book handles POST /tools/sessions/{sessionID}/book
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req appointments.BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sess, ok := h.load(w, r)
	if !ok {
		return
	}
	reply, err := h.orchestrator.BookExplicit(r.Context(), sess, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.saveAndReply(w, r, http.StatusOK, sess, reply)
}

// CancelRequest identifies the appointment to cancel.
type CancelRequest struct {
	AppointmentID int64  `json:"appointment_id"`
	Reason        string `json:"reason"`
}

// Cancel handles POST /tools/sessions/{sessionID}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AppointmentID <= 0 {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}
	sess, ok := h.load(w, r)
	if !ok {
		return
	}
	reply, err := h.orchestrator.Cancel(r.Context(), sess, req.AppointmentID, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.saveAndReply(w, r, http.StatusOK, sess, reply)
}

// NextAvailableRequest narrows the proposal to a treatment.
type NextAvailableRequest struct {
	Treatment string `json:"treatment_type"`
}

// SessionNextAvailable handles POST /tools/sessions/{sessionID}/next-available
func (h *Handler) SessionNextAvailable(w http.ResponseWriter, r *http.Request) {
	var req NextAvailableRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	sess, ok := h.load(w, r)
	if !ok {
		return
	}
	treatment, _ := appointments.ParseTreatmentType(req.Treatment)
	reply, err := h.orchestrator.NextAvailable(r.Context(), sess, treatment)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.saveAndReply(w, r, http.StatusOK, sess, reply)
}

// SlotsResponse lists open slots with a speakable summary.
type SlotsResponse struct {
	Slots []appointments.Slot `json:"slots"`
	Reply string              `json:"reply"`
}

// NextAvailable handles GET /tools/next-available?from=&count=&treatment=&locale=
func (h *Handler) NextAvailable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count := alternativeCount
	if raw := q.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 20 {
			http.Error(w, "count must be between 1 and 20", http.StatusBadRequest)
			return
		}
		count = n
	}
	locale := q.Get("locale")
	if locale == "" {
		locale = h.defaultLocale
	}

	var opts []appointments.FindOption
	if t, ok := appointments.ParseTreatmentType(q.Get("treatment")); ok {
		opts = append(opts, appointments.WithTreatment(t))
	}
	slots, err := h.orchestrator.finder.FindNext(r.Context(), q.Get("from"), count, opts...)
	if err != nil {
		if kind := appointments.KindOf(err); kind != "" {
			writeJSON(w, appointments.StatusCode(err), map[string]string{"error": err.Error(), "kind": string(kind)})
			return
		}
		h.writeError(w, err)
		return
	}

	m := messagesFor(locale)
	reply := m.noneFree
	if len(slots) > 0 {
		reply = spokenSlots(slots, h.orchestrator.checker.Now(), locale)
	}
	writeJSON(w, http.StatusOK, SlotsResponse{Slots: slots, Reply: reply})
}

// DateInfoResponse pairs the structured info with a spoken description.
type DateInfoResponse struct {
	resolver.DateInfo
	Reply string `json:"reply"`
}

// DateInfo handles GET /tools/date-info?locale=
func (h *Handler) DateInfo(w http.ResponseWriter, r *http.Request) {
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = h.defaultLocale
	}
	info := resolver.Info(h.orchestrator.checker.Now(), h.orchestrator.checker.Schedule())
	writeJSON(w, http.StatusOK, DateInfoResponse{DateInfo: info, Reply: info.Describe(locale)})
}

// ResolveRequest is free text to interpret.
type ResolveRequest struct {
	Text string `json:"text"`
}

// Resolve handles POST /tools/resolve
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.orchestrator.resolver.Resolve(req.Text, h.orchestrator.checker.Now()))
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) saveAndReply(w http.ResponseWriter, r *http.Request, status int, sess *Session, reply string) {
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, status, Reply{
		SessionID:    sess.ID,
		Reply:        reply,
		State:        sess.State,
		Alternatives: sess.Alternatives,
		Appointment:  sess.Appointment,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNilSession):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("booking tool request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
