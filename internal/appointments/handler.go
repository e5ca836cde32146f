package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vaxtrack/vaxtrack-platform/pkg/logging"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /api/appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	a, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to create appointment", "userName", req.UserName, "error", err)
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(a)
}

// List handles GET /api/appointments?status=...
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f := Filter{Status: strings.TrimSpace(r.URL.Query().Get("status"))}
	h.list(w, r, f)
}

// ListForUser handles GET /api/appointments/user/{username}?status=...
func (h *Handler) ListForUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		http.Error(w, `{"error": "username required"}`, http.StatusBadRequest)
		return
	}
	f := Filter{
		UserName: username,
		Status:   strings.TrimSpace(r.URL.Query().Get("status")),
	}
	h.list(w, r, f)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, f Filter) {
	enriched, err := h.svc.List(r.Context(), f)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if enriched == nil {
		enriched = []EnrichedAppointment{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(enriched)
}

// Decide handles PUT /api/appointments/{id}/approve with body
// {"status": "approved"|"rejected"}.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, `{"error": "id required"}`, http.StatusBadRequest)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	a, err := h.svc.Decide(r.Context(), id, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			http.Error(w, `{"error": "invalid status"}`, http.StatusBadRequest)
		case errors.Is(err, ErrNotFound):
			http.Error(w, `{"error": "appointment not found"}`, http.StatusNotFound)
		default:
			h.logger.Error("failed to decide appointment", "id", id, "error", err)
			http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a)
}

// Delete handles DELETE /api/appointments/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, `{"error": "id required"}`, http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, `{"error": "appointment not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete appointment", "id", id, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "appointment deleted successfully"})
}

func writeError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
