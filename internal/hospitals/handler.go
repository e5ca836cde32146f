package hospitals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vaxtrack/vaxtrack-platform/pkg/logging"
)

// Store is the persistence surface the handler needs.
type Store interface {
	List(ctx context.Context) ([]Hospital, error)
	Insert(ctx context.Context, h *Hospital) error
	Delete(ctx context.Context, id string) error
}

// Handler handles HTTP requests for hospitals.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates a new hospitals handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Create handles POST /api/hospitals.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var hospital Hospital
	if err := json.NewDecoder(r.Body).Decode(&hospital); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(hospital.Name) == "" {
		http.Error(w, `{"error": "name required"}`, http.StatusBadRequest)
		return
	}

	if err := h.store.Insert(r.Context(), &hospital); err != nil {
		h.logger.Error("failed to create hospital", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("hospital created", "id", hospital.ID, "name", hospital.Name)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(hospital)
}

// List handles GET /api/hospitals.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list hospitals", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Hospital{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// Delete handles DELETE /api/hospitals/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, `{"error": "id required"}`, http.StatusBadRequest)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, `{"error": "hospital not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete hospital", "id", id, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "hospital deleted successfully"})
}
