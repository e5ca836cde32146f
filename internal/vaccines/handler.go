package vaccines

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
	List(ctx context.Context) ([]Vaccine, error)
	Insert(ctx context.Context, v *Vaccine) error
	Delete(ctx context.Context, id string) error
}

// Handler handles HTTP requests for vaccines.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates a new vaccines handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Create handles POST /api/vaccines.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var vaccine Vaccine
	if err := json.NewDecoder(r.Body).Decode(&vaccine); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(vaccine.Name) == "" {
		http.Error(w, `{"error": "name required"}`, http.StatusBadRequest)
		return
	}

	if err := h.store.Insert(r.Context(), &vaccine); err != nil {
		h.logger.Error("failed to create vaccine", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("vaccine created", "id", vaccine.ID, "name", vaccine.Name)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(vaccine)
}

// List handles GET /api/vaccines.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list vaccines", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Vaccine{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// Delete handles DELETE /api/vaccines/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, `{"error": "id required"}`, http.StatusBadRequest)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, `{"error": "vaccine not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete vaccine", "id", id, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "vaccine deleted successfully"})
}
