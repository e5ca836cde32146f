package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vaxtrack/vaxtrack-platform/pkg/logging"
)

// Store is the persistence surface the handler needs.
type Store interface {
	List(ctx context.Context) ([]User, error)
	Insert(ctx context.Context, u *User) error
}

// Handler handles HTTP requests for user accounts.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates a new users handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Register handles POST /api/users.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var user User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(user.Username) == "" {
		http.Error(w, `{"error": "username required"}`, http.StatusBadRequest)
		return
	}
	if user.Role != "" && user.Role != RoleAdmin && user.Role != RolePatient {
		http.Error(w, `{"error": "role must be admin or patient"}`, http.StatusBadRequest)
		return
	}

	if err := h.store.Insert(r.Context(), &user); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			http.Error(w, `{"error": "username already taken"}`, http.StatusConflict)
			return
		}
		h.logger.Error("failed to register user", "username", user.Username, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("user registered", "id", user.ID, "username", user.Username, "role", user.Role)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(user)
}

// List handles GET /api/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []User{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}
