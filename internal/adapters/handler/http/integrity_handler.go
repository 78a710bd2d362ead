package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unionhall/ballotproof/internal/core/domain"
	"github.com/unionhall/ballotproof/internal/core/ports"
)

type IntegrityHandler struct {
	service ports.IntegrityService
}

func NewIntegrityHandler(service ports.IntegrityService) *IntegrityHandler {
	return &IntegrityHandler{
		service: service,
	}
}

func (h *IntegrityHandler) VerifySession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	report, err := h.service.VerifySession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
