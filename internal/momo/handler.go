package momo

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sokoflow/marketplace/internal/domain"
)

// Handler simulates a mobile-money processor for local development and
// tests. Collections stay PENDING for a configurable number of polls, then
// settle. Phones ending in the reject suffix fail the charge instead.
type Handler struct {
	settleAfter  int
	rejectSuffix string
	logger       *slog.Logger

	mu          sync.Mutex
	collections map[string]*collection
}

type collection struct {
	phone  string
	amount int64
	status domain.AttemptStatus
	polls  int
}

func NewHandler(settleAfter int, rejectSuffix string, logger *slog.Logger) *Handler {
	if settleAfter < 1 {
		settleAfter = 1
	}
	return &Handler{
		settleAfter:  settleAfter,
		rejectSuffix: rejectSuffix,
		logger:       logger,
		collections:  make(map[string]*collection),
	}
}

type collectionRequest struct {
	Phone    string            `json:"phone"`
	Amount   int64             `json:"amount"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type collectionResponse struct {
	ReferenceID string `json:"reference_id"`
}

func (h *Handler) HandleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Phone == "" || req.Amount <= 0 {
		h.writeError(w, http.StatusBadRequest, "phone and a positive amount are required")
		return
	}

	reference := uuid.New().String()

	h.mu.Lock()
	h.collections[reference] = &collection{
		phone:  req.Phone,
		amount: req.Amount,
		status: domain.AttemptStatusPending,
	}
	h.mu.Unlock()

	h.logger.Info("collection created", "reference", reference, "phone", req.Phone, "amount", req.Amount)
	h.writeJSON(w, http.StatusCreated, collectionResponse{ReferenceID: reference})
}

type statusResponse struct {
	Status domain.AttemptStatus `json:"status"`
}

func (h *Handler) HandleGetCollection(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("referenceId")
	if reference == "" {
		h.writeError(w, http.StatusBadRequest, "missing reference id")
		return
	}

	h.mu.Lock()
	col, ok := h.collections[reference]
	if ok && col.status == domain.AttemptStatusPending {
		col.polls++
		if col.polls >= h.settleAfter {
			if h.rejectSuffix != "" && strings.HasSuffix(col.phone, h.rejectSuffix) {
				col.status = domain.AttemptStatusFailed
			} else {
				col.status = domain.AttemptStatusSuccessful
			}
		}
	}
	h.mu.Unlock()

	if !ok {
		h.writeError(w, http.StatusNotFound, "collection not found")
		return
	}

	h.logger.Info("collection polled", "reference", reference, "status", col.status, "polls", col.polls)
	h.writeJSON(w, http.StatusOK, statusResponse{Status: col.status})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
