package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/baja-build-leads/pkg/logging"
)

const maxSubmitBody = 64 << 10

// Submitter runs one lead submission.
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest, prov Provenance) (*SubmitResult, error)
}

// Handler handles HTTP requests for leads
type Handler struct {
	submitter Submitter
	repo      Repository
	logger    *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(submitter Submitter, repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		submitter: submitter,
		repo:      repo,
		logger:    logger,
	}
}

// SubmitResponse is the body of every 200 from the submit endpoint.
type SubmitResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Lead    *Lead  `json:"lead"`
}

// ErrorResponse is the body of every 4xx/5xx from this package.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SubmitLead handles POST /api/submit-lead requests
func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("submit lead panicked", "panic", rec)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Unexpected error"})
		}
	}()

	var req SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBody)).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Unexpected error"})
		return
	}

	result, err := h.submitter.Submit(r.Context(), req, ProvenanceFromRequest(r))
	switch {
	case errors.Is(err, ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid name"})
		return
	case errors.Is(err, ErrInvalidEmail):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid email"})
		return
	case errors.Is(err, ErrSaveFailed):
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to save lead"})
		return
	case err != nil:
		h.logger.Error("submit lead failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Unexpected error"})
		return
	}

	WriteSubmitResult(w, result)
}

// WriteSubmitResult renders a successful or duplicate submission.
func WriteSubmitResult(w http.ResponseWriter, result *SubmitResult) {
	if result.Duplicate {
		writeJSON(w, http.StatusOK, SubmitResponse{Success: false, Status: "duplicate", Lead: result.Lead})
		return
	}
	writeJSON(w, http.StatusOK, SubmitResponse{Success: true, Lead: result.Lead})
}

// ProvenanceFromRequest extracts the client address, user agent and referer.
func ProvenanceFromRequest(r *http.Request) Provenance {
	return Provenance{
		IPAddress: FirstForwardedIP(r.Header.Get("X-Forwarded-For")),
		UserAgent: r.Header.Get("User-Agent"),
		Referer:   r.Header.Get("Referer"),
	}
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []*Lead `json:"leads"`
	Count  int     `json:"count"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// ListLeads handles GET /admin/leads requests
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Limit:  DefaultListLimit,
		Offset: 0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 200 {
			filter.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	if source := r.URL.Query().Get("source"); source != "" {
		if !IsKnownSource(source) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unknown source"})
			return
		}
		filter.Source = source
	}

	leads, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list leads"})
		return
	}

	writeJSON(w, http.StatusOK, ListLeadsResponse{
		Leads:  leads,
		Count:  len(leads),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

// GetLead handles GET /admin/leads/{leadID} requests
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "leadID")
	lead, err := h.repo.GetByID(r.Context(), id)
	if errors.Is(err, ErrLeadNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "lead not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to get lead", "error", err, "lead_id", id)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to get lead"})
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
