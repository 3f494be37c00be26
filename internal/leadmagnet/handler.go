package leadmagnet

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/wolfman30/baja-build-leads/internal/leads"
	"github.com/wolfman30/baja-build-leads/internal/observability/metrics"
	"github.com/wolfman30/baja-build-leads/pkg/logging"
)

const (
	formName         = "lead_magnet"
	maxBodyBytes     = 16 << 10
	rateLimitedMsg   = "Too many submission attempts. Please wait a minute and try again."
	submitFailedMsg  = "Something went wrong. Please try again later."
	duplicateMessage = "You already submitted this lead. Check your email for the guide!"
)

// GuideLinker issues download links for the guide PDF.
type GuideLinker interface {
	Link(ctx context.Context) (string, time.Time, error)
}

// Handler serves POST /api/lead-magnet.
type Handler struct {
	submitter leads.Submitter
	guard     *Guard
	guide     GuideLinker
	metrics   *metrics.LeadMetrics
	logger    *logging.Logger
}

// NewHandler wires the form. guide may be nil, in which case responses carry
// no download link.
func NewHandler(submitter leads.Submitter, guard *Guard, guide GuideLinker, m *metrics.LeadMetrics, logger *logging.Logger) *Handler {
	if submitter == nil {
		panic("leadmagnet: submitter required")
	}
	if guard == nil {
		guard = NewGuard(DefaultMaxAttempts, DefaultWindow)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{submitter: submitter, guard: guard, guide: guide, metrics: m, logger: logger}
}

// Response is the body of a 200 from the lead-magnet endpoint.
type Response struct {
	Success     bool        `json:"success"`
	Status      string      `json:"status,omitempty"`
	Message     string      `json:"message,omitempty"`
	Lead        *leads.Lead `json:"lead"`
	Score       int         `json:"score"`
	DownloadURL string      `json:"download_url,omitempty"`
	ExpiresAt   *time.Time  `json:"download_expires_at,omitempty"`
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	prov := leads.ProvenanceFromRequest(r)
	key := clientKey(r, prov.IPAddress)

	if !h.guard.Allow(key) {
		h.metrics.ObserveFormBlocked(formName, "rate_limited")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": rateLimitedMsg})
		return
	}

	var raw Form
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	form := raw.Sanitized()

	if errs := Validate(form); errs != nil {
		h.metrics.ObserveFormBlocked(formName, "invalid")
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	h.guard.Record(key)

	score := CalculateLeadScore(form)
	readiness := float64(score)
	result, err := h.submitter.Submit(r.Context(), leads.SubmitRequest{
		Name:           form.Name,
		Email:          form.Email,
		Phone:          form.Phone,
		Source:         leads.SourceLeadMagnet,
		Timeline:       form.Timeline,
		Budget:         form.Budget,
		Style:          form.Style,
		ReadinessScore: &readiness,
	}, prov)
	switch {
	case errors.Is(err, leads.ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": map[string]string{"name": "Please enter a valid name (letters only)"}})
		return
	case errors.Is(err, leads.ErrInvalidEmail):
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": map[string]string{"email": "Please enter a valid email address"}})
		return
	case err != nil:
		h.logger.Error("lead magnet submission failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": submitFailedMsg})
		return
	}

	resp := Response{Success: !result.Duplicate, Lead: result.Lead, Score: score}
	if result.Duplicate {
		resp.Status = "duplicate"
		resp.Message = duplicateMessage
	}
	h.attachGuide(r.Context(), &resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) attachGuide(ctx context.Context, resp *Response) {
	if h.guide == nil {
		return
	}
	url, expires, err := h.guide.Link(ctx)
	if err != nil {
		h.logger.Warn("guide link unavailable", "error", err)
		return
	}
	resp.DownloadURL = url
	resp.ExpiresAt = &expires
}

func clientKey(r *http.Request, forwarded string) string {
	if forwarded != "" {
		return forwarded
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
