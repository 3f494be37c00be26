package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/baja-build-leads/internal/leads"
	"github.com/wolfman30/baja-build-leads/internal/observability/metrics"
	"github.com/wolfman30/baja-build-leads/pkg/logging"
)

const (
	maxBodyBytes     = 16 << 10
	submitFailedMsg  = "Something went wrong. Please try again or call us at (858) 758-7768."
	duplicateMessage = "You've already submitted this form. We'll be in touch soon!"
)

// Handler serves the questionnaire over HTTP.
type Handler struct {
	store     Store
	submitter leads.Submitter
	metrics   *metrics.LeadMetrics
	logger    *logging.Logger
	now       func() time.Time
}

func NewHandler(store Store, submitter leads.Submitter, m *metrics.LeadMetrics, logger *logging.Logger) *Handler {
	if store == nil {
		panic("assessment: store required")
	}
	if submitter == nil {
		panic("assessment: submitter required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, submitter: submitter, metrics: m, logger: logger, now: time.Now}
}

// Routes returns the questionnaire endpoints, to be mounted at /api/assessment.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Start)
	r.Get("/questions", h.ListQuestions)
	r.Get("/{sessionID}", h.GetSession)
	r.Post("/{sessionID}/answer", h.Answer)
	r.Post("/{sessionID}/contact", h.Contact)
	r.Post("/{sessionID}/phone", h.Phone)
	return r
}

// SessionResponse is returned by every session endpoint.
type SessionResponse struct {
	ID             string    `json:"id"`
	Step           int       `json:"step"`
	TotalSteps     int       `json:"total_steps"`
	Progress       float64   `json:"progress"`
	Question       *Question `json:"question,omitempty"`
	AdvanceDelayMS int64     `json:"advance_delay_ms"`
	Completed      bool      `json:"completed"`
	Status         string    `json:"status,omitempty"`
	Message        string    `json:"message,omitempty"`
	Results        *Results  `json:"results,omitempty"`
}

type answerRequest struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

func newSessionResponse(s *Session) SessionResponse {
	total := QuestionCount()
	resp := SessionResponse{
		ID:             s.ID,
		Step:           s.Step,
		TotalSteps:     total,
		Progress:       float64(s.Step+1) / float64(total) * 100,
		AdvanceDelayMS: AdvanceDelay.Milliseconds(),
		Completed:      s.Completed,
	}
	if q, ok := s.Current(); ok {
		resp.Question = &q
	}
	switch {
	case !s.Completed:
	case s.Outcome == OutcomeDuplicate:
		resp.Status = OutcomeDuplicate
		resp.Message = duplicateMessage
	default:
		// bots see the same success as everyone else
		resp.Status = OutcomeSubmitted
		results := CalculateResults(s.Answers)
		resp.Results = &results
	}
	return resp
}

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"questions":        Questions(),
		"advance_delay_ms": AdvanceDelay.Milliseconds(),
	})
}

// Start handles POST /api/assessment.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	sess := NewSession(h.now().UTC())
	if err := h.store.Create(r.Context(), sess); err != nil {
		h.logger.Error("failed to create assessment session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start assessment")
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

// GetSession handles GET /api/assessment/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeStepError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// Answer handles POST /api/assessment/{sessionID}/answer.
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decode(w, r, &req) {
		return
	}
	h.step(w, r, func(s *Session) (bool, error) { return s.Answer(req.QuestionID, req.Value) })
}

// Contact handles POST /api/assessment/{sessionID}/contact.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !decode(w, r, &req) {
		return
	}
	h.step(w, r, func(s *Session) (bool, error) { return s.SubmitContact(req.Name, req.Email, req.Website) })
}

// Phone handles POST /api/assessment/{sessionID}/phone.
func (h *Handler) Phone(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if !decode(w, r, &req) {
		return
	}
	h.step(w, r, func(s *Session) (bool, error) { return s.SubmitPhone(req.Phone) })
}

func (h *Handler) step(w http.ResponseWriter, r *http.Request, apply func(*Session) (bool, error)) {
	id := chi.URLParam(r, "sessionID")
	var final bool
	sess, err := h.store.Update(r.Context(), id, func(s *Session) error {
		var err error
		final, err = apply(s)
		return err
	})
	if err != nil {
		h.writeStepError(w, err)
		return
	}
	if !final {
		writeJSON(w, http.StatusOK, newSessionResponse(sess))
		return
	}

	sess, err = h.finish(r, sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, submitFailedMsg)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// finish performs the single final submission. Only the request whose
// update flipped the session to Submitting reaches here.
func (h *Handler) finish(r *http.Request, sess *Session) (*Session, error) {
	ctx := r.Context()
	if sess.Honeypot {
		h.logger.Info("assessment honeypot triggered", "session_id", sess.ID)
		h.metrics.ObserveFormBlocked("assessment", "honeypot")
		return h.store.Update(ctx, sess.ID, func(s *Session) error {
			s.Finish(OutcomeDiscarded, "")
			return nil
		})
	}

	results := CalculateResults(sess.Answers)
	score := float64(results.ReadinessScore)
	result, err := h.submitter.Submit(ctx, leads.SubmitRequest{
		Name:           sess.Name,
		Email:          sess.Email,
		Phone:          sess.Phone,
		Source:         leads.SourceConstruction,
		Answers:        answersAsAny(sess.Answers),
		ReadinessScore: &score,
	}, leads.ProvenanceFromRequest(r))
	if err != nil {
		h.logger.Error("assessment submission failed", "error", err, "session_id", sess.ID)
		if _, abortErr := h.store.Update(context.WithoutCancel(ctx), sess.ID, func(s *Session) error {
			s.Abort()
			return nil
		}); abortErr != nil {
			h.logger.Error("failed to release assessment session", "error", abortErr, "session_id", sess.ID)
		}
		return nil, err
	}

	outcome := OutcomeSubmitted
	if result.Duplicate {
		outcome = OutcomeDuplicate
	}
	return h.store.Update(context.WithoutCancel(ctx), sess.ID, func(s *Session) error {
		s.Finish(outcome, result.Lead.ID)
		return nil
	})
}

func answersAsAny(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (h *Handler) writeStepError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verr.Fields})
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, ErrInvalidOption):
		writeError(w, http.StatusBadRequest, "invalid option")
	case errors.Is(err, ErrWrongQuestion):
		writeError(w, http.StatusConflict, "not the current question")
	case errors.Is(err, ErrCompleted):
		writeError(w, http.StatusConflict, "assessment already completed")
	case errors.Is(err, ErrSubmitting):
		writeError(w, http.StatusConflict, "submission in progress")
	default:
		h.logger.Error("assessment step failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
