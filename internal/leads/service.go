package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/baja-build-leads/internal/events"
	"github.com/wolfman30/baja-build-leads/internal/observability/metrics"
	"github.com/wolfman30/baja-build-leads/pkg/logging"
)

var tracer = otel.Tracer("baja.internal.leads")

// EventRecorder persists audit events. Failures never fail a submission.
type EventRecorder interface {
	Record(ctx context.Context, event events.LeadEvent) error
}

// Notifier is a best-effort downstream sink told about every new lead.
type Notifier interface {
	Name() string
	LeadCreated(ctx context.Context, lead *Lead) error
}

// Service runs the ingestion pipeline: validate, normalize, create-or-get,
// then audit and notify.
type Service struct {
	repo          Repository
	events        EventRecorder
	notifiers     []Notifier
	metrics       *metrics.LeadMetrics
	logger        *logging.Logger
	defaults      Defaults
	notifyTimeout time.Duration
	now           func() time.Time
}

// ServiceOption configures optional collaborators.
type ServiceOption func(*Service)

func WithEventRecorder(rec EventRecorder) ServiceOption {
	return func(s *Service) { s.events = rec }
}

func WithNotifiers(notifiers ...Notifier) ServiceOption {
	return func(s *Service) {
		for _, n := range notifiers {
			if n != nil {
				s.notifiers = append(s.notifiers, n)
			}
		}
	}
}

func WithMetrics(m *metrics.LeadMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func WithDefaults(d Defaults) ServiceOption {
	return func(s *Service) { s.defaults = d }
}

// WithNotifyTimeout bounds each notifier call.
func WithNotifyTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// NewService wires the ingestion pipeline.
func NewService(repo Repository, logger *logging.Logger, opts ...ServiceOption) *Service {
	if repo == nil {
		panic("leads: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:          repo,
		logger:        logger,
		notifyTimeout: 10 * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and stores one submission. Input problems return
// ErrInvalidName or ErrInvalidEmail; storage problems wrap ErrSaveFailed.
// A repeated (email, source) pair is not an error: the result carries the
// original lead with Duplicate set and nothing is written.
func (s *Service) Submit(ctx context.Context, req SubmitRequest, prov Provenance) (*SubmitResult, error) {
	start := s.now()
	source := ResolveSource(req.Source, prov.Referer)

	ctx, span := tracer.Start(ctx, "leads.submit", trace.WithAttributes(
		attribute.String("lead.source", source),
	))
	defer span.End()

	if !ValidName(req.Name) {
		s.metrics.ObserveSubmission(source, "invalid")
		span.SetAttributes(attribute.String("lead.outcome", "invalid_name"))
		return nil, ErrInvalidName
	}
	if !ValidEmail(req.Email) {
		s.metrics.ObserveSubmission(source, "invalid")
		span.SetAttributes(attribute.String("lead.outcome", "invalid_email"))
		return nil, ErrInvalidEmail
	}

	lead := &Lead{
		TenantID:       nullable(s.defaults.TenantID),
		LandingPageID:  nullable(s.defaults.LandingPageID),
		Name:           req.Name,
		Email:          strings.ToLower(req.Email),
		Phone:          CanonicalPhone(req.Phone),
		Source:         source,
		CustomFields:   req.CustomFields(),
		ReadinessScore: req.ReadinessScore,
		IPAddress:      nullable(prov.IPAddress),
		UserAgent:      nullable(prov.UserAgent),
		Status:         StatusNew,
	}

	stored, created, err := s.repo.CreateOrGet(ctx, lead)
	if err != nil {
		s.metrics.ObserveSubmission(source, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		s.logger.Error("failed to save lead", "error", err, "source", source)
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	if !created {
		s.metrics.ObserveSubmission(source, "duplicate")
		s.metrics.ObserveIngestLatency("duplicate", s.now().Sub(start).Seconds())
		span.SetAttributes(attribute.String("lead.outcome", "duplicate"), attribute.String("lead.id", stored.ID))
		s.logger.Info("duplicate lead submission", "lead_id", stored.ID, "source", source)
		return &SubmitResult{Lead: stored, Duplicate: true}, nil
	}

	span.SetAttributes(attribute.String("lead.outcome", "created"), attribute.String("lead.id", stored.ID))
	s.logger.Info("lead created", "lead_id", stored.ID, "source", source)

	s.recordCreated(ctx, stored, req)
	s.notify(ctx, stored)

	s.metrics.ObserveSubmission(source, "created")
	s.metrics.ObserveIngestLatency("created", s.now().Sub(start).Seconds())
	return &SubmitResult{Lead: stored}, nil
}

// createdPayload is the raw submission kept in the audit trail.
type createdPayload struct {
	Source         string         `json:"source"`
	Answers        map[string]any `json:"answers"`
	ReadinessScore *float64       `json:"readiness_score"`
	Timeline       any            `json:"timeline"`
	Budget         any            `json:"budget"`
	Style          any            `json:"style"`
	DecisionMaker  any            `json:"decision_maker"`
	DetectedSource string         `json:"detected_source"`
}

func (s *Service) recordCreated(ctx context.Context, lead *Lead, req SubmitRequest) {
	if s.events == nil {
		return
	}
	promoted := req.PromotedFields()
	payload := createdPayload{
		Source:         originFlow(lead.Source),
		Answers:        req.Answers,
		ReadinessScore: req.ReadinessScore,
		Timeline:       promoted["timeline"],
		Budget:         promoted["budget"],
		Style:          promoted["style"],
		DecisionMaker:  promoted["decision_maker"],
		DetectedSource: lead.Source,
	}
	tenant := ""
	if lead.TenantID != nil {
		tenant = *lead.TenantID
	}
	event, err := events.NewLeadEvent(lead.ID, tenant, events.EventLeadCreated, payload)
	if err == nil {
		err = s.events.Record(ctx, event)
	}
	s.metrics.ObserveNotification("lead_event", err == nil)
	if err != nil {
		s.logger.Error("lead event insert failed", "error", err, "lead_id", lead.ID)
	}
}

// notify fans out to every notifier concurrently. Each call gets its own
// timeout on a context that outlives the request's cancellation; errors are
// logged and dropped.
func (s *Service) notify(ctx context.Context, lead *Lead) {
	if len(s.notifiers) == 0 {
		return
	}
	base := context.WithoutCancel(ctx)

	var g errgroup.Group
	for _, n := range s.notifiers {
		g.Go(func() error {
			nctx, cancel := context.WithTimeout(base, s.notifyTimeout)
			defer cancel()

			nctx, span := tracer.Start(nctx, "leads.notify", trace.WithAttributes(
				attribute.String("notify.sink", n.Name()),
			))
			defer span.End()

			err := s.safeNotify(nctx, n, lead)
			s.metrics.ObserveNotification(n.Name(), err == nil)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "notify failed")
				s.logger.Warn("lead notification failed", "error", err, "sink", n.Name(), "lead_id", lead.ID)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) safeNotify(ctx context.Context, n Notifier, lead *Lead) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("leads: notifier %s panicked: %v", n.Name(), r)
		}
	}()
	return n.LeadCreated(ctx, cloneLead(lead))
}

// originFlow names the form family that produced a lead for the audit payload.
func originFlow(source string) string {
	switch source {
	case SourceLeadMagnet:
		return "lead_magnet"
	default:
		return "assessment"
	}
}

// IsInputError reports whether err came from request validation.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidName) || errors.Is(err, ErrInvalidEmail)
}
