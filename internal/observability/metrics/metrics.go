package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for lead capture flows.
type LeadMetrics struct {
	submissionsTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	ingestLatency      *prometheus.HistogramVec
	formBlockedTotal   *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "baja",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead submissions by source and outcome (created, duplicate, invalid, error)",
		}, []string{"source", "outcome"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "baja",
			Subsystem: "leads",
			Name:      "notifications_total",
			Help:      "Best-effort side effects by sink and status",
		}, []string{"sink", "status"}),
		ingestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "baja",
			Subsystem: "leads",
			Name:      "ingest_latency_seconds",
			Help:      "Latency of lead ingestion including side effects",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		formBlockedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "baja",
			Subsystem: "forms",
			Name:      "blocked_total",
			Help:      "Form submissions stopped before ingestion, by form and reason",
		}, []string{"form", "reason"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.notificationsTotal, m.ingestLatency, m.formBlockedTotal)
	return m
}

func (m *LeadMetrics) ObserveSubmission(source, outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(source, outcome).Inc()
}

func (m *LeadMetrics) ObserveNotification(sink string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.notificationsTotal.WithLabelValues(sink, status).Inc()
}

func (m *LeadMetrics) ObserveIngestLatency(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.ingestLatency.WithLabelValues(outcome).Observe(seconds)
}

// ObserveFormBlocked counts honeypot hits, rate-guard rejections and
// validation failures that never reach ingestion.
func (m *LeadMetrics) ObserveFormBlocked(form, reason string) {
	if m == nil {
		return
	}
	m.formBlockedTotal.WithLabelValues(form, reason).Inc()
}
