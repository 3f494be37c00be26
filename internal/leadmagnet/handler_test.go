package leadmagnet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/baja-build-leads/internal/leads"
	"github.com/wolfman30/baja-build-leads/internal/observability/metrics"
)

type stubLinker struct {
	url string
	err error
}

func (s stubLinker) Link(ctx context.Context) (string, time.Time, error) {
	return s.url, time.Now().Add(time.Hour), s.err
}

const validBody = `{"name":"  José Núñez ","email":"jose@example.com","phone":"(619) 555-0100","timeline":"0-6","budget":"500-700k","style":"<b>modern</b>"}`

func newHandler(t *testing.T, linker GuideLinker) (*Handler, *leads.InMemoryRepository, *prometheus.Registry) {
	t.Helper()
	repo := leads.NewInMemoryRepository()
	reg := prometheus.NewRegistry()
	m := metrics.NewLeadMetrics(reg)
	h := NewHandler(leads.NewService(repo, nil, leads.WithMetrics(m)), NewGuard(3, time.Minute), linker, m, nil)
	return h, repo, reg
}

func blockedCount(t *testing.T, reg *prometheus.Registry, reason string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "baja_forms_blocked_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelValue(metric, "form") == "lead_magnet" && labelValue(metric, "reason") == reason {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func post(h *Handler, body, ip string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodPost, "/api/lead-magnet", strings.NewReader(body))
	req.RemoteAddr = ip + ":51234"
	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestSubmit_CreatesLeadMagnetLead(t *testing.T) {
	h, repo, _ := newHandler(t, stubLinker{url: "https://guides.example/guide.pdf?sig=1"})

	rec, out := post(h, validBody, "203.0.113.9")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["success"])
	assert.Equal(t, float64(80), out["score"])
	assert.Equal(t, "https://guides.example/guide.pdf?sig=1", out["download_url"])

	lead := out["lead"].(map[string]any)
	assert.Equal(t, leads.SourceLeadMagnet, lead["source"])
	assert.Equal(t, "José Núñez", lead["name"])
	assert.Equal(t, "6195550100", lead["phone"])
	assert.Equal(t, float64(80), lead["readiness_score"])
	fields := lead["custom_fields"].(map[string]any)
	assert.Equal(t, "0-6", fields["timeline"])
	assert.Equal(t, "bmodern/b", fields["style"])
	assert.Equal(t, 1, repo.Len())
}

func TestSubmit_DuplicateStillGetsGuide(t *testing.T) {
	h, repo, _ := newHandler(t, stubLinker{url: "https://guides.example/g"})

	post(h, validBody, "203.0.113.9")
	rec, out := post(h, validBody, "198.51.100.2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "duplicate", out["status"])
	assert.Equal(t, "https://guides.example/g", out["download_url"])
	assert.Equal(t, 1, repo.Len())
}

func TestSubmit_ValidationErrors(t *testing.T) {
	h, repo, reg := newHandler(t, nil)

	rec, out := post(h, `{"name":"J","email":"bad","timeline":""}`, "203.0.113.9")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := out["errors"].(map[string]any)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "timeline")
	assert.Equal(t, 0, repo.Len())
	assert.Equal(t, 1.0, blockedCount(t, reg, "invalid"))
}

func TestSubmit_RateLimited(t *testing.T) {
	h, _, reg := newHandler(t, nil)

	bodies := []string{
		strings.Replace(validBody, "jose@", "a@", 1),
		strings.Replace(validBody, "jose@", "b@", 1),
		strings.Replace(validBody, "jose@", "c@", 1),
	}
	for _, b := range bodies {
		rec, _ := post(h, b, "203.0.113.9")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, out := post(h, strings.Replace(validBody, "jose@", "d@", 1), "203.0.113.9")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, rateLimitedMsg, out["error"])
	assert.Equal(t, 1.0, blockedCount(t, reg, "rate_limited"))

	rec, _ = post(h, strings.Replace(validBody, "jose@", "e@", 1), "198.51.100.2")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmit_InvalidAttemptsDoNotCount(t *testing.T) {
	h, _, _ := newHandler(t, nil)
	for i := 0; i < 5; i++ {
		post(h, `{"name":"J"}`, "203.0.113.9")
	}
	rec, _ := post(h, validBody, "203.0.113.9")
	assert.Equal(t, http.StatusOK, rec.Code)
}

type failingSubmitter struct{}

func (failingSubmitter) Submit(context.Context, leads.SubmitRequest, leads.Provenance) (*leads.SubmitResult, error) {
	return nil, errors.Join(leads.ErrSaveFailed, errors.New("db down"))
}

func TestSubmit_SaveFailure(t *testing.T) {
	h := NewHandler(failingSubmitter{}, nil, nil, nil, nil)
	rec, out := post(h, validBody, "203.0.113.9")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, submitFailedMsg, out["error"])
}

func TestSubmit_GuideErrorOmitsLink(t *testing.T) {
	h, _, _ := newHandler(t, stubLinker{err: errors.New("no bucket")})
	rec, out := post(h, validBody, "203.0.113.9")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, out, "download_url")
}
