package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/baja-build-leads/internal/leads"
)

type fakeSubmitter struct {
	mu        sync.Mutex
	requests  []leads.SubmitRequest
	duplicate bool
	err       error
}

func (f *fakeSubmitter) Submit(ctx context.Context, req leads.SubmitRequest, prov leads.Provenance) (*leads.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &leads.SubmitResult{Lead: &leads.Lead{ID: "lead-1", Email: req.Email, Source: req.Source}, Duplicate: f.duplicate}, nil
}

type testServer struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T, sub leads.Submitter) *testServer {
	t.Helper()
	h := NewHandler(NewMemoryStore(), sub, nil, nil)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv}
}

func (s *testServer) post(path, body string) (int, map[string]any) {
	s.t.Helper()
	resp, err := http.Post(s.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(s.t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (s *testServer) start() string {
	code, out := s.post("/", "")
	require.Equal(s.t, http.StatusCreated, code)
	return out["id"].(string)
}

func (s *testServer) complete(id, website string) (int, map[string]any) {
	s.t.Helper()
	steps := []struct{ path, body string }{
		{"/answer", `{"question_id":"lotOwnership","value":"yes"}`},
		{"/answer", `{"question_id":"timeline","value":"immediately"}`},
		{"/contact", `{"name":"Jordan Lee","email":"jordan@example.com","website":"` + website + `"}`},
		{"/answer", `{"question_id":"budget","value":"450-650"}`},
		{"/answer", `{"question_id":"homeSize","value":"3"}`},
		{"/answer", `{"question_id":"style","value":"california"}`},
		{"/answer", `{"question_id":"features","value":"pool"}`},
		{"/phone", `{"phone":"(619) 555-0100"}`},
		{"/answer", `{"question_id":"concerns","value":"legal"}`},
	}
	for _, st := range steps {
		code, out := s.post("/"+id+st.path, st.body)
		require.Equal(s.t, http.StatusOK, code, out)
	}
	return s.post("/"+id+"/answer", `{"question_id":"decisionMaker","value":"yes"}`)
}

func TestHandler_StartReturnsFirstQuestion(t *testing.T) {
	ts := newTestServer(t, &fakeSubmitter{})
	code, out := ts.post("/", "")
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(10), out["total_steps"])
	assert.Equal(t, float64(300), out["advance_delay_ms"])
	assert.Equal(t, "lotOwnership", out["question"].(map[string]any)["id"])
}

func TestHandler_CompleteSubmitsOnce(t *testing.T) {
	sub := &fakeSubmitter{}
	ts := newTestServer(t, sub)
	id := ts.start()

	code, out := ts.complete(id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["completed"])
	assert.Equal(t, "submitted", out["status"])
	results := out["results"].(map[string]any)
	assert.Equal(t, float64(100), results["readiness_score"])
	assert.Equal(t, "ready", results["tier"])

	require.Len(t, sub.requests, 1)
	req := sub.requests[0]
	assert.Equal(t, leads.SourceConstruction, req.Source)
	assert.Equal(t, "Jordan Lee", req.Name)
	assert.Equal(t, "(619) 555-0100", req.Phone)
	require.NotNil(t, req.ReadinessScore)
	assert.Equal(t, 100.0, *req.ReadinessScore)
	assert.Equal(t, "california", req.Answers["style"])

	code, _ = ts.post("/"+id+"/answer", `{"question_id":"decisionMaker","value":"yes"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Len(t, sub.requests, 1)
}

func TestHandler_HoneypotSkipsSubmission(t *testing.T) {
	sub := &fakeSubmitter{}
	ts := newTestServer(t, sub)
	id := ts.start()

	code, out := ts.complete(id, "http://bot.example")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "submitted", out["status"])
	assert.NotNil(t, out["results"])
	assert.Empty(t, sub.requests)
}

func TestHandler_Duplicate(t *testing.T) {
	sub := &fakeSubmitter{duplicate: true}
	ts := newTestServer(t, sub)

	code, out := ts.complete(ts.start(), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "duplicate", out["status"])
	assert.Equal(t, "You've already submitted this form. We'll be in touch soon!", out["message"])
	assert.Nil(t, out["results"])
}

func TestHandler_SubmitFailureAllowsRetry(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("db down")}
	ts := newTestServer(t, sub)
	id := ts.start()

	code, out := ts.complete(id, "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, out["error"], "Something went wrong")

	sub.mu.Lock()
	sub.err = nil
	sub.mu.Unlock()
	code, out = ts.post("/"+id+"/answer", `{"question_id":"decisionMaker","value":"yes"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "submitted", out["status"])
	assert.Len(t, sub.requests, 2)
}

func TestHandler_StepErrors(t *testing.T) {
	ts := newTestServer(t, &fakeSubmitter{})
	id := ts.start()

	code, _ := ts.post("/"+id+"/answer", `{"question_id":"timeline","value":"soon"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = ts.post("/"+id+"/answer", `{"question_id":"lotOwnership","value":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.post("/"+id+"/answer", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.post("/missing/answer", `{"question_id":"lotOwnership","value":"yes"}`)
	assert.Equal(t, http.StatusNotFound, code)

	ts.post("/"+id+"/answer", `{"question_id":"lotOwnership","value":"yes"}`)
	ts.post("/"+id+"/answer", `{"question_id":"timeline","value":"soon"}`)
	code, out := ts.post("/"+id+"/contact", `{"name":"J","email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	fields := out["errors"].(map[string]any)
	assert.Equal(t, "Name must be at least 2 characters", fields["name"])
	assert.Equal(t, "Please enter a valid email address", fields["email"])
}

func TestHandler_GetSession(t *testing.T) {
	ts := newTestServer(t, &fakeSubmitter{})
	id := ts.start()
	ts.post("/"+id+"/answer", `{"question_id":"lotOwnership","value":"yes"}`)

	resp, err := http.Get(ts.srv.URL + "/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1, out.Step)
	require.NotNil(t, out.Question)
	assert.Equal(t, "timeline", out.Question.ID)
	assert.InDelta(t, 20.0, out.Progress, 0.001)
}
