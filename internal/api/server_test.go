package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobmatch/internal/ai"
	"github.com/amishk599/jobmatch/internal/model"
	"github.com/amishk599/jobmatch/internal/pipeline"
	"github.com/amishk599/jobmatch/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubRunner struct {
	err   error
	calls int
}

func (r *stubRunner) RunOnce(_ context.Context) error {
	r.calls++
	return r.err
}

func seedStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()
	jobs := []model.Job{
		{ID: "a", Title: "Engineer A", Company: "acme", URL: "https://x/a", Score: 90},
		{ID: "b", Title: "Engineer B", Company: "acme", URL: "https://x/b", Score: 70},
		{ID: "c", Title: "Engineer C", Company: "acme", URL: "https://x/c", Score: 50},
	}
	if err := st.ReplaceAll(jobs, []string{"b", "a"}, time.Now()); err != nil {
		t.Fatal(err)
	}
	return st
}

func newTestServer(st model.Store, runner Runner) *Server {
	return NewServer(st, runner, nil, nil, "", discardLogger())
}

func doRequest(s *Server, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(store.NewMemoryStore(), nil)
	w := doRequest(s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestListJobs(t *testing.T) {
	s := newTestServer(seedStore(t), nil)
	w := doRequest(s, http.MethodGet, "/api/jobs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Count int         `json:"count"`
		Jobs  []model.Job `json:"jobs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 3 || len(resp.Jobs) != 3 {
		t.Errorf("count = %d, jobs = %d, want 3 each", resp.Count, len(resp.Jobs))
	}
}

func TestListJobs_Limit(t *testing.T) {
	s := newTestServer(seedStore(t), nil)
	w := doRequest(s, http.MethodGet, "/api/jobs?limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Count int         `json:"count"`
		Jobs  []model.Job `json:"jobs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 3 || len(resp.Jobs) != 2 {
		t.Errorf("count = %d, jobs = %d, want count 3 and 2 jobs", resp.Count, len(resp.Jobs))
	}
}

func TestListJobs_BadLimit(t *testing.T) {
	s := newTestServer(seedStore(t), nil)
	for _, limit := range []string{"abc", "-1"} {
		w := doRequest(s, http.MethodGet, "/api/jobs?limit="+limit, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, w.Code)
		}
	}
}

func TestTopJobs_ShortlistOrder(t *testing.T) {
	s := newTestServer(seedStore(t), nil)
	w := doRequest(s, http.MethodGet, "/api/jobs/top", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Jobs []model.Job `json:"jobs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Jobs) != 2 || resp.Jobs[0].ID != "b" || resp.Jobs[1].ID != "a" {
		t.Errorf("top jobs = %v, want shortlist order [b a]", resp.Jobs)
	}
}

func TestGetJob(t *testing.T) {
	s := newTestServer(seedStore(t), nil)

	w := doRequest(s, http.MethodGet, "/api/jobs/a", nil)
	if w.Code != http.StatusOK {
		t.Errorf("existing job: status = %d, want 200", w.Code)
	}

	w = doRequest(s, http.MethodGet, "/api/jobs/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing job: status = %d, want 404", w.Code)
	}
}

func TestStatus(t *testing.T) {
	s := newTestServer(seedStore(t), nil)
	w := doRequest(s, http.MethodGet, "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var status model.RunStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if status.JobCount != 3 {
		t.Errorf("job_count = %d, want 3", status.JobCount)
	}
}

func TestTriggerRun(t *testing.T) {
	runner := &stubRunner{}
	s := newTestServer(seedStore(t), runner)

	w := doRequest(s, http.MethodPost, "/api/run", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, want 1", runner.calls)
	}
}

func TestTriggerRun_Conflict(t *testing.T) {
	s := newTestServer(seedStore(t), &stubRunner{err: pipeline.ErrRunInProgress})
	w := doRequest(s, http.MethodPost, "/api/run", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestTriggerRun_NotConfigured(t *testing.T) {
	s := newTestServer(seedStore(t), nil)
	w := doRequest(s, http.MethodPost, "/api/run", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

type stubProvider struct{ response string }

func (p *stubProvider) Complete(_ context.Context, _ ai.Request) (string, error) {
	return p.response, nil
}

type stubDocs struct {
	text string
	err  error
}

func (d *stubDocs) FetchText(_ context.Context, _ string) (string, error) {
	return d.text, d.err
}

func TestCoverLetter(t *testing.T) {
	s := NewServer(seedStore(t), nil, &stubProvider{response: "Dear Hiring Manager,"},
		&stubDocs{text: "template"}, "https://docs.google.com/document/d/x/edit", discardLogger())

	w := doRequest(s, http.MethodPost, "/api/jobs/a/cover-letter", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Dear Hiring Manager,") {
		t.Errorf("body missing letter: %s", w.Body.String())
	}
}

func TestCoverLetter_Unavailable(t *testing.T) {
	s := newTestServer(seedStore(t), nil)
	w := doRequest(s, http.MethodPost, "/api/jobs/a/cover-letter", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestCoverLetter_TemplateFetchFails(t *testing.T) {
	s := NewServer(seedStore(t), nil, &stubProvider{response: "x"},
		&stubDocs{err: errors.New("doc unreachable")}, "https://docs.google.com/document/d/x/edit", discardLogger())

	w := doRequest(s, http.MethodPost, "/api/jobs/a/cover-letter", nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}
