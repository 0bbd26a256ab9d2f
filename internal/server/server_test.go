package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-agent/internal/agent"
	"github.com/spigell/job-agent/internal/ai/aitest"
	"github.com/spigell/job-agent/internal/ai/gemini"
	"github.com/spigell/job-agent/internal/contacts"
	"github.com/spigell/job-agent/internal/jobs"
	"github.com/spigell/job-agent/internal/profile"
	"github.com/spigell/job-agent/internal/ranking"
	"github.com/spigell/job-agent/internal/search"
)

type stubSearcher struct{ portal string }

func (s stubSearcher) Portal() string { return s.portal }

func (s stubSearcher) Search(context.Context, string, int) ([]jobs.Posting, error) {
	return []jobs.Posting{
		{Title: "Backend Engineer", Company: "Acme", URL: "https://" + s.portal + "/1", Portal: s.portal, Snippet: "python aws"},
		{Title: "Chef", Company: "Bistro", URL: "https://" + s.portal + "/2", Portal: s.portal},
	}, nil
}

type stubFinder struct{ err error }

func (f stubFinder) Lookup(_ context.Context, company, roleHint string) (*contacts.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &contacts.Contact{Name: "Jane Doe", Email: "jane@acme.io", Company: company, Title: roleHint}, nil
}

type testEnv struct {
	server    *Server
	generator *aitest.Generator
}

func newTestEnv(t *testing.T, finder contacts.Finder) *testEnv {
	t.Helper()

	dir := t.TempDir()
	store, err := profile.NewFileStore(dir)
	require.NoError(t, err)

	generator := &aitest.Generator{Response: "Subject: Application\n\nHello team"}

	svc, err := agent.New(agent.Deps{
		Store:     store,
		Searchers: func(portal string) search.Searcher { return stubSearcher{portal: portal} },
		Ranker:    ranking.NewEngine(&aitest.Embedder{}),
		Composer:  gemini.NewComposer(generator, nil),
		Contacts:  finder,
	})
	require.NoError(t, err)

	return &testEnv{server: New(svc, Config{DataDir: dir}, nil), generator: generator}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createProfile(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/profile/set", map[string]any{
		"name":             "Alex",
		"email":            "alex@example.com",
		"years_experience": 3,
		"roles":            []string{"Backend Engineer"},
		"skills":           []string{"python", "aws"},
		"portals":          []string{"linkedin", "naukri"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out jobs.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.ID)
	return out.ID
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv(t, stubFinder{})

	rec := env.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to AI Job agent application", decodeMap(t, rec)["message"])

	rec = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	health := decodeMap(t, rec)
	assert.Equal(t, "ok", health["status"])
	assert.NotEmpty(t, health["data_dir"])
	assert.IsType(t, []any{}, health["filters"])
}

func TestSetAndGetProfile(t *testing.T) {
	env := newTestEnv(t, stubFinder{})

	rec := env.do(t, http.MethodPost, "/profile/set", map[string]any{"name": "Sam"})
	require.Equal(t, http.StatusOK, rec.Code)

	var created jobs.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, jobs.DefaultPortals, created.Portals)

	rec = env.do(t, http.MethodGet, "/profile/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sam", decodeMap(t, rec)["name"])

	rec = env.do(t, http.MethodGet, "/profile/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetProfileValidation(t *testing.T) {
	env := newTestEnv(t, stubFinder{})

	tests := []struct {
		name string
		body any
	}{
		{name: "bad email", body: map[string]any{"email": "not-an-email"}},
		{name: "negative years", body: map[string]any{"years_experience": -1}},
		{name: "malformed json", body: "{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/profile/set", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeMap(t, rec)["error"])
		})
	}
}

func TestSearchJobs(t *testing.T) {
	env := newTestEnv(t, stubFinder{})
	id := env.createProfile(t)

	rec := env.do(t, http.MethodPost, "/search_jobs?profile_id="+id, map[string]any{"max_results": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Hits []jobs.RankedPosting `json:"hits"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Hits, 3)
	assert.Equal(t, "Backend Engineer", out.Hits[0].Title)

	rec = env.do(t, http.MethodPost, "/search_jobs?profile_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Hits, 4)
}

func TestSearchJobsErrors(t *testing.T) {
	env := newTestEnv(t, stubFinder{})

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/search_jobs?profile_id=missing", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/search_jobs", nil).Code)

	id := env.createProfile(t)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/search_jobs?profile_id="+id, map[string]any{"max_results": -5}).Code)
}

func TestPipelineRun(t *testing.T) {
	env := newTestEnv(t, stubFinder{})
	id := env.createProfile(t)

	rec := env.do(t, http.MethodPost, "/pipeline/run", map[string]any{
		"profile_id":  id,
		"portals":     []string{"indeed"},
		"max_results": 10,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Hits []jobs.RankedPosting `json:"hits"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Hits, 2)
	assert.Equal(t, "indeed", out.Hits[0].Portal)

	rec = env.do(t, http.MethodPost, "/pipeline/run", map[string]any{"max_results": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrichContact(t *testing.T) {
	rec := newTestEnv(t, stubFinder{}).do(t, http.MethodPost, "/contact/enrich?company=Acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decodeMap(t, rec)
	assert.Equal(t, true, found["found"])
	assert.Equal(t, "Jane Doe", found["name"])
	assert.Equal(t, "recruiter", found["title"])

	rec = newTestEnv(t, stubFinder{err: contacts.ErrNotFound}).do(t, http.MethodPost, "/contact/enrich?company=Acme&role_hint=cto", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	missing := decodeMap(t, rec)
	assert.Equal(t, false, missing["found"])
	assert.Equal(t, "Acme", missing["company"])

	rec = newTestEnv(t, stubFinder{err: contacts.ErrUnavailable}).do(t, http.MethodPost, "/contact/enrich?company=Acme", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = newTestEnv(t, stubFinder{}).do(t, http.MethodPost, "/contact/enrich", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompose(t *testing.T) {
	env := newTestEnv(t, stubFinder{})
	id := env.createProfile(t)

	rec := env.do(t, http.MethodPost, "/compose", map[string]any{
		"profile_id": id,
		"job":        map[string]any{"title": "Backend Engineer", "company": "Acme"},
		"contact":    map[string]any{"name": "Jane Doe", "title": "Recruiter", "company": "Acme", "found": true},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	email := decodeMap(t, rec)
	assert.Equal(t, "Application", email["subject"])
	assert.Equal(t, "Hello team", email["body"])
	assert.Contains(t, env.generator.LastMessage, "Recipient: Jane Doe, Recruiter at Acme.")

	rec = env.do(t, http.MethodPost, "/compose", map[string]any{"profile_id": "missing", "job": map[string]any{}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload_resume", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadResumeRejectsNonPDF(t *testing.T) {
	env := newTestEnv(t, stubFinder{})

	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, uploadRequest(t, "resume.docx", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Upload a PDF resume", decodeMap(t, rec)["error"])

	rec = httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, uploadRequest(t, "resume.pdf", []byte("not really a pdf")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload_resume", strings.NewReader(""))
	env.server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, stubFinder{})

	req := httptest.NewRequest(http.MethodOptions, "/profile/set", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(&ErrValidation{Field: "x", Message: "bad"}))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ranking.ErrInvalidTopK))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(profile.ErrNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(contacts.ErrUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(agent.ErrNotConfigured))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(assert.AnError))
}
