package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/scholaroute/internal/allocation"
	auth "github.com/mind-engage/scholaroute/internal/auth/middleware"
	"github.com/mind-engage/scholaroute/internal/db"
	"github.com/mind-engage/scholaroute/internal/eventlog"
	"github.com/mind-engage/scholaroute/internal/session"
	"github.com/mind-engage/scholaroute/internal/storage"
)

const studentsCSV = `Student ID,FirstName,LastName,Gender,Section,English,Mathematics,Choice 1,Choice 2
S1,Ada,Obi,F,A,40,30,Law,
S2,Bayo,Ade,M,B,50,45,Law,Medicine
`

func testCatalog() allocation.Catalog {
	return allocation.Catalog{
		{Name: "Unilag", Courses: []allocation.Course{
			{Name: "Law", MinScores: map[string]float64{"aggregate": 90}},
			{Name: "Medicine", MinScores: map[string]float64{"English": 45}},
		}},
	}
}

type testServer struct {
	h       http.Handler
	d       *Deps
	blobDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	bs, err := storage.NewFSStore(dir)
	require.NoError(t, err)
	h, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	events := eventlog.NewEventRepo(h, "test")

	d := &Deps{
		Sessions: session.NewManager(nil, nil),
		Blobs:    bs,
		Catalog:  StaticCatalog(testCatalog()),
		Events:   events,
		Audit:    events,
	}
	r := chi.NewRouter()
	Mount(r, d, auth.Anonymous, auth.Anonymous)
	return &testServer{h: r, d: d, blobDir: dir}
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.h.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func overrideForm(id, uni, course string) *http.Request {
	form := url.Values{"student_id": {id}, "university": {uni}, "course": {course}}
	req := httptest.NewRequest(http.MethodPost, "/override", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeAllocations(t *testing.T, rec *httptest.ResponseRecorder) allocationsOut {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out allocationsOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAllocateAndDownloads(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, uploadRequest(t, "/allocate", "students.csv", studentsCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `<div class="table-container"><table>`)
	assert.Contains(t, rec.Body.String(), "<td>Not Allocated</td>")

	out := decodeAllocations(t, ts.do(t, httptest.NewRequest(http.MethodGet, "/allocations", nil)))
	require.Len(t, out.Rows, 2)
	assert.Equal(t, allocation.NotAllocatedUniversity, out.Rows[0].University)
	assert.Equal(t, "Law", out.Rows[1].Course)
	assert.Equal(t, 1, out.Summary.Allocated)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/download_allocations/csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "allocations.csv")
	assert.Equal(t, 3, strings.Count(rec.Body.String(), "\n"))

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/download_allocations/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/download_report/S2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "student_S2.pdf")

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/download_report/S2?format=html", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>Student ID:</strong> S2")

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/download_report/S9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Student not found.\n", rec.Body.String())

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","session":true,"allocations_loaded":true}`, rec.Body.String())
}

func TestUploadReplacesStoredRoster(t *testing.T) {
	ts := newTestServer(t)
	for i := 0; i < 2; i++ {
		rec := ts.do(t, uploadRequest(t, "/allocate?format=json", "students.csv", studentsCSV))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	files, err := filepath.Glob(filepath.Join(ts.blobDir, "rosters", auth.DefaultOwner, "*-students.csv"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestNothingUploadedYet(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/allocations", "/allocations/summary", "/download_allocations/pdf", "/download_allocations/csv", "/download_report/S1"} {
		rec := ts.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "No allocations available.\n", rec.Body.String(), path)
	}

	rec := ts.do(t, overrideForm("S1", "Unilag", "Law"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No uploaded data to override yet.\n", rec.Body.String())

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","session":true,"allocations_loaded":false}`, rec.Body.String())
}

func TestOverrideFlow(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(t, uploadRequest(t, "/allocate", "students.csv", studentsCSV)).Code)

	rec := ts.do(t, overrideForm(" S1 ", "Unilag ", "Medicine"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"override applied","student_id":"S1"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/override", strings.NewReader(`{"student_id":"S2","course":"Music"}`))
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusOK, ts.do(t, req).Code)

	out := decodeAllocations(t, ts.do(t, httptest.NewRequest(http.MethodGet, "/allocations", nil)))
	assert.Equal(t, "Unilag", out.Rows[0].University)
	assert.Equal(t, "Medicine", out.Rows[0].Course)
	assert.Equal(t, allocation.SourceOverride, out.Rows[0].Source)
	assert.Equal(t, allocation.ManualOverride, out.Rows[1].University)
	assert.Equal(t, "Music", out.Rows[1].Course)

	// a university sent as "" is kept verbatim
	require.Equal(t, http.StatusOK, ts.do(t, overrideForm("S1", "", "Law")).Code)
	out = decodeAllocations(t, ts.do(t, httptest.NewRequest(http.MethodGet, "/allocations", nil)))
	assert.Equal(t, "", out.Rows[0].University)
	assert.Equal(t, "Law", out.Rows[0].Course)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/overrides", nil))
	var ovs allocation.Overrides
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ovs))
	assert.Len(t, ovs, 2)
	assert.Equal(t, allocation.Override{University: allocation.ManualOverride, Course: "Music"}, ovs["S2"])

	rec = ts.do(t, overrideForm("", "Unilag", "Law"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplaceOverridesBeforeUpload(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPut, "/overrides", strings.NewReader(`{"S1":{"University":"Unilag","Course":"Law"}}`))
	rec := ts.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"overrides replaced","count":1,"reallocated":false}`, rec.Body.String())

	require.Equal(t, http.StatusOK, ts.do(t, uploadRequest(t, "/allocate", "students.csv", studentsCSV)).Code)
	out := decodeAllocations(t, ts.do(t, httptest.NewRequest(http.MethodGet, "/allocations", nil)))
	assert.Equal(t, "Law", out.Rows[0].Course)
	assert.Equal(t, allocation.SourceOverride, out.Rows[0].Source)

	rec = ts.do(t, httptest.NewRequest(http.MethodPut, "/overrides", strings.NewReader(`{}`)))
	assert.JSONEq(t, `{"status":"overrides replaced","count":0,"reallocated":true}`, rec.Body.String())
	out = decodeAllocations(t, ts.do(t, httptest.NewRequest(http.MethodGet, "/allocations", nil)))
	assert.Equal(t, allocation.NotAllocatedUniversity, out.Rows[0].University)

	rec = ts.do(t, httptest.NewRequest(http.MethodPut, "/overrides", strings.NewReader(`[1,2]`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAllocateFailureKeepsPreviousResult(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(t, uploadRequest(t, "/allocate", "students.csv", studentsCSV)).Code)

	bad := "Student ID,FirstName,Gender,Section\nS9,Zed,M,C\n"
	rec := ts.do(t, uploadRequest(t, "/allocate", "bad.csv", bad))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Allocation failed: Missing required columns: LastName\n", rec.Body.String())

	out := decodeAllocations(t, ts.do(t, httptest.NewRequest(http.MethodGet, "/allocations", nil)))
	assert.Len(t, out.Rows, 2)

	rec = ts.do(t, httptest.NewRequest(http.MethodPost, "/allocate", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsAndLogout(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(t, uploadRequest(t, "/allocate", "students.csv", studentsCSV)).Code)
	require.Equal(t, http.StatusOK, ts.do(t, overrideForm("S1", "Unilag", "Law")).Code)

	rec := ts.do(t, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/events?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var evs []eventlog.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evs))
	require.Len(t, evs, 3)
	assert.Equal(t, eventlog.TypeSessionDiscarded, evs[0].Type)
	assert.Equal(t, eventlog.TypeOverrideApplied, evs[1].Type)
	assert.Equal(t, eventlog.TypeAllocationRun, evs[2].Type)
	assert.Equal(t, auth.DefaultOwner, evs[2].Key)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","session":false,"allocations_loaded":false}`, rec.Body.String())
	files, _ := filepath.Glob(filepath.Join(ts.blobDir, "rosters", auth.DefaultOwner, "*"))
	assert.Empty(t, files)
}

func TestPermissions(t *testing.T) {
	ts := newTestServer(t)
	svc := auth.NewAuthService("test-secret")
	r := chi.NewRouter()
	Mount(r, ts.d, auth.JWTMiddleware(svc), auth.Optional(svc))

	bearer := func(req *http.Request, role string) *http.Request {
		tok, err := svc.IssueJWT("user-"+role, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
		return req
	}
	call := func(req *http.Request) int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(httptest.NewRequest(http.MethodGet, "/allocations", nil)))
	assert.Equal(t, http.StatusForbidden, call(bearer(uploadRequest(t, "/allocate", "s.csv", studentsCSV), auth.RoleViewer)))
	assert.Equal(t, http.StatusOK, call(bearer(uploadRequest(t, "/allocate", "s.csv", studentsCSV), auth.RoleOfficer)))
	assert.Equal(t, http.StatusForbidden, call(bearer(httptest.NewRequest(http.MethodGet, "/events", nil), auth.RoleOfficer)))
	assert.Equal(t, http.StatusOK, call(bearer(httptest.NewRequest(http.MethodGet, "/events", nil), auth.RoleAdmin)))

	// sessions are per subject
	assert.Equal(t, http.StatusNotFound, call(bearer(httptest.NewRequest(http.MethodGet, "/allocations", nil), auth.RoleViewer)))
	assert.Equal(t, http.StatusOK, call(httptest.NewRequest(http.MethodGet, "/health", nil)))
}
