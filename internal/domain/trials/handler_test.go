package trials

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	svc := NewService(NewRepoFile(filepath.Join(t.TempDir(), "trials.json")), zerolog.Nop())
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_TrialLifecycle(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/trials", `{
		"trial_id": "NCT001",
		"title": "Migraine Prophylaxis Study",
		"phase": "Phase 3",
		"condition": "Chronic migraine",
		"enrollment_status": "Recruiting"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/trials/NCT001", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var trial ClinicalTrial
	if err := json.Unmarshal(rec.Body.Bytes(), &trial); err != nil {
		t.Fatal(err)
	}
	if trial.Title != "Migraine Prophylaxis Study" {
		t.Errorf("unexpected trial: %+v", trial)
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/trials", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []ClinicalTrial
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 trial, got %d", len(list))
	}

	rec = doJSON(e, http.MethodDelete, "/api/v1/trials/NCT001", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doJSON(e, http.MethodGet, "/api/v1/trials/NCT001", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestHandler_Upsert_Invalid(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/trials", `{"title": "no id"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_List_EmptyCatalog(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/trials", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty catalog must serialize as [], got %s", rec.Body.String())
	}
}

func TestHandler_Delete_NotFound(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodDelete, "/api/v1/trials/NCT999", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
