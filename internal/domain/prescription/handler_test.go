package prescription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestEcho(svc *Service) *echo.Echo {
	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func do(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetPrescriptionEndpoint(t *testing.T) {
	svc, repo, _ := newTestService()
	p := seedPrescription(t, repo, "20240301001")
	e := newTestEcho(svc)

	rec := do(e, http.MethodGet, "/api/v1/prescriptions/"+p.ID.Hex())
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Amlodipine") {
		t.Errorf("body missing medication: %s", rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/api/v1/prescriptions/doesnotexist")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: got %d want 404", rec.Code)
	}
}

func TestGenerateAndDownloadEndpoints(t *testing.T) {
	svc, repo, _ := newTestService()
	p := seedPrescription(t, repo, "20240301001")
	e := newTestEcho(svc)

	rec := do(e, http.MethodGet, "/api/v1/prescriptions/"+p.ID.Hex()+"/pdf")
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status: %d body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "PRXN-20240301001-P001-") {
		t.Errorf("generate body: %s", rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/api/v1/prescriptions/"+p.ID.Hex()+"/pdf/download")
	if rec.Code != http.StatusOK {
		t.Fatalf("download status: %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "application/pdf") {
		t.Errorf("content type: %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "attachment") {
		t.Errorf("content disposition: %q", cd)
	}
	if rec.Body.String() != "%PDF-stub" {
		t.Errorf("download body: %q", rec.Body.String())
	}
}

func TestDownloadWithoutDocumentIs404(t *testing.T) {
	svc, repo, _ := newTestService()
	p := seedPrescription(t, repo, "20240301001")
	e := newTestEcho(svc)

	rec := do(e, http.MethodGet, "/api/v1/prescriptions/"+p.ID.Hex()+"/pdf/download")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d want 404", rec.Code)
	}
}

func TestRegenerateEndpoint(t *testing.T) {
	svc, repo, _ := newTestService()
	p := seedPrescription(t, repo, "20240301001")
	e := newTestEcho(svc)

	first, err := svc.GeneratePDF(context.Background(), p.ID.Hex())
	if err != nil {
		t.Fatalf("GeneratePDF: %v", err)
	}

	rec := do(e, http.MethodPost, "/api/v1/prescriptions/"+p.ID.Hex()+"/pdf")
	if rec.Code != http.StatusOK {
		t.Fatalf("regenerate status: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), string(first.Handle)) {
		t.Error("regenerate should return a fresh handle")
	}
}
