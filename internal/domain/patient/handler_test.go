package patient

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

func TestRegisterEndpoint(t *testing.T) {
	svc, _, _ := newTestService()
	e := newTestEcho(svc)

	body := `{"name":"J. Doe","age":42,"gender":"Female","contact":"555-0100"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"patientId"`) {
		t.Errorf("response missing patientId: %s", rec.Body.String())
	}

	// Invalid payload is rejected.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(`{"age":42}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid payload: got %d want 400", rec.Code)
	}
}

func TestGetEndpointHidesBlobHandles(t *testing.T) {
	svc, _, _ := newTestService()
	p := registerPatient(t, svc)
	if _, err := svc.UploadDocuments(context.Background(), p.PatientID, []Upload{
		{Name: "note.txt", ContentType: "text/plain", Content: strings.NewReader("x")},
	}, "N0001"); err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}
	e := newTestEcho(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+p.PatientID, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"handle"`) || strings.Contains(rec.Body.String(), "Handle") {
		t.Errorf("blob handle leaked in response: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/patients/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown patient: got %d want 404", rec.Code)
	}
}
