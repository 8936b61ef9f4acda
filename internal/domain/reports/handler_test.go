package reports

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ampara/clinic/internal/domain/patient"
	"github.com/ampara/clinic/internal/platform/auth"
	"github.com/ampara/clinic/internal/platform/httpx"
)

func newRouter(t *testing.T) (*fixture, *echo.Echo, string) {
	f := newFixture()
	p := f.addPatient(t, &patient.Patient{Name: "Maria", CPF: "1", BirthDate: date(1, 1)})
	e := echo.New()
	e.HTTPErrorHandler = httpx.ErrorHandler(zerolog.Nop())
	NewHandler(f.svc).RegisterRoutes(e.Group("/api"))
	return f, e, p.ID
}

func post(e *echo.Echo, path, body, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if role != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "u1", Role: role}))
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_PatientReport(t *testing.T) {
	_, e, id := newRouter(t)

	rec := post(e, "/api/reports/patient", `{"patientId":"`+id+`"}`, "Nutritionist")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"Maria"`)

	assert.Equal(t, http.StatusForbidden, post(e, "/api/reports/patient", `{"patientId":"`+id+`"}`, "Secretary").Code)
	assert.Equal(t, http.StatusNotFound, post(e, "/api/reports/patient", `{"patientId":"ghost"}`, "Nutritionist").Code)
	assert.Equal(t, http.StatusUnauthorized, post(e, "/api/reports/patient", `{}`, "").Code)
}

func TestHandler_ConsolidatedReport(t *testing.T) {
	_, e, _ := newRouter(t)

	rec := post(e, "/api/reports/consolidated", `{"startDate":"2024-01-01T00:00:00Z","endDate":"2024-12-31T00:00:00Z"}`, "SocialWorker")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"totalPatients":1`)

	assert.Equal(t, http.StatusBadRequest, post(e, "/api/reports/consolidated", `{"startDate":"2024-01-01T00:00:00Z"}`, "SocialWorker").Code)
}

func TestHandler_PatientReportPDF(t *testing.T) {
	_, e, id := newRouter(t)

	assert.Equal(t, http.StatusForbidden, post(e, "/api/reports/patient/pdf", `{"patientId":"`+id+`"}`, "Nutritionist").Code,
		"ExportData is required")

	rec := post(e, "/api/reports/patient/pdf", `{"patientId":"`+id+`"}`, "SocialWorker")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "relatorio-"+id+".pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}
