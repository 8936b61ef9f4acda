package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ampara/clinic/internal/platform/apperr"
	"github.com/ampara/clinic/internal/platform/auth"
	"github.com/ampara/clinic/internal/platform/httpx"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	e.HTTPErrorHandler = httpx.ErrorHandler(zerolog.Nop())
	h.RegisterRoutes(e.Group("/api"))
	return h, e
}

func do(e *echo.Echo, method, path, body, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if role != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "u-" + role, Role: role}))
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const firstBooking = `{"patientId":"p1","professionalId":"prof-1","date":"2024-01-10T00:00:00Z","startTime":"09:00","endTime":"10:00"}`

func TestHandler_Create(t *testing.T) {
	_, e := newTestHandler()

	rec := do(e, http.MethodPost, "/api/appointment", firstBooking, "Secretary")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Success bool        `json:"success"`
		Data    Appointment `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &env)
	if !env.Success || env.Data.Status != StatusScheduled || env.Data.CreatedBy != "u-Secretary" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	clash := `{"patientId":"p2","professionalId":"prof-1","date":"2024-01-10T00:00:00Z","startTime":"09:30","endTime":"10:30"}`
	rec = do(e, http.MethodPost, "/api/appointment", clash, "Secretary")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "professional is not available at this time") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_CheckAvailability(t *testing.T) {
	_, e := newTestHandler()
	do(e, http.MethodPost, "/api/appointment", firstBooking, "Secretary")

	tests := []struct {
		query     string
		code      int
		available bool
	}{
		{"professionalId=prof-1&date=2024-01-10&startTime=09:30&endTime=10:30", http.StatusOK, false},
		{"professionalId=prof-1&date=2024-01-10&startTime=10:00&endTime=11:00", http.StatusOK, true},
		{"professionalId=prof-1&date=2024-01-10T00:00:00Z&startTime=09:00&endTime=10:00", http.StatusOK, false},
		{"professionalId=prof-1&date=2024-01-10&startTime=09:00&endTime=08:00", http.StatusBadRequest, false},
		{"professionalId=prof-1&date=10/01/2024&startTime=09:00&endTime=10:00", http.StatusBadRequest, false},
		{"date=2024-01-10&startTime=09:00&endTime=10:00", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(e, http.MethodGet, "/api/appointment/check-availability?"+tt.query, "", "Nutritionist")
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			var got availabilityResponse
			json.Unmarshal(rec.Body.Bytes(), &got)
			if !got.Success || got.Available != tt.available {
				t.Errorf("unexpected body %s", rec.Body.String())
			}
		})
	}
}

func TestHandler_Cancel(t *testing.T) {
	h, e := newTestHandler()
	do(e, http.MethodPost, "/api/appointment", firstBooking, "Secretary")

	if rec := do(e, http.MethodPost, "/api/appointment/appt-1/cancel", `{}`, "Secretary"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without reason, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/appointment/appt-1/cancel", `{"cancellationReason":"chuva"}`, "Nutritionist"); rec.Code != http.StatusForbidden {
		t.Errorf("health professionals cannot cancel, got %d", rec.Code)
	}
	rec := do(e, http.MethodPost, "/api/appointment/appt-1/cancel", `{"cancellationReason":"chuva"}`, "Secretary")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	a, _ := h.svc.Get(context.Background(), "appt-1")
	if a.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %q", a.Status)
	}
}

func TestHandler_Update_BadBody(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"startTime":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("appt-1")

	if err := h.Update(c); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandler_Routes_Permissions(t *testing.T) {
	_, e := newTestHandler()
	do(e, http.MethodPost, "/api/appointment", firstBooking, "Secretary")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		role   string
		want   int
	}{
		{"anonymous", http.MethodGet, "/api/appointment", "", "", http.StatusUnauthorized},
		{"list", http.MethodGet, "/api/appointment", "", "Psychologist", http.StatusOK},
		{"get", http.MethodGet, "/api/appointment/appt-1", "", "Secretary", http.StatusOK},
		{"get missing", http.MethodGet, "/api/appointment/ghost", "", "Secretary", http.StatusNotFound},
		{"by patient", http.MethodGet, "/api/appointment/patient/p1", "", "SocialWorker", http.StatusOK},
		{"by professional", http.MethodGet, "/api/appointment/professional/prof-1", "", "SocialWorker", http.StatusOK},
		{"query", http.MethodPost, "/api/appointment/query", `{"status":"Agendado"}`, "Physiotherapist", http.StatusOK},
		{"update", http.MethodPut, "/api/appointment/appt-1", `{"notes":"ok"}`, "Physiotherapist", http.StatusOK},
		{"social worker delete", http.MethodDelete, "/api/appointment/appt-1", "", "SocialWorker", http.StatusForbidden},
		{"delete", http.MethodDelete, "/api/appointment/appt-1", "", "Secretary", http.StatusOK},
		{"delete again", http.MethodDelete, "/api/appointment/appt-1", "", "Administrator", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, tt.method, tt.path, tt.body, tt.role)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}
