package identity

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
	return h, e
}

// newTestRouter wires the handler behind the real authentication and error
// handling so permission checks can be observed end to end.
func newTestRouter(t *testing.T) (*Handler, *echo.Echo) {
	t.Helper()
	h, e := newTestHandler()
	e.HTTPErrorHandler = httpx.ErrorHandler(zerolog.Nop())
	e.Use(auth.Authenticate(h.svc.tokens, auth.AuthSkipper))
	h.RegisterRoutes(e.Group("/api"))
	return h, e
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func tokenFor(t *testing.T, h *Handler, email string) string {
	t.Helper()
	resp, err := h.svc.Login(context.Background(), LoginRequest{Email: email, Password: "secret123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return resp.Token
}

func TestHandler_Register(t *testing.T) {
	h, e := newTestHandler()

	req := jsonRequest(http.MethodPost, "/api/auth/register", `{"name":"Rita","email":"rita@clinic.org","password":"secret123"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "passwordHash") {
		t.Error("response must not expose the password hash")
	}

	var env struct {
		Success bool         `json:"success"`
		Data    AuthResponse `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &env)
	if !env.Success || env.Data.Token == "" || env.Data.User.Email != "rita@clinic.org" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_Register_BadJSON(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"name":`), httptest.NewRecorder())

	if err := h.Register(c); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandler_Login_Unauthorized(t *testing.T) {
	h, e := newTestRouter(t)
	mustCreate(t, h.svc, "Ana", "ana@clinic.org", "Nutritionist")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"ana@clinic.org","password":"bad-password"}`))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var p httpx.Problem
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Success || p.Status != 401 || p.Instance != "/api/auth/login" {
		t.Errorf("unexpected problem %+v", p)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != httpx.MIMEProblemJSON {
		t.Errorf("expected problem content type, got %q", ct)
	}
}

func TestHandler_VerifyToken_FromHeader(t *testing.T) {
	h, e := newTestRouter(t)
	mustCreate(t, h.svc, "Ana", "ana@clinic.org", "Nutritionist")
	token := tokenFor(t, h, "ana@clinic.org")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-token", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"valid":true`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_Me(t *testing.T) {
	h, e := newTestRouter(t)
	mustCreate(t, h.svc, "Ana", "ana@clinic.org", "Nutritionist")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tokenFor(t, h, "ana@clinic.org"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"roleLabel":"Nutricionista"`) {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}

func TestHandler_UserRoutes_Permissions(t *testing.T) {
	h, e := newTestRouter(t)
	mustCreate(t, h.svc, "Root", "root@clinic.org", "Administrator")
	mustCreate(t, h.svc, "Sec", "sec@clinic.org", "Secretary")
	admin := tokenFor(t, h, "root@clinic.org")
	sec := tokenFor(t, h, "sec@clinic.org")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		want   int
	}{
		{"list no token", http.MethodGet, "/api/user", "", "", http.StatusUnauthorized},
		{"list secretary", http.MethodGet, "/api/user", "", sec, http.StatusForbidden},
		{"list admin", http.MethodGet, "/api/user", "", admin, http.StatusOK},
		{"roles admin", http.MethodGet, "/api/user/roles", "", admin, http.StatusOK},
		{"roles secretary", http.MethodGet, "/api/user/roles", "", sec, http.StatusForbidden},
		{"create admin", http.MethodPost, "/api/user", `{"name":"New","email":"new@clinic.org","password":"secret123","role":"Psychologist"}`, admin, http.StatusCreated},
		{"create duplicate", http.MethodPost, "/api/user", `{"name":"New","email":"NEW@clinic.org","password":"secret123","role":"Psychologist"}`, admin, http.StatusConflict},
		{"create bad role", http.MethodPost, "/api/user", `{"name":"X","email":"x@clinic.org","password":"secret123","role":"Boss"}`, admin, http.StatusBadRequest},
		{"get missing", http.MethodGet, "/api/user/ghost", "", admin, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/user/ghost", "", admin, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(tt.method, tt.path, tt.body)
			if tt.token != "" {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandler_ListUsers_Paginated(t *testing.T) {
	h, e := newTestHandler()
	mustCreate(t, h.svc, "A", "a@clinic.org", "Secretary")
	mustCreate(t, h.svc, "B", "b@clinic.org", "Secretary")
	mustCreate(t, h.svc, "C", "c@clinic.org", "Secretary")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/user?limit=2&offset=2", nil), rec)
	if err := h.ListUsers(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var env struct {
		Data   []UserResponse `json:"data"`
		Total  int            `json:"total"`
		Limit  int            `json:"limit"`
		Offset int            `json:"offset"`
	}
	json.Unmarshal(rec.Body.Bytes(), &env)
	if env.Total != 3 || len(env.Data) != 1 || env.Limit != 2 || env.Offset != 2 {
		t.Errorf("unexpected page %+v", env)
	}
}

func TestHandler_ChangePassword_OtherUserForbidden(t *testing.T) {
	h, e := newTestRouter(t)
	mustCreate(t, h.svc, "Ana", "ana@clinic.org", "Nutritionist")
	bia := mustCreate(t, h.svc, "Bia", "bia@clinic.org", "Secretary")

	req := jsonRequest(http.MethodPut, "/api/user/"+bia.ID+"/change-password", `{"currentPassword":"secret123","newPassword":"newsecret"}`)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tokenFor(t, h, "ana@clinic.org"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestHandler_UpdateUser(t *testing.T) {
	h, e := newTestHandler()
	u := mustCreate(t, h.svc, "Ana", "ana@clinic.org", "Nutritionist")

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/", `{"active":false}`), rec)
	c.SetParamNames("id")
	c.SetParamValues(u.ID)

	if err := h.UpdateUser(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"active":false`) || !strings.Contains(rec.Body.String(), `"name":"Ana"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
