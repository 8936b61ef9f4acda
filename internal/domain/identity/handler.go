package identity

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ampara/clinic/internal/platform/apperr"
	"github.com/ampara/clinic/internal/platform/auth"
	"github.com/ampara/clinic/internal/platform/httpx"
	"github.com/ampara/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	a := api.Group("/auth")
	a.POST("/register", h.Register)
	a.POST("/login", h.Login)
	a.POST("/verify-token", h.VerifyToken)
	a.GET("/health", h.Health)
	a.GET("/me", h.Me, auth.RequireAuthenticated())

	u := api.Group("/user")
	u.GET("", h.ListUsers, auth.RequirePermission(auth.ViewUsers))
	u.GET("/roles", h.ListRoles, auth.RequirePermission(auth.ManageRoles))
	u.GET("/:id", h.GetUser, auth.RequirePermission(auth.ViewUsers))
	u.POST("", h.CreateUser, auth.RequirePermission(auth.CreateUsers))
	u.PUT("/:id", h.UpdateUser, auth.RequirePermission(auth.EditUsers))
	u.DELETE("/:id", h.DeleteUser, auth.RequirePermission(auth.DeleteUsers))
	u.PUT("/:id/change-password", h.ChangePassword, auth.RequireAuthenticated())
}

// -- Auth --

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	resp, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return httpx.Created(c, resp, "user registered successfully")
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	resp, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return httpx.OKMessage(c, resp, "login successful")
}

// VerifyToken accepts the token in the body or, failing that, in the
// Authorization header.
func (h *Handler) VerifyToken(c echo.Context) error {
	var req VerifyTokenRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	token := req.Token
	if token == "" {
		token = c.Request().Header.Get(echo.HeaderAuthorization)
	}
	info, err := h.svc.VerifyToken(token)
	if err != nil {
		return err
	}
	return httpx.OKMessage(c, info, "token is valid")
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"status":  "healthy",
		"service": "auth",
	})
}

func (h *Handler) Me(c echo.Context) error {
	me, err := h.svc.Me(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return err
	}
	return httpx.OK(c, me)
}

// -- Users --

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return httpx.List(c, users, pagination.FromContext(c))
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	u, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httpx.OK(c, u)
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	u, err := h.svc.CreateUser(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return httpx.Created(c, u, "user created successfully")
}

func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	u, err := h.svc.UpdateUser(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return httpx.OKMessage(c, u, "user updated successfully")
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return httpx.Message(c, "user deleted successfully")
}

func (h *Handler) ChangePassword(c echo.Context) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	caller, _ := auth.IdentityFromContext(c.Request().Context())
	if err := h.svc.ChangePassword(c.Request().Context(), caller, id, req); err != nil {
		return err
	}
	return httpx.Message(c, "password changed successfully")
}

func (h *Handler) ListRoles(c echo.Context) error {
	return httpx.OK(c, h.svc.Roles())
}

func requireID(c echo.Context) (string, error) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return "", apperr.Validation("id is required")
	}
	return id, nil
}
