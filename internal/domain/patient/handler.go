package patient

import (
	"net/url"
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
	g := api.Group("/patient")

	read := auth.RequirePermission(auth.ViewPatients)
	g.GET("", h.List, read)
	g.GET("/active", h.ListActive, read)
	g.GET("/status/:status", h.ListByStatus, read)
	g.GET("/:id", h.Get, read)

	g.POST("", h.Create, auth.RequirePermission(auth.CreatePatients))
	g.PUT("/:id", h.Update, auth.RequirePermission(auth.EditPatients))
	g.DELETE("/:id", h.Delete, auth.RequirePermission(auth.DeletePatients))
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	p, err := h.svc.Create(ctx, req, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return httpx.Created(c, p, "patient created successfully")
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return httpx.OK(c, p)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return httpx.List(c, items, pagination.FromContext(c))
}

func (h *Handler) ListActive(c echo.Context) error {
	items, err := h.svc.ListActive(c.Request().Context())
	if err != nil {
		return err
	}
	return httpx.List(c, items, pagination.FromContext(c))
}

func (h *Handler) ListByStatus(c echo.Context) error {
	status, err := url.PathUnescape(c.Param("status"))
	if err != nil {
		return apperr.Validation("invalid status")
	}
	items, err := h.svc.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return err
	}
	return httpx.List(c, items, pagination.FromContext(c))
}

func (h *Handler) Update(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return apperr.Validation("id is required")
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	p, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return httpx.OKMessage(c, p, "patient updated successfully")
}

func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.svc.Delete(ctx, c.Param("id"), auth.UserIDFromContext(ctx)); err != nil {
		return err
	}
	return httpx.Message(c, "patient deleted successfully")
}
