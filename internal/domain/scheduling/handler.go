package scheduling

import (
	"net/http"
	"strings"
	"time"

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
	g := api.Group("/appointment")

	read := auth.RequirePermission(auth.ViewAppointments)
	g.GET("", h.List, read)
	g.GET("/check-availability", h.CheckAvailability, read)
	g.GET("/patient/:patientId", h.ListByPatient, read)
	g.GET("/professional/:professionalId", h.ListByProfessional, read)
	g.GET("/:id", h.Get, read)
	g.POST("/query", h.Query, read)

	g.POST("", h.Create, auth.RequirePermission(auth.CreateAppointments))
	g.PUT("/:id", h.Update, auth.RequirePermission(auth.EditAppointments))
	g.POST("/:id/cancel", h.Cancel, auth.RequirePermission(auth.DeleteAppointments))
	g.DELETE("/:id", h.Delete, auth.RequirePermission(auth.DeleteAppointments))
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	a, err := h.svc.Create(ctx, req, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return httpx.Created(c, a, "appointment created successfully")
}

func (h *Handler) Get(c echo.Context) error {
	a, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return httpx.OK(c, a)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return httpx.List(c, items, pagination.FromContext(c))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	items, err := h.svc.ListByPatient(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return err
	}
	return httpx.List(c, items, pagination.FromContext(c))
}

func (h *Handler) ListByProfessional(c echo.Context) error {
	items, err := h.svc.ListByProfessional(c.Request().Context(), c.Param("professionalId"))
	if err != nil {
		return err
	}
	return httpx.List(c, items, pagination.FromContext(c))
}

func (h *Handler) Query(c echo.Context) error {
	var q Query
	if err := c.Bind(&q); err != nil {
		return apperr.Validation("invalid request body")
	}
	items, err := h.svc.Query(c.Request().Context(), q)
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
	ctx := c.Request().Context()
	a, err := h.svc.Update(ctx, id, req, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return httpx.OKMessage(c, a, "appointment updated successfully")
}

func (h *Handler) Cancel(c echo.Context) error {
	var req CancelRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	a, err := h.svc.Cancel(ctx, c.Param("id"), req.CancellationReason, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return httpx.OKMessage(c, a, "appointment cancelled successfully")
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return httpx.Message(c, "appointment deleted successfully")
}

type availabilityResponse struct {
	Success   bool `json:"success"`
	Available bool `json:"available"`
}

// CheckAvailability answers GET ?professionalId=&date=&startTime=&endTime=&excludeId=.
// date accepts YYYY-MM-DD or RFC3339.
func (h *Handler) CheckAvailability(c echo.Context) error {
	professionalID := c.QueryParam("professionalId")
	if professionalID == "" {
		return apperr.Validation("professionalId is required")
	}
	date, err := parseDay(c.QueryParam("date"))
	if err != nil {
		return err
	}
	ok, err := h.svc.CheckAvailability(c.Request().Context(), professionalID, date,
		c.QueryParam("startTime"), c.QueryParam("endTime"), c.QueryParam("excludeId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, availabilityResponse{Success: true, Available: ok})
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, apperr.Validation("date is required")
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperr.Validation("date must be YYYY-MM-DD or RFC3339")
	}
	return t, nil
}
