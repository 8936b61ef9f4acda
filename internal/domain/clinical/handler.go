package clinical

import (
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
	read := auth.RequirePermission(auth.ViewMedicalRecords)
	create := auth.RequirePermission(auth.CreateMedicalRecords)
	edit := auth.RequirePermission(auth.EditMedicalRecords)
	del := auth.RequirePermission(auth.DeleteMedicalRecords)

	ev := api.Group("/evolution")
	ev.GET("", h.ListEvolutions, read)
	ev.GET("/patient/:patientId", h.ListEvolutionsByPatient, read)
	ev.GET("/:id", h.GetEvolution, read)
	ev.POST("", h.CreateEvolution, create)
	ev.PUT("/:id", h.UpdateEvolution, edit)
	ev.DELETE("/:id", h.DeleteEvolution, del)

	mr := api.Group("/medicalreport")
	mr.GET("/patient/:patientId", h.GetMedicalReportByPatient, read)
	mr.GET("/:id", h.GetMedicalReport, read)
	mr.POST("", h.CreateMedicalReport, create)
	mr.PUT("/:id", h.UpdateMedicalReport, edit)
	mr.DELETE("/:id", h.DeleteMedicalReport, del)
}

func caller(c echo.Context) auth.Identity {
	id, _ := auth.IdentityFromContext(c.Request().Context())
	return id
}

// -- Evolution handlers --

func (h *Handler) CreateEvolution(c echo.Context) error {
	var req EvolutionRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	e, err := h.svc.CreateEvolution(c.Request().Context(), req, caller(c))
	if err != nil {
		return err
	}
	return httpx.Created(c, e, "evolution created successfully")
}

func (h *Handler) GetEvolution(c echo.Context) error {
	e, err := h.svc.GetEvolution(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return httpx.OK(c, e)
}

func (h *Handler) ListEvolutions(c echo.Context) error {
	items, err := h.svc.ListEvolutions(c.Request().Context())
	if err != nil {
		return err
	}
	return httpx.List(c, items, pagination.FromContext(c))
}

func (h *Handler) ListEvolutionsByPatient(c echo.Context) error {
	items, err := h.svc.ListEvolutionsByPatient(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return err
	}
	return httpx.List(c, items, pagination.FromContext(c))
}

func (h *Handler) UpdateEvolution(c echo.Context) error {
	var req EvolutionRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	e, err := h.svc.UpdateEvolution(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return httpx.OKMessage(c, e, "evolution updated successfully")
}

func (h *Handler) DeleteEvolution(c echo.Context) error {
	ok, err := h.svc.DeleteEvolution(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("evolution not found")
	}
	return httpx.Message(c, "evolution deleted successfully")
}

// -- Medical report handlers --

func (h *Handler) CreateMedicalReport(c echo.Context) error {
	var req MedicalReportRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	m, err := h.svc.CreateMedicalReport(c.Request().Context(), req, caller(c))
	if err != nil {
		return err
	}
	return httpx.Created(c, m, "medical report created successfully")
}

func (h *Handler) GetMedicalReport(c echo.Context) error {
	m, err := h.svc.GetMedicalReport(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return httpx.OK(c, m)
}

func (h *Handler) GetMedicalReportByPatient(c echo.Context) error {
	m, err := h.svc.GetMedicalReportByPatient(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return err
	}
	return httpx.OK(c, m)
}

func (h *Handler) UpdateMedicalReport(c echo.Context) error {
	var req MedicalReportRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	m, err := h.svc.UpdateMedicalReport(c.Request().Context(), c.Param("id"), req, caller(c))
	if err != nil {
		return err
	}
	return httpx.OKMessage(c, m, "medical report updated successfully")
}

func (h *Handler) DeleteMedicalReport(c echo.Context) error {
	ok, err := h.svc.DeleteMedicalReport(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("medical report not found")
	}
	return httpx.Message(c, "medical report deleted successfully")
}
