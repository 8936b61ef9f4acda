package reports

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ampara/clinic/internal/platform/apperr"
	"github.com/ampara/clinic/internal/platform/auth"
	"github.com/ampara/clinic/internal/platform/httpx"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports")
	g.POST("/patient", h.PatientReport, auth.RequirePermission(auth.ViewReports))
	g.POST("/consolidated", h.ConsolidatedReport, auth.RequirePermission(auth.ViewReports))
	g.POST("/patient/pdf", h.PatientReportPDF, auth.RequirePermission(auth.ExportData))
}

func (h *Handler) PatientReport(c echo.Context) error {
	var req PatientReportRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	r, err := h.svc.GeneratePatientReport(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return httpx.OKMessage(c, r, "report generated successfully")
}

func (h *Handler) ConsolidatedReport(c echo.Context) error {
	var req ConsolidatedReportRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	r, err := h.svc.GenerateConsolidatedReport(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return httpx.OKMessage(c, r, "report generated successfully")
}

func (h *Handler) PatientReportPDF(c echo.Context) error {
	var req PatientReportRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	b, err := h.svc.ExportPatientReportPDF(c.Request().Context(), req)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="relatorio-%s.pdf"`, req.PatientID))
	return c.Blob(http.StatusOK, "application/pdf", b)
}
