package prescription

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/careward/careward/internal/platform/docgen"
	"github.com/careward/careward/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/prescriptions", h.List)
	api.GET("/prescriptions/:id", h.Get)
	api.GET("/patients/:patientId/prescriptions", h.ListByPatient)

	api.GET("/prescriptions/:id/pdf", h.GeneratePDF)
	api.POST("/prescriptions/:id/pdf", h.RegeneratePDF)
	api.GET("/prescriptions/:id/pdf/download", h.FetchPDF)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{
		Status:               c.QueryParam("status"),
		AdministrationStatus: c.QueryParam("administrationStatus"),
	}

	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), c.Param("patientId"), pg.Limit, pg.Offset)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GeneratePDF(c echo.Context) error {
	loc, err := h.svc.GeneratePDF(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, loc)
}

func (h *Handler) RegeneratePDF(c echo.Context) error {
	loc, err := h.svc.RegeneratePDF(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, loc)
}

func (h *Handler) FetchPDF(c echo.Context) error {
	loc, rc, err := h.svc.FetchPDF(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainError(err)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", loc.FileName))
	return c.Stream(http.StatusOK, "application/pdf", rc)
}

func domainError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, docgen.ErrDocumentMissing):
		return echo.NewHTTPError(http.StatusNotFound, "rendered document is no longer available")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
