package labresult

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medcdss/cdss/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/lab-results", h.CreateLabResult, auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	api.GET("/lab-results/by-patient", h.ListByPatient)
	api.GET("/lab-results/trend", h.Trend)
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) CreateLabResult(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientUUID := c.QueryParam("patient_uuid")
	if patientUUID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_uuid query parameter is required")
	}
	results, err := h.svc.ListByPatient(c.Request().Context(), patientUUID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, results)
}

func (h *Handler) Trend(c echo.Context) error {
	patientUUID := c.QueryParam("patient_uuid")
	if patientUUID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_uuid query parameter is required")
	}
	series, err := h.svc.Trend(c.Request().Context(), patientUUID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, series)
}
