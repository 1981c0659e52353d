package complications

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
	api.POST("/complication-records", h.CreateRecord, auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	api.GET("/complication-records/by-patient", h.History)
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

func (h *Handler) CreateRecord(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) History(c echo.Context) error {
	patientUUID := c.QueryParam("patient_uuid")
	if patientUUID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_uuid query parameter is required")
	}
	records, err := h.svc.History(c.Request().Context(), patientUUID, c.QueryParam("sort"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, records)
}
