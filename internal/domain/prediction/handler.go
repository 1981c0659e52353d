package prediction

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/predict/mortality", h.PredictMortality)
	api.POST("/predict/sod2", h.PredictSOD2)
	api.POST("/predict/complications", h.PredictComplications)
	api.GET("/predict/tasks/by-patient", h.TasksForPatient)
	api.GET("/predict/tasks/:task_id", h.GetTask)
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrTaskNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrQueueFull):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) PredictMortality(c echo.Context) error {
	var in MortalityInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	task, err := h.svc.PredictMortality(c.Request().Context(), in)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusAccepted, task)
}

func (h *Handler) PredictSOD2(c echo.Context) error {
	var in SOD2Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	task, err := h.svc.PredictSOD2(c.Request().Context(), in)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusAccepted, task)
}

func (h *Handler) PredictComplications(c echo.Context) error {
	var in ComplicationInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	task, err := h.svc.PredictComplications(c.Request().Context(), in)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusAccepted, task)
}

func (h *Handler) GetTask(c echo.Context) error {
	task, err := h.svc.GetTask(c.Request().Context(), c.Param("task_id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) TasksForPatient(c echo.Context) error {
	patientUUID := c.QueryParam("patient_uuid")
	if patientUUID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_uuid query parameter is required")
	}
	tasks, err := h.svc.TasksForPatient(c.Request().Context(), patientUUID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, tasks)
}
