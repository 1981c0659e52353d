package imaging

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medcdss/cdss/internal/platform/orthanc"
)

// maxUploadBytes bounds a single DICOM instance upload.
const maxUploadBytes = 64 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/pacs/studies/:patient_uuid", h.ListStudies)
	api.POST("/pacs/upload/:patient_uuid", h.Upload)
}

func mapServiceError(err error) error {
	var statusErr *orthanc.StatusError
	switch {
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &statusErr):
		return echo.NewHTTPError(statusErr.StatusCode, statusErr.Body)
	default:
		return echo.NewHTTPError(http.StatusServiceUnavailable, "imaging server unavailable: "+err.Error())
	}
}

func (h *Handler) ListStudies(c echo.Context) error {
	studies, err := h.svc.Studies(c.Request().Context(), c.Param("patient_uuid"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, studies)
}

func (h *Handler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "dicom file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.Upload(c.Request().Context(), c.Param("patient_uuid"), fileHeader.Filename, data)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, result)
}
