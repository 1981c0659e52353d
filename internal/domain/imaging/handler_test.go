package imaging

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medcdss/cdss/internal/platform/orthanc"
)

func newTestServer(t *testing.T) (*echo.Echo, *mockPACS, uuid.UUID) {
	t.Helper()
	svc, pacs, patientID := newTestService()
	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group("/api"))
	return e, pacs, patientID
}

func TestHandler_ListStudies(t *testing.T) {
	e, pacs, patientID := newTestServer(t)
	pacs.studies = []orthanc.Study{
		{StudyInstanceUID: "1.2.3", StudyDate: "20240105", Series: []orthanc.Series{{Description: "AX T2", InstanceCount: 24}}},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/pacs/studies/"+patientID.String(), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var studies []orthanc.Study
	if err := json.Unmarshal(rec.Body.Bytes(), &studies); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(studies) != 1 || studies[0].Series[0].InstanceCount != 24 {
		t.Errorf("unexpected studies: %+v", studies)
	}
}

func TestHandler_ListStudiesUnknownPatient(t *testing.T) {
	e, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/pacs/studies/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_Upload(t *testing.T) {
	e, pacs, patientID := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "ct-head.dcm")
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	if _, err := part.Write([]byte("raw-instance")); err != nil {
		t.Fatalf("form write: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/pacs/upload/"+patientID.String(), &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if pacs.filename != "ct-head.dcm" {
		t.Errorf("filename not forwarded, got %q", pacs.filename)
	}
}

func TestHandler_UploadMissingFile(t *testing.T) {
	e, _, patientID := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/pacs/upload/"+patientID.String(), &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
