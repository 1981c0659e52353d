package prediction

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestServer(t *testing.T) (*echo.Echo, *mockRepo, *Pool, uuid.UUID) {
	t.Helper()
	svc, repo, pool, patientID := newTestService(1, 8)
	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group("/api"))
	return e, repo, pool, patientID
}

func postJSON(e *echo.Echo, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_PredictSOD2Accepted(t *testing.T) {
	e, _, pool, patientID := newTestServer(t)
	defer pool.Close()

	rec := postJSON(e, "/api/predict/sod2", `{"patient_uuid":"`+patientID.String()+`"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var task Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.TaskID == uuid.Nil || task.Type != TypeSOD2Assessment {
		t.Errorf("unexpected task: %+v", task)
	}
}

func TestHandler_PredictUnknownPatient(t *testing.T) {
	e, _, pool, _ := newTestServer(t)
	defer pool.Close()

	rec := postJSON(e, "/api/predict/mortality", `{"patient_uuid":"`+uuid.NewString()+`"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_GetTask(t *testing.T) {
	e, _, pool, patientID := newTestServer(t)

	rec := postJSON(e, "/api/predict/complications", `{"patient_uuid":"`+patientID.String()+`"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var accepted Task
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	pool.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/predict/tasks/"+accepted.TaskID.String(), nil)
	getRec := httptest.NewRecorder()
	e.ServeHTTP(getRec, req)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", getRec.Code)
	}

	var task Task
	if err := json.Unmarshal(getRec.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.Status != StatusFailed || task.ErrorMessage != "model not available" {
		t.Errorf("unexpected task state: %+v", task)
	}
}

func TestHandler_GetTaskNotFound(t *testing.T) {
	e, _, pool, _ := newTestServer(t)
	defer pool.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/predict/tasks/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_TasksForPatientRequiresQuery(t *testing.T) {
	e, _, pool, _ := newTestServer(t)
	defer pool.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/predict/tasks/by-patient", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
