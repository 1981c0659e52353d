package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

const basePath = "/api/v1"

// Stroke history sort modes.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortNIHSSHigh = "nihss_high"
)

// RegisterStaff creates a staff account. The role follows from the badge
// prefix server-side.
func (c *Client) RegisterStaff(ctx context.Context, in RegisterStaffInput) (*Staff, error) {
	var out Staff
	if err := c.do(ctx, http.MethodPost, basePath+"/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, employeeID, password string) (*Session, error) {
	in := map[string]string{"employee_id": employeeID, "password": password}
	var out Session
	if err := c.do(ctx, http.MethodPost, basePath+"/auth/login", in, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// ListStaff returns every colleague of the authenticated staff member.
func (c *Client) ListStaff(ctx context.Context) ([]Staff, error) {
	var out []Staff
	if err := c.do(ctx, http.MethodGet, basePath+"/staff", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchPatients queries the local patient store.
func (c *Client) SearchPatients(ctx context.Context, query string, limit, startIndex int) (*PatientList, error) {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if startIndex > 0 {
		params.Set("startIndex", strconv.Itoa(startIndex))
	}
	path := basePath + "/patients"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out PatientList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SyncPatients reconciles against the external registry before listing. A
// failed sync is reported in SyncErrorDetail while the listing succeeds.
func (c *Client) SyncPatients(ctx context.Context, query string) (*PatientList, error) {
	path := basePath + "/patients/sync"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	var out PatientList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPatient returns the raw registry document for one patient.
func (c *Client) GetPatient(ctx context.Context, patientUUID string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, basePath+"/patients/"+url.PathEscape(patientUUID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePatient registers the patient in the external registry first and
// returns the created summary. Its identifier list always carries the
// confirmed identifier: the registry's first, else the submitted one.
func (c *Client) CreatePatient(ctx context.Context, in RegisterPatientInput) (*PatientSummary, error) {
	var out PatientSummary
	if err := c.do(ctx, http.MethodPost, basePath+"/patients", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateLabResult(ctx context.Context, in CreateLabResultInput) (*LabResult, error) {
	var out LabResult
	if err := c.do(ctx, http.MethodPost, basePath+"/lab-results", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LabResultsByPatient(ctx context.Context, patientUUID string) ([]LabResult, error) {
	var out []LabResult
	path := basePath + "/lab-results/by-patient?patient_uuid=" + url.QueryEscape(patientUUID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LabTrend(ctx context.Context, patientUUID string) ([]TrendSeries, error) {
	var out []TrendSeries
	path := basePath + "/lab-results/trend?patient_uuid=" + url.QueryEscape(patientUUID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateStrokeRecord(ctx context.Context, in CreateStrokeRecordInput) (*StrokeRecord, error) {
	var out StrokeRecord
	if err := c.do(ctx, http.MethodPost, basePath+"/stroke-records", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StrokeRecordsByPatient(ctx context.Context, patientUUID, sortMode string) ([]StrokeRecord, error) {
	var out []StrokeRecord
	path := basePath + "/stroke-records/by-patient?patient_uuid=" + url.QueryEscape(patientUUID)
	if sortMode != "" {
		path += "&sort=" + url.QueryEscape(sortMode)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateComplicationRecord(ctx context.Context, in CreateComplicationRecordInput) (*ComplicationRecord, error) {
	var out ComplicationRecord
	if err := c.do(ctx, http.MethodPost, basePath+"/complication-records", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ComplicationRecordsByPatient(ctx context.Context, patientUUID, sortMode string) ([]ComplicationRecord, error) {
	var out []ComplicationRecord
	path := basePath + "/complication-records/by-patient?patient_uuid=" + url.QueryEscape(patientUUID)
	if sortMode != "" {
		path += "&sort=" + url.QueryEscape(sortMode)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChatThread returns the full conversation with the peer, oldest first.
// Opening the thread marks the peer's messages as read server-side.
func (c *Client) ChatThread(ctx context.Context, peerUUID string) ([]ChatMessage, error) {
	var out []ChatMessage
	if err := c.do(ctx, http.MethodGet, basePath+"/chat/messages/"+url.PathEscape(peerUUID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendChatMessage(ctx context.Context, receiverUUID, content string) (*ChatMessage, error) {
	in := map[string]string{"receiver_uuid": receiverUUID, "content": content}
	var out ChatMessage
	if err := c.do(ctx, http.MethodPost, basePath+"/chat/messages", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListStudies returns the patient's imaging studies, newest study date first.
func (c *Client) ListStudies(ctx context.Context, patientUUID string) ([]Study, error) {
	var out []Study
	if err := c.do(ctx, http.MethodGet, basePath+"/pacs/studies/"+url.PathEscape(patientUUID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadStudy uploads a single DICOM instance for the patient.
func (c *Client) UploadStudy(ctx context.Context, patientUUID, filename string, data []byte) (*UploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, &RequestError{Kind: KindUnexpected, Message: err.Error()}
	}
	if _, err := part.Write(data); err != nil {
		return nil, &RequestError{Kind: KindUnexpected, Message: err.Error()}
	}
	if err := writer.Close(); err != nil {
		return nil, &RequestError{Kind: KindUnexpected, Message: err.Error()}
	}

	path := basePath + "/pacs/upload/" + url.PathEscape(patientUUID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, &RequestError{Kind: KindTransport, Message: err.Error()}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Kind: KindTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &RequestError{Kind: KindTransport, Message: err.Error()}
	}
	if resp.StatusCode >= 400 {
		var se serverError
		if err := json.Unmarshal(body, &se); err == nil && len(se.Message) > 0 {
			var msg string
			if err := json.Unmarshal(se.Message, &msg); err != nil {
				msg = string(se.Message)
			}
			return nil, &RequestError{Kind: KindServer, StatusCode: resp.StatusCode, Message: msg}
		}
		return nil, &RequestError{Kind: KindUnexpected, StatusCode: resp.StatusCode}
	}

	var out UploadResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &RequestError{Kind: KindUnexpected, StatusCode: resp.StatusCode}
	}
	return &out, nil
}

// PredictMortality submits a mortality assessment. The payload is the full
// vitals/labs panel; the server answers 202 with the queued task.
func (c *Client) PredictMortality(ctx context.Context, in map[string]interface{}) (*PredictionTask, error) {
	var out PredictionTask
	if err := c.do(ctx, http.MethodPost, basePath+"/predict/mortality", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PredictSOD2(ctx context.Context, in map[string]interface{}) (*PredictionTask, error) {
	var out PredictionTask
	if err := c.do(ctx, http.MethodPost, basePath+"/predict/sod2", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PredictComplications(ctx context.Context, in map[string]interface{}) (*PredictionTask, error) {
	var out PredictionTask
	if err := c.do(ctx, http.MethodPost, basePath+"/predict/complications", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPredictionTask(ctx context.Context, taskID string) (*PredictionTask, error) {
	var out PredictionTask
	if err := c.do(ctx, http.MethodGet, basePath+"/predict/tasks/"+url.PathEscape(taskID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PredictionTasksByPatient(ctx context.Context, patientUUID string) ([]PredictionTask, error) {
	var out []PredictionTask
	path := basePath + "/predict/tasks/by-patient?patient_uuid=" + url.QueryEscape(patientUUID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
