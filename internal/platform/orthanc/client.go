// Package orthanc is a thin bridge to an Orthanc PACS server. Studies are
// read over QIDO-RS and instances are pushed through Orthanc's native REST
// API. Nothing imaging-related is persisted locally: the PACS is the only
// store and this package's responsibility ends at the StudyInstanceUID.
package orthanc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// QIDO attribute tags used by the study listing.
const (
	tagStudyInstanceUID  = "0020000D"
	tagStudyDate         = "00080020"
	tagStudyDescription  = "00081030"
	tagSeriesDescription = "0008103E"
	tagInstanceCount     = "00201209"
)

// Series is one series within a study.
type Series struct {
	Description   string `json:"description"`
	InstanceCount int    `json:"instance_count"`
}

// Study is the flattened QIDO study record.
type Study struct {
	StudyInstanceUID string   `json:"study_instance_uid"`
	StudyDate        string   `json:"study_date"`
	StudyDescription string   `json:"study_description"`
	Series           []Series `json:"series"`
}

// UploadResult is Orthanc's answer to an instance upload.
type UploadResult struct {
	ID           string `json:"ID"`
	ParentStudy  string `json:"ParentStudy"`
	ParentSeries string `json:"ParentSeries"`
	Status       string `json:"Status"`
}

// StatusError reports a non-2xx PACS response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pacs returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to one Orthanc server. Credentials are optional: Orthanc
// deployments inside the hospital network often run without auth.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

func NewClient(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pacs request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read pacs response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := string(body)
		if len(detail) > 1000 {
			detail = detail[:1000]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: detail}
	}
	return body, nil
}

// qidoAttr is one attribute in a QIDO-RS JSON record.
type qidoAttr struct {
	VR    string        `json:"vr"`
	Value []interface{} `json:"Value"`
}

type qidoRecord map[string]qidoAttr

func (r qidoRecord) str(tag string) string {
	attr, ok := r[tag]
	if !ok || len(attr.Value) == 0 {
		return ""
	}
	switch v := attr.Value[0].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func (r qidoRecord) count(tag string) int {
	attr, ok := r[tag]
	if !ok || len(attr.Value) == 0 {
		return 0
	}
	switch v := attr.Value[0].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// ListStudies returns every study whose PatientID matches patientID, each with
// its series. The order is whatever the PACS returns; callers sort.
func (c *Client) ListStudies(ctx context.Context, patientID string) ([]Study, error) {
	records, err := c.qido(ctx, "/dicom-web/studies?PatientID="+url.QueryEscape(patientID))
	if err != nil {
		return nil, err
	}

	studies := make([]Study, 0, len(records))
	for _, rec := range records {
		study := Study{
			StudyInstanceUID: rec.str(tagStudyInstanceUID),
			StudyDate:        rec.str(tagStudyDate),
			StudyDescription: rec.str(tagStudyDescription),
		}
		if study.StudyInstanceUID == "" {
			continue
		}
		study.Series, err = c.listSeries(ctx, study.StudyInstanceUID)
		if err != nil {
			return nil, err
		}
		studies = append(studies, study)
	}
	return studies, nil
}

func (c *Client) listSeries(ctx context.Context, studyUID string) ([]Series, error) {
	records, err := c.qido(ctx, "/dicom-web/studies/"+url.PathEscape(studyUID)+"/series")
	if err != nil {
		return nil, err
	}

	series := make([]Series, 0, len(records))
	for _, rec := range records {
		series = append(series, Series{
			Description:   rec.str(tagSeriesDescription),
			InstanceCount: rec.count(tagInstanceCount),
		})
	}
	return series, nil
}

func (c *Client) qido(ctx context.Context, path string) ([]qidoRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build qido request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	// QIDO answers 204 with an empty body when nothing matches.
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var records []qidoRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode qido response: %w", err)
	}
	return records, nil
}

// UploadInstance stores one DICOM instance in the PACS.
func (c *Client) UploadInstance(ctx context.Context, filename string, data []byte) (UploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return UploadResult{}, fmt.Errorf("write upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("close upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/instances", &buf)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return UploadResult{}, err
	}

	var result UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return UploadResult{}, fmt.Errorf("decode upload response: %w", err)
	}
	return result, nil
}
