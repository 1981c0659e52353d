package orthanc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func qidoStudy(uid, date, description string) map[string]interface{} {
	return map[string]interface{}{
		"0020000D": map[string]interface{}{"vr": "UI", "Value": []string{uid}},
		"00080020": map[string]interface{}{"vr": "DA", "Value": []string{date}},
		"00081030": map[string]interface{}{"vr": "LO", "Value": []string{description}},
	}
}

func TestListStudies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/dicom-web/studies":
			if got := r.URL.Query().Get("PatientID"); got != "patient-1" {
				t.Errorf("unexpected PatientID %q", got)
			}
			json.NewEncoder(w).Encode([]interface{}{
				qidoStudy("1.2.3", "20240105", "Brain MRI"),
			})
		case r.URL.Path == "/dicom-web/studies/1.2.3/series":
			json.NewEncoder(w).Encode([]interface{}{
				map[string]interface{}{
					"0008103E": map[string]interface{}{"vr": "LO", "Value": []string{"T1 Axial"}},
					"00201209": map[string]interface{}{"vr": "IS", "Value": []int{24}},
				},
				map[string]interface{}{
					"0008103E": map[string]interface{}{"vr": "LO", "Value": []string{"DWI"}},
					"00201209": map[string]interface{}{"vr": "IS", "Value": []string{"18"}},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	studies, err := NewClient(srv.URL, "", "").ListStudies(context.Background(), "patient-1")
	if err != nil {
		t.Fatalf("list studies: %v", err)
	}
	if len(studies) != 1 {
		t.Fatalf("expected 1 study, got %d", len(studies))
	}
	s := studies[0]
	if s.StudyInstanceUID != "1.2.3" || s.StudyDate != "20240105" || s.StudyDescription != "Brain MRI" {
		t.Errorf("unexpected study: %+v", s)
	}
	if len(s.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(s.Series))
	}
	if s.Series[0].Description != "T1 Axial" || s.Series[0].InstanceCount != 24 {
		t.Errorf("unexpected first series: %+v", s.Series[0])
	}
	// Instance counts arrive as IS strings from some servers.
	if s.Series[1].InstanceCount != 18 {
		t.Errorf("expected string instance count parsed, got %+v", s.Series[1])
	}
}

func TestListStudies_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	studies, err := NewClient(srv.URL, "", "").ListStudies(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("list studies: %v", err)
	}
	if len(studies) != 0 {
		t.Errorf("expected no studies, got %d", len(studies))
	}
}

func TestListStudies_BasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "orthanc" || pass != "orthanc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]interface{}{})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "orthanc", "orthanc").ListStudies(context.Background(), "p"); err != nil {
		t.Fatalf("list studies with auth: %v", err)
	}
}

func TestUploadInstance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/instances" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart upload, got %s", r.Header.Get("Content-Type"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "scan.dcm" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		json.NewEncoder(w).Encode(UploadResult{ID: "inst-1", ParentStudy: "study-1", Status: "Success"})
	}))
	defer srv.Close()

	result, err := NewClient(srv.URL, "", "").UploadInstance(context.Background(), "scan.dcm", []byte("DICM-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.ID != "inst-1" || result.ParentStudy != "study-1" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestUploadInstance_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not a dicom file", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", "").UploadInstance(context.Background(), "x.dcm", []byte("junk"))
	if err == nil {
		t.Fatal("expected error")
	}
	statusErr, ok := err.(*StatusError)
	if !ok {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", statusErr.StatusCode)
	}
}
