package imaging

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medcdss/cdss/internal/platform/orthanc"
)

type mockPACS struct {
	studies   []orthanc.Study
	listErr   error
	uploadErr error
	uploaded  []byte
	filename  string
	queriedID string
}

func (m *mockPACS) ListStudies(_ context.Context, patientID string) ([]orthanc.Study, error) {
	m.queriedID = patientID
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.studies, nil
}

func (m *mockPACS) UploadInstance(_ context.Context, filename string, data []byte) (orthanc.UploadResult, error) {
	if m.uploadErr != nil {
		return orthanc.UploadResult{}, m.uploadErr
	}
	m.filename = filename
	m.uploaded = data
	return orthanc.UploadResult{ID: "inst-1", Status: "Success"}, nil
}

type mockDirectory struct {
	known map[uuid.UUID]bool
}

func (m *mockDirectory) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.known[id], nil
}

func newTestService() (*Service, *mockPACS, uuid.UUID) {
	pacs := &mockPACS{}
	patientID := uuid.New()
	dir := &mockDirectory{known: map[uuid.UUID]bool{patientID: true}}
	svc := NewService(pacs, dir, zerolog.Nop())
	svc.retag = func(data []byte, id string) ([]byte, error) {
		return append([]byte(id+"|"), data...), nil
	}
	return svc, pacs, patientID
}

func TestStudies_SortedNewestFirst(t *testing.T) {
	svc, pacs, patientID := newTestService()
	pacs.studies = []orthanc.Study{
		{StudyInstanceUID: "1.2.3", StudyDate: "20240105"},
		{StudyInstanceUID: "1.2.4", StudyDate: "20240320"},
		{StudyInstanceUID: "1.2.5", StudyDate: "20231230"},
	}

	studies, err := svc.Studies(context.Background(), patientID.String())
	if err != nil {
		t.Fatalf("studies: %v", err)
	}
	if pacs.queriedID != patientID.String() {
		t.Errorf("pacs queried with %q, expected the patient uuid", pacs.queriedID)
	}
	want := []string{"1.2.4", "1.2.3", "1.2.5"}
	for i, uid := range want {
		if studies[i].StudyInstanceUID != uid {
			t.Errorf("position %d: expected %s, got %s", i, uid, studies[i].StudyInstanceUID)
		}
	}
}

func TestStudies_EmptyResult(t *testing.T) {
	svc, _, patientID := newTestService()
	studies, err := svc.Studies(context.Background(), patientID.String())
	if err != nil {
		t.Fatalf("studies: %v", err)
	}
	if studies == nil || len(studies) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", studies)
	}
}

func TestStudies_UnknownPatient(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Studies(context.Background(), uuid.NewString())
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestStudies_InvalidUUID(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Studies(context.Background(), "not-a-uuid")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpload_RetagsBeforeStoring(t *testing.T) {
	svc, pacs, patientID := newTestService()

	result, err := svc.Upload(context.Background(), patientID.String(), "ct-head.dcm", []byte("raw-instance"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.ID != "inst-1" {
		t.Errorf("unexpected result: %+v", result)
	}
	if pacs.filename != "ct-head.dcm" {
		t.Errorf("filename not forwarded, got %q", pacs.filename)
	}
	wantPrefix := patientID.String() + "|"
	if string(pacs.uploaded) != wantPrefix+"raw-instance" {
		t.Errorf("pacs must receive the re-tagged bytes, got %q", pacs.uploaded)
	}
}

func TestUpload_RejectsUnparseableInstance(t *testing.T) {
	svc, pacs, patientID := newTestService()
	svc.retag = func([]byte, string) ([]byte, error) {
		return nil, errors.New("unexpected end of data")
	}

	_, err := svc.Upload(context.Background(), patientID.String(), "broken.dcm", []byte("junk"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if pacs.uploaded != nil {
		t.Error("nothing may reach the pacs when the instance does not parse")
	}
}

func TestUpload_EmptyFile(t *testing.T) {
	svc, _, patientID := newTestService()
	_, err := svc.Upload(context.Background(), patientID.String(), "empty.dcm", nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpload_PACSError(t *testing.T) {
	svc, pacs, patientID := newTestService()
	pacs.uploadErr = &orthanc.StatusError{StatusCode: 409, Body: "already stored"}

	_, err := svc.Upload(context.Background(), patientID.String(), "dup.dcm", []byte("x"))
	var statusErr *orthanc.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != 409 {
		t.Errorf("expected pacs status error to surface, got %v", err)
	}
}
