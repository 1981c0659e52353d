// Package imaging exposes the PACS to clinicians: per-patient study listings
// and DICOM uploads. The PACS stores everything; this package keeps no local
// state beyond the patient directory check.
package imaging

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medcdss/cdss/internal/platform/orthanc"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrInvalidInput    = errors.New("invalid imaging request")
)

// PACS is the slice of the Orthanc client this package uses.
type PACS interface {
	ListStudies(ctx context.Context, patientID string) ([]orthanc.Study, error)
	UploadInstance(ctx context.Context, filename string, data []byte) (orthanc.UploadResult, error)
}

type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	pacs     PACS
	patients PatientDirectory
	retag    func(data []byte, patientID string) ([]byte, error)
	log      zerolog.Logger
}

func NewService(pacs PACS, patients PatientDirectory, log zerolog.Logger) *Service {
	return &Service{pacs: pacs, patients: patients, retag: retagPatientID, log: log}
}

func (s *Service) checkPatient(ctx context.Context, patientUUID string) (uuid.UUID, error) {
	id, err := uuid.Parse(patientUUID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: patient uuid is not a valid uuid", ErrInvalidInput)
	}
	ok, err := s.patients.Exists(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, ErrPatientNotFound
	}
	return id, nil
}

// Studies lists the patient's studies, newest study date first. QIDO study
// dates are DICOM DA strings (YYYYMMDD), so lexicographic order is
// chronological order.
func (s *Service) Studies(ctx context.Context, patientUUID string) ([]orthanc.Study, error) {
	id, err := s.checkPatient(ctx, patientUUID)
	if err != nil {
		return nil, err
	}

	studies, err := s.pacs.ListStudies(ctx, id.String())
	if err != nil {
		return nil, err
	}
	sort.SliceStable(studies, func(i, j int) bool {
		return studies[i].StudyDate > studies[j].StudyDate
	})
	if studies == nil {
		studies = []orthanc.Study{}
	}
	return studies, nil
}

// Upload re-tags the instance's PatientID with the local patient uuid and
// stores it in the PACS. The re-tag makes the QIDO listing find it again
// regardless of what identifier the modality wrote.
func (s *Service) Upload(ctx context.Context, patientUUID, filename string, data []byte) (orthanc.UploadResult, error) {
	id, err := s.checkPatient(ctx, patientUUID)
	if err != nil {
		return orthanc.UploadResult{}, err
	}
	if len(data) == 0 {
		return orthanc.UploadResult{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	retagged, err := s.retag(data, id.String())
	if err != nil {
		return orthanc.UploadResult{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	result, err := s.pacs.UploadInstance(ctx, filename, retagged)
	if err != nil {
		return orthanc.UploadResult{}, err
	}
	s.log.Info().Str("patient_id", id.String()).Str("instance", result.ID).
		Msg("stored dicom instance")
	return result, nil
}
