package labresult

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrInvalidInput    = errors.New("invalid lab result")
)

type Service struct {
	repo     Repository
	patients PatientDirectory
}

func NewService(repo Repository, patients PatientDirectory) *Service {
	return &Service{repo: repo, patients: patients}
}

func (s *Service) checkPatient(ctx context.Context, patientUUID string) (uuid.UUID, error) {
	id, err := uuid.Parse(patientUUID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: patient_uuid is not a valid uuid", ErrInvalidInput)
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

// Create records one measurement. A blank unit is filled from the test
// catalog when the test is a known one.
func (s *Service) Create(ctx context.Context, in CreateInput) (*LabResult, error) {
	if in.PatientUUID == "" || in.TestName == "" || in.TestValue == nil {
		return nil, fmt.Errorf("%w: patient_uuid, test_name, and test_value are required", ErrInvalidInput)
	}
	patientID, err := s.checkPatient(ctx, in.PatientUUID)
	if err != nil {
		return nil, err
	}

	recordedAt := time.Now().UTC()
	if in.RecordedAt != "" {
		t, err := time.Parse(time.RFC3339, in.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: recorded_at must be RFC 3339", ErrInvalidInput)
		}
		recordedAt = t
	}

	unit := in.Unit
	if unit == "" {
		if catalogUnit, known := UnitForTest(in.TestName); known {
			unit = catalogUnit
		}
	}

	result := &LabResult{
		PatientID:  patientID,
		TestName:   in.TestName,
		TestValue:  *in.TestValue,
		Unit:       unit,
		Notes:      in.Notes,
		RecordedAt: recordedAt,
	}
	if err := s.repo.Create(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListByPatient returns the flat result list, test name ascending and newest
// first within a test.
func (s *Service) ListByPatient(ctx context.Context, patientUUID string) ([]*LabResult, error) {
	patientID, err := s.checkPatient(ctx, patientUUID)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []*LabResult{}
	}
	return results, nil
}

// Trend groups the patient's results into per-test series. Points are
// ascending by recorded_at with a stable order under ties, and the series
// unit is the earliest record's unit.
func (s *Service) Trend(ctx context.Context, patientUUID string) ([]*TrendSeries, error) {
	patientID, err := s.checkPatient(ctx, patientUUID)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	byTest := make(map[string][]*LabResult)
	var order []string
	for _, r := range results {
		if _, seen := byTest[r.TestName]; !seen {
			order = append(order, r.TestName)
		}
		byTest[r.TestName] = append(byTest[r.TestName], r)
	}
	sort.Strings(order)

	series := make([]*TrendSeries, 0, len(order))
	for _, testName := range order {
		records := byTest[testName]
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].RecordedAt.Before(records[j].RecordedAt)
		})

		ts := &TrendSeries{TestName: testName, Points: make([]TrendPoint, 0, len(records))}
		if len(records) > 0 {
			ts.Unit = records[0].Unit
		}
		for _, r := range records {
			ts.Points = append(ts.Points, TrendPoint{
				Value:      r.TestValue,
				Notes:      r.Notes,
				RecordedAt: r.RecordedAt,
			})
		}
		series = append(series, ts)
	}
	return series, nil
}
