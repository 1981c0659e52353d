package stroke

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNoRecords       = errors.New("no stroke records")
	ErrPatientNotFound = errors.New("patient not found")
	ErrInvalidInput    = errors.New("invalid stroke record")
)

// noteFallback is used when note synthesis cannot read the history. The
// submission itself still goes through.
const noteFallback = "First record, or the previous record could not be retrieved."

type Service struct {
	repo     Repository
	patients PatientDirectory
	log      zerolog.Logger
}

func NewService(repo Repository, patients PatientDirectory, log zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, log: log}
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

// synthesizeNote writes the timeline note for a new record from the previous
// one. Score comparisons read: increase is deterioration, decrease is
// improvement.
func (s *Service) synthesizeNote(ctx context.Context, patientID uuid.UUID, score int) string {
	prev, err := s.repo.Latest(ctx, patientID)
	if errors.Is(err, ErrNoRecords) {
		return fmt.Sprintf("First stroke record. Registered with NIHSS score %d.", score)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("patient_id", patientID.String()).
			Msg("could not read stroke history for note synthesis")
		return noteFallback
	}

	note := fmt.Sprintf("NIHSS score changed from %d to %d compared to the previous record.",
		prev.NIHSSScore, score)
	switch {
	case score > prev.NIHSSScore:
		note += " (score increased)"
	case score < prev.NIHSSScore:
		note += " (score decreased/improved)"
	default:
		note += " (no change)"
	}
	return note
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Record, error) {
	if in.PatientUUID == "" || in.StrokeType == "" || in.NIHSSScore == nil {
		return nil, fmt.Errorf("%w: patient_uuid, stroke_type, and nihss_score are required", ErrInvalidInput)
	}
	if !ValidType(in.StrokeType) {
		return nil, fmt.Errorf("%w: unknown stroke_type %q", ErrInvalidInput, in.StrokeType)
	}
	if *in.NIHSSScore < NIHSSMin || *in.NIHSSScore > NIHSSMax {
		return nil, fmt.Errorf("%w: nihss_score must be between %d and %d", ErrInvalidInput, NIHSSMin, NIHSSMax)
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

	var strokeDate *time.Time
	if in.StrokeDate != "" {
		t, err := time.Parse("2006-01-02", in.StrokeDate)
		if err != nil {
			return nil, fmt.Errorf("%w: stroke_date must be YYYY-MM-DD", ErrInvalidInput)
		}
		strokeDate = &t
	}

	notes := in.Notes
	if notes == "" {
		notes = s.synthesizeNote(ctx, patientID, *in.NIHSSScore)
	}

	rec := &Record{
		PatientID:            patientID,
		StrokeType:           in.StrokeType,
		NIHSSScore:           *in.NIHSSScore,
		ReperfusionTreatment: in.ReperfusionTreatment,
		ReperfusionTime:      in.ReperfusionTime,
		StrokeDate:           strokeDate,
		HoursAfterStroke:     in.HoursAfterStroke,
		Notes:                notes,
		RecordedAt:           recordedAt,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// History returns the patient's records in the requested sort mode. Unknown
// modes fall back to newest-first.
func (s *Service) History(ctx context.Context, patientUUID, sortMode string) ([]*Record, error) {
	patientID, err := s.checkPatient(ctx, patientUUID)
	if err != nil {
		return nil, err
	}
	switch sortMode {
	case SortNewest, SortOldest, SortNIHSSHigh:
	default:
		sortMode = SortNewest
	}
	records, err := s.repo.ListByPatient(ctx, patientID, sortMode)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*Record{}
	}
	return records, nil
}
