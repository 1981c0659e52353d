package complications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNoRecords       = errors.New("no complication records")
	ErrPatientNotFound = errors.New("patient not found")
	ErrInvalidInput    = errors.New("invalid complication record")
)

const (
	noteNoChanges    = "No changes compared to the previous record."
	noteFallback     = "First record, or the previous record could not be retrieved."
	noteChangePrefix = "Changes from previous record:"
	noteFirstPrefix  = "First record. Initial status:"
	noteFirstClean   = "First record. No complications or medications noted."
)

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

// diffLines walks the flags in fixed order and describes every flip.
// Complications read diagnosed/resolved, medications started/stopped.
func diffLines(prev, curr *Record) []string {
	var lines []string
	for _, f := range flags {
		was, is := f.value(prev), f.value(curr)
		if was == is {
			continue
		}
		switch {
		case is && f.medication:
			lines = append(lines, f.label+": started")
		case is:
			lines = append(lines, f.label+": newly diagnosed")
		case f.medication:
			lines = append(lines, f.label+": stopped")
		default:
			lines = append(lines, f.label+": resolved")
		}
	}
	return lines
}

// synthesizeNote builds the timeline note for a new snapshot. The first
// record diffs against an all-false baseline.
func (s *Service) synthesizeNote(ctx context.Context, patientID uuid.UUID, rec *Record) string {
	prev, err := s.repo.Latest(ctx, patientID)
	if errors.Is(err, ErrNoRecords) {
		lines := diffLines(&Record{}, rec)
		if len(lines) == 0 {
			return noteFirstClean
		}
		return noteFirstPrefix + "\n- " + strings.Join(lines, "\n- ")
	}
	if err != nil {
		s.log.Warn().Err(err).Str("patient_id", patientID.String()).
			Msg("could not read complication history for note synthesis")
		return noteFallback
	}

	lines := diffLines(prev, rec)
	if len(lines) == 0 {
		return noteNoChanges
	}
	return noteChangePrefix + "\n- " + strings.Join(lines, "\n- ")
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Record, error) {
	if in.PatientUUID == "" {
		return nil, fmt.Errorf("%w: patient_uuid is required", ErrInvalidInput)
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

	rec := &Record{
		PatientID:                patientID,
		Sepsis:                   in.Sepsis,
		RespiratoryFailure:       in.RespiratoryFailure,
		DeepVeinThrombosis:       in.DeepVeinThrombosis,
		PulmonaryEmbolism:        in.PulmonaryEmbolism,
		UrinaryTractInfection:    in.UrinaryTractInfection,
		GastrointestinalBleeding: in.GastrointestinalBleeding,
		AnticoagulantFlag:        in.AnticoagulantFlag,
		AntiplateletFlag:         in.AntiplateletFlag,
		ThrombolyticFlag:         in.ThrombolyticFlag,
		AntihypertensiveFlag:     in.AntihypertensiveFlag,
		StatinFlag:               in.StatinFlag,
		AntibioticFlag:           in.AntibioticFlag,
		VasopressorFlag:          in.VasopressorFlag,
		Notes:                    in.Notes,
		RecordedAt:               recordedAt,
	}
	if rec.Notes == "" {
		rec.Notes = s.synthesizeNote(ctx, patientID, rec)
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) History(ctx context.Context, patientUUID, sortMode string) ([]*Record, error) {
	patientID, err := s.checkPatient(ctx, patientUUID)
	if err != nil {
		return nil, err
	}
	if sortMode != SortOldest {
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
