package stroke

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Record) error
	// Latest returns the most recent record for the patient, or ErrNoRecords.
	Latest(ctx context.Context, patientID uuid.UUID) (*Record, error)
	// ListByPatient returns the patient's history in the given sort mode.
	ListByPatient(ctx context.Context, patientID uuid.UUID, sortMode string) ([]*Record, error)
}

type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
