package complications

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Record) error
	// Latest returns the most recent snapshot, or ErrNoRecords.
	Latest(ctx context.Context, patientID uuid.UUID) (*Record, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, sortMode string) ([]*Record, error)
}

type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
