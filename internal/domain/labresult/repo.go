package labresult

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *LabResult) error
	// ListByPatient returns every result for the patient ordered by test
	// name ascending, then recorded_at descending.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*LabResult, error)
}

// PatientDirectory is the slice of the patient package the service needs to
// reject results for unknown patients.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
