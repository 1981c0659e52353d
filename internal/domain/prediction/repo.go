package prediction

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByTaskID(ctx context.Context, taskID uuid.UUID) (*Task, error)
	// Update persists status, predictions, processing time, error message
	// and completion timestamp.
	Update(ctx context.Context, t *Task) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Task, error)
}

type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
