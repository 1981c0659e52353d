package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Upsert inserts or replaces the row for the patient's registry id.
	Upsert(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// Search matches a uuid exactly, or any of display name, identifier,
	// given name, and family name as a case-insensitive substring. Results
	// are ordered by display name.
	Search(ctx context.Context, query string, limit, startIndex int) ([]*Patient, int, error)
}
