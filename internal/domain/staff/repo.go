package staff

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Staff) error
	GetByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*Staff, error)
	ListExcluding(ctx context.Context, excludeID uuid.UUID) ([]*Staff, error)
}
