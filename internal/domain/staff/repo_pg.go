package staff

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const staffCols = `id, employee_id, first_name, last_name, display_name,
	COALESCE(email, ''), role, password_hash, created_at`

func scanStaff(row pgx.Row) (*Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.EmployeeID, &s.FirstName, &s.LastName, &s.DisplayName,
		&s.Email, &s.Role, &s.PasswordHash, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Create(ctx context.Context, s *Staff) error {
	s.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO staff (id, employee_id, first_name, last_name, display_name, email, role, password_hash)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8)`,
		s.ID, s.EmployeeID, s.FirstName, s.LastName, s.DisplayName, s.Email, s.Role, s.PasswordHash)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmployeeID
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	return scanStaff(r.pool.QueryRow(ctx, `SELECT `+staffCols+` FROM staff WHERE id = $1`, id))
}

func (r *repoPG) GetByEmployeeID(ctx context.Context, employeeID string) (*Staff, error) {
	return scanStaff(r.pool.QueryRow(ctx, `SELECT `+staffCols+` FROM staff WHERE employee_id = $1`, employeeID))
}

func (r *repoPG) ListExcluding(ctx context.Context, excludeID uuid.UUID) ([]*Staff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+staffCols+` FROM staff WHERE id <> $1 ORDER BY display_name`, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
