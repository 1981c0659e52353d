package labresult

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const labCols = `id, patient_id, test_name, test_value, COALESCE(unit, ''),
	COALESCE(notes, ''), recorded_at, created_at`

func scanResult(row pgx.Row) (*LabResult, error) {
	var r LabResult
	err := row.Scan(&r.ID, &r.PatientID, &r.TestName, &r.TestValue, &r.Unit,
		&r.Notes, &r.RecordedAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *repoPG) Create(ctx context.Context, result *LabResult) error {
	result.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lab_result (id, patient_id, test_name, test_value, unit, notes, recorded_at)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),NULLIF($6,''),$7)`,
		result.ID, result.PatientID, result.TestName, result.TestValue,
		result.Unit, result.Notes, result.RecordedAt)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*LabResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+labCols+` FROM lab_result
		WHERE patient_id = $1
		ORDER BY test_name ASC, recorded_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*LabResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, result)
	}
	return items, rows.Err()
}
