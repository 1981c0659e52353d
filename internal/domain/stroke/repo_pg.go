package stroke

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const recordCols = `id, patient_id, stroke_type, nihss_score, reperfusion_treatment,
	reperfusion_time, stroke_date, hours_after_stroke, COALESCE(notes, ''),
	recorded_at, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.PatientID, &r.StrokeType, &r.NIHSSScore, &r.ReperfusionTreatment,
		&r.ReperfusionTime, &r.StrokeDate, &r.HoursAfterStroke, &r.Notes,
		&r.RecordedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRecords
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO stroke_record (id, patient_id, stroke_type, nihss_score,
			reperfusion_treatment, reperfusion_time, stroke_date, hours_after_stroke,
			notes, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10)`,
		rec.ID, rec.PatientID, rec.StrokeType, rec.NIHSSScore,
		rec.ReperfusionTreatment, rec.ReperfusionTime, rec.StrokeDate, rec.HoursAfterStroke,
		rec.Notes, rec.RecordedAt)
	return err
}

func (r *repoPG) Latest(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	return scanRecord(r.pool.QueryRow(ctx, `
		SELECT `+recordCols+` FROM stroke_record
		WHERE patient_id = $1
		ORDER BY recorded_at DESC, created_at DESC
		LIMIT 1`, patientID))
}

func orderClause(sortMode string) string {
	switch sortMode {
	case SortOldest:
		return ` ORDER BY recorded_at ASC, created_at ASC`
	case SortNIHSSHigh:
		return ` ORDER BY nihss_score DESC, recorded_at DESC`
	default:
		return ` ORDER BY recorded_at DESC, created_at DESC`
	}
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, sortMode string) ([]*Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordCols+` FROM stroke_record
		WHERE patient_id = $1`+orderClause(sortMode), patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}
