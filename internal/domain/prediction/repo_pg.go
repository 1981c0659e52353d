package prediction

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

const taskCols = `id, task_id, patient_id, task_type, status,
	input_data, predictions, processing_time, error_message, created_at, completed_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.TaskID, &t.PatientID, &t.Type, &t.Status,
		&t.InputData, &t.Predictions, &t.ProcessingTime, &t.ErrorMessage,
		&t.CreatedAt, &t.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) Create(ctx context.Context, t *Task) error {
	t.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO prediction_task (id, task_id, patient_id, task_type, status, input_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.TaskID, t.PatientID, t.Type, t.Status, t.InputData, t.CreatedAt)
	return err
}

func (r *repoPG) GetByTaskID(ctx context.Context, taskID uuid.UUID) (*Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		SELECT `+taskCols+` FROM prediction_task WHERE task_id = $1`, taskID))
}

func (r *repoPG) Update(ctx context.Context, t *Task) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE prediction_task
		SET status = $2, predictions = $3, processing_time = $4,
			error_message = $5, completed_at = $6
		WHERE task_id = $1`,
		t.TaskID, t.Status, t.Predictions, t.ProcessingTime, t.ErrorMessage, t.CompletedAt)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskCols+` FROM prediction_task
		WHERE patient_id = $1
		ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
