package complications

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

const recordCols = `id, patient_id,
	sepsis, respiratory_failure, deep_vein_thrombosis, pulmonary_embolism,
	urinary_tract_infection, gastrointestinal_bleeding,
	anticoagulant_flag, antiplatelet_flag, thrombolytic_flag, antihypertensive_flag,
	statin_flag, antibiotic_flag, vasopressor_flag,
	COALESCE(notes, ''), recorded_at, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.PatientID,
		&r.Sepsis, &r.RespiratoryFailure, &r.DeepVeinThrombosis, &r.PulmonaryEmbolism,
		&r.UrinaryTractInfection, &r.GastrointestinalBleeding,
		&r.AnticoagulantFlag, &r.AntiplateletFlag, &r.ThrombolyticFlag, &r.AntihypertensiveFlag,
		&r.StatinFlag, &r.AntibioticFlag, &r.VasopressorFlag,
		&r.Notes, &r.RecordedAt, &r.CreatedAt)
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
		INSERT INTO complication_record (id, patient_id,
			sepsis, respiratory_failure, deep_vein_thrombosis, pulmonary_embolism,
			urinary_tract_infection, gastrointestinal_bleeding,
			anticoagulant_flag, antiplatelet_flag, thrombolytic_flag, antihypertensive_flag,
			statin_flag, antibiotic_flag, vasopressor_flag,
			notes, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NULLIF($16,''),$17)`,
		rec.ID, rec.PatientID,
		rec.Sepsis, rec.RespiratoryFailure, rec.DeepVeinThrombosis, rec.PulmonaryEmbolism,
		rec.UrinaryTractInfection, rec.GastrointestinalBleeding,
		rec.AnticoagulantFlag, rec.AntiplateletFlag, rec.ThrombolyticFlag, rec.AntihypertensiveFlag,
		rec.StatinFlag, rec.AntibioticFlag, rec.VasopressorFlag,
		rec.Notes, rec.RecordedAt)
	return err
}

func (r *repoPG) Latest(ctx context.Context, patientID uuid.UUID) (*Record, error) {
	return scanRecord(r.pool.QueryRow(ctx, `
		SELECT `+recordCols+` FROM complication_record
		WHERE patient_id = $1
		ORDER BY recorded_at DESC, created_at DESC
		LIMIT 1`, patientID))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, sortMode string) ([]*Record, error) {
	order := ` ORDER BY recorded_at DESC, created_at DESC`
	if sortMode == SortOldest {
		order = ` ORDER BY recorded_at ASC, created_at ASC`
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+recordCols+` FROM complication_record
		WHERE patient_id = $1`+order, patientID)
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
