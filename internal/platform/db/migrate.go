package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration is a single schema migration applied in version order.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationStatus reports whether a known migration has been applied.
type MigrationStatus struct {
	Version   int
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

// Migrations is the full ordered schema of the CDSS database. Migrations are
// embedded rather than read from disk so the binary is self-contained.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "staff_and_patients",
		SQL: `
CREATE TABLE IF NOT EXISTS staff (
    id UUID PRIMARY KEY,
    employee_id VARCHAR(16) NOT NULL UNIQUE,
    first_name VARCHAR(100) NOT NULL,
    last_name VARCHAR(100) NOT NULL,
    display_name VARCHAR(200) NOT NULL,
    email VARCHAR(254),
    role VARCHAR(20) NOT NULL,
    password_hash VARCHAR(100) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS patient (
    id UUID PRIMARY KEY,
    display_name VARCHAR(200) NOT NULL,
    given_name VARCHAR(100) NOT NULL,
    family_name VARCHAR(100) NOT NULL,
    gender VARCHAR(1) NOT NULL,
    birth_date DATE,
    address_line VARCHAR(255),
    city VARCHAR(100),
    phone VARCHAR(40),
    identifier VARCHAR(100) NOT NULL,
    raw_registry_data JSONB,
    synced_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_patient_display_name ON patient (display_name);
CREATE INDEX IF NOT EXISTS idx_patient_identifier ON patient (identifier);`,
	},
	{
		Version: 2,
		Name:    "clinical_records",
		SQL: `
CREATE TABLE IF NOT EXISTS lab_result (
    id UUID PRIMARY KEY,
    patient_id UUID NOT NULL REFERENCES patient(id) ON DELETE CASCADE,
    test_name VARCHAR(100) NOT NULL,
    test_value DOUBLE PRECISION NOT NULL,
    unit VARCHAR(50),
    notes TEXT,
    recorded_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_lab_result_patient ON lab_result (patient_id, test_name, recorded_at DESC);

CREATE TABLE IF NOT EXISTS stroke_record (
    id UUID PRIMARY KEY,
    patient_id UUID NOT NULL REFERENCES patient(id) ON DELETE CASCADE,
    stroke_type VARCHAR(32) NOT NULL,
    nihss_score INTEGER NOT NULL,
    reperfusion_treatment BOOLEAN NOT NULL DEFAULT FALSE,
    reperfusion_time DOUBLE PRECISION,
    stroke_date DATE,
    hours_after_stroke DOUBLE PRECISION,
    notes TEXT,
    recorded_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_stroke_record_patient ON stroke_record (patient_id, recorded_at);

CREATE TABLE IF NOT EXISTS complication_record (
    id UUID PRIMARY KEY,
    patient_id UUID NOT NULL REFERENCES patient(id) ON DELETE CASCADE,
    sepsis BOOLEAN NOT NULL DEFAULT FALSE,
    respiratory_failure BOOLEAN NOT NULL DEFAULT FALSE,
    deep_vein_thrombosis BOOLEAN NOT NULL DEFAULT FALSE,
    pulmonary_embolism BOOLEAN NOT NULL DEFAULT FALSE,
    urinary_tract_infection BOOLEAN NOT NULL DEFAULT FALSE,
    gastrointestinal_bleeding BOOLEAN NOT NULL DEFAULT FALSE,
    anticoagulant_flag BOOLEAN NOT NULL DEFAULT FALSE,
    antiplatelet_flag BOOLEAN NOT NULL DEFAULT FALSE,
    thrombolytic_flag BOOLEAN NOT NULL DEFAULT FALSE,
    antihypertensive_flag BOOLEAN NOT NULL DEFAULT FALSE,
    statin_flag BOOLEAN NOT NULL DEFAULT FALSE,
    antibiotic_flag BOOLEAN NOT NULL DEFAULT FALSE,
    vasopressor_flag BOOLEAN NOT NULL DEFAULT FALSE,
    notes TEXT,
    recorded_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_complication_record_patient ON complication_record (patient_id, recorded_at);`,
	},
	{
		Version: 3,
		Name:    "chat_and_predictions",
		SQL: `
CREATE TABLE IF NOT EXISTS chat_message (
    id UUID PRIMARY KEY,
    sender_id UUID NOT NULL REFERENCES staff(id) ON DELETE CASCADE,
    receiver_id UUID NOT NULL REFERENCES staff(id) ON DELETE CASCADE,
    content TEXT NOT NULL,
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_chat_message_thread ON chat_message (sender_id, receiver_id, sent_at);

CREATE TABLE IF NOT EXISTS prediction_task (
    id UUID PRIMARY KEY,
    task_id UUID NOT NULL UNIQUE,
    patient_id UUID NOT NULL REFERENCES patient(id) ON DELETE CASCADE,
    task_type VARCHAR(30) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    input_data JSONB NOT NULL,
    predictions JSONB,
    processing_time DOUBLE PRECISION,
    error_message TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_prediction_task_patient ON prediction_task (patient_id, created_at DESC);`,
	},
}

// Migrator applies the embedded migrations against a PostgreSQL database,
// tracking applied versions in a _migrations table.
type Migrator struct {
	pool *pgxpool.Pool
}

func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS _migrations (
    version INTEGER PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    applied_at TIMESTAMPTZ DEFAULT NOW()
)`)
	if err != nil {
		return fmt.Errorf("create _migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.pool.Query(ctx, `SELECT version, applied_at FROM _migrations`)
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var v int
		var at time.Time
		if err := rows.Scan(&v, &at); err != nil {
			return nil, err
		}
		applied[v] = at
	}
	return applied, rows.Err()
}

// Apply runs every pending migration in order, each in its own transaction.
func (m *Migrator) Apply(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range Migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		tx, err := m.pool.Begin(ctx)
		if err != nil {
			return count, fmt.Errorf("begin migration %d: %w", mig.Version, err)
		}
		if _, err := tx.Exec(ctx, mig.SQL); err != nil {
			tx.Rollback(ctx)
			return count, fmt.Errorf("apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO _migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name); err != nil {
			tx.Rollback(ctx)
			return count, fmt.Errorf("record migration %d: %w", mig.Version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return count, fmt.Errorf("commit migration %d: %w", mig.Version, err)
		}
		count++
	}
	return count, nil
}

// Status reports each embedded migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(Migrations))
	for _, mig := range Migrations {
		st := MigrationStatus{Version: mig.Version, Name: mig.Name}
		if at, ok := applied[mig.Version]; ok {
			st.Applied = true
			t := at
			st.AppliedAt = &t
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
