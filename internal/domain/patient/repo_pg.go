package patient

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientCols = `id, display_name, given_name, family_name, gender, birth_date,
	COALESCE(address_line, ''), COALESCE(city, ''), COALESCE(phone, ''),
	identifier, raw_registry_data, synced_at, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.DisplayName, &p.GivenName, &p.FamilyName, &p.Gender,
		&p.BirthDate, &p.AddressLine, &p.City, &p.Phone,
		&p.Identifier, &p.RawRegistryData, &p.SyncedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Upsert(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient (id, display_name, given_name, family_name, gender, birth_date,
			address_line, city, phone, identifier, raw_registry_data, synced_at)
		VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),NULLIF($8,''),NULLIF($9,''),$10,$11,NOW())
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			given_name = EXCLUDED.given_name,
			family_name = EXCLUDED.family_name,
			gender = EXCLUDED.gender,
			birth_date = EXCLUDED.birth_date,
			address_line = COALESCE(EXCLUDED.address_line, patient.address_line),
			city = COALESCE(EXCLUDED.city, patient.city),
			phone = COALESCE(EXCLUDED.phone, patient.phone),
			identifier = EXCLUDED.identifier,
			raw_registry_data = EXCLUDED.raw_registry_data,
			synced_at = NOW(),
			updated_at = NOW()`,
		p.ID, p.DisplayName, p.GivenName, p.FamilyName, p.Gender, p.BirthDate,
		p.AddressLine, p.City, p.Phone, p.Identifier, p.RawRegistryData)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) Search(ctx context.Context, query string, limit, startIndex int) ([]*Patient, int, error) {
	where := ``
	args := []interface{}{}
	if query != "" {
		if id, err := uuid.Parse(query); err == nil {
			where = ` WHERE id = $1`
			args = append(args, id)
		} else {
			where = ` WHERE display_name ILIKE $1 OR identifier ILIKE $1
				OR given_name ILIKE $1 OR family_name ILIKE $1`
			args = append(args, "%"+query+"%")
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	rows, err := r.pool.Query(ctx,
		`SELECT `+patientCols+` FROM patient`+where+
			` ORDER BY display_name LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2),
		append(args, limit, startIndex)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
