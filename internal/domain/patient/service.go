package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medcdss/cdss/internal/platform/registry"
	"github.com/medcdss/cdss/internal/platform/websocket"
)

var (
	ErrNotFound     = errors.New("patient not found")
	ErrInvalidInput = errors.New("invalid patient registration")
)

// Registry is the slice of the registry client the directory needs.
type Registry interface {
	Sync(ctx context.Context, query string, limitPerCall, maxTotal int, upsert func(registry.Patient) error) (int, error)
	GetPatient(ctx context.Context, patientUUID string) (registry.Patient, error)
	CreatePatient(ctx context.Context, np registry.NewPatient) (registry.Patient, error)
}

// SyncConfig carries the server's default sync parameters.
type SyncConfig struct {
	Query string
	Limit int
	Max   int
}

type Service struct {
	repo     Repository
	registry Registry
	events   websocket.Publisher
	syncCfg  SyncConfig
	log      zerolog.Logger
}

func NewService(repo Repository, reg Registry, events websocket.Publisher, syncCfg SyncConfig, log zerolog.Logger) *Service {
	return &Service{repo: repo, registry: reg, events: events, syncCfg: syncCfg, log: log}
}

// Search lists the local directory.
func (s *Service) Search(ctx context.Context, query string, limit, startIndex int) (*ListResult, error) {
	patients, total, err := s.repo.Search(ctx, query, limit, startIndex)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Results: make([]Summary, 0, len(patients)), TotalCount: total}
	for _, p := range patients {
		result.Results = append(result.Results, p.Summary())
	}
	return result, nil
}

// fromRegistry maps a registry document onto a local row.
func fromRegistry(rp registry.Patient) (*Patient, error) {
	id, err := uuid.Parse(rp.UUID)
	if err != nil {
		return nil, fmt.Errorf("registry patient %q has an invalid uuid: %w", rp.UUID, err)
	}
	return &Patient{
		ID:              id,
		DisplayName:     rp.Display,
		GivenName:       rp.GivenName,
		FamilyName:      rp.FamilyName,
		Gender:          rp.Gender,
		BirthDate:       parseBirthDate(rp.BirthDate),
		Identifier:      rp.Identifier,
		RawRegistryData: rp.Raw,
	}, nil
}

// SyncAndList refreshes the directory from the registry and then lists it.
// A sync failure does not fail the listing: the local data may be stale but
// it is still served, with the failure reported in sync_error_detail.
func (s *Service) SyncAndList(ctx context.Context, syncQuery, listQuery string, limit, startIndex int) (*ListResult, error) {
	if syncQuery == "" {
		syncQuery = s.syncCfg.Query
	}

	syncErrorDetail := ""
	synced, err := s.registry.Sync(ctx, syncQuery, s.syncCfg.Limit, s.syncCfg.Max, func(rp registry.Patient) error {
		p, err := fromRegistry(rp)
		if err != nil {
			return err
		}
		return s.repo.Upsert(ctx, p)
	})
	if err != nil {
		syncErrorDetail = fmt.Sprintf("Error during registry sync: %s", err)
		s.log.Warn().Err(err).Int("synced", synced).Msg("registry sync failed, serving local directory")
	} else {
		s.log.Info().Int("synced", synced).Str("query", syncQuery).Msg("registry sync finished")
	}

	result, err := s.Search(ctx, listQuery, limit, startIndex)
	if err != nil {
		return nil, err
	}
	result.SyncErrorDetail = syncErrorDetail
	return result, nil
}

// Get returns the full registry document for one patient. The stored
// document is served when present; otherwise the registry is asked and the
// answer cached locally.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err == nil && len(p.RawRegistryData) > 0 {
		return p, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rp, err := s.registry.GetPatient(ctx, id.String())
	if err != nil {
		return nil, err
	}
	fetched, err := fromRegistry(rp)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, fetched); err != nil {
		// The caller still gets the document; only the cache write failed.
		s.log.Warn().Err(err).Str("patient_id", id.String()).Msg("failed to cache registry document")
	}
	return fetched, nil
}

// Exists reports whether the patient is present in the local directory.
// Clinical packages use this to reject records for unknown patients.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Register creates the patient in the registry and mirrors the result
// locally. The registry response is authoritative: the stored identifier is
// the first one the registry reports, not necessarily what was submitted.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Patient, error) {
	if in.GivenName == "" || in.FamilyName == "" || in.Gender == "" || in.BirthDate == "" || in.Identifier == "" {
		return nil, fmt.Errorf("%w: givenName, familyName, gender, birthdate, and identifier are required", ErrInvalidInput)
	}

	rp, err := s.registry.CreatePatient(ctx, registry.NewPatient{
		GivenName:   in.GivenName,
		FamilyName:  in.FamilyName,
		Gender:      in.Gender,
		BirthDate:   in.BirthDate,
		Identifier:  in.Identifier,
		AddressLine: in.AddressLine,
		City:        in.City,
		Phone:       in.Phone,
	})
	if err != nil {
		return nil, err
	}

	created, err := fromRegistry(rp)
	if err != nil {
		return nil, err
	}
	if created.Identifier == "" {
		created.Identifier = in.Identifier
	}
	created.AddressLine = in.AddressLine
	created.City = in.City
	created.Phone = in.Phone

	if err := s.repo.Upsert(ctx, created); err != nil {
		// The registry row exists either way; report the local failure.
		return nil, fmt.Errorf("patient created in registry but local save failed: %w", err)
	}

	s.events.Publish(ctx, websocket.NewEvent(
		websocket.EventPatientRegistered, websocket.TopicPatients, created.Summary()))
	return created, nil
}
